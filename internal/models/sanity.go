package models

import "slices"

// SanityChannel names one of the tracked sanity meters.
type SanityChannel string

const (
	// SanityOverall is the single meter of the legacy game mode.
	SanityOverall    SanityChannel = "overall"
	SanityCognitive  SanityChannel = "cognitive"
	SanityEmotional  SanityChannel = "emotional"
	SanityPerceptual SanityChannel = "perceptual"
)

const (
	SanityMin = 0
	SanityMax = 100
)

// SanityState holds one legacy meter or the three trinity meters. Values are always clamped to [0,100].
type SanityState struct {
	Values map[SanityChannel]int `json:"values"`
}

// NewLegacySanity creates a single-meter state at full sanity.
func NewLegacySanity() SanityState {
	return SanityState{Values: map[SanityChannel]int{SanityOverall: SanityMax}}
}

// NewTrinitySanity creates the cognitive, emotional and perceptual meters at full sanity.
func NewTrinitySanity() SanityState {
	return SanityState{Values: map[SanityChannel]int{
		SanityCognitive:  SanityMax,
		SanityEmotional:  SanityMax,
		SanityPerceptual: SanityMax,
	}}
}

// IsTrinity reports whether the state tracks the three separate meters.
func (s SanityState) IsTrinity() bool {
	_, ok := s.Values[SanityOverall]
	return !ok && len(s.Values) > 0
}

// Channels returns the tracked channels in a stable order.
func (s SanityState) Channels() []SanityChannel {
	channels := make([]SanityChannel, 0, len(s.Values))
	for ch := range s.Values {
		channels = append(channels, ch)
	}
	slices.Sort(channels)
	return channels
}

// Has reports whether ch is tracked.
func (s SanityState) Has(ch SanityChannel) bool {
	_, ok := s.Values[ch]
	return ok
}

// Get returns the value of ch, or the overall value when ch is [SanityOverall] in trinity mode.
func (s SanityState) Get(ch SanityChannel) int {
	if v, ok := s.Values[ch]; ok {
		return v
	}
	if ch == SanityOverall {
		return s.Overall()
	}
	return SanityMax
}

// Set stores v clamped to [0,100]. Setting an untracked channel is a no-op and returns false.
func (s *SanityState) Set(ch SanityChannel, v int) bool {
	if !s.Has(ch) {
		return false
	}
	s.Values[ch] = ClampSanity(v)
	return true
}

// Overall is the legacy meter or, in trinity mode, the integer mean of the three meters.
func (s SanityState) Overall() int {
	if v, ok := s.Values[SanityOverall]; ok {
		return v
	}
	if len(s.Values) == 0 {
		return SanityMax
	}
	sum := 0
	for _, v := range s.Values {
		sum += v
	}
	return sum / len(s.Values)
}

// Reset sets every tracked meter back to full sanity.
func (s *SanityState) Reset() {
	for ch := range s.Values {
		s.Values[ch] = SanityMax
	}
}

// Clone returns a deep copy.
func (s SanityState) Clone() SanityState {
	values := make(map[SanityChannel]int, len(s.Values))
	for ch, v := range s.Values {
		values[ch] = v
	}
	return SanityState{Values: values}
}

// ClampSanity clamps v to [0,100].
func ClampSanity(v int) int {
	return min(max(v, SanityMin), SanityMax)
}
