package game

import (
	"sync"

	"github.com/myrjola/unsolved/internal/broker"
	"github.com/myrjola/unsolved/internal/models"
	"github.com/myrjola/unsolved/internal/mood"
)

// Audio plays music layers and whispers.
type Audio interface {
	SetMood(m models.Mood)
	UpdateSanityEffects(sanity int)
	Whisper(text string)
}

// Overlay draws the darkness and glitches on top of the scene.
type Overlay interface {
	SetOverlay(opacity float64, intensity models.Intensity)
	TriggerGlitch()
}

// Messages shows in-fiction developer messages.
type Messages interface {
	DeveloperMessage(text string)
}

// EventKind names what an Event asks a renderer to do.
type EventKind string

const (
	EventMood             EventKind = "mood"
	EventSanityEffects    EventKind = "sanity_effects"
	EventWhisper          EventKind = "whisper"
	EventOverlay          EventKind = "overlay"
	EventGlitch           EventKind = "glitch"
	EventDeveloperMessage EventKind = "developer_message"
)

// Event is one presentation intent. Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind
	Mood models.Mood
	// Layers are the music tracks of Mood.
	Layers    []mood.Layer
	Sanity    int
	Opacity   float64
	Intensity models.Intensity
	Text      string
}

// BrokerPresenter implements Audio, Overlay and Messages by publishing events that renderers subscribe to.
type BrokerPresenter struct {
	broker *broker.Broker[Event]
}

func NewBrokerPresenter(b *broker.Broker[Event]) *BrokerPresenter {
	return &BrokerPresenter{broker: b}
}

func (p *BrokerPresenter) SetMood(m models.Mood) {
	p.broker.Publish(moodEvent(m))
}

func moodEvent(m models.Mood) Event {
	return Event{Kind: EventMood, Mood: m, Layers: mood.Layers(m)}
}

func (p *BrokerPresenter) UpdateSanityEffects(sanity int) {
	p.broker.Publish(Event{Kind: EventSanityEffects, Sanity: sanity})
}

func (p *BrokerPresenter) Whisper(text string) {
	p.broker.Publish(Event{Kind: EventWhisper, Text: text})
}

func (p *BrokerPresenter) SetOverlay(opacity float64, intensity models.Intensity) {
	p.broker.Publish(Event{Kind: EventOverlay, Opacity: opacity, Intensity: intensity})
}

func (p *BrokerPresenter) TriggerGlitch() {
	p.broker.Publish(Event{Kind: EventGlitch})
}

func (p *BrokerPresenter) DeveloperMessage(text string) {
	p.broker.Publish(Event{Kind: EventDeveloperMessage, Text: text})
}

// Recorder implements Audio, Overlay and Messages by keeping every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfKind returns the recorded events of kind.
func (r *Recorder) OfKind(kind EventKind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Reset forgets every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *Recorder) SetMood(m models.Mood) { r.record(moodEvent(m)) }

func (r *Recorder) UpdateSanityEffects(sanity int) {
	r.record(Event{Kind: EventSanityEffects, Sanity: sanity})
}

func (r *Recorder) Whisper(text string) { r.record(Event{Kind: EventWhisper, Text: text}) }

func (r *Recorder) SetOverlay(opacity float64, intensity models.Intensity) {
	r.record(Event{Kind: EventOverlay, Opacity: opacity, Intensity: intensity})
}

func (r *Recorder) TriggerGlitch() { r.record(Event{Kind: EventGlitch}) }

func (r *Recorder) DeveloperMessage(text string) {
	r.record(Event{Kind: EventDeveloperMessage, Text: text})
}
