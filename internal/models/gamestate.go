package models

import (
	"maps"
	"slices"
)

// CaseProgress tracks how far the player got in one case.
type CaseProgress struct {
	Solved              bool     `json:"solved"`
	EvidenceCollected   []string `json:"evidenceCollected"`
	SuspectsInterviewed []string `json:"suspectsInterviewed"`
}

// GameState is every persistable field of a running game. It is owned by the game controller.
type GameState struct {
	Sanity                 SanityState              `json:"sanity"`
	Chosen                 []string                 `json:"chosen"`
	VisitedTopics          []string                 `json:"visitedTopics"`
	HallucinationTriggered bool                     `json:"hallucinationTriggered"`
	CurrentCase            string                   `json:"currentCase"`
	CollectedEvidence      []string                 `json:"collectedEvidence"`
	Achievements           []string                 `json:"achievements"`
	CaseProgress           map[string]CaseProgress  `json:"caseProgress"`
	SoundEnabled           bool                     `json:"soundEnabled"`
	TTSEnabled             bool                     `json:"ttsEnabled"`
	CorruptionWarning      bool                     `json:"corruptionWarning"`
	SuspectMemory          map[string]SuspectRecord `json:"suspectMemory"`
	// EvidenceInteractions counts how often each evidence of the current case was opened.
	EvidenceInteractions map[string]int `json:"evidenceInteractions"`
}

// NewGameState creates the state of a fresh game. Collections are never nil so that a JSON round trip
// reproduces the value exactly.
func NewGameState(sanity SanityState) GameState {
	return GameState{
		Sanity:            sanity,
		Chosen:            []string{},
		VisitedTopics:     []string{},
		CollectedEvidence: []string{},
		Achievements:      []string{},
		CaseProgress:      map[string]CaseProgress{},
		SoundEnabled:      true,
		TTSEnabled:        false,
		SuspectMemory:     map[string]SuspectRecord{},

		EvidenceInteractions: map[string]int{},
	}
}

// Normalize replaces nil collections with empty ones and sorts the achievement set.
func (g *GameState) Normalize() {
	if g.Sanity.Values == nil {
		g.Sanity = NewLegacySanity()
	}
	if g.Chosen == nil {
		g.Chosen = []string{}
	}
	if g.VisitedTopics == nil {
		g.VisitedTopics = []string{}
	}
	if g.CollectedEvidence == nil {
		g.CollectedEvidence = []string{}
	}
	if g.Achievements == nil {
		g.Achievements = []string{}
	}
	slices.Sort(g.Achievements)
	g.Achievements = slices.Compact(g.Achievements)
	if g.CaseProgress == nil {
		g.CaseProgress = map[string]CaseProgress{}
	}
	for id, p := range g.CaseProgress {
		if p.EvidenceCollected == nil {
			p.EvidenceCollected = []string{}
		}
		if p.SuspectsInterviewed == nil {
			p.SuspectsInterviewed = []string{}
		}
		g.CaseProgress[id] = p
	}
	if g.SuspectMemory == nil {
		g.SuspectMemory = map[string]SuspectRecord{}
	}
	for id, r := range g.SuspectMemory {
		if r.Topics == nil {
			r.Topics = map[string]TopicMemory{}
		}
		g.SuspectMemory[id] = r
	}
	if g.EvidenceInteractions == nil {
		g.EvidenceInteractions = map[string]int{}
	}
}

// AddAchievement inserts id into the sorted achievement set. It reports false if it was already present.
func (g *GameState) AddAchievement(id string) bool {
	i, found := slices.BinarySearch(g.Achievements, id)
	if found {
		return false
	}
	g.Achievements = slices.Insert(g.Achievements, i, id)
	return true
}

// Progress returns the progress of caseID, creating an empty entry when missing.
func (g *GameState) Progress(caseID string) CaseProgress {
	p, ok := g.CaseProgress[caseID]
	if !ok {
		p = CaseProgress{EvidenceCollected: []string{}, SuspectsInterviewed: []string{}}
		g.CaseProgress[caseID] = p
	}
	return p
}

// Clone returns a deep copy.
func (g GameState) Clone() GameState {
	c := g
	c.Sanity = g.Sanity.Clone()
	c.Chosen = slices.Clone(g.Chosen)
	c.VisitedTopics = slices.Clone(g.VisitedTopics)
	c.CollectedEvidence = slices.Clone(g.CollectedEvidence)
	c.Achievements = slices.Clone(g.Achievements)
	c.CaseProgress = make(map[string]CaseProgress, len(g.CaseProgress))
	for id, p := range g.CaseProgress {
		c.CaseProgress[id] = CaseProgress{
			Solved:              p.Solved,
			EvidenceCollected:   slices.Clone(p.EvidenceCollected),
			SuspectsInterviewed: slices.Clone(p.SuspectsInterviewed),
		}
	}
	c.SuspectMemory = make(map[string]SuspectRecord, len(g.SuspectMemory))
	for id, r := range g.SuspectMemory {
		c.SuspectMemory[id] = r.Clone()
	}
	c.EvidenceInteractions = maps.Clone(g.EvidenceInteractions)
	c.Normalize()
	return c
}
