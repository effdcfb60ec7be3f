package cases

import (
	"strings"

	"github.com/myrjola/unsolved/internal/random"
)

// EvidenceType is the closed set of ways evidence is presented.
type EvidenceType string

const (
	EvidenceNormal    EvidenceType = "normal"
	EvidenceEncrypted EvidenceType = "encrypted"
	EvidenceScratched EvidenceType = "scratched"
	EvidenceDNA       EvidenceType = "dna"
)

// Valid reports whether t is one of the known evidence types.
func (t EvidenceType) Valid() bool {
	switch t {
	case EvidenceNormal, EvidenceEncrypted, EvidenceScratched, EvidenceDNA:
		return true
	}
	return false
}

func (t EvidenceType) Icon() string {
	switch t {
	case EvidenceEncrypted:
		return "🔐"
	case EvidenceScratched:
		return "🔍"
	case EvidenceDNA:
		return "🧬"
	case EvidenceNormal:
		return "📄"
	}
	return "📄"
}

type Evidence struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        EvidenceType `json:"type"`
	Description string       `json:"description"`
}

// Presentation is how evidence is shown before the player works on it.
type Presentation struct {
	Title string
	// Text is the readable or ciphered body.
	Text string
	// Fragments are the sentences of scratched documents, in the correct order.
	Fragments []string
	// Redacted marks DNA reports whose matches stay hidden until revealed.
	Redacted bool
	// Mutated marks text in which some words were replaced by glitch words.
	Mutated bool
	// Hostile marks evidence that attacks the player the next time it is opened.
	Hostile bool
}

// Present renders e according to its type.
func (e Evidence) Present() Presentation {
	p := Presentation{Title: e.Type.Icon() + " " + e.Name}
	switch e.Type {
	case EvidenceEncrypted:
		p.Text = Encrypt(e.Description)
	case EvidenceScratched:
		p.Fragments = Fragments(e.Description)
	case EvidenceDNA:
		p.Text = e.Description
		p.Redacted = true
	case EvidenceNormal:
		p.Text = e.Description
	}
	return p
}

const (
	plainAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	cipherAlphabet = "XKLMNOPQRSTUVWJYZABCDEFGHI"
)

// Encrypt applies the substitution cipher of encrypted evidence. The text is upper-cased first and characters
// outside A-Z are kept as they are.
func Encrypt(text string) string {
	return substitute(strings.ToUpper(text), plainAlphabet, cipherAlphabet)
}

func substitute(text, from, to string) string {
	return strings.Map(func(r rune) rune {
		if i := strings.IndexRune(from, r); i >= 0 {
			return rune(to[i])
		}
		return r
	}, text)
}

// Fragments splits a scratched document into its sentences.
func Fragments(text string) []string {
	var fragments []string
	for _, s := range strings.Split(text, ". ") {
		if s = strings.TrimSpace(s); s != "" {
			fragments = append(fragments, s)
		}
	}
	return fragments
}

// Evidence comes alive when it is opened too often.
const (
	// MutatingAfter is the number of openings after which the text starts to mutate.
	MutatingAfter = 6
	// HostileAfter is the number of openings after which the evidence turns hostile.
	HostileAfter = 11
	// MutationChance is the probability that a word is replaced by a glitch word.
	MutationChance = 0.1
	// HostileTitle is shown on hostile evidence.
	HostileTitle = "This file is watching you..."
)

var glitchWords = []string{"[[error]]", "███", "what did you see?", "he's behind you", "I know your name", "🕯️"}

// Stage is what repeated handling has done to evidence.
type Stage struct {
	Mutating bool
	Hostile  bool
	// Attacks is set when the evidence was already hostile before this opening.
	Attacks bool
}

// StageAt returns the stage of evidence opened for the n-th time.
func StageAt(n int) Stage {
	return Stage{
		Mutating: n > MutatingAfter,
		Hostile:  n > HostileAfter,
		Attacks:  n-1 > HostileAfter,
	}
}

// Evolve applies stage to p. Mutating evidence has each word of its text replaced by a glitch word with
// [MutationChance].
func (p Presentation) Evolve(stage Stage, rng random.Source) Presentation {
	if stage.Mutating {
		p.Text = mutate(p.Text, rng)
		fragments := make([]string, len(p.Fragments))
		for i, f := range p.Fragments {
			fragments[i] = mutate(f, rng)
		}
		p.Fragments = fragments
		p.Mutated = true
	}
	if stage.Hostile {
		p.Hostile = true
		p.Title += " (" + HostileTitle + ")"
	}
	return p
}

func mutate(text string, rng random.Source) string {
	if text == "" {
		return text
	}
	words := strings.Split(text, " ")
	for i := range words {
		if rng.Float64() < MutationChance {
			words[i] = glitchWords[rng.IntN(len(glitchWords))]
		}
	}
	return strings.Join(words, " ")
}
