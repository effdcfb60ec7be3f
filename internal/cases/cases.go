// Package cases holds the built-in case catalog: suspects and their topic responses, evidence and solutions.
package cases

import (
	"context"
	_ "embed"
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/myrjola/unsolved/internal/errors"
)

//go:embed cases.json
var catalogJSON []byte

var (
	ErrUnknownCase     = errors.NewSentinel("unknown case")
	ErrUnknownSuspect  = errors.NewSentinel("unknown suspect")
	ErrUnknownEvidence = errors.NewSentinel("unknown evidence")
	ErrInvalidCatalog  = errors.NewSentinel("invalid case catalog")
)

// Topic is one subject a suspect can be asked about.
type Topic struct {
	Topic    string `json:"topic"`
	Response string `json:"response"`
}

type Suspect struct {
	Name   string  `json:"name"`
	Role   string  `json:"role"`
	Topics []Topic `json:"topics"`
}

// TopicNames lists the suspect's topics in catalog order.
func (s Suspect) TopicNames() []string {
	names := make([]string, 0, len(s.Topics))
	for _, t := range s.Topics {
		names = append(names, t.Topic)
	}
	return names
}

type Solution struct {
	Killer string `json:"killer"`
	Motive string `json:"motive"`
}

type Case struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Difficulty  string     `json:"difficulty"`
	Description string     `json:"description"`
	Victim      string     `json:"victim"`
	Suspects    []Suspect  `json:"suspects"`
	Evidence    []Evidence `json:"evidence"`
	Solution    Solution   `json:"solution"`
}

// Suspect looks up a suspect by name.
func (c *Case) Suspect(name string) (Suspect, error) {
	i := slices.IndexFunc(c.Suspects, func(s Suspect) bool { return s.Name == name })
	if i < 0 {
		return Suspect{}, errors.Wrap(ErrUnknownSuspect, "find suspect",
			slog.String("case", c.ID), slog.String("suspect", name))
	}
	return c.Suspects[i], nil
}

// FindEvidence looks up evidence by id.
func (c *Case) FindEvidence(id string) (Evidence, error) {
	i := slices.IndexFunc(c.Evidence, func(e Evidence) bool { return e.ID == id })
	if i < 0 {
		return Evidence{}, errors.Wrap(ErrUnknownEvidence, "find evidence",
			slog.String("case", c.ID), slog.String("evidence", id))
	}
	return c.Evidence[i], nil
}

// IsCulprit reports whether accusing suspect solves the case.
func (c *Case) IsCulprit(suspect string) bool {
	return c.Solution.Killer == suspect
}

// BaseResponse returns what suspect says about topic the first time it comes up. ok is false for unknown
// suspects and topics.
func (c *Case) BaseResponse(_ context.Context, suspect, topic string) (string, bool, error) {
	s, err := c.Suspect(suspect)
	if err != nil {
		return "", false, nil //nolint:nilerr // unknown suspects fall back to the default response
	}
	for _, t := range s.Topics {
		if t.Topic == topic {
			return t.Response, true, nil
		}
	}
	return "", false, nil
}

// Catalog is the immutable set of playable cases.
type Catalog struct {
	cases []*Case
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(catalogJSON)
}

// Parse decodes and validates a catalog.
func Parse(data []byte) (*Catalog, error) {
	var cases []*Case
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, errors.Wrap(err, "decode case catalog")
	}
	for _, c := range cases {
		if err := validate(c); err != nil {
			return nil, err
		}
	}
	return &Catalog{cases: cases}, nil
}

func validate(c *Case) error {
	invalid := func(reason string) error {
		return errors.Wrap(ErrInvalidCatalog, reason, slog.String("case", c.ID))
	}
	if c.ID == "" {
		return invalid("case without id")
	}
	if len(c.Suspects) == 0 {
		return invalid("case without suspects")
	}
	if _, err := c.Suspect(c.Solution.Killer); err != nil {
		return invalid("killer is not a suspect")
	}
	for _, e := range c.Evidence {
		if !e.Type.Valid() {
			return errors.Wrap(ErrInvalidCatalog, "unknown evidence type",
				slog.String("case", c.ID), slog.String("evidence", e.ID), slog.String("type", string(e.Type)))
		}
	}
	return nil
}

// Cases returns all cases in catalog order.
func (cat *Catalog) Cases() []*Case {
	return slices.Clone(cat.cases)
}

// Case looks up a case by id.
func (cat *Catalog) Case(id string) (*Case, error) {
	i := slices.IndexFunc(cat.cases, func(c *Case) bool { return c.ID == id })
	if i < 0 {
		return nil, errors.Wrap(ErrUnknownCase, "find case", slog.String("case", id))
	}
	return cat.cases[i], nil
}
