package game

import (
	"context"
	"log/slog"
	"slices"

	"github.com/myrjola/unsolved/internal/errors"
	"github.com/myrjola/unsolved/internal/models"
	"github.com/myrjola/unsolved/internal/suspects"
)

// Topics lists what suspect can be asked about in the case in progress.
func (c *Controller) Topics(suspect string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ready(); err != nil {
		return nil, err
	}
	s, err := c.current.Suspect(suspect)
	if err != nil {
		return nil, err
	}
	return s.TopicNames(), nil
}

// DiscussTopic asks suspect about topic, opening an interview if none is open. A new answer is fetched from
// the response source without holding the game lock, so the periodic tasks keep running meanwhile.
func (c *Controller) DiscussTopic(ctx context.Context, suspect, topic string) (suspects.Reply, error) {
	c.mu.Lock()
	if err := c.ready(); err != nil {
		c.mu.Unlock()
		return suspects.Reply{}, err
	}
	if _, err := c.current.Suspect(suspect); err != nil {
		c.mu.Unlock()
		return suspects.Reply{}, err
	}
	caseID := c.current.ID
	known := c.suspects.Known(suspect, topic)
	source := c.suspects.Source()
	c.mu.Unlock()

	var base string
	if !known {
		base = c.suspects.Resolve(ctx, source, suspect, topic)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ready(); err != nil {
		return suspects.Reply{}, err
	}
	if c.current.ID != caseID {
		return suspects.Reply{}, errors.Wrap(ErrCaseChanged, "discuss topic",
			slog.String("case", caseID), slog.String("suspect", suspect))
	}
	reply, err := c.suspects.Answer(ctx, suspect, topic, base)
	if err != nil {
		return suspects.Reply{}, err
	}

	visited := suspect + ":" + topic
	if !slices.Contains(c.state.VisitedTopics, visited) {
		c.state.VisitedTopics = append(c.state.VisitedTopics, visited)
	}
	progress := c.state.Progress(c.current.ID)
	if !slices.Contains(progress.SuspectsInterviewed, suspect) {
		progress.SuspectsInterviewed = append(progress.SuspectsInterviewed, suspect)
		c.state.CaseProgress[c.current.ID] = progress
	}
	if reply.LieDetected {
		c.logger.LogAttrs(ctx, slog.LevelInfo, "lie detected",
			slog.String("suspect", suspect), slog.String("topic", topic))
	}
	return reply, nil
}

// EndInterview commits the open interview with suspect to the suspect's record.
func (c *Controller) EndInterview(ctx context.Context, suspect string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	c.suspects.EndInterview(ctx, suspect)
	return nil
}

// SuspectRecord returns what suspect remembers.
func (c *Controller) SuspectRecord(suspect string) models.SuspectRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suspects.Record(suspect)
}

// SetSuspectEmotion applies a narrative emotion to suspect.
func (c *Controller) SetSuspectEmotion(suspect string, e models.Emotion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspects.SetEmotion(suspect, e)
}
