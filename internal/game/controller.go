// Package game wires the clock, sanity, suspects and save components into one running game and owns its
// state.
package game

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/unsolved/internal/cases"
	"github.com/myrjola/unsolved/internal/clock"
	"github.com/myrjola/unsolved/internal/errors"
	"github.com/myrjola/unsolved/internal/kvstore"
	"github.com/myrjola/unsolved/internal/logging"
	"github.com/myrjola/unsolved/internal/metrics"
	"github.com/myrjola/unsolved/internal/models"
	"github.com/myrjola/unsolved/internal/mood"
	"github.com/myrjola/unsolved/internal/random"
	"github.com/myrjola/unsolved/internal/sanity"
	"github.com/myrjola/unsolved/internal/saves"
	"github.com/myrjola/unsolved/internal/scheduler"
	"github.com/myrjola/unsolved/internal/scumguard"
	"github.com/myrjola/unsolved/internal/suspects"
)

var (
	ErrDestroyed = errors.NewSentinel("game destroyed")
	ErrNoCase    = errors.NewSentinel("no case in progress")
	// ErrCaseChanged is returned when another case started while a suspect was answering.
	ErrCaseChanged = errors.NewSentinel("case changed")
)

// Task intervals.
const (
	ClockInterval    = time.Minute
	MonitorInterval  = time.Second
	AutosaveInterval = 30 * time.Second
	GlitchInterval   = 3 * time.Second
	GlitchChance     = 0.1
)

// CorruptionAcceptedMessage is shown when the player keeps playing on a damaged save.
const CorruptionAcceptedMessage = "You're playing with corrupted data. Expect glitches and instability."

// ResponseWrapper decorates the response source of a case, e.g., to let a language model voice the suspects.
type ResponseWrapper func(c *cases.Case) suspects.ResponseSource

// Dependencies are the collaborators of a Controller. Nil presentation collaborators are replaced by a
// [Recorder].
type Dependencies struct {
	Store    kvstore.Store
	RNG      random.Source
	Metrics  *metrics.GameMetrics
	Catalog  *cases.Catalog
	Now      func() time.Time
	Audio    Audio
	Overlay  Overlay
	Messages Messages
	// Responses wraps the case facts before suspects answer with them. Optional.
	Responses ResponseWrapper
}

type Options struct {
	StartHour float64
	Sanity    models.SanityState
	Saves     saves.Options
}

// Accusation is the outcome of accusing a suspect.
type Accusation struct {
	Suspect string
	Correct bool
	Message string
}

// Controller is a running game. All state mutation is serialized by one mutex; the periodic tasks run through a
// virtual-time scheduler.
type Controller struct {
	SessionID uuid.UUID

	logger    *slog.Logger
	audio     Audio
	overlay   Overlay
	messages  Messages
	rng       random.Source
	metrics   *metrics.GameMetrics
	catalog   *cases.Catalog
	responses ResponseWrapper
	codec     *saves.Codec
	guard     *scumguard.Guard
	scheduler *scheduler.Scheduler

	mu         sync.Mutex
	state      models.GameState
	clock      *clock.Clock
	mood       mood.Tracker
	sanity     *sanity.Engine
	suspects   *suspects.Memory
	current    *cases.Case
	lastSanity int
	destroyed  bool
}

func New(ctx context.Context, logger *slog.Logger, deps Dependencies, opts Options) (*Controller, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.RNG == nil {
		deps.RNG = random.NewSource()
	}
	recorder := &Recorder{}
	if deps.Audio == nil {
		deps.Audio = recorder
	}
	if deps.Overlay == nil {
		deps.Overlay = recorder
	}
	if deps.Messages == nil {
		deps.Messages = recorder
	}
	if opts.Sanity.Values == nil {
		opts.Sanity = models.NewLegacySanity()
	}

	sessionID := uuid.New()
	ctx = logging.WithAttrs(ctx, slog.String("session", sessionID.String()))
	logger = logger.With(slog.String("session", sessionID.String()))

	c := &Controller{
		SessionID: sessionID,
		logger:    logger.With(slog.String("source", "game")),
		audio:     deps.Audio,
		overlay:   deps.Overlay,
		messages:  deps.Messages,
		rng:       deps.RNG,
		metrics:   deps.Metrics,
		catalog:   deps.Catalog,
		responses: deps.Responses,
		state:     models.NewGameState(opts.Sanity),
		clock:     clock.New(opts.StartHour),
		scheduler: scheduler.New(logger),
	}
	c.sanity = sanity.NewEngine(logger, &c.state.Sanity)
	c.suspects = suspects.NewMemory(logger, unknownCase{}, deps.RNG, deps.Now)
	c.codec = saves.NewCodec(logger, deps.Store, deps.RNG, deps.Metrics, deps.Now, opts.Saves)
	c.codec.SetLiveState(c.liveState)
	c.guard = scumguard.New(logger, deps.Store, c.codec, deps.Metrics, deps.Now)
	if _, err := c.guard.Restore(ctx); err != nil {
		return nil, err
	}
	c.clock.OnPhaseChange(c.phaseChanged)
	c.lastSanity = c.state.Sanity.Overall()

	if err := c.registerTasks(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.present(ctx)
	c.mu.Unlock()
	c.logger.LogAttrs(ctx, slog.LevelInfo, "game started",
		slog.Float64("hour", c.clock.Now()),
		slog.String("phase", string(c.clock.Phase())),
		slog.Bool("trinity", c.state.Sanity.IsTrinity()))
	return c, nil
}

// unknownCase answers nothing until a case is started.
type unknownCase struct{}

func (unknownCase) BaseResponse(context.Context, string, string) (string, bool, error) {
	return "", false, nil
}

// State returns a copy of the game state with the suspect records of committed interviews.
func (c *Controller) State() models.GameState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveState()
}

// liveState expects c.mu to be held. The codec calls it while verifying a save that the controller is loading.
func (c *Controller) liveState() models.GameState {
	s := c.state.Clone()
	s.SuspectMemory = c.suspects.Records()
	s.Normalize()
	return s
}

// Now returns the in-game hour.
func (c *Controller) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clock.Now()
}

// Phase returns the current day phase.
func (c *Controller) Phase() models.DayPhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clock.Phase()
}

// Presentation returns what the renderer should currently show.
func (c *Controller) Presentation() mood.Resolution {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mood.Current(c.clock.Phase(), c.state.Sanity.Overall())
}

// Effects returns the sanity effects of the current meters.
func (c *Controller) Effects() sanity.Effects {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sanity.Effects()
}

// CorruptionChance returns the current probability that a save is written corrupted.
func (c *Controller) CorruptionChance() float64 {
	return c.codec.CorruptionChance()
}

// Present pushes the current presentation again, e.g., for a renderer that subscribed after New.
func (c *Controller) Present(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.present(ctx)
}

// Case returns the case in progress, or nil.
func (c *Controller) Case() *cases.Case {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// StartCase begins case id with full sanity.
func (c *Controller) StartCase(ctx context.Context, id string) (*cases.Case, error) {
	kase, err := c.catalog.Case(id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return nil, ErrDestroyed
	}
	c.suspects.EndAll(ctx)
	c.useCase(kase)
	c.state.CollectedEvidence = []string{}
	c.state.EvidenceInteractions = map[string]int{}
	c.state.Progress(id)
	c.handleTransitions(ctx, c.sanity.Reset(ctx))
	c.present(ctx)
	c.logger.LogAttrs(ctx, slog.LevelInfo, "case started", slog.String("case", id), slog.String("name", kase.Name))
	return kase, nil
}

func (c *Controller) useCase(kase *cases.Case) {
	c.current = kase
	c.state.CurrentCase = kase.ID
	var source suspects.ResponseSource = kase
	if c.responses != nil {
		source = c.responses(kase)
	}
	c.suspects.SetSource(source)
}

// CollectEvidence adds evidence id of the case in progress to the inventory and returns how it is shown.
// Every call counts as one opening: evidence opened too often mutates, then turns hostile and attacks the
// player's sanity on each later opening.
func (c *Controller) CollectEvidence(ctx context.Context, id string) (cases.Presentation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ready(); err != nil {
		return cases.Presentation{}, err
	}
	evidence, err := c.current.FindEvidence(id)
	if err != nil {
		return cases.Presentation{}, err
	}
	if !slices.Contains(c.state.CollectedEvidence, id) {
		c.state.CollectedEvidence = append(c.state.CollectedEvidence, id)
	}
	progress := c.state.Progress(c.current.ID)
	if !slices.Contains(progress.EvidenceCollected, id) {
		progress.EvidenceCollected = append(progress.EvidenceCollected, id)
		c.state.CaseProgress[c.current.ID] = progress
	}
	opened := c.state.EvidenceInteractions[id] + 1
	c.state.EvidenceInteractions[id] = opened
	stage := cases.StageAt(opened)
	c.logger.LogAttrs(ctx, slog.LevelInfo, "evidence collected",
		slog.String("case", c.current.ID),
		slog.String("evidence", id),
		slog.String("type", string(evidence.Type)),
		slog.Int("opened", opened))
	if stage.Attacks {
		c.attack(ctx)
		c.logger.LogAttrs(ctx, slog.LevelInfo, "hostile evidence attacked",
			slog.String("evidence", id), slog.Int("sanity", c.state.Sanity.Overall()))
	}
	return evidence.Present().Evolve(stage, c.rng), nil
}

// Accuse names suspect as the killer. A correct accusation solves the case and switches to the victory mood, a
// wrong one to the failure mood, until the next phase change.
func (c *Controller) Accuse(ctx context.Context, suspect string) (Accusation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ready(); err != nil {
		return Accusation{}, err
	}
	if _, err := c.current.Suspect(suspect); err != nil {
		return Accusation{}, err
	}
	result := Accusation{Suspect: suspect, Correct: c.current.IsCulprit(suspect), Message: "❌ Wrong suspect!"}
	if result.Correct {
		result.Message = "✅ Correct! You solved the case."
		progress := c.state.Progress(c.current.ID)
		progress.Solved = true
		c.state.CaseProgress[c.current.ID] = progress
		c.state.AddAchievement("solved_" + c.current.ID)
		c.mood.Override(models.MoodVictory)
	} else {
		c.mood.Override(models.MoodFailure)
	}
	c.present(ctx)
	c.logger.LogAttrs(ctx, slog.LevelInfo, "accusation made",
		slog.String("case", c.current.ID), slog.String("suspect", suspect), slog.Bool("correct", result.Correct))
	return result, nil
}

// AdjustSanity changes channel ch by delta.
func (c *Controller) AdjustSanity(ctx context.Context, ch models.SanityChannel, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	if !c.sanity.Writable(ch) && !(ch == models.SanityOverall && c.state.Sanity.IsTrinity()) {
		return errors.Wrap(sanity.ErrChannelNotTracked, "adjust sanity", slog.String("channel", string(ch)))
	}
	c.handleTransitions(ctx, c.sanity.Adjust(ctx, ch, delta))
	c.pushSanity(ctx)
	return nil
}

// SetSanity stores value in channel ch. The overall value is derived in trinity mode and cannot be set.
func (c *Controller) SetSanity(ctx context.Context, ch models.SanityChannel, value int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	if !c.sanity.Writable(ch) {
		return errors.Wrap(sanity.ErrChannelNotTracked, "set sanity", slog.String("channel", string(ch)))
	}
	c.handleTransitions(ctx, c.sanity.Set(ctx, ch, value))
	c.pushSanity(ctx)
	return nil
}

// FileAttack applies the damage of opening a hostile file.
func (c *Controller) FileAttack(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	c.attack(ctx)
	return nil
}

// attack expects c.mu to be held.
func (c *Controller) attack(ctx context.Context) {
	c.state.HallucinationTriggered = true
	c.handleTransitions(ctx, c.sanity.FileAttack(ctx))
	c.pushSanity(ctx)
}

// SetTime jumps the clock to hour and returns the resulting phase.
func (c *Controller) SetTime(ctx context.Context, hour float64) (models.DayPhase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return "", ErrDestroyed
	}
	phase, changed := c.clock.SetTime(hour)
	c.logger.LogAttrs(ctx, slog.LevelDebug, "time set",
		slog.Float64("hour", c.clock.Now()), slog.Bool("phase_changed", changed))
	return phase, nil
}

// Advance moves the virtual time forward by d, running every task that falls due.
func (c *Controller) Advance(ctx context.Context, d time.Duration) {
	c.scheduler.Advance(ctx, d)
}

// Run drives the periodic tasks from the wall clock until ctx is done or Destroy is called.
func (c *Controller) Run(ctx context.Context, resolution time.Duration) {
	c.scheduler.Run(ctx, resolution)
}

// Destroy stops every periodic task and commits the open interviews. It is safe to call more than once.
func (c *Controller) Destroy(ctx context.Context) {
	c.scheduler.Destroy()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.suspects.EndAll(ctx)
	c.logger.LogAttrs(ctx, slog.LevelInfo, "game destroyed")
}

// ready expects c.mu to be held.
func (c *Controller) ready() error {
	if c.destroyed {
		return ErrDestroyed
	}
	if c.current == nil {
		return ErrNoCase
	}
	return nil
}

// phaseChanged runs inside clock calls, which all happen with c.mu held.
func (c *Controller) phaseChanged(from, to models.DayPhase) {
	ctx := context.Background()
	c.mood.PhaseChanged()
	c.present(ctx)
	c.logger.LogAttrs(ctx, slog.LevelInfo, "day phase changed",
		slog.String("from", string(from)), slog.String("to", string(to)))
}

// present pushes the mood, overlay and sanity effects. It expects c.mu to be held.
func (c *Controller) present(ctx context.Context) {
	overall := c.state.Sanity.Overall()
	r := c.mood.Current(c.clock.Phase(), overall)
	c.audio.SetMood(r.Mood)
	c.overlay.SetOverlay(r.Opacity, r.Intensity)
	c.audio.UpdateSanityEffects(overall)
	c.lastSanity = overall
	c.logger.LogAttrs(ctx, slog.LevelDebug, "presentation updated",
		slog.String("mood", string(r.Mood)),
		slog.Float64("opacity", r.Opacity),
		slog.String("intensity", string(r.Intensity)),
		slog.Int("sanity", overall))
}

// pushSanity updates the sanity effects when the overall value moved. It expects c.mu to be held.
func (c *Controller) pushSanity(_ context.Context) {
	overall := c.state.Sanity.Overall()
	if overall == c.lastSanity {
		return
	}
	c.lastSanity = overall
	c.audio.UpdateSanityEffects(overall)
}

// handleTransitions reports band crossings. Only the overall meter talks to the player. It expects c.mu to
// be held.
func (c *Controller) handleTransitions(ctx context.Context, transitions []sanity.Transition) {
	if len(transitions) == 0 {
		return
	}
	for _, t := range transitions {
		c.metrics.ObserveSanityTransition(string(t.Channel), string(t.Kind))
		if t.Channel == models.SanityOverall {
			c.messages.DeveloperMessage(t.DeveloperMessage())
		}
	}
	c.present(ctx)
}
