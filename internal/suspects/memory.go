// Package suspects remembers what every suspect said in interviews, which answers were lies and how close the
// suspect is to realizing they are in a game.
package suspects

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/unsolved/internal/errors"
	"github.com/myrjola/unsolved/internal/models"
	"github.com/myrjola/unsolved/internal/random"
)

const (
	// LieProbability is the chance that a new answer is flagged as a lie.
	LieProbability = 0.3
	// DetectProbability is the chance, rolled independently, that the detective notices a flagged lie.
	DetectProbability = 0.4
	metaRemarkStep    = 0.1
)

var ErrInterviewEnded = errors.NewSentinel("interview already ended")

// ResponseSource provides the base answer of a suspect to a topic. ok is false when the suspect has nothing
// to say about it.
type ResponseSource interface {
	BaseResponse(ctx context.Context, suspect, topic string) (response string, ok bool, err error)
}

// Branch tells which path produced a reply.
type Branch string

const (
	BranchNew           Branch = "new"
	BranchRepeat        Branch = "repeat"
	BranchConfrontation Branch = "confrontation"
)

// Reply is the outcome of discussing one topic.
type Reply struct {
	Suspect string
	Topic   string
	Text    string
	Branch  Branch
	// LieFlagged is set when a new answer was rolled as a lie.
	LieFlagged bool
	// LieDetected is set when the flagged lie was also noticed. Only detected lies are shown to the player.
	LieDetected bool
	MetaRemark  bool
	MetaLevel   int
	Emotion     models.Emotion
}

// Memory holds the records of every suspect and the interviews in progress. It is not safe for concurrent use.
type Memory struct {
	logger  *slog.Logger
	source  ResponseSource
	rng     random.Source
	now     func() time.Time
	records map[string]models.SuspectRecord
	open    map[string]*Interview
}

func NewMemory(logger *slog.Logger, source ResponseSource, rng random.Source, now func() time.Time) *Memory {
	return &Memory{
		logger:  logger.With(slog.String("source", "suspects")),
		source:  source,
		rng:     rng,
		now:     now,
		records: map[string]models.SuspectRecord{},
		open:    map[string]*Interview{},
	}
}

// SetSource swaps the response source, e.g., when a new case starts.
func (m *Memory) SetSource(source ResponseSource) {
	m.source = source
}

// Record returns a copy of the record of suspect.
func (m *Memory) Record(suspect string) models.SuspectRecord {
	r, ok := m.records[suspect]
	if !ok {
		return models.NewSuspectRecord()
	}
	return r.Clone()
}

// Records returns a copy of all records for saving.
func (m *Memory) Records() map[string]models.SuspectRecord {
	out := make(map[string]models.SuspectRecord, len(m.records))
	for name, r := range m.records {
		out[name] = r.Clone()
	}
	return out
}

// Restore replaces all records, e.g., after loading a save. Open interviews are discarded.
func (m *Memory) Restore(records map[string]models.SuspectRecord) {
	m.records = make(map[string]models.SuspectRecord, len(records))
	for name, r := range records {
		m.records[name] = r.Clone()
	}
	m.open = map[string]*Interview{}
}

// SetEmotion applies a narrative emotion. Confusion and panic from meta awareness take precedence.
func (m *Memory) SetEmotion(suspect string, e models.Emotion) {
	r := m.record(suspect)
	r.Emotion = emotionFor(r.MetaLevel, e)
	m.records[suspect] = r
}

// StartInterview opens an interview with suspect or returns the one already open.
func (m *Memory) StartInterview(suspect string) *Interview {
	if in, ok := m.open[suspect]; ok {
		return in
	}
	in := &Interview{
		ID:        uuid.New(),
		Suspect:   suspect,
		memory:    m,
		exchanges: map[string]models.TopicMemory{},
	}
	m.open[suspect] = in
	return in
}

// DiscussTopic asks suspect about topic within the open interview, starting one if needed.
func (m *Memory) DiscussTopic(ctx context.Context, suspect, topic string) (Reply, error) {
	return m.StartInterview(suspect).DiscussTopic(ctx, topic)
}

// Answer is DiscussTopic with base as the answer to a topic the suspect has not talked about yet. The
// response source is not consulted. Pair it with Known and Resolve to fetch slow answers without holding the
// lock that guards the memory.
func (m *Memory) Answer(ctx context.Context, suspect, topic, base string) (Reply, error) {
	return m.StartInterview(suspect).discuss(ctx, topic, func() string { return base })
}

// Known reports whether suspect has answered topic, in the open interview or an earlier one.
func (m *Memory) Known(suspect, topic string) bool {
	if in, ok := m.open[suspect]; ok {
		if _, ok = in.exchanges[topic]; ok {
			return true
		}
	}
	_, ok := m.records[suspect].Topics[topic]
	return ok
}

// Source returns the response source in use.
func (m *Memory) Source() ResponseSource {
	return m.source
}

// Resolve asks source for the base answer of suspect to topic and falls back to [DefaultResponse]. It only
// reads the logger and is safe to call concurrently with the other methods.
func (m *Memory) Resolve(ctx context.Context, source ResponseSource, suspect, topic string) string {
	if source == nil {
		return DefaultResponse
	}
	response, ok, err := source.BaseResponse(ctx, suspect, topic)
	if err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "response source failed, using default response",
			errors.SlogError(err), slog.String("suspect", suspect), slog.String("topic", topic))
		return DefaultResponse
	}
	if !ok {
		m.logger.LogAttrs(ctx, slog.LevelInfo, "unknown topic",
			slog.String("suspect", suspect), slog.String("topic", topic))
		return DefaultResponse
	}
	return response
}

// EndInterview commits the open interview with suspect, if any.
func (m *Memory) EndInterview(ctx context.Context, suspect string) {
	if in, ok := m.open[suspect]; ok {
		in.End(ctx)
	}
}

// EndAll commits every open interview.
func (m *Memory) EndAll(ctx context.Context) {
	for _, in := range m.open {
		in.End(ctx)
	}
}

func (m *Memory) record(suspect string) models.SuspectRecord {
	r, ok := m.records[suspect]
	if !ok {
		r = models.NewSuspectRecord()
	}
	return r
}

// Interview is one conversation with a suspect. Exchanges become part of the suspect's record when it ends.
type Interview struct {
	ID        uuid.UUID
	Suspect   string
	memory    *Memory
	exchanges map[string]models.TopicMemory
	order     []string
	ended     bool
}

// Topics lists the topics first discussed in this interview, in order.
func (in *Interview) Topics() []string {
	return append([]string(nil), in.order...)
}

// DiscussTopic produces the suspect's reply to topic and updates the meta level and emotion.
func (in *Interview) DiscussTopic(ctx context.Context, topic string) (Reply, error) {
	m := in.memory
	return in.discuss(ctx, topic, func() string {
		return m.Resolve(ctx, m.source, in.Suspect, topic)
	})
}

func (in *Interview) discuss(ctx context.Context, topic string, base func() string) (Reply, error) {
	if in.ended {
		return Reply{}, errors.Wrap(ErrInterviewEnded, "discuss topic",
			slog.String("suspect", in.Suspect), slog.String("interview", in.ID.String()))
	}
	m := in.memory
	record := m.record(in.Suspect)
	reply := Reply{Suspect: in.Suspect, Topic: topic}

	prior, seen := in.exchanges[topic]
	if !seen {
		prior, seen = record.Topics[topic]
	}
	switch {
	case seen && prior.IsLie:
		reply.Branch = BranchConfrontation
		reply.Text = Confrontation(topic)
	case seen:
		reply.Branch = BranchRepeat
		reply.Text = RepetitionResponse
	default:
		reply.Branch = BranchNew
		reply.Text = base()
		reply.LieFlagged = m.rng.Float64() < LieProbability
		detected := m.rng.Float64() < DetectProbability
		reply.LieDetected = reply.LieFlagged && detected
		in.exchanges[topic] = models.TopicMemory{
			Response:  reply.Text,
			IsLie:     reply.LieFlagged,
			Timestamp: m.now().UnixMilli(),
		}
		in.order = append(in.order, topic)
	}

	record.MetaLevel = min(record.MetaLevel+1, models.MaxMetaLevel)
	if m.rng.Float64() < float64(record.MetaLevel)*metaRemarkStep {
		reply.Text += metaRemarks[m.rng.IntN(len(metaRemarks))]
		reply.MetaRemark = true
	}
	record.Emotion = emotionFor(record.MetaLevel, record.Emotion)
	reply.Text += EmotionSuffix(record.Emotion)
	reply.MetaLevel = record.MetaLevel
	reply.Emotion = record.Emotion
	m.records[in.Suspect] = record

	m.logger.LogAttrs(ctx, slog.LevelDebug, "topic discussed",
		slog.String("suspect", in.Suspect),
		slog.String("topic", topic),
		slog.String("branch", string(reply.Branch)),
		slog.Bool("lie_flagged", reply.LieFlagged),
		slog.Bool("lie_detected", reply.LieDetected),
		slog.Int("meta_level", reply.MetaLevel))
	return reply, nil
}

// End commits the exchanges of this interview into the suspect's record. Ending twice is a no-op.
func (in *Interview) End(ctx context.Context) {
	if in.ended {
		return
	}
	in.ended = true
	m := in.memory
	record := m.record(in.Suspect)
	for topic, ex := range in.exchanges {
		if _, ok := record.Topics[topic]; !ok {
			record.Topics[topic] = ex
		}
	}
	m.records[in.Suspect] = record
	if m.open[in.Suspect] == in {
		delete(m.open, in.Suspect)
	}
	m.logger.LogAttrs(ctx, slog.LevelDebug, "interview ended",
		slog.String("suspect", in.Suspect),
		slog.String("interview", in.ID.String()),
		slog.Int("exchanges", len(in.exchanges)))
}
