package models

// Emotion is the emotional state a suspect shows during interviews.
type Emotion string

const (
	EmotionNeutral    Emotion = "neutral"
	EmotionEmotional  Emotion = "emotional"
	EmotionDefensive  Emotion = "defensive"
	EmotionAggressive Emotion = "aggressive"
	EmotionNervous    Emotion = "nervous"
	EmotionConfused   Emotion = "confused"
	EmotionPanicked   Emotion = "panicked"
)

// Icon returns the emoji the interview UI shows for the emotion.
func (e Emotion) Icon() string {
	switch e {
	case EmotionEmotional:
		return "😢"
	case EmotionDefensive:
		return "😤"
	case EmotionAggressive:
		return "😠"
	case EmotionNervous:
		return "😰"
	case EmotionConfused:
		return "😕"
	case EmotionPanicked:
		return "😱"
	case EmotionNeutral:
		return "😐"
	}
	return "😐"
}

// MaxMetaLevel caps how far a suspect can break the fourth wall.
const MaxMetaLevel = 10

// TopicMemory is what a suspect remembers about one discussed topic.
type TopicMemory struct {
	Response string `json:"response"`
	IsLie    bool   `json:"isLie"`
	// Timestamp is in unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// SuspectRecord is the persistent interview memory of one suspect.
type SuspectRecord struct {
	Topics    map[string]TopicMemory `json:"topics"`
	MetaLevel int                    `json:"metaLevel"`
	Emotion   Emotion                `json:"emotionalState"`
}

// NewSuspectRecord creates an empty record in a neutral state.
func NewSuspectRecord() SuspectRecord {
	return SuspectRecord{
		Topics:    map[string]TopicMemory{},
		MetaLevel: 0,
		Emotion:   EmotionNeutral,
	}
}

// Clone returns a deep copy.
func (r SuspectRecord) Clone() SuspectRecord {
	topics := make(map[string]TopicMemory, len(r.Topics))
	for k, v := range r.Topics {
		topics[k] = v
	}
	return SuspectRecord{Topics: topics, MetaLevel: r.MetaLevel, Emotion: r.Emotion}
}
