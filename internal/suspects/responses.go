package suspects

import "github.com/myrjola/unsolved/internal/models"

const (
	// DefaultResponse is given for topics the suspect knows nothing about.
	DefaultResponse = "I don't know anything about that."
	// RepetitionResponse is given when an honest topic comes up again.
	RepetitionResponse = "I already told you about that. Why are you asking again?"
	// GenericConfrontation is given when a lied-about topic without its own confrontation comes up again.
	GenericConfrontation = "I think you're lying to me. Why are you really here?"
)

var confrontations = map[string]string{
	"Relationship": "You asked me about this before, but I think you were lying then too. What's your real question?",
	"Alibi":        "You know, I told you my alibi already. Why do you keep asking? Are you trying to catch me in a lie?",
	"Argument":     "We've been over this. Are you testing me or something? This feels like a game...",
	"Investment":   "You seem very interested in the financial aspects. Almost like you're following a script...",
	"Discovery":    "I already told you what I found. Why are you asking again? This is getting repetitive.",
	"Footprints":   "The footprints again? You're really focused on the details. Almost too focused...",
}

// Confrontation returns the text a suspect confronts the detective with when a lied-about topic returns.
func Confrontation(topic string) string {
	if text, ok := confrontations[topic]; ok {
		return text
	}
	return GenericConfrontation
}

var metaRemarks = []string{
	" You know, this feels very scripted...",
	" Are you following some kind of detective game script?",
	" This conversation feels... artificial somehow.",
	" I can't shake the feeling that this isn't real.",
	" Why do I feel like I'm in a game?",
	" This is getting weird. Are you actually a detective?",
	" I think I'm starting to understand what's happening here...",
	" You're not real, are you? None of this is real.",
}

// EmotionSuffix is the stage direction appended to replies given in emotion e.
func EmotionSuffix(e models.Emotion) string {
	switch e {
	case models.EmotionEmotional:
		return " *voice trembling*"
	case models.EmotionDefensive:
		return " *defensive tone*"
	case models.EmotionAggressive:
		return " *raising voice*"
	case models.EmotionNervous:
		return " *fidgeting*"
	case models.EmotionConfused:
		return " *staring blankly*"
	case models.EmotionPanicked:
		return " *breathing rapidly*"
	case models.EmotionNeutral:
		return ""
	}
	return ""
}

// emotionFor derives the emotion after the meta level changed. Below 5 the narrative emotion is kept.
func emotionFor(metaLevel int, current models.Emotion) models.Emotion {
	switch {
	case metaLevel >= 8: //nolint:mnd // panic threshold
		return models.EmotionPanicked
	case metaLevel >= 5: //nolint:mnd // confusion threshold
		return models.EmotionConfused
	default:
		return current
	}
}
