package saves

import (
	"encoding/json"
	"unicode/utf16"

	"github.com/myrjola/unsolved/internal/errors"
	"github.com/myrjola/unsolved/internal/models"
)

// Policy selects what state a stored checksum is verified against.
type Policy string

const (
	// PolicyPayload verifies the checksum against the game state stored in the snapshot itself.
	PolicyPayload Policy = "payload"
	// PolicyLive verifies the checksum against the live game state at read time. A save only verifies if
	// nothing changed since it was written.
	PolicyLive Policy = "live"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyPayload, PolicyLive:
		return p, nil
	}
	return "", errors.Wrap(ErrInvalidPolicy, "parse checksum policy")
}

// Checksum is the sum of the UTF-16 code units of the JSON encoding of state.
func Checksum(state models.GameState) (int64, error) {
	normalized := state.Clone()
	data, err := json.Marshal(normalized)
	if err != nil {
		return 0, errors.Wrap(err, "marshal game state")
	}
	var sum int64
	for _, unit := range utf16.Encode([]rune(string(data))) {
		sum += int64(unit)
	}
	return sum, nil
}
