package saves

import "github.com/myrjola/unsolved/internal/errors"

var (
	ErrNotFound = errors.NewSentinel("save not found")
	// ErrCorrupted is the single outcome every integrity failure folds into. The specific reason is joined
	// to it and can be tested with errors.Is.
	ErrCorrupted         = errors.NewSentinel("save corrupted")
	ErrParse             = errors.NewSentinel("save could not be parsed")
	ErrVersionMismatch   = errors.NewSentinel("save format version mismatch")
	ErrChecksumMismatch  = errors.NewSentinel("save checksum mismatch")
	ErrCorruptionFlagged = errors.NewSentinel("save flagged as corrupted")
	ErrRepairFailed      = errors.NewSentinel("save could not be repaired")
	ErrInvalidPolicy     = errors.NewSentinel("unknown checksum policy")
)

func corrupted(reason error) error {
	return errors.Join(ErrCorrupted, reason)
}
