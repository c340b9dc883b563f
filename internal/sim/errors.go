package sim

import (
	"errors"
	"fmt"

	"github.com/talgya/prison-world/internal/quests"
)

// Error kinds surfaced from the core. Callers test with errors.Is; the shell
// maps them to user-facing text.
var (
	ErrUnknownEntity           = errors.New("unknown entity")
	ErrRequirementUnmet        = errors.New("requirement unmet")
	ErrInvalidTransition       = errors.New("invalid transition")
	ErrSchemaMismatch          = errors.New("save schema mismatch")
	ErrWorldInvariantViolation = errors.New("world invariant violation")
	ErrContentMissing          = errors.New("content missing")
)

// classify maps subsystem errors onto the public error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var reqErr *quests.RequirementsError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: %v", ErrRequirementUnmet, err)
	}
	if errors.Is(err, quests.ErrWrongState) {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	return fmt.Errorf("%w: %v", ErrUnknownEntity, err)
}
