package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a player has no active quiz session.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrPreferencesNotFound is returned by preference stores for unknown players.
	ErrPreferencesNotFound = errors.New("preferences not found")
	// ErrQuizExhausted signals that every flag of the quiz has been shown.
	ErrQuizExhausted = errors.New("quiz exhausted")
	// ErrInsufficientCandidates matches any InsufficientCandidatesError.
	ErrInsufficientCandidates = errors.New("cannot start quiz with current settings")
	// ErrStaleSession is returned when a call carries a generation that a reset has invalidated.
	ErrStaleSession = errors.New("quiz session is stale")
	// ErrNoCurrentFlag is returned when no flag has been made current yet.
	ErrNoCurrentFlag = errors.New("no current flag")
	// ErrNotAnswered rejects moving on before the current flag was guessed correctly.
	ErrNotAnswered = errors.New("current flag not answered yet")
	// ErrAlreadyAnswered is returned for guesses on a flag that was already answered correctly.
	ErrAlreadyAnswered = errors.New("flag already answered")
	// ErrInvalidChoiceCount rejects choice counts outside the even range 2..8.
	ErrInvalidChoiceCount = errors.New("choice count must be an even number between 2 and 8")
	// ErrNoRegions rejects configurations without an enabled region.
	ErrNoRegions = errors.New("at least one region must be enabled")
	// ErrRegionNotFound is returned by catalogs that do not know a region.
	ErrRegionNotFound = errors.New("region not found")
	// ErrInvalidFlagID indicates an identifier without a region or country part.
	ErrInvalidFlagID = errors.New("invalid flag identifier")
)

// AssetLookupError reports a region the asset catalog could not enumerate.
type AssetLookupError struct {
	Region string
	Err    error
}

func (e *AssetLookupError) Error() string {
	return fmt.Sprintf("list flags for region %q: %v", e.Region, e.Err)
}

func (e *AssetLookupError) Unwrap() error {
	return e.Err
}

// InsufficientCandidatesError is returned when the candidate pool is too small.
type InsufficientCandidatesError struct {
	Have int
	Need int
}

func (e *InsufficientCandidatesError) Error() string {
	return fmt.Sprintf("%s: %d distinct flags available, %d needed", ErrInsufficientCandidates, e.Have, e.Need)
}

func (e *InsufficientCandidatesError) Is(target error) bool {
	return target == ErrInsufficientCandidates
}
