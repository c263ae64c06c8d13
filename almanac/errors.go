package almanac

import (
	"errors"
	"fmt"

	"github.com/SwitchbackEngineer/anise/epoch"
)

var (
	// ErrCapacityExceeded reports a load beyond the bounded kernel slots.
	ErrCapacityExceeded = errors.New("almanac: kernel capacity exceeded")
	// ErrFrameNotInPCA reports a frame-info query with no planetary data.
	ErrFrameNotInPCA = errors.New("almanac: frame not in planetary constants")
	// ErrUnderspecifiedFrame reports a rotation on a frame missing IDs.
	ErrUnderspecifiedFrame = errors.New("almanac: frame missing required IDs")
	// ErrNonFinite reports a non-finite value escaping an evaluator.
	ErrNonFinite = errors.New("almanac: non-finite result")
)

// NoInterpolationDataError reports a translation query with no segment
// coverage. It names the full attempted path element so missing coverage
// can be debugged.
type NoInterpolationDataError struct {
	Target int32
	Center int32
	Epoch  epoch.Epoch
	Reason string
}

func (e *NoInterpolationDataError) Error() string {
	return fmt.Sprintf("almanac: no interpolation data for target %d wrt %d at %v: %s",
		e.Target, e.Center, e.Epoch, e.Reason)
}

// NoOrientationDataError is the rotation-side analogue.
type NoOrientationDataError struct {
	Orient int32
	Epoch  epoch.Epoch
	Reason string
}

func (e *NoOrientationDataError) Error() string {
	return fmt.Sprintf("almanac: no orientation data for frame %d at %v: %s",
		e.Orient, e.Epoch, e.Reason)
}

// NoCommonAncestorError reports two frames whose kernel graphs never meet.
type NoCommonAncestorError struct {
	From, To int32
	Kind     string // "ephemeris" or "orientation"
}

func (e *NoCommonAncestorError) Error() string {
	return fmt.Sprintf("almanac: no common %s ancestor between %d and %d", e.Kind, e.From, e.To)
}
