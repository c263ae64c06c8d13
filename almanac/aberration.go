package almanac

import (
	"fmt"
	"strings"

	"github.com/SwitchbackEngineer/anise/epoch"
	"github.com/SwitchbackEngineer/anise/frames"
)

// SpeedOfLightKmS is the defining constant c in km/s.
const SpeedOfLightKmS = 299792.458

// Aberration selects the light-propagation correction applied to a
// translation.
type Aberration uint8

const (
	// AberrationNone returns the geometric (instantaneous) state.
	AberrationNone Aberration = iota
	// AberrationLightTime retards the target by one light-time iteration.
	AberrationLightTime
	// AberrationLightTimeStellar adds stellar aberration from the
	// observer's velocity on top of light time.
	AberrationLightTimeStellar
	// AberrationConverged iterates the light-time solution to convergence
	// (bounded at three iterations, which reaches picosecond level for
	// solar-system geometry).
	AberrationConverged
)

// maxLightTimeIterations bounds the converged solution.
const maxLightTimeIterations = 3

func (ab Aberration) String() string {
	switch ab {
	case AberrationNone:
		return "none"
	case AberrationLightTime:
		return "light-time"
	case AberrationLightTimeStellar:
		return "light-time+stellar"
	case AberrationConverged:
		return "converged"
	}
	return fmt.Sprintf("Aberration(%d)", uint8(ab))
}

// ParseAberration reads an aberration mode name as used by the query API.
func ParseAberration(s string) (Aberration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "geometric":
		return AberrationNone, nil
	case "lt", "light-time", "lighttime":
		return AberrationLightTime, nil
	case "lt+s", "light-time+stellar", "stellar":
		return AberrationLightTimeStellar, nil
	case "converged", "cn":
		return AberrationConverged, nil
	}
	return 0, fmt.Errorf("unknown aberration mode %q", s)
}

// translateCorrected resolves from relative to to with the requested
// correction, in the J2000 orientation.
func (a *Almanac) translateCorrected(from, to int32, at epoch.Epoch, ab Aberration) (State, error) {
	geometric, err := a.translate(from, to, at)
	if err != nil {
		return State{}, err
	}
	if ab == AberrationNone {
		return geometric, nil
	}

	iterations := 1
	if ab == AberrationConverged {
		iterations = maxLightTimeIterations
	}

	// Light time: re-evaluate the target at the retarded epoch while the
	// observer stays at the request epoch. Both ends are resolved relative
	// to the solar system barycenter.
	obsR, obsV, err := a.translateEphemeris(to, frames.SSB, at)
	if err != nil {
		return State{}, err
	}
	corrected := geometric
	lt := geometric.RKm.Norm() / SpeedOfLightKmS
	for i := 0; i < iterations; i++ {
		retarded := at.Add(epoch.FromSeconds(-lt))
		tgtR, tgtV, err := a.translateEphemeris(from, frames.SSB, retarded)
		if err != nil {
			return State{}, err
		}
		corrected.RKm = tgtR.Sub(obsR)
		corrected.VKmS = tgtV.Sub(obsV)
		newLT := corrected.RKm.Norm() / SpeedOfLightKmS
		if diff := newLT - lt; diff < 1e-12 && diff > -1e-12 {
			break
		}
		lt = newLT
	}

	if ab == AberrationLightTimeStellar {
		// Stellar aberration deflects the apparent direction by the
		// observer's velocity relative to the target path: û' ∝ û + v/c.
		r := corrected.RKm.Norm()
		u := corrected.RKm.Unit()
		// Observer inertial velocity is the negative of the target's
		// velocity seen from the observer when the observer is the moving
		// endpoint of this pair.
		vObs := geometric.VKmS.Neg()
		deflected := u.Add(vObs.Scale(1 / SpeedOfLightKmS)).Unit()
		corrected.RKm = deflected.Scale(r)
	}
	return corrected, nil
}

// translate is the inertial-frame pair translation used by the correction
// machinery.
func (a *Almanac) translate(from, to int32, at epoch.Epoch) (State, error) {
	r, v, err := a.translateEphemeris(from, to, at)
	if err != nil {
		return State{}, err
	}
	return State{RKm: r, VKmS: v, Epoch: at, Frame: frameInertial(to)}, nil
}
