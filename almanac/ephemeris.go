package almanac

import (
	"fmt"

	"github.com/SwitchbackEngineer/anise/daf"
	"github.com/SwitchbackEngineer/anise/epoch"
	"github.com/SwitchbackEngineer/anise/frames"
	"github.com/SwitchbackEngineer/anise/interp"
	"github.com/SwitchbackEngineer/anise/rotation"
	"github.com/SwitchbackEngineer/anise/spk"
)

// maxEphemerisDepth bounds the ancestor walk. The real solar-system graph
// is at most ~6 deep; the bound only guards against cyclic kernels.
const maxEphemerisDepth = 16

// ephemerisEdge is one resolved segment on a translation path.
type ephemerisEdge struct {
	kernel  *spk.SPK
	summary daf.Summary
}

// findEphemerisSegment locates the governing segment for target at et.
// Kernels are searched newest-first (the most recently loaded kernel wins
// coverage ties); within a kernel the first matching segment in file order
// wins. When no segment covers et, stale reports one of the target's
// segments (if any) so errors can name the missed coverage window.
func (a *Almanac) findEphemerisSegment(target int32, et float64) (edge ephemerisEdge, found bool, stale *daf.Summary) {
	for i := len(a.spks) - 1; i >= 0; i-- {
		k := a.spks[i]
		for _, sum := range k.Summaries() {
			if spk.Target(sum) != target {
				continue
			}
			if sum.StartET() <= et && et <= sum.EndET() {
				return ephemerisEdge{kernel: k, summary: sum}, true, nil
			}
			if stale == nil {
				s := sum
				stale = &s
			}
		}
	}
	return ephemerisEdge{}, false, stale
}

// ephemerisAncestry walks from id toward the graph root, collecting the
// nodes visited (starting with id) and the edge leading out of each.
func (a *Almanac) ephemerisAncestry(id int32, at epoch.Epoch) ([]int32, []ephemerisEdge, error) {
	et := at.TDBSecondsJ2000()
	nodes := []int32{id}
	var edges []ephemerisEdge
	cur := id
	for depth := 0; depth < maxEphemerisDepth; depth++ {
		edge, found, stale := a.findEphemerisSegment(cur, et)
		if !found {
			if stale != nil {
				// The node exists in some kernel but nothing covers the
				// requested epoch: report the broken path element with the
				// window of one of its segments.
				return nil, nil, &NoInterpolationDataError{
					Target: cur,
					Center: spk.Center(*stale),
					Epoch:  at,
					Reason: fmt.Sprintf("segment %q covers [%v, %v]",
						stale.Name, stale.StartET(), stale.EndET()),
				}
			}
			// No kernel names cur as a target: cur is a root.
			return nodes, edges, nil
		}
		cur = spk.Center(edge.summary)
		nodes = append(nodes, cur)
		edges = append(edges, edge)
		if cur == frames.SSB {
			return nodes, edges, nil
		}
	}
	return nodes, edges, nil
}

// evalEdge evaluates the segment at et; the state is target relative to
// center in the segment's inertial frame.
func evalEdge(e ephemerisEdge, et float64, ws *interp.Workspace) (rotation.Vec3, rotation.Vec3, error) {
	return e.kernel.Evaluate(e.summary, et, ws)
}

// translateToAncestor accumulates position/velocity of id relative to the
// ancestor at nodes[stop].
func translateToAncestor(edges []ephemerisEdge, stop int, et float64, ws *interp.Workspace) (rotation.Vec3, rotation.Vec3, error) {
	var r, v rotation.Vec3
	for i := 0; i < stop; i++ {
		er, ev, err := evalEdge(edges[i], et, ws)
		if err != nil {
			return r, v, err
		}
		r = r.Add(er)
		v = v.Add(ev)
	}
	return r, v, nil
}

// translateEphemeris returns position/velocity of `from` relative to `to`
// in the inertial (J2000) orientation, via the first common ancestor.
func (a *Almanac) translateEphemeris(from, to int32, at epoch.Epoch) (rotation.Vec3, rotation.Vec3, error) {
	var zero rotation.Vec3
	if from == to {
		return zero, zero, nil
	}
	et := at.TDBSecondsJ2000()

	fromNodes, fromEdges, err := a.ephemerisAncestry(from, at)
	if err != nil {
		return zero, zero, err
	}
	toNodes, toEdges, err := a.ephemerisAncestry(to, at)
	if err != nil {
		return zero, zero, err
	}

	// First node on the from-chain that also appears on the to-chain; the
	// near-tree shape makes this the shortest meeting point.
	common := -1
	var commonTo int
	for i, n := range fromNodes {
		for j, m := range toNodes {
			if n == m {
				common, commonTo = i, j
				break
			}
		}
		if common >= 0 {
			break
		}
	}
	if common < 0 {
		return zero, zero, &NoCommonAncestorError{From: from, To: to, Kind: "ephemeris"}
	}

	ws := a.getWorkspace()
	defer a.putWorkspace(ws)

	rf, vf, err := translateToAncestor(fromEdges, common, et, ws)
	if err != nil {
		return zero, zero, err
	}
	rt, vt, err := translateToAncestor(toEdges, commonTo, et, ws)
	if err != nil {
		return zero, zero, err
	}
	r := rf.Sub(rt)
	v := vf.Sub(vt)
	if !r.IsFinite() || !v.IsFinite() {
		return zero, zero, &NoInterpolationDataError{Target: from, Center: to, Epoch: at, Reason: ErrNonFinite.Error()}
	}
	return r, v, nil
}

// TranslateGeometric returns the instantaneous (uncorrected) state of the
// center of from relative to the center of to, in the J2000 orientation.
func (a *Almanac) TranslateGeometric(from, to frames.Frame, at epoch.Epoch) (State, error) {
	r, v, err := a.translateEphemeris(from.EphemerisID, to.EphemerisID, at)
	if err != nil {
		return State{}, err
	}
	return State{
		RKm:   r,
		VKmS:  v,
		Epoch: at,
		Frame: frames.New(to.EphemerisID, frames.J2000),
	}, nil
}

// Translate returns the state of the center of from relative to the center
// of to at the epoch, with the requested aberration correction, expressed
// in to's orientation when one is set (J2000 otherwise).
func (a *Almanac) Translate(from, to frames.Frame, at epoch.Epoch, ab Aberration) (State, error) {
	s, err := a.translateCorrected(from.EphemerisID, to.EphemerisID, at, ab)
	if err != nil {
		return State{}, err
	}
	if to.OrientSet() && to.OrientationID != frames.J2000 {
		dcm, err := a.rotationToFrom(to.OrientationID, frames.J2000, at)
		if err != nil {
			return State{}, err
		}
		s.RKm, s.VKmS = dcm.RotateState(s.RKm, s.VKmS)
		s.Frame.OrientationID = to.OrientationID
	}
	return s, nil
}

// orientOrJ2000 maps the unset sentinel to the inertial root: an
// orientation left unspecified means "inertial" for transforms.
func orientOrJ2000(f frames.Frame) int32 {
	if !f.OrientSet() {
		return frames.J2000
	}
	return f.OrientationID
}

// Transform re-expresses an arbitrary state (an object's state in its own
// frame) relative to the target frame's center and orientation. Same-center
// transforms rotate directly between the two orientations; cross-center
// transforms compose through the inertial root.
func (a *Almanac) Transform(s State, to frames.Frame, ab Aberration) (State, error) {
	so := orientOrJ2000(s.Frame)
	po := orientOrJ2000(to)
	r, v := s.RKm, s.VKmS

	if s.Frame.EphemerisID == to.EphemerisID {
		if so != po {
			dcm, err := a.rotationToFrom(po, so, s.Epoch)
			if err != nil {
				return State{}, err
			}
			r, v = dcm.RotateState(r, v)
		}
		return State{RKm: r, VKmS: v, Epoch: s.Epoch, Frame: frames.New(to.EphemerisID, po)}, nil
	}

	// State of s's frame center relative to the target center, inertial.
	centers, err := a.translateCorrected(s.Frame.EphemerisID, to.EphemerisID, s.Epoch, ab)
	if err != nil {
		return State{}, err
	}
	if so != frames.J2000 {
		dcm, err := a.rotationToFrom(frames.J2000, so, s.Epoch)
		if err != nil {
			return State{}, err
		}
		r, v = dcm.RotateState(r, v)
	}
	out := State{
		RKm:   centers.RKm.Add(r),
		VKmS:  centers.VKmS.Add(v),
		Epoch: s.Epoch,
		Frame: frames.New(to.EphemerisID, frames.J2000),
	}
	if po != frames.J2000 {
		dcm, err := a.rotationToFrom(po, frames.J2000, s.Epoch)
		if err != nil {
			return State{}, err
		}
		out.RKm, out.VKmS = dcm.RotateState(out.RKm, out.VKmS)
		out.Frame.OrientationID = po
	}
	return out, nil
}
