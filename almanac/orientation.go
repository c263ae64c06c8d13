package almanac

import (
	"github.com/SwitchbackEngineer/anise/bpc"
	"github.com/SwitchbackEngineer/anise/daf"
	"github.com/SwitchbackEngineer/anise/epoch"
	"github.com/SwitchbackEngineer/anise/frames"
	"github.com/SwitchbackEngineer/anise/rotation"
)

const maxOrientationDepth = 16

// orientationEdge rotates a parent orientation into a child orientation:
// either a time-varying BPC segment or a constant EPA quaternion.
type orientationEdge struct {
	parent   int32
	kernel   *bpc.BPC // nil for constant rotations
	summary  daf.Summary
	constant rotation.DCM
}

// findOrientationEdge resolves the edge leading from orient toward its
// parent, never back toward exclude (the node the walk arrived from). BPC
// kernels win over EPA entries and are searched newest-first, matching the
// ephemeris tie-break.
func (a *Almanac) findOrientationEdge(orient, exclude int32, et float64) (orientationEdge, bool, bool) {
	seen := false
	for i := len(a.bpcs) - 1; i >= 0; i-- {
		k := a.bpcs[i]
		for _, sum := range k.Summaries() {
			if bpc.TargetOrient(sum) != orient || bpc.BaseOrient(sum) == exclude {
				continue
			}
			seen = true
			if sum.StartET() <= et && et <= sum.EndET() {
				return orientationEdge{parent: bpc.BaseOrient(sum), kernel: k, summary: sum}, true, true
			}
		}
	}
	if a.euler != nil {
		for _, id := range a.euler.IDs() {
			e, err := a.euler.ByID(id)
			if err != nil {
				continue
			}
			if e.To == orient && e.From != exclude {
				return orientationEdge{
					parent:   e.From,
					constant: rotation.DCM{Rot: e.Q.DCM(), From: e.From, To: e.To},
				}, true, true
			}
			if e.From == orient && e.To != exclude {
				// Usable in reverse: conjugate rotates To into From.
				return orientationEdge{
					parent:   e.To,
					constant: rotation.DCM{Rot: e.Q.Conjugate().DCM(), From: e.To, To: e.From},
				}, true, true
			}
		}
	}
	return orientationEdge{}, false, seen
}

// orientationAncestry walks from orient toward the rotation root,
// returning visited nodes (starting at orient) and the edge out of each.
func (a *Almanac) orientationAncestry(orient int32, at epoch.Epoch) ([]int32, []orientationEdge, error) {
	et := at.TDBSecondsJ2000()
	nodes := []int32{orient}
	var edges []orientationEdge
	cur := orient
	prev := frames.Unset
	for depth := 0; depth < maxOrientationDepth; depth++ {
		if cur == frames.J2000 {
			return nodes, edges, nil
		}
		edge, found, seen := a.findOrientationEdge(cur, prev, et)
		if !found {
			if seen {
				return nil, nil, &NoOrientationDataError{
					Orient: cur,
					Epoch:  at,
					Reason: "segments exist but none covers the epoch",
				}
			}
			return nodes, edges, nil
		}
		prev = cur
		cur = edge.parent
		nodes = append(nodes, cur)
		edges = append(edges, edge)
	}
	return nodes, edges, nil
}

// evalOrientationEdge returns the DCM rotating the edge's parent frame
// into its child frame.
func (a *Almanac) evalOrientationEdge(e orientationEdge, et float64) (rotation.DCM, error) {
	if e.kernel == nil {
		return e.constant, nil
	}
	ws := a.getWorkspace()
	defer a.putWorkspace(ws)
	return e.kernel.Evaluate(e.summary, et, ws)
}

// rotationToAncestor composes the DCM rotating nodes[stop] (the ancestor)
// into nodes[0].
func (a *Almanac) rotationToAncestor(nodes []int32, edges []orientationEdge, stop int, et float64) (rotation.DCM, error) {
	// Identity at the ancestor, then apply each edge from the ancestor
	// inward: D(node[i] <- ancestor) = D(edge i) · D(node[i+1] <- ancestor).
	out := rotation.Identity(nodes[stop], nodes[stop])
	for i := stop - 1; i >= 0; i-- {
		d, err := a.evalOrientationEdge(edges[i], et)
		if err != nil {
			return rotation.DCM{}, err
		}
		out = d.Mul(out)
	}
	out.From = nodes[stop]
	out.To = nodes[0]
	return out, nil
}

// rotationToFrom returns the DCM (with rate) rotating vectors expressed in
// fromOrient into toOrient at the epoch.
func (a *Almanac) rotationToFrom(toOrient, fromOrient int32, at epoch.Epoch) (rotation.DCM, error) {
	if toOrient == fromOrient {
		return rotation.Identity(fromOrient, toOrient), nil
	}
	et := at.TDBSecondsJ2000()

	toNodes, toEdges, err := a.orientationAncestry(toOrient, at)
	if err != nil {
		return rotation.DCM{}, err
	}
	fromNodes, fromEdges, err := a.orientationAncestry(fromOrient, at)
	if err != nil {
		return rotation.DCM{}, err
	}

	common, commonFrom := -1, -1
	for i, n := range toNodes {
		for j, m := range fromNodes {
			if n == m {
				common, commonFrom = i, j
				break
			}
		}
		if common >= 0 {
			break
		}
	}
	if common < 0 {
		return rotation.DCM{}, &NoCommonAncestorError{From: fromOrient, To: toOrient, Kind: "orientation"}
	}

	// D(to <- common) and D(from <- common); then
	// D(to <- from) = D(to <- common) · D(from <- common)ᵀ.
	dTo, err := a.rotationToAncestor(toNodes, toEdges, common, et)
	if err != nil {
		return rotation.DCM{}, err
	}
	dFrom, err := a.rotationToAncestor(fromNodes, fromEdges, commonFrom, et)
	if err != nil {
		return rotation.DCM{}, err
	}
	out := dTo.Mul(dFrom.Transpose())
	out.From = fromOrient
	out.To = toOrient
	return out, nil
}

// Rotate returns the DCM (including angular rate) rotating states from the
// orientation of `from` into the orientation of `to`. Both frames must
// carry orientation IDs.
func (a *Almanac) Rotate(from, to frames.Frame, at epoch.Epoch) (rotation.DCM, error) {
	if !from.OrientSet() || !to.OrientSet() {
		return rotation.DCM{}, ErrUnderspecifiedFrame
	}
	return a.rotationToFrom(to.OrientationID, from.OrientationID, at)
}
