package series

import "github.com/SwitchbackEngineer/anise/epoch"

// Window is one visibility interval: consecutive grid samples whose
// elevation stays at or above the threshold.
type Window struct {
	Start             epoch.Epoch
	End               epoch.Epoch
	MaxElevationDeg   float64
	MaxElevationEpoch epoch.Epoch
	StartAzimuthDeg   float64
	EndAzimuthDeg     float64
	Samples           int
}

// Windows extracts visibility intervals from an evaluated series. Failed
// samples break a window the same way a below-threshold sample does.
// Resolution is the series grid; no sub-step refinement is attempted.
func Windows(points []Point, minElevationDeg float64) []Window {
	var out []Window
	var cur *Window

	flush := func() {
		if cur != nil {
			out = append(out, *cur)
			cur = nil
		}
	}

	for i := range points {
		p := &points[i]
		visible := p.Err == "" && p.AER.ElevationDeg >= minElevationDeg && !p.AER.Obstructed
		if !visible {
			flush()
			continue
		}
		if cur == nil {
			cur = &Window{
				Start:             p.Epoch,
				MaxElevationDeg:   p.AER.ElevationDeg,
				MaxElevationEpoch: p.Epoch,
				StartAzimuthDeg:   p.AER.AzimuthDeg,
			}
		}
		cur.End = p.Epoch
		cur.EndAzimuthDeg = p.AER.AzimuthDeg
		cur.Samples++
		if p.AER.ElevationDeg > cur.MaxElevationDeg {
			cur.MaxElevationDeg = p.AER.ElevationDeg
			cur.MaxElevationEpoch = p.Epoch
		}
	}
	flush()
	return out
}
