package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/SwitchbackEngineer/anise/almanac"
	"github.com/SwitchbackEngineer/anise/epoch"
	"github.com/SwitchbackEngineer/anise/frames"
	"github.com/SwitchbackEngineer/anise/internal/metrics"
	"github.com/SwitchbackEngineer/anise/internal/series"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// queryStatus maps almanac errors to HTTP statuses: lookup failures are
// 404s (coverage the caller asked for does not exist), everything else is
// a 400.
func queryStatus(err error) int {
	var nid *almanac.NoInterpolationDataError
	var nod *almanac.NoOrientationDataError
	var nca *almanac.NoCommonAncestorError
	if errors.As(err, &nid) || errors.As(err, &nod) || errors.As(err, &nca) ||
		errors.Is(err, almanac.ErrFrameNotInPCA) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// parseEpoch reads the epoch query parameter, e.g.
// "2024-01-01T00:00:00 TDB" or a bare "et" seconds value.
func parseEpoch(r *http.Request) (epoch.Epoch, error) {
	if et := r.URL.Query().Get("et"); et != "" {
		sec, err := strconv.ParseFloat(et, 64)
		if err != nil {
			return epoch.Epoch{}, err
		}
		return epoch.FromTDBSeconds(sec), nil
	}
	return epoch.Parse(r.URL.Query().Get("epoch"))
}

func parseID(r *http.Request, key string) (int32, error) {
	v, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 32)
	return int32(v), err
}

func parseFloat(r *http.Request, key string, def float64) (float64, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	return strconv.ParseFloat(s, 64)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"spk_loaded": s.alm.NumSPK(),
		"bpc_loaded": s.alm.NumBPC(),
		"pca_loaded": s.alm.HasPlanetaryData(),
		"epa_loaded": s.alm.HasEulerParameters(),
	})
}

func (s *Server) handleFrameInfo(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "body")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	f, err := s.alm.FrameInfo(frames.BodyFixed(id))
	if err != nil {
		writeError(w, queryStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ephemeris_id":         f.EphemerisID,
		"orientation_id":       f.OrientationID,
		"mu_km3_s2":            f.MuKm3S2,
		"equatorial_radius_km": f.EquatorialRadiusKm,
		"polar_radius_km":      f.PolarRadiusKm,
		"semi_minor_radius_km": f.SemiMinorRadiusKm,
	})
}

type stateResponse struct {
	RKm   [3]float64 `json:"r_km"`
	VKmS  [3]float64 `json:"v_km_s"`
	Epoch string     `json:"epoch"`
	Frame string     `json:"frame"`
}

func toStateResponse(st almanac.State) stateResponse {
	return stateResponse{
		RKm:   st.RKm,
		VKmS:  st.VKmS,
		Epoch: st.Epoch.String(),
		Frame: st.Frame.String(),
	}
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var err error
	defer func() { metrics.RecordQuery("translate", time.Since(start), err) }()

	from, err := parseID(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := parseID(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	at, err := parseEpoch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ab, err := almanac.ParseAberration(r.URL.Query().Get("ab"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	toOrient := frames.Unset
	if o := r.URL.Query().Get("orient"); o != "" {
		oid, perr := strconv.ParseInt(o, 10, 32)
		if perr != nil {
			err = perr
			writeError(w, http.StatusBadRequest, err)
			return
		}
		toOrient = int32(oid)
	}

	st, err := s.alm.Translate(frames.Inertial(from), frames.New(to, toOrient), at, ab)
	if err != nil {
		writeError(w, queryStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, toStateResponse(st))
}

func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var err error
	defer func() { metrics.RecordQuery("rotate", time.Since(start), err) }()

	from, err := parseID(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := parseID(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	at, err := parseEpoch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	d, err := s.alm.Rotate(frames.New(frames.Unset, from), frames.New(frames.Unset, to), at)
	if err != nil {
		writeError(w, queryStatus(err), err)
		return
	}
	resp := map[string]any{"rot": d.Rot, "from": d.From, "to": d.To}
	if d.Rate != nil {
		resp["rate"] = *d.Rate
	}
	writeJSON(w, http.StatusOK, resp)
}

// observerFromRequest assembles a ground-station state from lat/lon/alt
// and the observing body.
func (s *Server) observerFromRequest(r *http.Request, at epoch.Epoch) (almanac.State, error) {
	body, err := parseID(r, "body")
	if err != nil {
		return almanac.State{}, err
	}
	lat, err := parseFloat(r, "lat", 0)
	if err != nil {
		return almanac.State{}, err
	}
	lon, err := parseFloat(r, "lon", 0)
	if err != nil {
		return almanac.State{}, err
	}
	alt, err := parseFloat(r, "alt_km", 0)
	if err != nil {
		return almanac.State{}, err
	}
	f, err := s.alm.FrameInfo(frames.BodyFixed(body))
	if err != nil {
		return almanac.State{}, err
	}
	return almanac.GroundStation(almanac.Geodetic{LatDeg: lat, LonDeg: lon, AltKm: alt}, at, f)
}

type aerResponse struct {
	AzimuthDeg   float64 `json:"azimuth_deg"`
	ElevationDeg float64 `json:"elevation_deg"`
	RangeKm      float64 `json:"range_km"`
	RangeRateKmS float64 `json:"range_rate_km_s"`
	Obstructed   bool    `json:"obstructed"`
	Epoch        string  `json:"epoch"`
}

func (s *Server) handleAER(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var err error
	defer func() { metrics.RecordQuery("aer", time.Since(start), err) }()

	at, err := parseEpoch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	target, err := parseID(r, "target")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	observer, err := s.observerFromRequest(r, at)
	if err != nil {
		writeError(w, queryStatus(err), err)
		return
	}

	var obstructer *frames.Frame
	if o := r.URL.Query().Get("obstructer"); o != "" {
		oid, perr := strconv.ParseInt(o, 10, 32)
		if perr != nil {
			err = perr
			writeError(w, http.StatusBadRequest, err)
			return
		}
		f := frames.BodyFixed(int32(oid))
		obstructer = &f
	}

	aer, err := s.alm.AzimuthElevationRange(almanac.State{Epoch: at, Frame: frames.Inertial(target)}, observer, obstructer)
	if err != nil {
		writeError(w, queryStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, aerResponse{
		AzimuthDeg:   aer.AzimuthDeg,
		ElevationDeg: aer.ElevationDeg,
		RangeKm:      aer.RangeKm,
		RangeRateKmS: aer.RangeRateKmS,
		Obstructed:   aer.Obstructed,
		Epoch:        at.String(),
	})
}

func (s *Server) handleAERSeries(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var err error
	defer func() { metrics.RecordQuery("aer_series", time.Since(start), err) }()

	at, err := parseEpoch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	target, err := parseID(r, "target")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	stepSec, err := parseFloat(r, "step_s", 60)
	if err != nil || stepSec <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("step_s must be a positive number"))
		return
	}
	count, err := strconv.Atoi(r.URL.Query().Get("count"))
	if err != nil || count <= 0 || count > s.cfg.SeriesMaxPoints {
		writeError(w, http.StatusBadRequest,
			errors.New("count must be in [1, "+strconv.Itoa(s.cfg.SeriesMaxPoints)+"]"))
		return
	}
	minEl, err := parseFloat(r, "min_elevation", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	observer, err := s.observerFromRequest(r, at)
	if err != nil {
		writeError(w, queryStatus(err), err)
		return
	}

	points := s.pool.AERSeries(r.Context(), s.alm, series.Request{
		Target:   frames.Inertial(target),
		Observer: observer,
		Start:    at,
		Step:     epoch.FromSeconds(stepSec),
		Count:    count,
	})
	windows := series.Windows(points, minEl)

	resp := map[string]any{
		"windows": windows,
		"count":   len(points),
	}
	if r.URL.Query().Get("include_points") == "true" {
		out := make([]aerResponse, 0, len(points))
		for _, p := range points {
			if p.Err != "" {
				continue
			}
			out = append(out, aerResponse{
				AzimuthDeg:   p.AER.AzimuthDeg,
				ElevationDeg: p.AER.ElevationDeg,
				RangeKm:      p.AER.RangeKm,
				RangeRateKmS: p.AER.RangeRateKmS,
				Obstructed:   p.AER.Obstructed,
				Epoch:        p.Epoch.String(),
			})
		}
		resp["points"] = out
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEclipse(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var err error
	defer func() { metrics.RecordQuery("eclipse", time.Since(start), err) }()

	at, err := parseEpoch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	body, err := parseID(r, "body")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	observerBody, err := parseID(r, "observer")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	occ, err := s.alm.SolarEclipsing(frames.BodyFixed(body),
		almanac.State{Epoch: at, Frame: frames.Inertial(observerBody)}, almanac.AberrationNone)
	if err != nil {
		writeError(w, queryStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"factor":  occ.Factor,
		"total":   occ.IsTotal(),
		"partial": occ.IsPartial(),
		"none":    occ.IsNone(),
		"epoch":   at.String(),
	})
}

func (s *Server) handleLOS(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var err error
	defer func() { metrics.RecordQuery("los", time.Since(start), err) }()

	at, err := parseEpoch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	from, err := parseID(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := parseID(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	occulter, err := parseID(r, "occulter")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	bufferKm, err := parseFloat(r, "buffer_km", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	blocked, err := s.alm.LineOfSightObstructedBuffered(
		almanac.State{Epoch: at, Frame: frames.Inertial(from)},
		almanac.State{Epoch: at, Frame: frames.Inertial(to)},
		frames.BodyFixed(occulter), bufferKm, at)
	if err != nil {
		writeError(w, queryStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"obstructed": blocked,
		"epoch":      at.String(),
	})
}
