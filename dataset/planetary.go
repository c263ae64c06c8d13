package dataset

import (
	"encoding/asn1"
	"fmt"
	"math"
)

// PoleModel holds the IAU-style orientation polynomials of a body: right
// ascension and declination of the pole and the prime meridian angle, each
// as polynomial coefficients in Julian centuries (angles) or days (W), plus
// the nutation-precession trigonometric angle coefficients.
type PoleModel struct {
	RACoeffs  []float64 // deg, deg/cy, deg/cy² ...
	DecCoeffs []float64
	WCoeffs   []float64 // deg, deg/day, ...
	NutPrec   []float64 // nutation-precession angles, paired (offset, rate)
}

// PlanetaryData is one PCA entry: the constants of a body. Optional blocks
// are flagged by presence booleans; absent values are zero.
type PlanetaryData struct {
	ID        int32
	Parent    int32
	HasParent bool

	MuKm3S2 float64
	HasMu   bool

	EquatorialRadiusKm float64
	PolarRadiusKm      float64
	SemiMinorRadiusKm  float64
	HasShape           bool

	Pole *PoleModel
}

// MeanEquatorialRadiusKm returns the average of the two equatorial axes.
func (p PlanetaryData) MeanEquatorialRadiusKm() float64 {
	return (p.EquatorialRadiusKm + p.SemiMinorRadiusKm) / 2
}

// Flattening returns the polar flattening of the shape, zero for a sphere.
func (p PlanetaryData) Flattening() float64 {
	if !p.HasShape || p.EquatorialRadiusKm == 0 {
		return 0
	}
	return (p.EquatorialRadiusKm - p.PolarRadiusKm) / p.EquatorialRadiusKm
}

const (
	pdFlagParent = 1 << iota
	pdFlagMu
	pdFlagShape
	pdFlagPole
)

// wirePlanetary is the DER image of a PlanetaryData. Doubles travel as
// their IEEE-754 bit patterns in minimum-width DER integers, which is
// lossless and endian-neutral.
type wirePlanetary struct {
	ID     int
	Parent int
	Flags  int
	Mu     int64
	EqRad  int64
	PolRad int64
	MinRad int64
	RA     []int64
	Dec    []int64
	W      []int64
	Nut    []int64
}

func bitsOf(fs []float64) []int64 {
	out := make([]int64, len(fs))
	for i, f := range fs {
		out[i] = int64(math.Float64bits(f))
	}
	return out
}

func floatsOf(bs []int64) []float64 {
	out := make([]float64, len(bs))
	for i, b := range bs {
		out[i] = math.Float64frombits(uint64(b))
	}
	return out
}

func marshalPlanetary(p PlanetaryData) ([]byte, error) {
	w := wirePlanetary{
		ID:  int(p.ID),
		RA:  []int64{}, Dec: []int64{}, W: []int64{}, Nut: []int64{},
	}
	if p.HasParent {
		w.Flags |= pdFlagParent
		w.Parent = int(p.Parent)
	}
	if p.HasMu {
		w.Flags |= pdFlagMu
		w.Mu = int64(math.Float64bits(p.MuKm3S2))
	}
	if p.HasShape {
		w.Flags |= pdFlagShape
		w.EqRad = int64(math.Float64bits(p.EquatorialRadiusKm))
		w.PolRad = int64(math.Float64bits(p.PolarRadiusKm))
		w.MinRad = int64(math.Float64bits(p.SemiMinorRadiusKm))
	}
	if p.Pole != nil {
		w.Flags |= pdFlagPole
		w.RA = bitsOf(p.Pole.RACoeffs)
		w.Dec = bitsOf(p.Pole.DecCoeffs)
		w.W = bitsOf(p.Pole.WCoeffs)
		w.Nut = bitsOf(p.Pole.NutPrec)
	}
	return asn1.Marshal(w)
}

func unmarshalPlanetary(blob []byte) (PlanetaryData, error) {
	var w wirePlanetary
	rest, err := asn1.Unmarshal(blob, &w)
	if err != nil {
		return PlanetaryData{}, err
	}
	if len(rest) != 0 {
		return PlanetaryData{}, fmt.Errorf("planetary entry: %d trailing bytes", len(rest))
	}
	p := PlanetaryData{ID: int32(w.ID)}
	if w.Flags&pdFlagParent != 0 {
		p.HasParent = true
		p.Parent = int32(w.Parent)
	}
	if w.Flags&pdFlagMu != 0 {
		p.HasMu = true
		p.MuKm3S2 = math.Float64frombits(uint64(w.Mu))
	}
	if w.Flags&pdFlagShape != 0 {
		p.HasShape = true
		p.EquatorialRadiusKm = math.Float64frombits(uint64(w.EqRad))
		p.PolarRadiusKm = math.Float64frombits(uint64(w.PolRad))
		p.SemiMinorRadiusKm = math.Float64frombits(uint64(w.MinRad))
	}
	if w.Flags&pdFlagPole != 0 {
		p.Pole = &PoleModel{
			RACoeffs:  floatsOf(w.RA),
			DecCoeffs: floatsOf(w.Dec),
			WCoeffs:   floatsOf(w.W),
			NutPrec:   floatsOf(w.Nut),
		}
	}
	return p, nil
}

// PlanetaryCodec serializes PCA entries.
var PlanetaryCodec = Codec[PlanetaryData]{
	Kind:      KindPlanetaryData,
	Capacity:  PlanetaryCapacity,
	Marshal:   marshalPlanetary,
	Unmarshal: unmarshalPlanetary,
}

// PlanetaryDataSet is the PCA container.
type PlanetaryDataSet = DataSet[PlanetaryData]

// NewPlanetaryDataSet returns an empty PCA.
func NewPlanetaryDataSet() *PlanetaryDataSet { return New(PlanetaryCodec) }

// DecodePlanetary loads a PCA image.
func DecodePlanetary(data []byte) (*PlanetaryDataSet, error) {
	return Decode(PlanetaryCodec, data)
}
