package dataset

import (
	"encoding/asn1"
	"fmt"
	"math"

	"github.com/SwitchbackEngineer/anise/rotation"
)

// EulerParameters is one EPA entry: a constant unit quaternion rotating the
// From orientation frame into the To orientation frame.
type EulerParameters struct {
	Q    rotation.Quaternion
	From int32
	To   int32
}

type wireEuler struct {
	W    int64
	X    int64
	Y    int64
	Z    int64
	From int
	To   int
}

func marshalEuler(e EulerParameters) ([]byte, error) {
	if !e.Q.IsUnit() {
		return nil, fmt.Errorf("euler entry %d->%d: quaternion norm %v deviates beyond %v",
			e.From, e.To, e.Q.Norm(), rotation.UnitNormTolerance)
	}
	return asn1.Marshal(wireEuler{
		W:    int64(math.Float64bits(e.Q.W)),
		X:    int64(math.Float64bits(e.Q.X)),
		Y:    int64(math.Float64bits(e.Q.Y)),
		Z:    int64(math.Float64bits(e.Q.Z)),
		From: int(e.From),
		To:   int(e.To),
	})
}

func unmarshalEuler(blob []byte) (EulerParameters, error) {
	var w wireEuler
	rest, err := asn1.Unmarshal(blob, &w)
	if err != nil {
		return EulerParameters{}, err
	}
	if len(rest) != 0 {
		return EulerParameters{}, fmt.Errorf("euler entry: %d trailing bytes", len(rest))
	}
	e := EulerParameters{
		Q: rotation.Quaternion{
			W: math.Float64frombits(uint64(w.W)),
			X: math.Float64frombits(uint64(w.X)),
			Y: math.Float64frombits(uint64(w.Y)),
			Z: math.Float64frombits(uint64(w.Z)),
		},
		From: int32(w.From),
		To:   int32(w.To),
	}
	if !e.Q.IsUnit() {
		return EulerParameters{}, fmt.Errorf("euler entry %d->%d: quaternion norm %v deviates beyond %v",
			e.From, e.To, e.Q.Norm(), rotation.UnitNormTolerance)
	}
	return e, nil
}

// EulerCodec serializes EPA entries.
var EulerCodec = Codec[EulerParameters]{
	Kind:      KindEulerParameters,
	Capacity:  EulerCapacity,
	Marshal:   marshalEuler,
	Unmarshal: unmarshalEuler,
}

// EulerParameterDataSet is the EPA container.
type EulerParameterDataSet = DataSet[EulerParameters]

// NewEulerParameterDataSet returns an empty EPA.
func NewEulerParameterDataSet() *EulerParameterDataSet { return New(EulerCodec) }

// DecodeEuler loads an EPA image.
func DecodeEuler(data []byte) (*EulerParameterDataSet, error) {
	return Decode(EulerCodec, data)
}
