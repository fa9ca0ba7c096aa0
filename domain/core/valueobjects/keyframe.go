package valueobjects

import (
	"fmt"
	"strings"
)

// Interpolation is the interpolation type of a keyframe
type Interpolation int

const (
	InterpolationConstant Interpolation = iota
	InterpolationLinear
	InterpolationSmooth
	InterpolationCatmullRom
	InterpolationCubic
	InterpolationHorizontal
	InterpolationFree
	InterpolationBroken
)

var interpolationNames = map[Interpolation]string{
	InterpolationConstant:   "constant",
	InterpolationLinear:     "linear",
	InterpolationSmooth:     "smooth",
	InterpolationCatmullRom: "catmull-rom",
	InterpolationCubic:      "cubic",
	InterpolationHorizontal: "horizontal",
	InterpolationFree:       "free",
	InterpolationBroken:     "broken",
}

// String returns the interpolation name
func (i Interpolation) String() string {
	if name, ok := interpolationNames[i]; ok {
		return name
	}
	return fmt.Sprintf("interpolation(%d)", int(i))
}

// ParseInterpolation parses an interpolation name, case-insensitively
func ParseInterpolation(name string) (Interpolation, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for interp, n := range interpolationNames {
		if n == name {
			return interp, nil
		}
	}
	return 0, fmt.Errorf("unknown interpolation %q", name)
}

// MarshalText implements encoding.TextMarshaler
func (i Interpolation) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (i *Interpolation) UnmarshalText(text []byte) error {
	parsed, err := ParseInterpolation(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// KeyFrame is a (time, value, interpolation) sample on a curve
type KeyFrame struct {
	Time          float64       `json:"time" yaml:"time"`
	Value         float64       `json:"value" yaml:"value"`
	Interpolation Interpolation `json:"interpolation" yaml:"interpolation"`
}

// NewKeyFrame creates a keyframe with the given interpolation
func NewKeyFrame(time, value float64, interp Interpolation) KeyFrame {
	return KeyFrame{Time: time, Value: value, Interpolation: interp}
}

// WithTime returns a copy of the keyframe at another time
func (k KeyFrame) WithTime(t float64) KeyFrame {
	k.Time = t
	return k
}
