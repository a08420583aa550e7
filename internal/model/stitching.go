package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownStitching = errors.New("unknown stitching mode")

// StitchingMode is the connectivity rule that turns the sample grid into a
// triangle mesh. It applies to the whole population at once.
type StitchingMode int

const (
	StitchPlane StitchingMode = iota
	StitchCylinder
	StitchSphere
	StitchTorus
)

var stitchingNames = [...]string{
	StitchPlane:    "plane",
	StitchCylinder: "cylinder",
	StitchSphere:   "sphere",
	StitchTorus:    "torus",
}

func (m StitchingMode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("stitching(%d)", int(m))
	}
	return stitchingNames[m]
}

func (m StitchingMode) Valid() bool {
	return m >= StitchPlane && m <= StitchTorus
}

func StitchingModes() []StitchingMode {
	return []StitchingMode{StitchPlane, StitchCylinder, StitchSphere, StitchTorus}
}

func ParseStitchingMode(name string) (StitchingMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range stitchingNames {
		if candidate == normalized {
			return StitchingMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStitching, name)
}
