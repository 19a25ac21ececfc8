package iss

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArray(t *testing.T) {
	a := DefaultArray()
	assert.InDelta(t, 27.729338644396307, a.EffectiveRadius(), 1e-9)
	assert.InDelta(t, math.Hypot(27, 11), a.CornerRadius(), 1e-12)
	assert.Greater(t, a.EffectiveRadius(), a.FaceDistance)
	assert.Less(t, a.EffectiveRadius(), a.CornerRadius())
	assert.InDelta(t, 504.5, a.Length(), 1e-12)
	assert.InDelta(t, 604.5, a.Back(), 1e-12)

	flat := a
	flat.FaceWidth = 0
	assert.Equal(t, flat.FaceDistance, flat.EffectiveRadius())

	empty := a
	empty.Wafers = 0
	assert.Equal(t, 0.0, empty.Length())
}

func TestArrayStrip(t *testing.T) {
	a := DefaultArray()
	for _, tc := range []struct {
		name string
		s    float64
		want int
		ok   bool
	}{
		{"upstream of the array", 99, -1, false},
		{"first edge", 100, 0, true},
		{"second strip", 101, 1, true},
		{"last strip of first wafer", 224.9, 127, true},
		{"first gap", 225.5, -1, false},
		{"second wafer", 226.5, 128, true},
		{"last edge", 604.5, 4*128 - 1, true},
		{"past the array", 605, -1, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := a.Strip(tc.s)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGeometryValidate(t *testing.T) {
	require.NoError(t, ArraySide(DefaultArray()).Validate())
	require.NoError(t, RecoilSide().Validate())

	for _, tc := range []struct {
		name string
		edit func(g *Geometry)
	}{
		{"negative radius", func(g *Geometry) { g.ShieldInner = -1 }},
		{"nan position", func(g *Geometry) { g.DetectorPlane = math.NaN() }},
		{"infinite tube", func(g *Geometry) { g.TubeRadius = math.Inf(+1) }},
		{"inverted shield", func(g *Geometry) { g.ShieldInner, g.ShieldOuter = 5, 1 }},
		{"inverted active area", func(g *Geometry) { g.ActiveInner = 33 }},
		{"shield past detector", func(g *Geometry) { g.ShieldBack = 1200 }},
		{"inverted detector span", func(g *Geometry) { g.DetectorFront = 1100 }},
		{"active area outside housing", func(g *Geometry) { g.ActiveOuter = 41 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g := RecoilSide()
			tc.edit(&g)
			require.ErrorIs(t, g.Validate(), ErrGeometry)
		})
	}

	a := DefaultArray()
	a.Strips = 0
	require.ErrorIs(t, ArraySide(a).Validate(), ErrGeometry)
}

func TestGeometryRegion(t *testing.T) {
	g := ArraySide(DefaultArray())
	assert.Equal(t, Vacuum, g.Region(10, 44))
	assert.Equal(t, InShield, g.Region(22, 44))
	assert.Equal(t, Vacuum, g.Region(22, 30))
	assert.Equal(t, Beyond, g.Region(700, 0))

	assert.True(t, g.InDetectorSpan(100))
	assert.True(t, g.InDetectorSpan(604.5))
	assert.False(t, g.InDetectorSpan(50))
}

func TestCrossing(t *testing.T) {
	assert.InDelta(t, 12.5, Crossing(10, 0, 15, 20, 10), 1e-12)
	assert.InDelta(t, 7, Crossing(5, 3, 7, 3, 3), 1e-12)
	assert.InDelta(t, 250.0, GyroRadius(-187.5, 0.75), 1e-12)
}
