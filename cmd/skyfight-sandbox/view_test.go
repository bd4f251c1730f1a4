package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lixenwraith/skyfight/vmath"
)

func TestHeadingGlyph(t *testing.T) {
	assert.Equal(t, '↑', headingGlyph(vmath.Forward))
	assert.Equal(t, '→', headingGlyph(vmath.Right))
	assert.Equal(t, '↓', headingGlyph(vmath.Vec3{Z: 1}))
	assert.Equal(t, '←', headingGlyph(vmath.Vec3{X: -1}))
	assert.Equal(t, '↖', headingGlyph(vmath.Vec3{X: -1, Z: -1}))
	assert.Equal(t, '•', headingGlyph(vmath.WorldUp))

	yawLeft := vmath.QFromAxisAngle(vmath.Up, math.Pi/2)
	assert.Equal(t, '←', headingGlyph(vmath.QRotate(yawLeft, vmath.Forward)))
}

func TestProject(t *testing.T) {
	center := vmath.Vec3{X: 10, Y: 50, Z: -20}
	x, y := project(center, center, 40, 12)
	assert.Equal(t, 40, x)
	assert.Equal(t, 12, y)

	x, y = project(vmath.Vec3{X: 20, Z: -28}, center, 40, 12)
	assert.Equal(t, 45, x)
	assert.Equal(t, 10, y)
}
