// Package components defines ECS components for the simulation.
package components

import "math"

// Position represents an agent's world position.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Velocity represents an agent's velocity in world units per second.
type Velocity struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Speed returns the velocity magnitude.
func (v Velocity) Speed() float64 {
	return math.Hypot(v.X, v.Y)
}

// Scale multiplies the velocity by f.
func (v *Velocity) Scale(f float64) {
	v.X *= f
	v.Y *= f
}

// SetLength rescales the velocity to the given magnitude, keeping its heading.
// A zero velocity stays zero.
func (v *Velocity) SetLength(length float64) {
	speed := v.Speed()
	if speed == 0 {
		return
	}
	v.Scale(length / speed)
}

// Rotate turns the velocity by angle radians.
func (v *Velocity) Rotate(angle float64) {
	sin, cos := math.Sincos(angle)
	v.X, v.Y = v.X*cos-v.Y*sin, v.X*sin+v.Y*cos
}

// Polar returns a velocity with the given heading and speed.
func Polar(angle, speed float64) Velocity {
	sin, cos := math.Sincos(angle)
	return Velocity{X: cos * speed, Y: sin * speed}
}

// DistSq returns the squared distance between two positions.
func DistSq(a, b Position) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	return dx*dx + dy*dy
}
