package transform

import (
	gomath "math"

	"github.com/Faultbox/relief/pkg/math"
)

// OrbitCamera orbits around a center point in a Z-up world.
type OrbitCamera struct {
	// Center point to orbit around
	Center math.Vec3

	// Spherical coordinates
	Distance float64 // Distance from center
	Pitch    float64 // Angle above the ground plane (radians)
	Yaw      float64 // Rotation around the Z axis (radians)

	// Constraints
	MinDistance float64
	MaxDistance float64
	MinPitch    float64
	MaxPitch    float64

	// Sensitivity
	DragSensitivity float64
	ZoomSensitivity float64
}

// NewOrbitCamera creates an orbit camera looking at one tile from the south.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        1.5 * worldTileSize,
		Pitch:           0.9,
		MinDistance:     worldTileSize / 64,
		MaxDistance:     worldTileSize * 64,
		MinPitch:        0.1,
		MaxPitch:        gomath.Pi/2 - 0.01,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	horiz := c.Distance * gomath.Cos(c.Pitch)
	return math.Vec3{
		X: c.Center.X + horiz*gomath.Sin(c.Yaw),
		Y: c.Center.Y - horiz*gomath.Cos(c.Yaw),
		Z: c.Center.Z + c.Distance*gomath.Sin(c.Pitch),
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Z: 1})
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float64) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity
	c.Pitch = clamp(c.Pitch, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float64) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the center point on the ground plane.
func (c *OrbitCamera) HandleMovement(forward, right float64) {
	// Speed scales with distance for consistent feel
	speed := c.Distance * 0.01

	fx, fy := gomath.Sin(c.Yaw), gomath.Cos(c.Yaw)
	rx, ry := gomath.Cos(c.Yaw), -gomath.Sin(c.Yaw)

	c.Center.X += (fx*forward + rx*right) * speed
	c.Center.Y += (fy*forward + ry*right) * speed
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
