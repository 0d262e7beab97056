package scene

import (
	"math"

	"github.com/scenestream/scenestream/pkg/types"
)

// quat is a rotation quaternion in (w, x, y, z) order.
type quat struct{ w, x, y, z float64 }

// zUpToYUp rotates -90° about X. Right-multiplying a Blender orientation by it
// gives the camera-style orientation a Y-up viewer expects.
var zUpToYUp = axisAngleX(-math.Pi / 2)

func axisAngleX(angle float64) quat {
	s, c := math.Sincos(angle / 2)
	return quat{w: c, x: s}
}

// mul returns the Hamilton product q*r.
func (q quat) mul(r quat) quat {
	return quat{
		w: q.w*r.w - q.x*r.x - q.y*r.y - q.z*r.z,
		x: q.w*r.x + q.x*r.w + q.y*r.z - q.z*r.y,
		y: q.w*r.y - q.x*r.z + q.y*r.w + q.z*r.x,
		z: q.w*r.z + q.x*r.y - q.y*r.x + q.z*r.w,
	}
}

// normalized returns q scaled to unit length. A zero quaternion becomes the
// identity.
func (q quat) normalized() quat {
	n := math.Sqrt(q.w*q.w + q.x*q.x + q.y*q.y + q.z*q.z)
	if n == 0 {
		return quat{w: 1}
	}
	return quat{w: q.w / n, x: q.x / n, y: q.y / n, z: q.z / n}
}

// matrix returns the rotation matrix of a unit quaternion in column-major
// order: m[col][row].
func (q quat) matrix() [3][3]float64 {
	const sqrt2 = math.Sqrt2
	q0, q1, q2, q3 := sqrt2*q.w, sqrt2*q.x, sqrt2*q.y, sqrt2*q.z

	qda, qdb, qdc := q0*q1, q0*q2, q0*q3
	qaa, qab, qac := q1*q1, q1*q2, q1*q3
	qbb, qbc, qcc := q2*q2, q2*q3, q3*q3

	return [3][3]float64{
		{1 - qbb - qcc, qdc + qab, -qdb + qac},
		{-qdc + qab, 1 - qaa - qcc, qda + qbc},
		{qdb + qac, -qda + qbc, 1 - qaa - qbb},
	}
}

// eulerXYZ decomposes a unit quaternion into XYZ Euler angles (radians).
// Two solutions exist away from gimbal lock; the one with the smaller sum of
// absolute angles wins, matching Blender's to_euler('XYZ').
func (q quat) eulerXYZ() [3]float64 {
	const eps = 16 * 1.1920929e-07 // 16 * FLT_EPSILON

	m := q.matrix()
	cy := math.Hypot(m[0][0], m[0][1])

	if cy <= eps {
		return [3]float64{
			math.Atan2(-m[2][1], m[1][1]),
			math.Atan2(-m[0][2], cy),
			0,
		}
	}

	a := [3]float64{
		math.Atan2(m[1][2], m[2][2]),
		math.Atan2(-m[0][2], cy),
		math.Atan2(m[0][1], m[0][0]),
	}
	b := [3]float64{
		math.Atan2(-m[1][2], -m[2][2]),
		math.Atan2(-m[0][2], -cy),
		math.Atan2(-m[0][1], -m[0][0]),
	}
	if absSum(a) > absSum(b) {
		return b
	}
	return a
}

func absSum(v [3]float64) float64 {
	return math.Abs(v[0]) + math.Abs(v[1]) + math.Abs(v[2])
}

// position maps a Blender location (x, y, z) to (x, z, -y).
func position(loc [3]float64) types.Vec3 {
	return types.Vec3{X: loc[0], Y: loc[2], Z: -loc[1]}
}

// orientation converts a Blender world rotation (w, x, y, z) into the viewer
// quaternion and XYZ Euler angles.
func orientation(rot [4]float64) (types.Quat, types.Vec3) {
	q := quat{w: rot[0], x: rot[1], y: rot[2], z: rot[3]}.normalized().mul(zUpToYUp)
	e := q.eulerXYZ()

	return types.Quat{X: q.x, Y: q.z, Z: -q.y, W: q.w},
		types.Vec3{X: e[0], Y: e[2], Z: -e[1]}
}

// verticalFOV returns the vertical field of view in degrees for a camera, or
// nil when the camera is not perspective. Horizontal and automatic sensor
// fits are converted using the render aspect ratio.
func verticalFOV(cam *Camera, resX, resY int) *float64 {
	if cam == nil || cam.Projection != ProjectionPerspective {
		return nil
	}

	angle := cam.Angle
	switch cam.SensorFit {
	case SensorFitAuto, SensorFitHorizontal, "":
		if resX > 0 && resY > 0 {
			aspect := float64(resX) / float64(resY)
			angle = 2 * math.Atan(math.Tan(cam.Angle/2)/aspect)
		}
	}

	deg := angle * 180 / math.Pi
	return &deg
}
