package console

import (
	"fmt"
	"math"
	"strings"
)

// Point is a position in metres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is an orientation; it is normalised on conversion.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Pose matches geometry_msgs/Pose.
type Pose struct {
	Position    Point      `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// Frame is a 4x4 homogeneous transform, row major.
type Frame [4][4]float64

// IdentityFrame returns the frame shown before any pose has arrived.
func IdentityFrame() Frame {
	return Frame{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// FrameFromPose converts a pose into a homogeneous frame. A zero quaternion
// yields an identity rotation.
func FrameFromPose(p Pose) Frame {
	f := IdentityFrame()

	q := p.Orientation
	n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if n > 0 {
		x, y, z, w := q.X/n, q.Y/n, q.Z/n, q.W/n

		f[0][0] = 1 - 2*(y*y+z*z)
		f[0][1] = 2 * (x*y - z*w)
		f[0][2] = 2 * (x*z + y*w)

		f[1][0] = 2 * (x*y + z*w)
		f[1][1] = 1 - 2*(x*x+z*z)
		f[1][2] = 2 * (y*z - x*w)

		f[2][0] = 2 * (x*z - y*w)
		f[2][1] = 2 * (y*z + x*w)
		f[2][2] = 1 - 2*(x*x+y*y)
	}

	f[0][3] = p.Position.X
	f[1][3] = p.Position.Y
	f[2][3] = p.Position.Z
	return f
}

// Translation returns the position column.
func (f Frame) Translation() Point {
	return Point{X: f[0][3], Y: f[1][3], Z: f[2][3]}
}

// Rows formats each row with fixed precision for display.
func (f Frame) Rows(precision int) []string {
	rows := make([]string, 4)
	for i := range f {
		cells := make([]string, 4)
		for j := range f[i] {
			v := f[i][j]
			// values that round to zero would print as -0
			if math.Abs(v) < 0.5*math.Pow10(-precision) {
				v = 0
			}
			cells[j] = fmt.Sprintf("%*.*f", precision+4, precision, v)
		}
		rows[i] = strings.Join(cells, " ")
	}
	return rows
}
