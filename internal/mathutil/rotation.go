package mathutil

import "math"

// axisRotation rotates by a radians about axis i (0 = X, 1 = Y, 2 = Z),
// counter-clockwise looking down the axis.
func axisRotation(i int, a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	j, k := (i+1)%3, (i+2)%3
	m := Mat3Identity()
	m[j*3+j], m[j*3+k] = c, -s
	m[k*3+j], m[k*3+k] = s, c
	return m
}

func RotX(a float64) Mat3 { return axisRotation(0, a) }
func RotY(a float64) Mat3 { return axisRotation(1, a) }
func RotZ(a float64) Mat3 { return axisRotation(2, a) }

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 { return d * math.Pi / 180 }
