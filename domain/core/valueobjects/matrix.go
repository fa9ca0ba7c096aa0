package valueobjects

// Matrix3 is a 2D affine transform over (time, value) in row-major order.
// The implicit last row is (0, 0, 1).
//
//	| A B C |
//	| D E F |
type Matrix3 struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transform
func Identity() Matrix3 {
	return Matrix3{A: 1, E: 1}
}

// Translation returns a transform offsetting time by dt and value by dv
func Translation(dt, dv float64) Matrix3 {
	return Matrix3{A: 1, C: dt, E: 1, F: dv}
}

// Scale returns a transform scaling time by sx and value by sy around the origin
func Scale(sx, sy float64) Matrix3 {
	return Matrix3{A: sx, E: sy}
}

// ScaleAround returns a scale by (sx, sy) around the pivot (pt, pv)
func ScaleAround(pt, pv, sx, sy float64) Matrix3 {
	return Translation(pt, pv).Multiply(Scale(sx, sy)).Multiply(Translation(-pt, -pv))
}

// Multiply returns m*o, the transform applying o first and then m
func (m Matrix3) Multiply(o Matrix3) Matrix3 {
	return Matrix3{
		A: m.A*o.A + m.B*o.D,
		B: m.A*o.B + m.B*o.E,
		C: m.A*o.C + m.B*o.F + m.C,
		D: m.D*o.A + m.E*o.D,
		E: m.D*o.B + m.E*o.E,
		F: m.D*o.C + m.E*o.F + m.F,
	}
}

// Apply transforms the point (t, v)
func (m Matrix3) Apply(t, v float64) (float64, float64) {
	return m.A*t + m.B*v + m.C, m.D*t + m.E*v + m.F
}

// IsIdentity reports whether m leaves every point unchanged
func (m Matrix3) IsIdentity() bool {
	return m == Identity()
}
