package model

// FieldValue is a complex field sample. Real-valued runs leave the imaginary part zero.
type FieldValue = complex128

// FieldPoint holds the current and the two previous time levels of one cell.
type FieldPoint struct {
	Cur      FieldValue
	Prev     FieldValue
	PrevPrev FieldValue
}

// ShiftInTime retires PrevPrev and copies Cur into Prev.
func (p *FieldPoint) ShiftInTime() {
	p.PrevPrev = p.Prev
	p.Prev = p.Cur
}

// PointFloats is the number of float64 values one FieldPoint flattens to.
const PointFloats = 6

// AppendPoint flattens p onto dst.
func AppendPoint(dst []float64, p FieldPoint) []float64 {
	return append(dst,
		real(p.Cur), imag(p.Cur),
		real(p.Prev), imag(p.Prev),
		real(p.PrevPrev), imag(p.PrevPrev))
}

// PointAt reads the i-th point of a flattened buffer.
func PointAt(src []float64, i int) FieldPoint {
	s := src[i*PointFloats : (i+1)*PointFloats]
	return FieldPoint{
		Cur:      complex(s[0], s[1]),
		Prev:     complex(s[2], s[3]),
		PrevPrev: complex(s[4], s[5]),
	}
}
