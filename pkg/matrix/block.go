package matrix

// ConcatHorizontal places b to the right of a. Both must have the same row count.
func ConcatHorizontal[T Scalar](a, b *Matrix[T]) (*Matrix[T], error) {
	if a.rows != b.rows {
		return nil, &DimensionError{Op: "concat horizontal", Want: a.rows, Got: b.rows}
	}

	out := a.Clone()
	offset := a.cols
	for _, e := range b.NonZeros() {
		out.Set(e.Row, offset+e.Col, e.Value)
	}
	out.ResizeCols(a.cols + b.cols)

	return out, nil
}

// ConcatVertical places b below a. Both must have the same column count.
func ConcatVertical[T Scalar](a, b *Matrix[T]) (*Matrix[T], error) {
	if a.cols != b.cols {
		return nil, &DimensionError{Op: "concat vertical", Want: a.cols, Got: b.cols}
	}

	out := a.Clone()
	offset := a.rows
	for _, e := range b.NonZeros() {
		out.Set(offset+e.Row, e.Col, e.Value)
	}
	out.ResizeRows(a.rows + b.rows)

	return out, nil
}

func Transpose[T Scalar](a *Matrix[T]) *Matrix[T] {
	out := New[T](a.cols, a.rows)
	for c, v := range a.entries {
		out.entries[Coord{c.Col, c.Row}] = v
	}
	return out
}

func Negate[T Scalar](a *Matrix[T]) *Matrix[T] {
	out := New[T](a.rows, a.cols)
	for c, v := range a.entries {
		out.entries[c] = -v
	}
	return out
}
