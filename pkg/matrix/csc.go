package matrix

// CSC is the compressed sparse column form handed to the LU solver.
// Column j owns RowIdx[ColPtr[j]:ColPtr[j+1]] in ascending row order.
type CSC[T Scalar] struct {
	Rows   int
	Cols   int
	ColPtr []int
	RowIdx []int
	Values []T
}

func (m *Matrix[T]) ToCSC() *CSC[T] {
	nz := m.NonZeros()

	c := &CSC[T]{
		Rows:   m.rows,
		Cols:   m.cols,
		ColPtr: make([]int, m.cols+1),
		RowIdx: make([]int, len(nz)),
		Values: make([]T, len(nz)),
	}

	for _, e := range nz {
		c.ColPtr[e.Col+1]++
	}
	for j := range m.cols {
		c.ColPtr[j+1] += c.ColPtr[j]
	}

	// nz is row-major, so each column is filled in ascending row order
	next := make([]int, m.cols)
	copy(next, c.ColPtr[:m.cols])
	for _, e := range nz {
		k := next[e.Col]
		c.RowIdx[k] = e.Row
		c.Values[k] = e.Value
		next[e.Col]++
	}

	return c
}

func (c *CSC[T]) Nnz() int {
	return len(c.Values)
}

// Column calls fn for each stored entry of column j.
func (c *CSC[T]) Column(j int, fn func(row int, value T)) {
	for k := c.ColPtr[j]; k < c.ColPtr[j+1]; k++ {
		fn(c.RowIdx[k], c.Values[k])
	}
}

// StructuralCheck finds an equation that cannot be pivoted for any choice of
// values: an empty row, an empty column, or a column left unmatched by a
// maximum row/column matching. Returns nil for structurally nonsingular patterns.
func (c *CSC[T]) StructuralCheck() *SingularError {
	rowUsed := make([]bool, c.Rows)
	for j := range c.Cols {
		if c.ColPtr[j] == c.ColPtr[j+1] {
			return &SingularError{Equation: j, Reason: "empty column"}
		}
		c.Column(j, func(row int, _ T) { rowUsed[row] = true })
	}
	for i, used := range rowUsed {
		if !used {
			return &SingularError{Equation: i, Reason: "empty row"}
		}
	}

	matchRow := make([]int, c.Rows) // row -> matched column
	for i := range matchRow {
		matchRow[i] = -1
	}
	visited := make([]int, c.Rows)
	for i := range visited {
		visited[i] = -1
	}

	var augment func(col, stamp int) bool
	augment = func(col, stamp int) bool {
		for k := c.ColPtr[col]; k < c.ColPtr[col+1]; k++ {
			row := c.RowIdx[k]
			if visited[row] == stamp {
				continue
			}
			visited[row] = stamp
			if matchRow[row] < 0 || augment(matchRow[row], stamp) {
				matchRow[row] = col
				return true
			}
		}
		return false
	}

	for j := range c.Cols {
		if !augment(j, j) {
			return &SingularError{Equation: j, Reason: "structurally rank deficient"}
		}
	}

	return nil
}
