package allocator

// Pointer is one of the four traversal pointers.
type Pointer struct {
	Pos    int64 `json:"pos"`
	Active bool  `json:"active"`
}

const (
	phaseStart = iota
	phaseEnd
	phaseMidLow
	phaseMidHigh
	phaseCount
)

// Cursor enumerates every integer in [0, Size) exactly once.
//
// Each round evaluates start, end, mid_low and mid_high in that order. Start
// and end grow inwards from the edges, mid_low and mid_high grow outwards from
// the center. Phase records which pointer is evaluated next, so a cursor saved
// between two calls of Next resumes in the middle of a round.
type Cursor struct {
	Size    int64   `json:"size"`
	Phase   int     `json:"phase"`
	Start   Pointer `json:"start"`
	End     Pointer `json:"end"`
	MidLow  Pointer `json:"mid_low"`
	MidHigh Pointer `json:"mid_high"`
}

// NewCursor create a cursor over [0, size)
func NewCursor(size int64) Cursor {
	mid := size / 2
	return Cursor{
		Size:    size,
		Phase:   phaseStart,
		Start:   Pointer{Pos: 0, Active: true},
		End:     Pointer{Pos: size - 1, Active: true},
		MidLow:  Pointer{Pos: mid, Active: true},
		MidHigh: Pointer{Pos: mid + 1, Active: true},
	}
}

// Exhausted reports whether all four pointers are inactive.
func (c *Cursor) Exhausted() bool {
	return !c.Start.Active && !c.End.Active && !c.MidLow.Active && !c.MidHigh.Active
}

// Next returns the next integer of the traversal. ok is false once the cursor is exhausted.
func (c *Cursor) Next() (n int64, ok bool) {
	for !c.Exhausted() {
		phase := c.Phase
		c.Phase = (c.Phase + 1) % phaseCount

		switch phase {
		case phaseStart:
			if !c.Start.Active {
				continue
			}
			if c.Start.Pos > c.MidLow.Pos {
				c.Start.Active = false
				continue
			}
			n = c.Start.Pos
			c.Start.Pos++
			return n, true
		case phaseEnd:
			if !c.End.Active {
				continue
			}
			if c.End.Pos < c.MidHigh.Pos {
				c.End.Active = false
				continue
			}
			n = c.End.Pos
			c.End.Pos--
			return n, true
		case phaseMidLow:
			if !c.MidLow.Active {
				continue
			}
			if c.MidLow.Pos < c.Start.Pos {
				c.MidLow.Active = false
				continue
			}
			n = c.MidLow.Pos
			c.MidLow.Pos--
			return n, true
		case phaseMidHigh:
			if !c.MidHigh.Active {
				continue
			}
			if c.MidHigh.Pos > c.End.Pos {
				c.MidHigh.Active = false
				continue
			}
			n = c.MidHigh.Pos
			c.MidHigh.Pos++
			return n, true
		}
	}

	return 0, false
}

// Emitted reports whether n has already been returned by Next.
func (c *Cursor) Emitted(n int64) bool {
	if n < 0 || n >= c.Size {
		return false
	}

	mid := c.Size / 2
	switch {
	case n < c.Start.Pos:
		return true
	case n > c.End.Pos:
		return true
	case n > c.MidLow.Pos && n <= mid:
		return true
	case n > mid && n < c.MidHigh.Pos:
		return true
	}

	return false
}

// Remaining 剩余未分配的数量
func (c *Cursor) Remaining() int64 {
	if c.Exhausted() {
		return 0
	}

	var remaining int64
	// [start, mid_low] and [mid_high, end] hold everything not yet emitted
	if c.MidLow.Pos >= c.Start.Pos {
		remaining += c.MidLow.Pos - c.Start.Pos + 1
	}
	if c.End.Pos >= c.MidHigh.Pos {
		remaining += c.End.Pos - c.MidHigh.Pos + 1
	}

	return remaining
}
