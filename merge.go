package diffmerge

import (
	"fmt"
	"strings"
)

// RegionKind classifies a region of a three-way merge.
type RegionKind int

const (
	// NoConflict means both sides agree on the region's text.
	NoConflict RegionKind = iota
	// ChooseLeft means only the left side changed the region.
	ChooseLeft
	// ChooseRight means only the right side changed the region.
	ChooseRight
	// PossibleConflict means both sides changed the region differently.
	PossibleConflict
)

// String returns the identifier used for the kind in serialized output.
func (k RegionKind) String() string {
	switch k {
	case NoConflict:
		return "no_conflict_found"
	case ChooseLeft:
		return "choose_left"
	case ChooseRight:
		return "choose_right"
	case PossibleConflict:
		return "possible_conflict"
	default:
		return "unknown"
	}
}

// Region is one span of a three-way merge. The base span [BaseLo, BaseHi)
// corresponds to [LeftLo, LeftHi) in the left text and [RightLo, RightHi)
// in the right text. Consecutive regions tile all three texts.
type Region struct {
	Kind RegionKind

	LeftChanges []Change
	LeftLo      int
	LeftHi      int
	LeftText    string

	RightChanges []Change
	RightLo      int
	RightHi      int
	RightText    string

	BaseLo   int
	BaseHi   int
	BaseText string
}

func (r Region) String() string {
	return fmt.Sprintf("%s base[%d:%d] left[%d:%d] right[%d:%d]",
		r.Kind, r.BaseLo, r.BaseHi, r.LeftLo, r.LeftHi, r.RightLo, r.RightHi)
}

// Merge diffs left and right against their common ancestor base and walks
// both change streams together, emitting regions that partition base.
//
// An insertion on one side becomes a ChooseLeft or ChooseRight region of
// zero base width. Stretches both sides kept are NoConflict. A deletion
// opens a region that absorbs everything either side did to the overlapping
// part of base; it is credited to the one side that changed it, NoConflict
// if both sides produced the same text, and PossibleConflict otherwise.
func (e *Engine) Merge(base, left, right string) ([]Region, error) {
	leftChanges, err := e.sideChanges(base, left)
	if err != nil {
		return nil, err
	}
	rightChanges, err := e.sideChanges(base, right)
	if err != nil {
		return nil, err
	}

	w := &mergeWalk{
		left:  &changeStream{queue: leftChanges},
		right: &changeStream{queue: rightChanges},
		base:  []rune(base),
	}
	if err := w.run(); err != nil {
		return nil, err
	}
	if err := checkPartition(w.regions, base); err != nil {
		return nil, err
	}

	for _, r := range w.regions {
		e.metrics.region(r.Kind)
		if r.Kind == PossibleConflict {
			e.log.Debug("merge conflict", "base_lo", r.BaseLo, "base_hi", r.BaseHi)
		}
	}
	return w.regions, nil
}

// sideChanges diffs base against one side and returns the change records
// the walk consumes. Zero-width equalities and deletions carry no base span
// and are dropped.
func (e *Engine) sideChanges(base, side string) ([]Change, error) {
	edits, err := e.diffMain(base, side, true)
	if err != nil {
		return nil, err
	}
	edits = cleanupEfficiency(edits, e.opts.editCost)
	var out []Change
	for _, c := range ChangeMake(fromEdits(edits)) {
		if c.Type != Insert && c.SourceLength == 0 {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// changeStream is one side's change records with the record being worked on.
type changeStream struct {
	head  *Change
	queue []Change
}

// peek returns the current record, refilling from the queue when needed.
func (s *changeStream) peek() *Change {
	if s.head == nil && len(s.queue) > 0 {
		c := s.queue[0]
		s.queue = s.queue[1:]
		s.head = &c
	}
	return s.head
}

func (s *changeStream) take() Change {
	c := *s.peek()
	s.head = nil
	return c
}

// mergeWalk holds the cursors of a merge in progress. leftIndex and
// rightIndex are the target offsets matching baseIndex on each side.
type mergeWalk struct {
	left, right *changeStream
	base        []rune

	baseIndex  int
	leftIndex  int
	rightIndex int

	regions []Region
}

func (w *mergeWalk) run() error {
	for {
		lh, rh := w.left.peek(), w.right.peek()
		switch {
		case lh == nil && rh == nil:
			return nil
		case lh != nil && lh.Type == Insert:
			w.chooseLeft(w.left.take())
		case rh != nil && rh.Type == Insert:
			w.chooseRight(w.right.take())
		case lh != nil && rh != nil && lh.Type == Equal && rh.Type == Equal:
			w.combineEqual()
		case (lh != nil && lh.Type == Delete) || (rh != nil && rh.Type == Delete):
			w.deletion()
		default:
			// One side ran out while the other still covers base.
			return internalError("merge", "change streams out of step", "base_index", w.baseIndex)
		}
	}
}

func (w *mergeWalk) chooseLeft(op Change) {
	w.regions = append(w.regions, Region{
		Kind:        ChooseLeft,
		LeftChanges: []Change{op},
		LeftLo:      op.TargetStart,
		LeftHi:      op.TargetEnd,
		LeftText:    op.TargetText,
		RightLo:     w.rightIndex,
		RightHi:     w.rightIndex,
		BaseLo:      w.baseIndex,
		BaseHi:      w.baseIndex,
	})
	w.leftIndex = op.TargetEnd
}

func (w *mergeWalk) chooseRight(op Change) {
	w.regions = append(w.regions, Region{
		Kind:         ChooseRight,
		LeftLo:       w.leftIndex,
		LeftHi:       w.leftIndex,
		RightChanges: []Change{op},
		RightLo:      op.TargetStart,
		RightHi:      op.TargetEnd,
		RightText:    op.TargetText,
		BaseLo:       w.baseIndex,
		BaseHi:       w.baseIndex,
	})
	w.rightIndex = op.TargetEnd
}

// combineEqual emits the stretch both sides kept, up to the nearer end of
// the two equalities. The longer equality's remainder stays at the head.
func (w *mergeWalk) combineEqual() {
	lh, rh := w.left.head, w.right.head
	end := min(lh.SourceEnd, rh.SourceEnd)
	l := splitChange(w.left, end)
	r := splitChange(w.right, end)
	w.regions = append(w.regions, Region{
		Kind:         NoConflict,
		LeftChanges:  []Change{l},
		LeftLo:       l.TargetStart,
		LeftHi:       l.TargetEnd,
		LeftText:     l.TargetText,
		RightChanges: []Change{r},
		RightLo:      r.TargetStart,
		RightHi:      r.TargetEnd,
		RightText:    r.TargetText,
		BaseLo:       l.SourceStart,
		BaseHi:       l.SourceEnd,
		BaseText:     l.SourceText,
	})
	w.baseIndex = l.SourceEnd
	w.leftIndex = l.TargetEnd
	w.rightIndex = r.TargetEnd
}

// deletion emits one region covering a deletion on either side together
// with whatever the other side did to the same part of base.
func (w *mergeWalk) deletion() {
	lo, hi := w.baseIndex, w.baseIndex
	var left, right []Change
	// Absorb until neither stream has a record starting inside [lo, hi).
	// Deletions can extend hi, which can pull in more of the other side.
	for {
		grown := false
		for _, side := range []struct {
			s   *changeStream
			out *[]Change
		}{{w.left, &left}, {w.right, &right}} {
			for {
				c := side.s.peek()
				if c == nil || !absorbs(c, *side.out, lo, hi) {
					break
				}
				if c.Type == Equal && c.SourceEnd > hi {
					*side.out = append(*side.out, splitChange(side.s, hi))
					continue
				}
				*side.out = append(*side.out, side.s.take())
				if c.SourceEnd > hi {
					hi = c.SourceEnd
					grown = true
				}
			}
		}
		if !grown {
			break
		}
	}

	r := Region{
		LeftChanges:  left,
		RightChanges: right,
		BaseLo:       lo,
		BaseHi:       hi,
		BaseText:     string(w.base[lo:hi]),
	}
	r.LeftLo, r.LeftHi, r.LeftText = span(left, w.leftIndex)
	r.RightLo, r.RightHi, r.RightText = span(right, w.rightIndex)

	leftChanged, rightChanged := changed(left), changed(right)
	switch {
	case leftChanged && !rightChanged:
		r.Kind = ChooseLeft
	case rightChanged && !leftChanged:
		r.Kind = ChooseRight
	case r.LeftText == r.RightText:
		r.Kind = NoConflict
	default:
		r.Kind = PossibleConflict
	}
	w.regions = append(w.regions, r)
	w.baseIndex = hi
	w.leftIndex = r.LeftHi
	w.rightIndex = r.RightHi
}

// absorbs reports whether c belongs to a deletion region spanning [lo, hi).
// The first record at lo always does. An insertion directly after an
// absorbed deletion is its replacement text and goes with it.
func absorbs(c *Change, taken []Change, lo, hi int) bool {
	if len(taken) == 0 && c.SourceStart == lo && c.Type == Delete {
		return true
	}
	if c.SourceStart < hi {
		return true
	}
	if c.Type == Insert && c.SourceStart == hi && len(taken) > 0 {
		return taken[len(taken)-1].Type == Delete
	}
	return false
}

// splitChange takes the part of the stream's head equality that ends at
// base offset end, leaving the remainder at the head.
func splitChange(s *changeStream, end int) Change {
	c := s.peek()
	n := end - c.SourceStart
	if n >= c.SourceLength {
		return s.take()
	}
	text := []rune(c.SourceText)
	head := Change{
		Type:         c.Type,
		SourceStart:  c.SourceStart,
		SourceEnd:    c.SourceStart + n,
		SourceLength: n,
		TargetStart:  c.TargetStart,
		TargetEnd:    c.TargetStart + n,
		TargetLength: n,
		SourceText:   string(text[:n]),
		TargetText:   string(text[:n]),
	}
	rest := c.SourceLength - n
	*c = Change{
		Type:         c.Type,
		SourceStart:  head.SourceEnd,
		SourceEnd:    c.SourceEnd,
		SourceLength: rest,
		TargetStart:  head.TargetEnd,
		TargetEnd:    c.TargetEnd,
		TargetLength: rest,
		SourceText:   string(text[n:]),
		TargetText:   string(text[n:]),
	}
	return head
}

// span returns the target span and text covered by changes, or an empty
// span at cursor when there are none.
func span(changes []Change, cursor int) (int, int, string) {
	if len(changes) == 0 {
		return cursor, cursor, ""
	}
	var b strings.Builder
	for _, c := range changes {
		b.WriteString(c.TargetText)
	}
	return changes[0].TargetStart, changes[len(changes)-1].TargetEnd, b.String()
}

func changed(changes []Change) bool {
	for _, c := range changes {
		if c.Type != Equal {
			return true
		}
	}
	return false
}

// checkPartition verifies that regions tile base in order.
func checkPartition(regions []Region, base string) error {
	var b strings.Builder
	next := 0
	for i, r := range regions {
		if r.BaseLo != next || r.BaseHi < r.BaseLo {
			return internalError("merge", "regions do not partition base", "region", i, "base_lo", r.BaseLo, "expected", next)
		}
		b.WriteString(r.BaseText)
		next = r.BaseHi
	}
	if b.String() != base {
		return internalError("merge", "regions do not partition base", "base_length", runeLen(base), "covered", next)
	}
	return nil
}
