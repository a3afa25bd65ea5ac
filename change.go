package diffmerge

import "fmt"

// Change is a diff entry placed in both coordinate systems: the span it
// covers in the source text and the span it produces in the target text.
type Change struct {
	Type Operation

	SourceStart  int
	SourceEnd    int
	SourceLength int

	TargetStart  int
	TargetEnd    int
	TargetLength int

	SourceText string
	TargetText string
}

// String returns a compact representation such as "Equal [0:5]->[0:5]".
func (c Change) String() string {
	return fmt.Sprintf("%s [%d:%d]->[%d:%d]", c.Type, c.SourceStart, c.SourceEnd, c.TargetStart, c.TargetEnd)
}

// ChangeMake converts diffs into change records. Each record starts where
// the previous one ended, in both texts.
func ChangeMake(diffs []Diff) []Change {
	if len(diffs) == 0 {
		return nil
	}
	changes := make([]Change, 0, len(diffs))
	source, target := 0, 0
	for _, d := range diffs {
		n := runeLen(d.Text)
		c := Change{
			Type:        d.Type,
			SourceStart: source,
			SourceEnd:   source,
			TargetStart: target,
			TargetEnd:   target,
		}
		switch d.Type {
		case Insert:
			c.TargetEnd += n
			c.TargetLength = n
			c.TargetText = d.Text
		case Delete:
			c.SourceEnd += n
			c.SourceLength = n
			c.SourceText = d.Text
		case Equal:
			c.SourceEnd += n
			c.SourceLength = n
			c.SourceText = d.Text
			c.TargetEnd += n
			c.TargetLength = n
			c.TargetText = d.Text
		}
		source = c.SourceEnd
		target = c.TargetEnd
		changes = append(changes, c)
	}
	return changes
}
