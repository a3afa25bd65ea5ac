package diffmerge

// bisect finds the middle snake of a diff, splits the problem in two and
// returns the recursively constructed diff.
//
// Algorithm source: Myers 1986, "An O(ND) Difference Algorithm and Its Variations"
// http://www.xmailserver.org/diff2.pdf
//
// The forward path walks from the top-left corner of the edit graph and the
// reverse path from the bottom-right, one edit per round. When the paths
// overlap on a diagonal the texts are split at that point. If the deadline
// passes first, or no overlap exists, the whole block becomes one deletion
// and one insertion; characters are never dropped.
func (dc *diffContext) bisect(text1, text2 []rune) []edit {
	n, m := len(text1), len(text2)
	maxD := (n + m + 1) / 2
	vOffset := maxD
	vLength := 2 * maxD

	v1 := make([]int, vLength+1)
	v2 := make([]int, vLength+1)
	for i := range v1 {
		v1[i] = -1
		v2[i] = -1
	}
	v1[vOffset+1] = 0
	v2[vOffset+1] = 0

	delta := n - m
	// With an odd total the forward path is the one that collides.
	front := delta%2 != 0

	// Diagonals that ran off the grid are trimmed from the k loops.
	k1start, k1end := 0, 0
	k2start, k2end := 0, 0

	for d := 0; d < maxD; d++ {
		if dc.expired() {
			dc.fallbacks++
			break
		}

		// Forward path.
		for k1 := -d + k1start; k1 <= d-k1end; k1 += 2 {
			k1Offset := vOffset + k1
			var x1 int
			if k1 == -d || (k1 != d && v1[k1Offset-1] < v1[k1Offset+1]) {
				x1 = v1[k1Offset+1]
			} else {
				x1 = v1[k1Offset-1] + 1
			}
			y1 := x1 - k1
			for x1 < n && y1 < m && text1[x1] == text2[y1] {
				x1++
				y1++
			}
			v1[k1Offset] = x1
			switch {
			case x1 > n:
				// Ran off the right of the graph.
				k1end += 2
			case y1 > m:
				// Ran off the bottom of the graph.
				k1start += 2
			case front:
				k2Offset := vOffset + delta - k1
				if k2Offset >= 0 && k2Offset < vLength && v2[k2Offset] != -1 {
					// Mirror x2 onto top-left coordinates.
					x2 := n - v2[k2Offset]
					if x1 >= x2 {
						return dc.bisectSplit(text1, text2, x1, y1)
					}
				}
			}
		}

		// Reverse path.
		for k2 := -d + k2start; k2 <= d-k2end; k2 += 2 {
			k2Offset := vOffset + k2
			var x2 int
			if k2 == -d || (k2 != d && v2[k2Offset-1] < v2[k2Offset+1]) {
				x2 = v2[k2Offset+1]
			} else {
				x2 = v2[k2Offset-1] + 1
			}
			y2 := x2 - k2
			for x2 < n && y2 < m && text1[n-x2-1] == text2[m-y2-1] {
				x2++
				y2++
			}
			v2[k2Offset] = x2
			switch {
			case x2 > n:
				// Ran off the left of the graph.
				k2end += 2
			case y2 > m:
				// Ran off the top of the graph.
				k2start += 2
			case !front:
				k1Offset := vOffset + delta - k2
				if k1Offset >= 0 && k1Offset < vLength && v1[k1Offset] != -1 {
					x1 := v1[k1Offset]
					y1 := vOffset + x1 - k1Offset
					// Mirror x2 onto top-left coordinates.
					if x1 >= n-x2 {
						return dc.bisectSplit(text1, text2, x1, y1)
					}
				}
			}
		}
	}

	return []edit{
		{op: Delete, text: text1},
		{op: Insert, text: text2},
	}
}

// bisectSplit diffs the two halves on either side of (x, y) and joins them.
func (dc *diffContext) bisectSplit(text1, text2 []rune, x, y int) []edit {
	a := dc.diff(text1[:x], text2[:y], false)
	b := dc.diff(text1[x:], text2[y:], false)
	return append(a, b...)
}

// DiffBisect runs the bisection step directly on two texts, without the
// prefix, containment and half-match shortcuts. It exists mainly for
// testing the middle-snake search.
func (e *Engine) DiffBisect(text1, text2 string) []Diff {
	dc := e.newDiffContext()
	r1, r2 := []rune(text1), []rune(text2)
	var edits []edit
	switch {
	case len(r1) == 0 && len(r2) == 0:
	case len(r1) == 0:
		edits = []edit{{op: Insert, text: r2}}
	case len(r2) == 0:
		edits = []edit{{op: Delete, text: r1}}
	default:
		edits = dc.bisect(r1, r2)
	}
	e.finish(dc)
	return fromEdits(edits)
}
