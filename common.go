package diffmerge

// edit is the working form of a Diff. The cleanup passes index and slice text
// by rune, so they operate on rune slices and convert back at the API edge.
//
// Rune slices held by edits are never written through: every change to an
// edit's text assigns a freshly built slice, so sub-slices may share memory.
type edit struct {
	op   Operation
	text []rune
}

func toEdits(diffs []Diff) []edit {
	if diffs == nil {
		return nil
	}
	edits := make([]edit, len(diffs))
	for i, d := range diffs {
		edits[i] = edit{op: d.Type, text: []rune(d.Text)}
	}
	return edits
}

func fromEdits(edits []edit) []Diff {
	if len(edits) == 0 {
		return nil
	}
	diffs := make([]Diff, len(edits))
	for i, e := range edits {
		diffs[i] = Diff{Type: e.op, Text: string(e.text)}
	}
	return diffs
}

// insertEdits returns edits with es spliced in at index i.
func insertEdits(edits []edit, i int, es ...edit) []edit {
	out := make([]edit, 0, len(edits)+len(es))
	out = append(out, edits[:i]...)
	out = append(out, es...)
	return append(out, edits[i:]...)
}

// removeEdits returns edits without the n entries starting at index i.
func removeEdits(edits []edit, i, n int) []edit {
	return append(edits[:i:i], edits[i+n:]...)
}

// concat joins rune slices into a new slice.
func concat(parts ...[]rune) []rune {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]rune, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i, c := range a {
		if c != b[i] {
			return false
		}
	}
	return true
}

func hasPrefix(s, prefix []rune) bool {
	return len(s) >= len(prefix) && runesEqual(s[:len(prefix)], prefix)
}

func hasSuffix(s, suffix []rune) bool {
	return len(s) >= len(suffix) && runesEqual(s[len(s)-len(suffix):], suffix)
}

// runesIndex is strings.Index for rune slices.
func runesIndex(text, pattern []rune) int {
	last := len(text) - len(pattern)
	for i := 0; i <= last; i++ {
		if runesEqual(text[i:i+len(pattern)], pattern) {
			return i
		}
	}
	return -1
}

// runesIndexFrom returns the first index >= from at which pattern occurs.
func runesIndexFrom(text, pattern []rune, from int) int {
	if from < 0 {
		from = 0
	}
	if from > len(text) {
		return -1
	}
	i := runesIndex(text[from:], pattern)
	if i == -1 {
		return -1
	}
	return i + from
}

// runesLastIndexFrom returns the last index <= from at which pattern occurs.
func runesLastIndexFrom(text, pattern []rune, from int) int {
	if from > len(text)-len(pattern) {
		from = len(text) - len(pattern)
	}
	for i := from; i >= 0; i-- {
		if runesEqual(text[i:i+len(pattern)], pattern) {
			return i
		}
	}
	return -1
}

// runesLastIndex is strings.LastIndex for rune slices.
func runesLastIndex(text, pattern []rune) int {
	return runesLastIndexFrom(text, pattern, len(text))
}

// slice returns s[lo:hi] with both bounds clamped to s, the way substring
// treats out-of-range offsets.
func slice(s []rune, lo, hi int) []rune {
	lo = max(0, min(lo, len(s)))
	hi = max(0, min(hi, len(s)))
	if lo > hi {
		lo, hi = hi, lo
	}
	return s[lo:hi]
}

func commonPrefixLength(a, b []rune) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func commonSuffixLength(a, b []rune) int {
	i, j := len(a)-1, len(b)-1
	n := 0
	for i >= 0 && j >= 0 && a[i] == b[j] {
		n++
		i--
		j--
	}
	return n
}

// commonOverlapLength returns the length of the longest suffix of a that is
// also a prefix of b.
func commonOverlapLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Truncate the longer string.
	if len(a) > len(b) {
		a = a[len(a)-len(b):]
	} else if len(a) < len(b) {
		b = b[:len(a)]
	}
	n := len(a)
	if runesEqual(a, b) {
		return n
	}

	// Grow a candidate suffix one match at a time.
	// See https://neil.fraser.name/news/2010/11/04/
	best := 0
	length := 1
	for {
		pattern := a[n-length:]
		found := runesIndex(b, pattern)
		if found == -1 {
			return best
		}
		length += found
		if found == 0 || runesEqual(a[n-length:], b[:length]) {
			best = length
			length++
		}
		if length > n {
			return best
		}
	}
}

// CommonPrefix returns the number of runes shared at the start of a and b.
func CommonPrefix(a, b string) int {
	return commonPrefixLength([]rune(a), []rune(b))
}

// CommonSuffix returns the number of runes shared at the end of a and b.
func CommonSuffix(a, b string) int {
	return commonSuffixLength([]rune(a), []rune(b))
}

// CommonOverlap returns the number of runes at the end of a that match the
// start of b.
func CommonOverlap(a, b string) int {
	return commonOverlapLength([]rune(a), []rune(b))
}
