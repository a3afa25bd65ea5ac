package diffmerge

import "unicode/utf8"

// DiffMain finds the differences between text1 and text2.
//
// When checklines is true and both texts are long, a line-level diff runs
// first to find the changed regions, which are then rediffed character by
// character. This is faster and slightly less optimal.
//
// Both texts must be valid UTF-8; anything else cannot be represented as
// runes without loss and is reported as an internal error.
func (e *Engine) DiffMain(text1, text2 string, checklines bool) ([]Diff, error) {
	edits, err := e.diffMain(text1, text2, checklines)
	if err != nil {
		return nil, err
	}
	return fromEdits(edits), nil
}

func (e *Engine) diffMain(text1, text2 string, checklines bool) ([]edit, error) {
	if !utf8.ValidString(text1) {
		return nil, internalError("diff_main", "invalid input", "text", 1)
	}
	if !utf8.ValidString(text2) {
		return nil, internalError("diff_main", "invalid input", "text", 2)
	}
	dc := e.newDiffContext()
	edits := dc.diff([]rune(text1), []rune(text2), checklines)
	e.finish(dc)
	return edits, nil
}

// diff strips the common prefix and suffix, diffs the middle and normalizes
// the result. Every recursive step goes through here.
func (dc *diffContext) diff(text1, text2 []rune, checklines bool) []edit {
	if runesEqual(text1, text2) {
		if len(text1) == 0 {
			return nil
		}
		return []edit{{op: Equal, text: text1}}
	}

	n := commonPrefixLength(text1, text2)
	prefix := text1[:n]
	text1, text2 = text1[n:], text2[n:]

	n = commonSuffixLength(text1, text2)
	suffix := text1[len(text1)-n:]
	text1, text2 = text1[:len(text1)-n], text2[:len(text2)-n]

	edits := dc.compute(text1, text2, checklines)

	if len(prefix) != 0 {
		edits = insertEdits(edits, 0, edit{op: Equal, text: prefix})
	}
	if len(suffix) != 0 {
		edits = append(edits, edit{op: Equal, text: suffix})
	}
	return cleanupMerge(edits)
}

// compute diffs two texts that share no common prefix or suffix.
func (dc *diffContext) compute(text1, text2 []rune, checklines bool) []edit {
	if len(text1) == 0 {
		return []edit{{op: Insert, text: text2}}
	}
	if len(text2) == 0 {
		return []edit{{op: Delete, text: text1}}
	}

	longText, shortText := text2, text1
	if len(text1) > len(text2) {
		longText, shortText = text1, text2
	}

	// Shorter text inside the longer text.
	if i := runesIndex(longText, shortText); i != -1 {
		op := Insert
		if len(text1) > len(text2) {
			op = Delete
		}
		return []edit{
			{op: op, text: longText[:i]},
			{op: Equal, text: shortText},
			{op: op, text: longText[i+len(shortText):]},
		}
	}

	// A single rune that is not contained cannot be an equality.
	if len(shortText) == 1 {
		return []edit{
			{op: Delete, text: text1},
			{op: Insert, text: text2},
		}
	}

	if dc.halfMatch {
		if hm := halfMatch(text1, text2); hm != nil {
			a := dc.diff(hm.text1A, hm.text2A, checklines)
			b := dc.diff(hm.text1B, hm.text2B, checklines)
			edits := make([]edit, 0, len(a)+len(b)+1)
			edits = append(edits, a...)
			edits = append(edits, edit{op: Equal, text: hm.common})
			return append(edits, b...)
		}
	}

	if checklines && len(text1) > lineModeThreshold && len(text2) > lineModeThreshold {
		return dc.lineMode(text1, text2)
	}

	return dc.bisect(text1, text2)
}

// halfMatchResult splits two texts around a long common middle.
type halfMatchResult struct {
	text1A, text1B []rune // text1 before and after the common middle
	text2A, text2B []rune // text2 before and after the common middle
	common         []rune
}

// halfMatch reports whether the texts share a substring at least half the
// length of the longer text. The split can produce non-minimal diffs.
func halfMatch(text1, text2 []rune) *halfMatchResult {
	longText, shortText := text2, text1
	if len(text1) > len(text2) {
		longText, shortText = text1, text2
	}
	if len(longText) < 4 || len(shortText)*2 < len(longText) {
		return nil
	}

	// Seed from the second quarter, then from the third.
	hm1 := halfMatchAt(longText, shortText, (len(longText)+3)/4)
	hm2 := halfMatchAt(longText, shortText, (len(longText)+1)/2)

	var hm *halfMatchResult
	switch {
	case hm1 == nil && hm2 == nil:
		return nil
	case hm2 == nil:
		hm = hm1
	case hm1 == nil:
		hm = hm2
	case len(hm1.common) > len(hm2.common):
		hm = hm1
	default:
		hm = hm2
	}

	// hm is expressed as long/short; map it back onto text1/text2.
	if len(text1) > len(text2) {
		return hm
	}
	return &halfMatchResult{
		text1A: hm.text2A,
		text1B: hm.text2B,
		text2A: hm.text1A,
		text2B: hm.text1B,
		common: hm.common,
	}
}

// halfMatchAt looks for a substring of shortText that matches the quarter of
// longText starting at i and is at least half as long as longText. The
// result's text1 fields refer to longText.
func halfMatchAt(longText, shortText []rune, i int) *halfMatchResult {
	seed := slice(longText, i, i+len(longText)/4)
	var best *halfMatchResult
	bestLen := 0
	for j := runesIndexFrom(shortText, seed, 0); j != -1; j = runesIndexFrom(shortText, seed, j+1) {
		prefixLen := commonPrefixLength(longText[i:], shortText[j:])
		suffixLen := commonSuffixLength(longText[:i], shortText[:j])
		if bestLen < suffixLen+prefixLen {
			bestLen = suffixLen + prefixLen
			best = &halfMatchResult{
				text1A: longText[:i-suffixLen],
				text1B: longText[i+prefixLen:],
				text2A: shortText[:j-suffixLen],
				text2B: shortText[j+prefixLen:],
				common: shortText[j-suffixLen : j+prefixLen],
			}
		}
	}
	if best == nil || bestLen*2 < len(longText) {
		return nil
	}
	return best
}

// lineMode diffs the texts line by line, then rediffs each replaced block
// character by character.
func (dc *diffContext) lineMode(text1, text2 []rune) []edit {
	t := newLineTokenizer()
	tokens1 := t.tokenize(text1)
	tokens2 := t.tokenize(text2)

	edits := t.expand(dc.diff(tokens1, tokens2, false))
	// Eliminate freak matches such as blank lines.
	edits = cleanupSemantic(edits)

	out := make([]edit, 0, len(edits))
	var pending []edit
	var textDelete, textInsert []rune
	countDelete, countInsert := 0, 0
	flush := func() {
		if countDelete >= 1 && countInsert >= 1 {
			out = append(out, dc.diff(textDelete, textInsert, false)...)
		} else {
			out = append(out, pending...)
		}
		pending = pending[:0]
		textDelete, textInsert = nil, nil
		countDelete, countInsert = 0, 0
	}
	for _, e := range edits {
		switch e.op {
		case Insert:
			countInsert++
			textInsert = concat(textInsert, e.text)
			pending = append(pending, e)
		case Delete:
			countDelete++
			textDelete = concat(textDelete, e.text)
			pending = append(pending, e)
		case Equal:
			flush()
			out = append(out, e)
		}
	}
	flush()
	return out
}
