package diffmerge

import "unicode/utf8"

// Patch is one hunk of a patch: a run of diffs plus the leading and trailing
// context needed to locate it in a text that may have drifted.
type Patch struct {
	Diffs        []Diff
	SourceStart  int
	TargetStart  int
	SourceLength int
	TargetLength int
}

// hunk is the working form of a Patch.
type hunk struct {
	edits          []edit
	start1, start2 int
	length1        int
	length2        int
}

func toHunks(patches []Patch) []*hunk {
	hunks := make([]*hunk, len(patches))
	for i, p := range patches {
		hunks[i] = &hunk{
			edits:   toEdits(p.Diffs),
			start1:  p.SourceStart,
			start2:  p.TargetStart,
			length1: p.SourceLength,
			length2: p.TargetLength,
		}
	}
	return hunks
}

func fromHunks(hunks []*hunk) []Patch {
	if len(hunks) == 0 {
		return nil
	}
	patches := make([]Patch, len(hunks))
	for i, h := range hunks {
		patches[i] = Patch{
			Diffs:        fromEdits(h.edits),
			SourceStart:  h.start1,
			TargetStart:  h.start2,
			SourceLength: h.length1,
			TargetLength: h.length2,
		}
	}
	return patches
}

// PatchMakeFromTexts diffs text1 against text2 and returns the patches that
// turn one into the other.
func (e *Engine) PatchMakeFromTexts(text1, text2 string) ([]Patch, error) {
	edits, err := e.diffMain(text1, text2, true)
	if err != nil {
		return nil, err
	}
	if len(edits) > 2 {
		edits = cleanupSemantic(edits)
		edits = cleanupEfficiency(edits, e.opts.editCost)
	}
	return fromHunks(e.patchMake([]rune(text1), edits)), nil
}

// PatchMakeFromDiffs returns the patches for diffs. The source text is
// rebuilt from the diffs themselves.
func (e *Engine) PatchMakeFromDiffs(diffs []Diff) []Patch {
	return e.PatchMakeFromTextAndDiffs(Text1(diffs), diffs)
}

// PatchMakeFromTextAndDiffs returns the patches for diffs, which must turn
// text1 into some target.
func (e *Engine) PatchMakeFromTextAndDiffs(text1 string, diffs []Diff) []Patch {
	return fromHunks(e.patchMake([]rune(text1), toEdits(diffs)))
}

func (e *Engine) patchMake(text1 []rune, edits []edit) []*hunk {
	if len(edits) == 0 {
		return nil
	}
	margin := e.opts.patchMargin
	var hunks []*hunk
	h := &hunk{}
	charCount1, charCount2 := 0, 0
	// Patches have a rolling context: each one is located against the text
	// with every earlier patch already applied.
	prepatch, postpatch := text1, text1
	for i, ed := range edits {
		if len(h.edits) == 0 && ed.op != Equal {
			// A new patch starts here.
			h.start1 = charCount1
			h.start2 = charCount2
		}

		switch ed.op {
		case Insert:
			h.edits = append(h.edits, ed)
			h.length2 += len(ed.text)
			postpatch = concat(slice(postpatch, 0, charCount2), ed.text, slice(postpatch, charCount2, len(postpatch)))
		case Delete:
			h.length1 += len(ed.text)
			h.edits = append(h.edits, ed)
			postpatch = concat(slice(postpatch, 0, charCount2), slice(postpatch, charCount2+len(ed.text), len(postpatch)))
		case Equal:
			if len(ed.text) <= 2*margin && len(h.edits) != 0 && i != len(edits)-1 {
				// Small equality inside a patch.
				h.edits = append(h.edits, ed)
				h.length1 += len(ed.text)
				h.length2 += len(ed.text)
			} else if len(ed.text) >= 2*margin && len(h.edits) != 0 {
				// Time for a new patch.
				e.addContext(h, prepatch)
				hunks = append(hunks, h)
				h = &hunk{}
				prepatch = postpatch
				charCount1 = charCount2
			}
		}

		if ed.op != Insert {
			charCount1 += len(ed.text)
		}
		if ed.op != Delete {
			charCount2 += len(ed.text)
		}
	}
	// Pick up the leftover patch if not empty.
	if len(h.edits) != 0 {
		e.addContext(h, prepatch)
		hunks = append(hunks, h)
	}
	return hunks
}

// addContext grows h's context until its pattern is unique in text, without
// growing past what the matcher can handle.
func (e *Engine) addContext(h *hunk, text []rune) {
	if len(text) == 0 {
		return
	}
	margin := e.opts.patchMargin
	pattern := slice(text, h.start2, h.start2+h.length1)
	padding := 0
	for runesIndex(text, pattern) != runesLastIndex(text, pattern) &&
		len(pattern) < MatchMaxBits-2*margin {
		padding += margin
		pattern = slice(text, h.start2-padding, h.start2+h.length1+padding)
	}
	// Add one chunk for good luck.
	padding += margin

	prefix := slice(text, h.start2-padding, h.start2)
	if len(prefix) != 0 {
		h.edits = insertEdits(h.edits, 0, edit{op: Equal, text: prefix})
	}
	suffix := slice(text, h.start2+h.length1, h.start2+h.length1+padding)
	if len(suffix) != 0 {
		h.edits = append(h.edits, edit{op: Equal, text: suffix})
	}

	h.start1 -= len(prefix)
	h.start2 -= len(prefix)
	h.length1 += len(prefix) + len(suffix)
	h.length2 += len(prefix) + len(suffix)
}

// PatchDeepCopy returns a copy of patches that shares nothing with them.
func PatchDeepCopy(patches []Patch) []Patch {
	if patches == nil {
		return nil
	}
	out := make([]Patch, len(patches))
	for i, p := range patches {
		out[i] = p
		out[i].Diffs = append([]Diff(nil), p.Diffs...)
	}
	return out
}

// PatchAddPadding pads the first and last patch with context made of the
// runes U+0001 to U+000N, where N is the patch margin, so that patches at
// the edges of a text can still be located. It returns the padded copy and
// the padding, which the caller adds to both ends of the text.
func (e *Engine) PatchAddPadding(patches []Patch) ([]Patch, string) {
	hunks := toHunks(patches)
	padding := e.addPadding(hunks)
	return fromHunks(hunks), string(padding)
}

func (e *Engine) addPadding(hunks []*hunk) []rune {
	n := e.opts.patchMargin
	padding := make([]rune, n)
	for i := range padding {
		padding[i] = rune(i + 1)
	}
	if len(hunks) == 0 {
		return padding
	}

	// Bump all the patches forward.
	for _, h := range hunks {
		h.start1 += n
		h.start2 += n
	}

	// Add some padding on start of first diff.
	h := hunks[0]
	if len(h.edits) == 0 || h.edits[0].op != Equal {
		h.edits = insertEdits(h.edits, 0, edit{op: Equal, text: padding})
		h.start1 -= n
		h.start2 -= n
		h.length1 += n
		h.length2 += n
	} else if first := h.edits[0].text; n > len(first) {
		extra := n - len(first)
		h.edits[0].text = concat(padding[len(first):], first)
		h.start1 -= extra
		h.start2 -= extra
		h.length1 += extra
		h.length2 += extra
	}

	// Add some padding on end of last diff.
	h = hunks[len(hunks)-1]
	if len(h.edits) == 0 || h.edits[len(h.edits)-1].op != Equal {
		h.edits = append(h.edits, edit{op: Equal, text: padding})
		h.length1 += n
		h.length2 += n
	} else if last := h.edits[len(h.edits)-1].text; n > len(last) {
		extra := n - len(last)
		h.edits[len(h.edits)-1].text = concat(last, padding[:extra])
		h.length1 += extra
		h.length2 += extra
	}
	return padding
}

// PatchSplitMax breaks up any patch longer than the matcher can locate into
// a run of smaller patches with overlapping context.
func (e *Engine) PatchSplitMax(patches []Patch) []Patch {
	return fromHunks(e.splitMax(toHunks(patches)))
}

func (e *Engine) splitMax(hunks []*hunk) []*hunk {
	const patchSize = MatchMaxBits
	margin := e.opts.patchMargin
	out := make([]*hunk, 0, len(hunks))
	for _, big := range hunks {
		if big.length1 <= patchSize {
			out = append(out, big)
			continue
		}
		start1, start2 := big.start1, big.start2
		var precontext []rune
		rest := big.edits
		for len(rest) != 0 {
			// Create one of several smaller patches.
			h := &hunk{
				start1: start1 - len(precontext),
				start2: start2 - len(precontext),
			}
			empty := true
			if len(precontext) != 0 {
				h.length1 = len(precontext)
				h.length2 = len(precontext)
				h.edits = append(h.edits, edit{op: Equal, text: precontext})
			}
			// Each piece takes at least one rune of rest, however wide the margin.
			took := false
			for len(rest) != 0 && (h.length1 < patchSize-margin || !took) {
				took = true
				ed := rest[0]
				switch {
				case ed.op == Insert:
					// Insertions are harmless.
					h.length2 += len(ed.text)
					start2 += len(ed.text)
					h.edits = append(h.edits, ed)
					rest = rest[1:]
					empty = false
				case ed.op == Delete && len(h.edits) == 1 && h.edits[0].op == Equal &&
					len(ed.text) > 2*patchSize:
					// A large deletion passes in one chunk.
					h.length1 += len(ed.text)
					start1 += len(ed.text)
					h.edits = append(h.edits, ed)
					rest = rest[1:]
					empty = false
				default:
					// Deletion or equality: take only as much as fits.
					text := slice(ed.text, 0, max(1, patchSize-h.length1-margin))
					h.length1 += len(text)
					start1 += len(text)
					if ed.op == Equal {
						h.length2 += len(text)
						start2 += len(text)
					} else {
						empty = false
					}
					h.edits = append(h.edits, edit{op: ed.op, text: text})
					if len(text) == len(ed.text) {
						rest = rest[1:]
					} else {
						rest = append([]edit{{op: ed.op, text: ed.text[len(text):]}}, rest[1:]...)
					}
				}
			}
			// Compute the head context for the next patch.
			precontext = targetRunes(h.edits)
			precontext = precontext[max(0, len(precontext)-margin):]
			// Append the end context for this patch.
			postcontext := sourceRunes(rest)
			postcontext = postcontext[:min(margin, len(postcontext))]
			if len(postcontext) != 0 {
				h.length1 += len(postcontext)
				h.length2 += len(postcontext)
				if n := len(h.edits); n != 0 && h.edits[n-1].op == Equal {
					h.edits[n-1].text = concat(h.edits[n-1].text, postcontext)
				} else {
					h.edits = append(h.edits, edit{op: Equal, text: postcontext})
				}
			}
			if !empty {
				out = append(out, h)
			}
		}
	}
	return out
}

func sourceRunes(edits []edit) []rune {
	var out []rune
	for _, e := range edits {
		if e.op != Insert {
			out = append(out, e.text...)
		}
	}
	return out
}

func targetRunes(edits []edit) []rune {
	var out []rune
	for _, e := range edits {
		if e.op != Delete {
			out = append(out, e.text...)
		}
	}
	return out
}

// PatchApply applies patches to text. It returns the patched text and, for
// each patch after splitting, whether it applied. A patch that cannot be
// located, or whose located text differs too much from its expectation, is
// skipped; later patches still apply.
func (e *Engine) PatchApply(patches []Patch, text string) (string, []bool, error) {
	if len(patches) == 0 {
		return text, nil, nil
	}
	if !utf8.ValidString(text) {
		return "", nil, internalError("patch_apply", "invalid input", "bytes", len(text))
	}

	hunks := toHunks(patches)
	padding := e.addPadding(hunks)
	body := concat(padding, []rune(text), padding)
	hunks = e.splitMax(hunks)

	// delta is the offset between the expected and actual location of the
	// previous patch. If patches are expected at 10 and 20 but the first is
	// found at 12, the second is looked for at 22.
	delta := 0
	results := make([]bool, len(hunks))
	for i, h := range hunks {
		expected := h.start2 + delta
		src := sourceRunes(h.edits)
		var start int
		end := -1
		if len(src) > MatchMaxBits {
			// splitMax only leaves an oversized pattern for a large deletion,
			// so match its head and tail separately.
			start = e.matchMain(body, src[:MatchMaxBits], expected)
			if start != -1 {
				end = e.matchMain(body, src[len(src)-MatchMaxBits:], expected+len(src)-MatchMaxBits)
				if end == -1 || start >= end {
					start = -1
				}
			}
		} else {
			start = e.matchMain(body, src, expected)
		}

		if start == -1 {
			results[i] = false
			delta -= h.length2 - h.length1
			e.metrics.patchResult(false)
			e.log.Debug("patch not located", "index", i, "expected", expected)
			continue
		}

		results[i] = true
		delta = start - expected
		var found []rune
		if end == -1 {
			found = slice(body, start, start+len(src))
		} else {
			found = slice(body, start, end+MatchMaxBits)
		}

		if runesEqual(src, found) {
			// Perfect match, just shove the replacement text in.
			body = concat(body[:start], targetRunes(h.edits), slice(body, start+len(src), len(body)))
			e.metrics.patchResult(true)
			continue
		}

		// Imperfect match. Diff to get a framework of equivalent indices.
		dc := e.newDiffContext()
		edits := dc.diff(src, found, false)
		e.finish(dc)
		if len(src) > MatchMaxBits &&
			float64(levenshtein(edits))/float64(len(src)) > e.opts.patchDeleteThreshold {
			// The end points match, but the content is unacceptably bad.
			results[i] = false
			e.metrics.patchResult(false)
			e.log.Debug("patch content mismatch", "index", i, "expected", expected, "found", start)
			continue
		}
		edits = cleanupSemanticLossless(edits)
		index1 := 0
		for _, ed := range h.edits {
			var index2 int
			if ed.op != Equal {
				index2 = xIndex(edits, index1)
			}
			switch ed.op {
			case Insert:
				body = concat(slice(body, 0, start+index2), ed.text, slice(body, start+index2, len(body)))
			case Delete:
				body = concat(slice(body, 0, start+index2), slice(body, start+xIndex(edits, index1+len(ed.text)), len(body)))
			}
			if ed.op != Delete {
				index1 += len(ed.text)
			}
		}
		e.metrics.patchResult(true)
	}

	// Strip the padding off.
	body = body[len(padding) : len(body)-len(padding)]
	return string(body), results, nil
}
