package diffmerge

import "unicode"

// Boundary scores used by the lossless pass (higher = more preferred).
//
// Concepts from Neil Fraser's "Diff Strategies":
// https://neil.fraser.name/writing/diff/
const (
	// edgeScore is given when the boundary is at the start or end of the text.
	edgeScore = 6
	// blankLineScore keeps blank lines as separators, outside of edits.
	blankLineScore = 5
	// lineBreakScore is given for a boundary at a line break.
	lineBreakScore = 4
	// sentenceEndScore is given for punctuation followed by whitespace.
	sentenceEndScore = 3
	// whitespaceScore is given for a boundary next to whitespace.
	whitespaceScore = 2
	// punctuationScore is given for a boundary next to any non-alphanumeric.
	punctuationScore = 1
)

// CleanupMerge reorders and merges like edit sections and merges
// equalities. Any edit section can move as long as it doesn't cross an
// equality.
func CleanupMerge(diffs []Diff) []Diff {
	return fromEdits(cleanupMerge(toEdits(diffs)))
}

// CleanupSemantic reduces the number of edits by eliminating semantically
// trivial equalities.
func CleanupSemantic(diffs []Diff) []Diff {
	return fromEdits(cleanupSemantic(toEdits(diffs)))
}

// CleanupSemanticLossless shifts single edits surrounded by equalities
// sideways so that they line up with word and line boundaries.
// e.g: The c<ins>at c</ins>ame. -> The <ins>cat </ins>came.
func CleanupSemanticLossless(diffs []Diff) []Diff {
	return fromEdits(cleanupSemanticLossless(toEdits(diffs)))
}

// CleanupEfficiency reduces the number of edits by eliminating
// operationally trivial equalities, using the engine's edit cost.
func (e *Engine) CleanupEfficiency(diffs []Diff) []Diff {
	return fromEdits(cleanupEfficiency(toEdits(diffs), e.opts.editCost))
}

func cleanupMerge(edits []edit) []edit {
	// A dummy equality at the end flushes the last run.
	edits = append(edits, edit{op: Equal})
	pointer := 0
	countDelete, countInsert := 0, 0
	var textDelete, textInsert []rune

	for pointer < len(edits) {
		switch edits[pointer].op {
		case Insert:
			countInsert++
			textInsert = concat(textInsert, edits[pointer].text)
			pointer++
		case Delete:
			countDelete++
			textDelete = concat(textDelete, edits[pointer].text)
			pointer++
		case Equal:
			if countDelete+countInsert > 1 {
				if countDelete != 0 && countInsert != 0 {
					// Factor out any common prefix.
					if n := commonPrefixLength(textInsert, textDelete); n != 0 {
						at := pointer - countDelete - countInsert
						if at > 0 && edits[at-1].op == Equal {
							edits[at-1].text = concat(edits[at-1].text, textInsert[:n])
						} else {
							edits = insertEdits(edits, 0, edit{op: Equal, text: textInsert[:n]})
							pointer++
						}
						textInsert = textInsert[n:]
						textDelete = textDelete[n:]
					}
					// Factor out any common suffix.
					if n := commonSuffixLength(textInsert, textDelete); n != 0 {
						edits[pointer].text = concat(textInsert[len(textInsert)-n:], edits[pointer].text)
						textInsert = textInsert[:len(textInsert)-n]
						textDelete = textDelete[:len(textDelete)-n]
					}
				}
				// Replace the run with at most one delete and one insert.
				// Emptied edits are kept; later passes fold them away.
				var merged []edit
				if countDelete != 0 {
					merged = append(merged, edit{op: Delete, text: textDelete})
				}
				if countInsert != 0 {
					merged = append(merged, edit{op: Insert, text: textInsert})
				}
				at := pointer - countDelete - countInsert
				edits = spliceEdits(edits, at, countDelete+countInsert, merged...)
				pointer = at + len(merged) + 1
			} else if pointer != 0 && edits[pointer-1].op == Equal {
				// Merge this equality with the previous one.
				edits[pointer-1].text = concat(edits[pointer-1].text, edits[pointer].text)
				edits = removeEdits(edits, pointer, 1)
			} else {
				pointer++
			}
			countDelete, countInsert = 0, 0
			textDelete, textInsert = nil, nil
		}
	}
	if len(edits[len(edits)-1].text) == 0 {
		edits = edits[:len(edits)-1]
	}

	// Second pass: look for single edits surrounded on both sides by
	// equalities which can be shifted sideways to eliminate an equality.
	// e.g: A<ins>BA</ins>C -> <ins>AB</ins>AC
	changes := false
	for pointer = 1; pointer < len(edits)-1; pointer++ {
		prev, cur, next := edits[pointer-1], edits[pointer], edits[pointer+1]
		if prev.op != Equal || next.op != Equal {
			continue
		}
		switch {
		case hasSuffix(cur.text, prev.text):
			// Shift the edit over the previous equality.
			edits[pointer].text = concat(prev.text, cur.text[:len(cur.text)-len(prev.text)])
			edits[pointer+1].text = concat(prev.text, next.text)
			edits = removeEdits(edits, pointer-1, 1)
			changes = true
		case hasPrefix(cur.text, next.text):
			// Shift the edit over the next equality.
			edits[pointer-1].text = concat(prev.text, next.text)
			edits[pointer].text = concat(cur.text[len(next.text):], next.text)
			edits = removeEdits(edits, pointer+1, 1)
			changes = true
		}
	}
	// Shifts can expose new merges, so sweep again.
	if changes {
		return cleanupMerge(edits)
	}
	return edits
}

// spliceEdits replaces the n edits starting at i with es.
func spliceEdits(edits []edit, i, n int, es ...edit) []edit {
	out := make([]edit, 0, len(edits)-n+len(es))
	out = append(out, edits[:i]...)
	out = append(out, es...)
	return append(out, edits[i+n:]...)
}

func cleanupSemantic(edits []edit) []edit {
	changes := false
	var equalities []int // indices of equalities seen so far
	var lastEquality []rune
	haveLast := false
	// Characters changed before and after the last equality.
	var insBefore, delBefore, insAfter, delAfter int

	for pointer := 0; pointer < len(edits); pointer++ {
		if edits[pointer].op == Equal {
			equalities = append(equalities, pointer)
			insBefore, delBefore = insAfter, delAfter
			insAfter, delAfter = 0, 0
			lastEquality = edits[pointer].text
			haveLast = true
			continue
		}
		if edits[pointer].op == Insert {
			insAfter += len(edits[pointer].text)
		} else {
			delAfter += len(edits[pointer].text)
		}
		// Eliminate an equality no larger than the edits on both sides.
		if haveLast &&
			len(lastEquality) <= max(insBefore, delBefore) &&
			len(lastEquality) <= max(insAfter, delAfter) {
			at := equalities[len(equalities)-1]
			edits = insertEdits(edits, at, edit{op: Delete, text: lastEquality})
			edits[at+1].op = Insert
			// Drop the equality just removed and the one before it, which
			// needs reevaluating.
			equalities = popIndex(popIndex(equalities))
			if len(equalities) > 0 {
				pointer = equalities[len(equalities)-1]
			} else {
				pointer = -1
			}
			insBefore, delBefore, insAfter, delAfter = 0, 0, 0, 0
			lastEquality, haveLast = nil, false
			changes = true
		}
	}

	if changes {
		edits = cleanupMerge(edits)
	}
	edits = cleanupSemanticLossless(edits)

	// Find overlaps between deletions and insertions.
	// e.g: <del>abcxxx</del><ins>xxxdef</ins>
	//   -> <del>abc</del>xxx<ins>def</ins>
	// e.g: <del>xxxabc</del><ins>defxxx</ins>
	//   -> <ins>def</ins>xxx<del>abc</del>
	// Only extract an overlap as big as the edit ahead or behind it.
	for pointer := 1; pointer < len(edits); pointer++ {
		if edits[pointer-1].op != Delete || edits[pointer].op != Insert {
			continue
		}
		deletion := edits[pointer-1].text
		insertion := edits[pointer].text
		overlap1 := commonOverlapLength(deletion, insertion)
		overlap2 := commonOverlapLength(insertion, deletion)
		if overlap1 >= overlap2 {
			if 2*overlap1 >= len(deletion) || 2*overlap1 >= len(insertion) {
				edits = insertEdits(edits, pointer, edit{op: Equal, text: insertion[:overlap1]})
				edits[pointer-1].text = deletion[:len(deletion)-overlap1]
				edits[pointer+1].text = insertion[overlap1:]
				pointer++
			}
		} else if 2*overlap2 >= len(deletion) || 2*overlap2 >= len(insertion) {
			// Reverse overlap: swap the edits around the shared text.
			edits = insertEdits(edits, pointer, edit{op: Equal, text: deletion[:overlap2]})
			edits[pointer-1] = edit{op: Insert, text: insertion[:len(insertion)-overlap2]}
			edits[pointer+1] = edit{op: Delete, text: deletion[overlap2:]}
			pointer++
		}
		pointer++
	}
	return edits
}

func popIndex(stack []int) []int {
	if len(stack) == 0 {
		return stack
	}
	return stack[:len(stack)-1]
}

func cleanupSemanticLossless(edits []edit) []edit {
	// The first and last entries never need checking.
	for pointer := 1; pointer < len(edits)-1; pointer++ {
		if edits[pointer-1].op != Equal || edits[pointer+1].op != Equal {
			continue
		}
		equality1 := edits[pointer-1].text
		change := edits[pointer].text
		equality2 := edits[pointer+1].text

		// First, shift the edit as far left as possible.
		if n := commonSuffixLength(equality1, change); n > 0 {
			common := change[len(change)-n:]
			equality1 = equality1[:len(equality1)-n]
			change = concat(common, change[:len(change)-n])
			equality2 = concat(common, equality2)
		}

		// Then step right one rune at a time looking for the best fit.
		bestEquality1, bestChange, bestEquality2 := equality1, change, equality2
		bestScore := semanticScore(equality1, change) + semanticScore(change, equality2)
		for len(change) > 0 && len(equality2) > 0 && change[0] == equality2[0] {
			equality1 = concat(equality1, change[:1])
			change = concat(change[1:], equality2[:1])
			equality2 = equality2[1:]
			score := semanticScore(equality1, change) + semanticScore(change, equality2)
			// >= prefers trailing over leading whitespace on edits.
			if score >= bestScore {
				bestScore = score
				bestEquality1, bestChange, bestEquality2 = equality1, change, equality2
			}
		}

		if runesEqual(edits[pointer-1].text, bestEquality1) {
			continue
		}
		if len(bestEquality1) != 0 {
			edits[pointer-1].text = bestEquality1
		} else {
			edits = removeEdits(edits, pointer-1, 1)
			pointer--
		}
		edits[pointer].text = bestChange
		if len(bestEquality2) != 0 {
			edits[pointer+1].text = bestEquality2
		} else {
			edits = removeEdits(edits, pointer+1, 1)
			pointer--
		}
	}
	return edits
}

// semanticScore rates the boundary between one and two from 6 (best) to 0
// (worst).
func semanticScore(one, two []rune) int {
	if len(one) == 0 || len(two) == 0 {
		return edgeScore
	}

	char1 := one[len(one)-1]
	char2 := two[0]
	nonAlphaNumeric1 := !isAlphaNumeric(char1)
	nonAlphaNumeric2 := !isAlphaNumeric(char2)
	whitespace1 := nonAlphaNumeric1 && unicode.IsSpace(char1)
	whitespace2 := nonAlphaNumeric2 && unicode.IsSpace(char2)
	lineBreak1 := whitespace1 && isLineBreak(char1)
	lineBreak2 := whitespace2 && isLineBreak(char2)
	blankLine1 := lineBreak1 && endsWithBlankLine(one)
	blankLine2 := lineBreak2 && startsWithBlankLine(two)

	switch {
	case blankLine1 || blankLine2:
		return blankLineScore
	case lineBreak1 || lineBreak2:
		return lineBreakScore
	case nonAlphaNumeric1 && !whitespace1 && whitespace2:
		return sentenceEndScore
	case whitespace1 || whitespace2:
		return whitespaceScore
	case nonAlphaNumeric1 || nonAlphaNumeric2:
		return punctuationScore
	}
	return 0
}

func isAlphaNumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isLineBreak(r rune) bool {
	return r == '\n' || r == '\r'
}

// endsWithBlankLine matches \n\r?\n at the end of s.
func endsWithBlankLine(s []rune) bool {
	return hasSuffix(s, []rune("\n\n")) || hasSuffix(s, []rune("\n\r\n"))
}

// startsWithBlankLine matches \r?\n\r?\n at the start of s.
func startsWithBlankLine(s []rune) bool {
	for _, p := range []string{"\n\n", "\n\r\n", "\r\n\n", "\r\n\r\n"} {
		if hasPrefix(s, []rune(p)) {
			return true
		}
	}
	return false
}

func cleanupEfficiency(edits []edit, editCost int) []edit {
	changes := false
	var equalities []int // indices of candidate equalities
	var lastEquality []rune
	haveLast := false
	// Whether an insertion or deletion sits before or after the last equality.
	var preIns, preDel, postIns, postDel bool

	for pointer := 0; pointer < len(edits); pointer++ {
		if edits[pointer].op == Equal {
			if len(edits[pointer].text) < editCost && (postIns || postDel) {
				// Candidate found.
				equalities = append(equalities, pointer)
				preIns, preDel = postIns, postDel
				lastEquality = edits[pointer].text
				haveLast = true
			} else {
				// Not a candidate, and can never become one.
				equalities = equalities[:0]
				lastEquality, haveLast = nil, false
			}
			postIns, postDel = false, false
			continue
		}
		if edits[pointer].op == Delete {
			postDel = true
		} else {
			postIns = true
		}

		// Five types to be split:
		// <ins>A</ins><del>B</del>XY<ins>C</ins><del>D</del>
		// <ins>A</ins>X<ins>C</ins><del>D</del>
		// <ins>A</ins><del>B</del>X<ins>C</ins>
		// <ins>A</del>X<ins>C</ins><del>D</del>
		// <ins>A</ins><del>B</del>X<del>C</del>
		if !haveLast {
			continue
		}
		sides := countTrue(preIns, preDel, postIns, postDel)
		if sides == 4 || (2*len(lastEquality) < editCost && sides == 3) {
			at := equalities[len(equalities)-1]
			edits = insertEdits(edits, at, edit{op: Delete, text: lastEquality})
			edits[at+1].op = Insert
			equalities = popIndex(equalities)
			lastEquality, haveLast = nil, false
			if preIns && preDel {
				// Nothing changed that could affect the previous entry.
				postIns, postDel = true, true
				equalities = equalities[:0]
			} else {
				equalities = popIndex(equalities)
				if len(equalities) > 0 {
					pointer = equalities[len(equalities)-1]
				} else {
					pointer = -1
				}
				postIns, postDel = false, false
			}
			changes = true
		}
	}

	if changes {
		edits = cleanupMerge(edits)
	}
	return edits
}

func countTrue(bs ...bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}
