package diffmerge

import "math"

// MatchMain locates the best instance of pattern in text near loc and returns
// its rune offset, or -1 if nothing scores under the match threshold.
//
// An exact match at loc is returned directly. Otherwise the bitap algorithm
// searches for approximate matches, which limits pattern to MatchMaxBits
// runes.
func (e *Engine) MatchMain(text, pattern string, loc int) (int, error) {
	t, p := []rune(text), []rune(pattern)
	if i, ok := matchShortcut(t, p, loc); ok {
		return i, nil
	}
	if len(p) > MatchMaxBits {
		return -1, invalidArgument("match_main", "pattern too long",
			"length", len(p), "max", MatchMaxBits)
	}
	return e.matchBitap(t, p, clampLoc(loc, len(t))), nil
}

// matchMain is MatchMain for callers that keep patterns within MatchMaxBits.
func (e *Engine) matchMain(text, pattern []rune, loc int) int {
	if i, ok := matchShortcut(text, pattern, loc); ok {
		return i
	}
	return e.matchBitap(text, pattern, clampLoc(loc, len(text)))
}

func clampLoc(loc, n int) int {
	return max(0, min(loc, n))
}

// matchShortcut handles the cases that need no search.
func matchShortcut(text, pattern []rune, loc int) (int, bool) {
	loc = clampLoc(loc, len(text))
	switch {
	case runesEqual(text, pattern):
		return 0, true
	case len(text) == 0:
		return -1, true
	case runesEqual(slice(text, loc, loc+len(pattern)), pattern):
		// Perfect match at the perfect spot, including an empty pattern.
		return loc, true
	}
	return 0, false
}

// bitapScorer rates a candidate match: 0.0 is a perfect match at the
// expected location, 1.0 is unacceptable.
type bitapScorer struct {
	patternLen int
	loc        int
	distance   int
}

// score returns the score for a match with errs errors at x.
func (s bitapScorer) score(errs, x int) float64 {
	accuracy := float64(errs) / float64(s.patternLen)
	proximity := x - s.loc
	if proximity < 0 {
		proximity = -proximity
	}
	if s.distance == 0 {
		// Only an exact location is acceptable.
		if proximity != 0 {
			return 1.0
		}
		return accuracy
	}
	return accuracy + float64(proximity)/float64(s.distance)
}

// matchBitap runs the bitap algorithm over text, allowing one more error per
// round, and returns the best location or -1.
func (e *Engine) matchBitap(text, pattern []rune, loc int) int {
	s := matchAlphabet(pattern)
	sc := bitapScorer{patternLen: len(pattern), loc: loc, distance: e.opts.matchDistance}

	// Highest score beyond which we give up.
	threshold := e.opts.matchThreshold
	// A nearby exact match tightens the threshold early.
	if best := runesIndexFrom(text, pattern, loc); best != -1 {
		threshold = math.Min(sc.score(0, best), threshold)
		if best = runesLastIndexFrom(text, pattern, loc+len(pattern)); best != -1 {
			threshold = math.Min(sc.score(0, best), threshold)
		}
	}

	matchmask := 1 << (len(pattern) - 1)
	bestLoc := -1

	binMax := len(pattern) + len(text)
	var lastRd []int
	for d := 0; d < len(pattern); d++ {
		// Binary search for how far from loc this error level can stray.
		binMin, binMid := 0, binMax
		for binMin < binMid {
			if sc.score(d, loc+binMid) <= threshold {
				binMin = binMid
			} else {
				binMax = binMid
			}
			binMid = (binMax-binMin)/2 + binMin
		}
		// The result bounds the next round.
		binMax = binMid
		start := max(1, loc-binMid+1)
		finish := min(loc+binMid, len(text)) + len(pattern)

		rd := make([]int, finish+2)
		rd[finish+1] = (1 << d) - 1
		for j := finish; j >= start; j-- {
			var charMatch int
			if j-1 < len(text) {
				charMatch = s[text[j-1]]
			}
			if d == 0 {
				// First pass: exact match.
				rd[j] = ((rd[j+1] << 1) | 1) & charMatch
			} else {
				// Subsequent passes: fuzzy match.
				rd[j] = (((rd[j+1] << 1) | 1) & charMatch) |
					(((at(lastRd, j+1) | at(lastRd, j)) << 1) | 1) |
					at(lastRd, j+1)
			}
			if rd[j]&matchmask == 0 {
				continue
			}
			score := sc.score(d, j-1)
			if score > threshold {
				continue
			}
			threshold = score
			bestLoc = j - 1
			if bestLoc <= loc {
				// Already passed loc, downhill from here on in.
				break
			}
			// When passing loc, don't exceed the current distance from it.
			start = max(1, 2*loc-bestLoc)
		}
		// No hope for a better match at greater error levels.
		if sc.score(d+1, loc) > threshold {
			break
		}
		lastRd = rd
	}
	return bestLoc
}

// at returns rd[i], or 0 outside the slice.
func at(rd []int, i int) int {
	if i < 0 || i >= len(rd) {
		return 0
	}
	return rd[i]
}

// matchAlphabet maps each rune of pattern to a bitmask of its positions.
func matchAlphabet(pattern []rune) map[rune]int {
	s := make(map[rune]int, len(pattern))
	for i, r := range pattern {
		s[r] |= 1 << (len(pattern) - i - 1)
	}
	return s
}
