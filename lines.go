package diffmerge

import "unicode/utf8"

// maxLineTokens is the number of distinct lines a tokenizer can represent.
// Tokens are runes, and the surrogate block is skipped.
const maxLineTokens = utf8.MaxRune - 0x800

// lineTokenizer reduces texts to strings of tokens where each rune stands for
// one distinct line. Token 0 is reserved so no text maps to NUL.
type lineTokenizer struct {
	lines []string       // lines[t] is the line behind token t
	index map[string]int // reverse of lines
}

func newLineTokenizer() *lineTokenizer {
	return &lineTokenizer{
		lines: []string{""},
		index: make(map[string]int),
	}
}

// tokenRune maps a line index to a valid, non-surrogate rune.
func tokenRune(i int) rune {
	if i >= 0xD800 {
		return rune(i + 0x800)
	}
	return rune(i)
}

// tokenIndex is the inverse of tokenRune.
func tokenIndex(r rune) int {
	if r >= 0xE000 {
		return int(r) - 0x800
	}
	return int(r)
}

// tokenize splits text after each '\n' and returns one token per line. Once
// the token space is exhausted the remainder of the text becomes one line.
func (t *lineTokenizer) tokenize(text []rune) []rune {
	var tokens []rune
	start := 0
	for start < len(text) {
		end := len(text)
		if len(t.lines) < maxLineTokens {
			for i := start; i < len(text); i++ {
				if text[i] == '\n' {
					end = i + 1
					break
				}
			}
		}
		line := string(text[start:end])
		start = end

		idx, ok := t.index[line]
		if !ok {
			idx = len(t.lines)
			t.index[line] = idx
			t.lines = append(t.lines, line)
		}
		tokens = append(tokens, tokenRune(idx))
	}
	return tokens
}

// expand rewrites each edit's tokens back into the lines they stand for.
func (t *lineTokenizer) expand(edits []edit) []edit {
	for i, e := range edits {
		var text []rune
		for _, r := range e.text {
			text = append(text, []rune(t.lines[tokenIndex(r)])...)
		}
		edits[i].text = text
	}
	return edits
}

// LinesToRunes reduces two texts to token strings, one rune per line, and
// returns the line table needed to expand them again with RunesToLines.
// Diffing the token strings gives a fast line-level diff.
func LinesToRunes(text1, text2 string) ([]rune, []rune, []string) {
	t := newLineTokenizer()
	tokens1 := t.tokenize([]rune(text1))
	tokens2 := t.tokenize([]rune(text2))
	return tokens1, tokens2, t.lines
}

// RunesToLines expands the token text of diffs produced from LinesToRunes
// output back into lines.
func RunesToLines(diffs []Diff, lines []string) []Diff {
	t := &lineTokenizer{lines: lines}
	return fromEdits(t.expand(toEdits(diffs)))
}
