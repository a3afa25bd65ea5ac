package diffmerge

import (
	"strings"
	"unicode/utf8"
)

// Text1 returns the source text of diffs: every Equal and Delete entry.
func Text1(diffs []Diff) string {
	var b strings.Builder
	for _, d := range diffs {
		if d.Type != Insert {
			b.WriteString(d.Text)
		}
	}
	return b.String()
}

// Text2 returns the target text of diffs: every Equal and Insert entry.
func Text2(diffs []Diff) string {
	var b strings.Builder
	for _, d := range diffs {
		if d.Type != Delete {
			b.WriteString(d.Text)
		}
	}
	return b.String()
}

// Levenshtein returns the number of inserted, deleted or substituted runes.
// A deletion next to an insertion counts as substitutions.
func Levenshtein(diffs []Diff) int {
	return levenshtein(toEdits(diffs))
}

func levenshtein(edits []edit) int {
	total, insertions, deletions := 0, 0, 0
	for _, e := range edits {
		switch e.op {
		case Insert:
			insertions += len(e.text)
		case Delete:
			deletions += len(e.text)
		case Equal:
			total += max(insertions, deletions)
			insertions, deletions = 0, 0
		}
	}
	return total + max(insertions, deletions)
}

// XIndex maps loc, a rune offset into the source text of diffs, to the
// equivalent offset in the target text.
// e.g. "The cat" vs "The big cat": 1->1, 5->8
func XIndex(diffs []Diff, loc int) int {
	return xIndex(toEdits(diffs), loc)
}

func xIndex(edits []edit, loc int) int {
	chars1, chars2 := 0, 0
	last1, last2 := 0, 0
	i := 0
	for ; i < len(edits); i++ {
		if edits[i].op != Insert {
			chars1 += len(edits[i].text)
		}
		if edits[i].op != Delete {
			chars2 += len(edits[i].text)
		}
		if chars1 > loc {
			break
		}
		last1, last2 = chars1, chars2
	}
	// A deleted location maps to the start of the deletion.
	if i != len(edits) && edits[i].op == Delete {
		return last2
	}
	return last2 + (loc - last1)
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\n", "&para;<br>",
)

// PrettyHTML renders diffs as an HTML fragment with insertions and deletions
// highlighted.
func PrettyHTML(diffs []Diff) string {
	var b strings.Builder
	for _, d := range diffs {
		text := htmlEscaper.Replace(d.Text)
		switch d.Type {
		case Insert:
			b.WriteString(`<ins style="background:#e6ffe6;">`)
			b.WriteString(text)
			b.WriteString("</ins>")
		case Delete:
			b.WriteString(`<del style="background:#ffe6e6;">`)
			b.WriteString(text)
			b.WriteString("</del>")
		case Equal:
			b.WriteString("<span>")
			b.WriteString(text)
			b.WriteString("</span>")
		}
	}
	return b.String()
}

// runeLen is the length of s in runes.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
