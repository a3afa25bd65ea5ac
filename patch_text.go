package diffmerge

import (
	"regexp"
	"strconv"
	"strings"
)

var patchHeader = regexp.MustCompile(`^@@ -(\d+),?(\d*) \+(\d+),?(\d*) @@$`)

// String renders the patch in GNU diff's unified style. Positions are
// 1-based and body lines are URI-escaped with spaces left literal.
//
//	@@ -382,8 +481,9 @@
func (p Patch) String() string {
	var b strings.Builder
	b.WriteString("@@ -")
	b.WriteString(coords(p.SourceStart, p.SourceLength))
	b.WriteString(" +")
	b.WriteString(coords(p.TargetStart, p.TargetLength))
	b.WriteString(" @@\n")
	for _, d := range p.Diffs {
		switch d.Type {
		case Insert:
			b.WriteByte('+')
		case Delete:
			b.WriteByte('-')
		case Equal:
			b.WriteByte(' ')
		}
		b.WriteString(encodeURI(d.Text))
		b.WriteByte('\n')
	}
	return b.String()
}

func coords(start, length int) string {
	switch length {
	case 0:
		return strconv.Itoa(start) + ",0"
	case 1:
		return strconv.Itoa(start + 1)
	default:
		return strconv.Itoa(start+1) + "," + strconv.Itoa(length)
	}
}

// PatchToText renders patches in the text format read by PatchFromText.
func PatchToText(patches []Patch) string {
	var b strings.Builder
	for _, p := range patches {
		b.WriteString(p.String())
	}
	return b.String()
}

// PatchFromText parses the text format written by PatchToText.
func PatchFromText(text string) ([]Patch, error) {
	const op = "patch_from_text"
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	var patches []Patch
	i := 0
	for i < len(lines) {
		m := patchHeader.FindStringSubmatch(lines[i])
		if m == nil {
			return nil, invalidArgument(op, "invalid patch header", "line", lines[i])
		}
		var p Patch
		var err error
		if p.SourceStart, p.SourceLength, err = parseCoords(m[1], m[2]); err != nil {
			return nil, headerError(op, lines[i], err)
		}
		if p.TargetStart, p.TargetLength, err = parseCoords(m[3], m[4]); err != nil {
			return nil, headerError(op, lines[i], err)
		}
		i++

	body:
		for ; i < len(lines); i++ {
			line := lines[i]
			if line == "" {
				continue
			}
			var typ Operation
			switch line[0] {
			case '-':
				typ = Delete
			case '+':
				typ = Insert
			case ' ':
				typ = Equal
			case '@':
				// Start of the next patch.
				break body
			default:
				return nil, invalidArgument(op, "invalid patch mode", "mode", line[:1], "line", line)
			}
			decoded, err := decodeURI(line[1:])
			if err != nil {
				e := invalidArgument(op, "illegal escape", "line", line)
				e.Err = err
				return nil, e
			}
			p.Diffs = append(p.Diffs, Diff{Type: typ, Text: decoded})
		}
		patches = append(patches, p)
	}
	return patches, nil
}

// parseCoords reads one side of a header. An omitted length means 1, and a
// zero length keeps the start as written.
func parseCoords(start, length string) (int, int, error) {
	s, err := strconv.Atoi(start)
	if err != nil {
		return 0, 0, err
	}
	switch length {
	case "":
		return s - 1, 1, nil
	case "0":
		return s, 0, nil
	}
	n, err := strconv.Atoi(length)
	if err != nil {
		return 0, 0, err
	}
	return s - 1, n, nil
}

func headerError(op, line string, err error) *Error {
	e := invalidArgument(op, "invalid patch header", "line", line)
	e.Err = err
	return e
}
