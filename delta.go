package diffmerge

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// uriUnescaper restores the characters JavaScript's encodeURI leaves alone
// but url.QueryEscape encodes. QueryEscape emits uppercase hex, so the
// case-sensitive match is enough.
var uriUnescaper = strings.NewReplacer(
	"%21", "!", "%7E", "~", "%27", "'",
	"%28", "(", "%29", ")", "%3B", ";",
	"%2F", "/", "%3F", "?", "%3A", ":",
	"%40", "@", "%26", "&", "%3D", "=",
	"%2B", "+", "%24", "$", "%2C", ",", "%23", "#", "%2A", "*")

// encodeURI escapes s the way patch and delta text expect: encodeURI with
// spaces left literal.
func encodeURI(s string) string {
	return uriUnescaper.Replace(strings.ReplaceAll(url.QueryEscape(s), "+", " "))
}

// reservedEscaper shields the escapes of characters JavaScript's decodeURI
// keeps encoded, so they come through unescaping as literal text.
var reservedEscaper = strings.NewReplacer(
	"%3B", "%253B", "%3b", "%253b", "%2F", "%252F", "%2f", "%252f",
	"%3F", "%253F", "%3f", "%253f", "%3A", "%253A", "%3a", "%253a",
	"%40", "%2540", "%26", "%2526", "%3D", "%253D", "%3d", "%253d",
	"%2B", "%252B", "%2b", "%252b", "%24", "%2524", "%2C", "%252C",
	"%2c", "%252c", "%23", "%2523")

// decodeURI reverses encodeURI the way JavaScript's decodeURI does: escapes
// of ;/?:@&=+$,# stay encoded. A literal '+' stands for itself.
func decodeURI(s string) (string, error) {
	s = reservedEscaper.Replace(s)
	out, err := url.QueryUnescape(strings.ReplaceAll(s, "+", "%2B"))
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(out) {
		return "", errInvalidUTF8
	}
	return out, nil
}

var errInvalidUTF8 = &Error{Code: ErrInvalidArgument, Message: "escape decodes to invalid UTF-8"}

// ToDelta crushes diffs into a compact string describing the operations
// needed to turn the source text into the target: "=3\t-2\t+ing" keeps 3
// runes, deletes 2 and inserts "ing". Inserted text is URI-escaped.
func ToDelta(diffs []Diff) string {
	tokens := make([]string, 0, len(diffs))
	for _, d := range diffs {
		switch d.Type {
		case Insert:
			tokens = append(tokens, "+"+encodeURI(d.Text))
		case Delete:
			tokens = append(tokens, "-"+strconv.Itoa(runeLen(d.Text)))
		case Equal:
			tokens = append(tokens, "="+strconv.Itoa(runeLen(d.Text)))
		}
	}
	return strings.Join(tokens, "\t")
}

// FromDelta rebuilds the full diff from the source text and a delta produced
// by ToDelta.
func FromDelta(text1, delta string) ([]Diff, error) {
	const op = "diff_from_delta"
	source := []rune(text1)
	var edits []edit
	pointer := 0
	for _, token := range strings.Split(delta, "\t") {
		if token == "" {
			// Blank tokens are ok, e.g. from a trailing tab.
			continue
		}
		param := token[1:]
		switch token[0] {
		case '+':
			text, err := decodeURI(param)
			if err != nil {
				e := invalidArgument(op, "illegal escape", "param", param)
				e.Err = err
				return nil, e
			}
			edits = append(edits, edit{op: Insert, text: []rune(text)})
		case '-', '=':
			n, err := strconv.Atoi(param)
			if err != nil || n < 0 {
				e := invalidArgument(op, "invalid number", "param", param)
				e.Err = err
				return nil, e
			}
			text := slice(source, pointer, pointer+n)
			pointer += n
			if token[0] == '=' {
				edits = append(edits, edit{op: Equal, text: text})
			} else {
				edits = append(edits, edit{op: Delete, text: text})
			}
		default:
			return nil, invalidArgument(op, "invalid diff operation", "token", token)
		}
	}
	if pointer != len(source) {
		return nil, invalidArgument(op,
			"Delta length ("+strconv.Itoa(pointer)+") does not equal source text length ("+strconv.Itoa(len(source))+").",
			"delta_length", pointer, "source_length", len(source))
	}
	return fromEdits(edits), nil
}
