package diffmerge

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eq(s string) Diff  { return Diff{Type: Equal, Text: s} }
func del(s string) Diff { return Diff{Type: Delete, Text: s} }
func ins(s string) Diff { return Diff{Type: Insert, Text: s} }

// nonEmpty drops the emptied edits the merge pass leaves behind, keeping the
// visible script.
func nonEmpty(diffs []Diff) []Diff {
	var out []Diff
	for _, d := range diffs {
		if d.Type != Equal && d.Text == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{Equal, "Equal"},
		{Delete, "Delete"},
		{Insert, "Insert"},
		{Operation(7), "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.op.String())
	}
}

func TestNew_Options(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		check func(t *testing.T, o options)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, o options) {
				assert.Equal(t, time.Second, o.timeout)
				assert.Equal(t, 4, o.editCost)
				assert.Equal(t, 0.5, o.matchThreshold)
				assert.Equal(t, 1000, o.matchDistance)
				assert.Equal(t, 0.5, o.patchDeleteThreshold)
				assert.Equal(t, 4, o.patchMargin)
				assert.NotNil(t, o.logger)
				assert.NotNil(t, o.meter)
			},
		},
		{
			name: "thresholds are clamped",
			opts: []Option{WithMatchThreshold(2), WithPatchDeleteThreshold(-1)},
			check: func(t *testing.T, o options) {
				assert.Equal(t, 1.0, o.matchThreshold)
				assert.Equal(t, 0.0, o.patchDeleteThreshold)
			},
		},
		{
			name: "negative timeout disables the deadline",
			opts: []Option{WithTimeout(-time.Second)},
			check: func(t *testing.T, o options) {
				assert.Equal(t, time.Duration(0), o.timeout)
			},
		},
		{
			name: "negative counts are ignored",
			opts: []Option{WithEditCost(-1), WithMatchDistance(-1), WithPatchMargin(-1)},
			check: func(t *testing.T, o options) {
				assert.Equal(t, 4, o.editCost)
				assert.Equal(t, 1000, o.matchDistance)
				assert.Equal(t, 4, o.patchMargin)
			},
		},
		{
			name: "margins that fill the pattern are ignored",
			opts: []Option{WithPatchMargin(MatchMaxBits / 2)},
			check: func(t *testing.T, o options) {
				assert.Equal(t, 4, o.patchMargin)
			},
		},
		{
			name: "widest margin",
			opts: []Option{WithPatchMargin(MaxPatchMargin)},
			check: func(t *testing.T, o options) {
				assert.Equal(t, 15, o.patchMargin)
			},
		},
		{
			name: "nil logger and meter keep the defaults",
			opts: []Option{WithLogger(nil), WithMeter(nil)},
			check: func(t *testing.T, o options) {
				assert.NotNil(t, o.logger)
				assert.NotNil(t, o.meter)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, New(tt.opts...).opts)
		})
	}
}

func TestEngine_Deadline(t *testing.T) {
	assert.True(t, New(WithTimeout(0)).deadline().IsZero())

	before := time.Now()
	dl := New(WithTimeout(time.Minute)).deadline()
	assert.True(t, dl.After(before.Add(59*time.Second)))
}

// randomText builds a string from a small alphabet so that random pairs
// share plenty of structure.
func randomText(r *rand.Rand, n int) string {
	const alphabet = "ab c\nd"
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[r.Intn(len(alphabet))])
	}
	return b.String()
}

// mutate applies a few random insertions and deletions to s.
func mutate(r *rand.Rand, s string) string {
	runes := []rune(s)
	for i := r.Intn(4); i >= 0; i-- {
		at := r.Intn(len(runes) + 1)
		if r.Intn(2) == 0 && at < len(runes) {
			end := min(len(runes), at+1+r.Intn(5))
			runes = append(runes[:at:at], runes[end:]...)
			continue
		}
		insert := []rune(randomText(r, 1+r.Intn(5)))
		runes = append(runes[:at:at], append(insert, runes[at:]...)...)
	}
	return string(runes)
}

func TestDiff_Roundtrips(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	e := New()
	for i := 0; i < 200; i++ {
		a := randomText(r, r.Intn(120))
		b := mutate(r, a)

		diffs, err := e.DiffMain(a, b, i%2 == 0)
		require.NoError(t, err)
		require.Equal(t, a, Text1(diffs), "source text for %q -> %q", a, b)
		require.Equal(t, b, Text2(diffs), "target text for %q -> %q", a, b)

		for _, cleaned := range [][]Diff{
			CleanupSemantic(diffs),
			e.CleanupEfficiency(diffs),
			CleanupSemanticLossless(diffs),
		} {
			require.Equal(t, a, Text1(cleaned))
			require.Equal(t, b, Text2(cleaned))
		}

		back, err := FromDelta(a, ToDelta(diffs))
		require.NoError(t, err)
		require.Equal(t, diffs, back)

		patches, err := e.PatchMakeFromTexts(a, b)
		require.NoError(t, err)
		parsed, err := PatchFromText(PatchToText(patches))
		require.NoError(t, err)
		got, applied, err := e.PatchApply(parsed, a)
		require.NoError(t, err)
		require.Equal(t, b, got, "patching %q -> %q", a, b)
		for j, ok := range applied {
			require.True(t, ok, "patch %d of %q -> %q", j, a, b)
		}
	}
}

func TestMerge_Roundtrips(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	e := New()
	for i := 0; i < 200; i++ {
		base := randomText(r, r.Intn(80))
		left := mutate(r, base)
		right := mutate(r, base)
		if i%5 == 0 {
			right = left
		}

		regions, err := e.Merge(base, left, right)
		require.NoError(t, err, "merge of %q, %q, %q", base, left, right)

		var b, l, rt strings.Builder
		for _, reg := range regions {
			b.WriteString(reg.BaseText)
			l.WriteString(reg.LeftText)
			rt.WriteString(reg.RightText)
			if left == right {
				assert.NotEqual(t, PossibleConflict, reg.Kind)
			}
		}
		require.Equal(t, base, b.String())
		require.Equal(t, left, l.String())
		require.Equal(t, right, rt.String())
	}
}

func BenchmarkDiffMain_Small(b *testing.B) {
	e := New()
	for i := 0; i < b.N; i++ {
		_, _ = e.DiffMain("The quick brown fox jumps", "A slow red fox leaps", true)
	}
}

func BenchmarkDiffMain_Large(b *testing.B) {
	var x, y strings.Builder
	for i := 0; i < 1000; i++ {
		line := string(rune('a'+i%26)) + " line of text\n"
		x.WriteString(line)
		if i%10 == 0 {
			y.WriteString("changed\n")
			continue
		}
		y.WriteString(line)
	}
	e := New(WithTimeout(0))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.DiffMain(x.String(), y.String(), true)
	}
}

func BenchmarkMerge(b *testing.B) {
	base := strings.Repeat("The two are the same,\nBut after they are produced,\n", 20)
	left := "prefix\n" + base
	right := base + "suffix\n"
	e := New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Merge(base, left, right)
	}
}
