// Comparison tool for validating diffmerge output against other diff implementations
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	godiff "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dacharyc/diffmerge"
)

type testCase struct {
	name string
	a, b string
}

func main() {
	testCases := []testCase{
		{
			name: "Fox sentence (common anchor word)",
			a:    "The quick brown fox jumps",
			b:    "A slow red fox leaps",
		},
		{
			name: "Prose with common words",
			a:    "The quick brown fox jumps over the lazy dog in the park",
			b:    "A slow red fox leaps over the sleeping cat in the garden",
		},
		{
			name: "Code-like tokens",
			a:    "func main() {\n\tfmt.Println(hello)\n}\n",
			b:    "func main() {\n\tlog.Printf(world)\n}\n",
		},
		{
			name: "Large file (500 lines, scattered changes)",
			a:    generateLargeText(500, 0),
			b:    generateLargeText(500, 42),
		},
	}

	engine := diffmerge.New()
	dmp := godiff.New()

	for _, tc := range testCases {
		fmt.Printf("\n=== %s ===\n", tc.name)
		fmt.Printf("A: %d runes, B: %d runes\n", len([]rune(tc.a)), len([]rune(tc.b)))

		start := time.Now()
		ours, err := engine.DiffMain(tc.a, tc.b, true)
		if err != nil {
			fmt.Printf("diffmerge: %v\n", err)
			continue
		}
		oursTime := time.Since(start)

		start = time.Now()
		theirs := dmp.DiffMain(tc.a, tc.b, true)
		theirsTime := time.Since(start)

		start = time.Now()
		matcher := difflib.NewMatcher(difflib.SplitLines(tc.a), difflib.SplitLines(tc.b))
		lineOps := matcher.GetOpCodes()
		lineTime := time.Since(start)

		oursStats := analyze(ours)
		theirsStats := analyzeGoDiff(theirs)

		fmt.Printf("\ndiffmerge: %v\n", oursTime)
		printStats(oursStats)
		fmt.Printf("  Levenshtein: %d\n", diffmerge.Levenshtein(ours))

		fmt.Printf("\ngo-diff:   %v\n", theirsTime)
		printStats(theirsStats)
		fmt.Printf("  Levenshtein: %d\n", dmp.DiffLevenshtein(theirs))

		fmt.Printf("\ngo-difflib (lines): %v\n", lineTime)
		fmt.Printf("  Opcodes: %d, ratio %.3f\n", len(lineOps), matcher.Ratio())

		if diffmerge.ToDelta(ours) == dmp.DiffToDelta(theirs) {
			fmt.Println("\ndeltas: identical")
		} else {
			fmt.Println("\ndeltas: differ")
		}

		// Show detailed output for small cases
		if len(tc.a) <= 80 {
			fmt.Println("\ndiffmerge output:")
			for _, d := range ours {
				switch d.Type {
				case diffmerge.Equal:
					fmt.Printf("  = %q\n", d.Text)
				case diffmerge.Delete:
					fmt.Printf("  - %q\n", d.Text)
				case diffmerge.Insert:
					fmt.Printf("  + %q\n", d.Text)
				}
			}
		}
	}
}

type diffStats struct {
	total, equal, delete, insert int
	changeRegions                int
}

func printStats(s diffStats) {
	fmt.Printf("  Operations: %d (Equal: %d, Delete: %d, Insert: %d)\n",
		s.total, s.equal, s.delete, s.insert)
	fmt.Printf("  Change regions: %d\n", s.changeRegions)
}

// count tallies one entry; changes not separated by an equality share a
// region.
func (s *diffStats) count(equal, del bool, inChange *bool) {
	s.total++
	switch {
	case equal:
		s.equal++
		*inChange = false
		return
	case del:
		s.delete++
	default:
		s.insert++
	}
	if !*inChange {
		s.changeRegions++
		*inChange = true
	}
}

func analyze(diffs []diffmerge.Diff) diffStats {
	var s diffStats
	inChange := false
	for _, d := range diffs {
		s.count(d.Type == diffmerge.Equal, d.Type == diffmerge.Delete, &inChange)
	}
	return s
}

func analyzeGoDiff(diffs []godiff.Diff) diffStats {
	var s diffStats
	inChange := false
	for _, d := range diffs {
		s.count(d.Type == godiff.DiffEqual, d.Type == godiff.DiffDelete, &inChange)
	}
	return s
}

func generateLargeText(lines int, seed int) string {
	words := []string{"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dog",
		"func", "main", "return", "if", "else", "for", "range", "var", "const",
		"import", "package", "type", "struct", "interface", "map", "slice"}

	result := make([]string, lines)
	for i := 0; i < lines; i++ {
		lineWords := make([]string, 5+i%3)
		for j := range lineWords {
			idx := (i*7 + j*13 + seed) % len(words)
			lineWords[j] = words[idx]
		}
		result[i] = strings.Join(lineWords, " ")
	}

	// Introduce some changes based on seed
	for i := seed % 10; i < lines; i += 10 + seed%5 {
		result[i] = "CHANGED LINE " + fmt.Sprint(i)
	}

	return strings.Join(result, "\n") + "\n"
}
