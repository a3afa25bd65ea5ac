package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/dacharyc/diffmerge"
)

func diffCommand(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	format := fs.String("format", "text", "output format: text, delta, html or unified")
	lines := fs.Bool("lines", true, "run a line-level pass first on long inputs")
	if err := parseArgs(fs, args, 2); err != nil {
		return err
	}
	if err := checkFormat(*format, "text", "delta", "html", "unified"); err != nil {
		return err
	}
	texts, err := readFiles(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}

	if *format == "unified" {
		out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(texts[0]),
			B:        difflib.SplitLines(texts[1]),
			FromFile: fs.Arg(0),
			ToFile:   fs.Arg(1),
			Context:  3,
		})
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(a.stdout, out)
		return err
	}

	diffs, err := a.engine.DiffMain(texts[0], texts[1], *lines)
	if err != nil {
		return err
	}
	diffs = diffmerge.CleanupSemantic(diffs)
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("diffs", len(diffs)))

	switch *format {
	case "text":
		for _, d := range diffs {
			if _, err := fmt.Fprintf(a.stdout, "%s%q\n", sign(d.Type), d.Text); err != nil {
				return err
			}
		}
		return nil
	case "delta":
		_, err = fmt.Fprintln(a.stdout, diffmerge.ToDelta(diffs))
	case "html":
		_, err = fmt.Fprintln(a.stdout, diffmerge.PrettyHTML(diffs))
	default:
		return fmt.Errorf("%w: unknown format %q", errUsage, *format)
	}
	return err
}

func checkFormat(format string, known ...string) error {
	for _, k := range known {
		if format == k {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown format %q", errUsage, format)
}

func sign(op diffmerge.Operation) string {
	switch op {
	case diffmerge.Delete:
		return "-"
	case diffmerge.Insert:
		return "+"
	default:
		return " "
	}
}

func patchCommand(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("patch", flag.ContinueOnError)
	if err := parseArgs(fs, args, 2); err != nil {
		return err
	}
	texts, err := readFiles(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	patches, err := a.engine.PatchMakeFromTexts(texts[0], texts[1])
	if err != nil {
		return err
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("patches", len(patches)))
	_, err = fmt.Fprint(a.stdout, diffmerge.PatchToText(patches))
	return err
}

func applyCommand(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	if err := parseArgs(fs, args, 2); err != nil {
		return err
	}
	texts, err := readFiles(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	patches, err := diffmerge.PatchFromText(texts[0])
	if err != nil {
		return err
	}
	out, applied, err := a.engine.PatchApply(patches, texts[1])
	if err != nil {
		return err
	}
	if _, err := fmt.Fprint(a.stdout, out); err != nil {
		return err
	}

	failed := 0
	for i, ok := range applied {
		if !ok {
			failed++
			a.log.Warn("patch did not apply", "patch", i+1)
		}
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("patches", len(applied)),
		attribute.Int("failed", failed),
	)
	a.log.Info("patches applied", "applied", len(applied)-failed, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d patches failed", failed, len(applied))
	}
	return nil
}

// regionView is the serialized form of a merge region.
type regionView struct {
	Kind  string   `yaml:"kind"`
	Base  spanView `yaml:"base"`
	Left  spanView `yaml:"left"`
	Right spanView `yaml:"right"`
}

type spanView struct {
	Lo   int    `yaml:"lo"`
	Hi   int    `yaml:"hi"`
	Text string `yaml:"text"`
}

func mergeCommand(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("merge", flag.ContinueOnError)
	format := fs.String("format", "text", "output format: text or yaml")
	if err := parseArgs(fs, args, 3); err != nil {
		return err
	}
	if err := checkFormat(*format, "text", "yaml"); err != nil {
		return err
	}
	texts, err := readFiles(fs.Arg(0), fs.Arg(1), fs.Arg(2))
	if err != nil {
		return err
	}
	regions, err := a.engine.Merge(texts[0], texts[1], texts[2])
	if err != nil {
		return err
	}

	conflicts := 0
	for _, r := range regions {
		if r.Kind == diffmerge.PossibleConflict {
			conflicts++
		}
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("regions", len(regions)),
		attribute.Int("conflicts", conflicts),
	)

	switch *format {
	case "text":
		var b strings.Builder
		for _, r := range regions {
			b.WriteString(r.String())
			b.WriteByte('\n')
		}
		_, err = fmt.Fprint(a.stdout, b.String())
		return err
	case "yaml":
		views := make([]regionView, len(regions))
		for i, r := range regions {
			views[i] = regionView{
				Kind:  r.Kind.String(),
				Base:  spanView{Lo: r.BaseLo, Hi: r.BaseHi, Text: r.BaseText},
				Left:  spanView{Lo: r.LeftLo, Hi: r.LeftHi, Text: r.LeftText},
				Right: spanView{Lo: r.RightLo, Hi: r.RightHi, Text: r.RightText},
			}
		}
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: unknown format %q", errUsage, *format)
	}
}

func deltaCommand(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("delta", flag.ContinueOnError)
	if err := parseArgs(fs, args, 2); err != nil {
		return err
	}
	texts, err := readFiles(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	diffs, err := diffmerge.FromDelta(texts[0], strings.TrimRight(texts[1], "\n"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.stdout, diffmerge.Text2(diffs))
	return err
}
