package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dacharyc/diffmerge"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DIFFMERGE_CONFIG", "OTEL_ENABLED", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}
}

func newTestApp(t *testing.T) (*app, *bytes.Buffer, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var out bytes.Buffer
	return &app{
		engine: diffmerge.New(),
		tracer: tp.Tracer("test"),
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		stdout: &out,
	}, &out, rec
}

func TestRun(t *testing.T) {
	clearEnv(t)
	hello := writeFile(t, "old.txt", "Hello")
	hallo := writeFile(t, "new.txt", "Hallo")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "diff text",
			args: []string{"diff", hello, hallo},
			want: " \"H\"\n-\"e\"\n+\"a\"\n \"llo\"\n",
		},
		{
			name: "diff delta",
			args: []string{"diff", "-format", "delta", hello, hallo},
			want: "=1\t-1\t+a\t=3\n",
		},
		{
			name: "diff html",
			args: []string{"diff", "-format", "html", hello, hallo},
			want: `<span>H</span><del style="background:#ffe6e6;">e</del><ins style="background:#e6ffe6;">a</ins><span>llo</span>` + "\n",
		},
		{
			name: "delta",
			args: []string{"delta", hello, writeFile(t, "delta.txt", "=1\t-1\t+a\t=3\n")},
			want: "Hallo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			require.NoError(t, run(context.Background(), tt.args, &stdout, &stderr))
			assert.Equal(t, tt.want, stdout.String())
		})
	}
}

func TestRunUnified(t *testing.T) {
	clearEnv(t)
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"diff", "-format", "unified",
		writeFile(t, "a.txt", "one\ntwo\nthree\n"),
		writeFile(t, "b.txt", "one\n2\nthree\n"),
	}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "-two\n")
	assert.Contains(t, stdout.String(), "+2\n")
}

func TestRunPatchThenApply(t *testing.T) {
	clearEnv(t)
	oldText := "The quick brown fox jumps over the lazy dog."
	newText := "That quick brown fox jumped over a lazy dog."

	var patchOut, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"patch", writeFile(t, "old.txt", oldText), writeFile(t, "new.txt", newText),
	}, &patchOut, &stderr)
	require.NoError(t, err)
	require.Contains(t, patchOut.String(), "@@ -")

	var applied bytes.Buffer
	err = run(context.Background(), []string{
		"apply", writeFile(t, "fix.patch", patchOut.String()), writeFile(t, "target.txt", oldText),
	}, &applied, &stderr)
	require.NoError(t, err)
	assert.Equal(t, newText, applied.String())
}

func TestRunMerge(t *testing.T) {
	clearEnv(t)
	base := writeFile(t, "base.txt", "abc")
	left := writeFile(t, "left.txt", "abcd")
	right := writeFile(t, "right.txt", "abc")

	t.Run("text", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		require.NoError(t, run(context.Background(), []string{"merge", base, left, right}, &stdout, &stderr))
		assert.Equal(t,
			"no_conflict_found base[0:3] left[0:3] right[0:3]\nchoose_left base[3:3] left[3:4] right[3:3]\n",
			stdout.String())
	})

	t.Run("yaml", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		require.NoError(t, run(context.Background(), []string{"merge", "-format", "yaml", base, left, right}, &stdout, &stderr))
		assert.Contains(t, stdout.String(), "- kind: no_conflict_found\n")
		assert.Contains(t, stdout.String(), "- kind: choose_left\n")
		assert.Contains(t, stdout.String(), "text: d\n")
	})
}

func TestRunUsageErrors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		args []string
	}{
		{name: "no command", args: nil},
		{name: "unknown command", args: []string{"frobnicate"}},
		{name: "missing argument", args: []string{"diff", "only-one"}},
		{name: "bad flag", args: []string{"diff", "-nope", "a", "b"}},
		// The inputs do not exist: the format is rejected before they are read.
		{name: "unknown diff format", args: []string{"diff", "-format", "xml", "missing-a", "missing-b"}},
		{name: "unknown merge format", args: []string{"merge", "-format", "json", "base", "left", "right"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, &stdout, &stderr)
			require.Error(t, err)
			assert.ErrorIs(t, err, errUsage)
			assert.Empty(t, stdout.String())
		})
	}
}

func TestRunBadConfig(t *testing.T) {
	clearEnv(t)
	cfg := writeFile(t, "config.yaml", "match_threshold: 2\n")
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-config", cfg, "diff", "a", "b"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match_threshold")
}

func TestExecuteSpans(t *testing.T) {
	a, out, rec := newTestApp(t)
	source := writeFile(t, "source.txt", "Hello")

	require.NoError(t, a.execute(context.Background(), "delta",
		[]string{source, writeFile(t, "good.txt", "=1\t-1\t+a\t=3")}))
	assert.Equal(t, "Hallo", out.String())

	err := a.execute(context.Background(), "delta",
		[]string{source, writeFile(t, "bad.txt", "=9")})
	require.Error(t, err)
	assert.True(t, diffmerge.IsInvalidArgument(err))

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "diffmerge.delta", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, "diffmerge.delta", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.NotEmpty(t, spans[1].Events(), "error should be recorded on the span")
}

func TestExecuteUnknownCommand(t *testing.T) {
	a, _, rec := newTestApp(t)
	err := a.execute(context.Background(), "bogus", nil)
	assert.ErrorIs(t, err, errUsage)
	assert.Empty(t, rec.Ended())
}

func TestApplyReportsFailedPatches(t *testing.T) {
	a, _, rec := newTestApp(t)
	patch := "@@ -1,5 +1,5 @@\n-abcde\n+vwxyz\n"
	err := a.execute(context.Background(), "apply",
		[]string{writeFile(t, "p.patch", patch), writeFile(t, "t.txt", "0123456789")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 patches failed")

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}
