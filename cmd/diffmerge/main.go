// Command diffmerge diffs, patches and three-way merges text files.
//
// Usage:
//
//	diffmerge [-config file] diff [-format text|delta|html|unified] [-lines] OLD NEW
//	diffmerge [-config file] patch OLD NEW
//	diffmerge [-config file] apply PATCH FILE
//	diffmerge [-config file] merge [-format text|yaml] BASE LEFT RIGHT
//	diffmerge [-config file] delta SOURCE DELTA
//
// Results go to stdout and logs to stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dacharyc/diffmerge"
	"github.com/dacharyc/diffmerge/internal/config"
	"github.com/dacharyc/diffmerge/internal/logger"
	"github.com/dacharyc/diffmerge/internal/telemetry"
)

const usage = `usage: diffmerge [-config file] <command> [flags] args...

commands:
  diff   OLD NEW            print the diff script
  patch  OLD NEW            print patch text turning OLD into NEW
  apply  PATCH FILE         apply patch text to FILE and print the result
  merge  BASE LEFT RIGHT    three-way merge LEFT and RIGHT against BASE
  delta  SOURCE DELTA       rebuild a target from SOURCE and a delta
`

// errUsage is returned for bad command lines; main prints the usage text.
var errUsage = errors.New("invalid usage")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("diffmerge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file (default $DIFFMERGE_CONFIG)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logger.NewWithWriter(stderr, cfg.LogLevel)

	tel, err := telemetry.New(ctx, cfg.OTelEnabled)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown", "error", err)
		}
	}()

	opts := append(cfg.EngineOptions(),
		diffmerge.WithLogger(log),
		diffmerge.WithMeter(tel.Meter),
	)
	a := &app{
		engine: diffmerge.New(opts...),
		tracer: tel.Tracer,
		log:    log,
		stdout: stdout,
	}
	return a.execute(ctx, fs.Arg(0), fs.Args()[1:])
}

// app carries what every subcommand needs.
type app struct {
	engine *diffmerge.Engine
	tracer trace.Tracer
	log    *slog.Logger
	stdout io.Writer
}

// execute runs one subcommand inside a span named after it.
func (a *app) execute(ctx context.Context, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}

	ctx, span := a.tracer.Start(ctx, "diffmerge."+name,
		trace.WithAttributes(attribute.StringSlice("args", args)))
	defer span.End()

	start := time.Now()
	err := cmd(ctx, a, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w", name, err)
	}
	a.log.Debug("command finished", "command", name, "elapsed", time.Since(start))
	return nil
}

var commands = map[string]func(context.Context, *app, []string) error{
	"diff":  diffCommand,
	"patch": patchCommand,
	"apply": applyCommand,
	"merge": mergeCommand,
	"delta": deltaCommand,
}

// readFiles reads each named file in order.
func readFiles(names ...string) ([]string, error) {
	out := make([]string, len(names))
	for i, name := range names {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		out[i] = string(data)
	}
	return out, nil
}

// parseArgs parses flags for a subcommand and checks its positional count.
func parseArgs(fs *flag.FlagSet, args []string, n int) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != n {
		return fmt.Errorf("%w: %s takes %d arguments, got %d", errUsage, fs.Name(), n, fs.NArg())
	}
	return nil
}
