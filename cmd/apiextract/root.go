// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/apiextract/services/extract/config"
	"github.com/AleutianAI/apiextract/services/extract/mock"
	"github.com/AleutianAI/apiextract/services/extract/output"
)

var cliTracer = otel.Tracer("apiextract.cli")

// rootOptions hold the flag values shared by every command.
type rootOptions struct {
	outFile    string
	calcFile   string
	configPath string
	logLevel   string
	trace      bool

	stdout io.Writer
	stderr io.Writer

	cfg      *config.Config
	logger   *slog.Logger
	shutdown func(context.Context) error
}

// legacyFlags maps the single-dash long flags of earlier releases to
// their current spelling.
var legacyFlags = map[string]string{
	"-outFile":  "--outFile",
	"-ourFile":  "--outFile",
	"-calcFile": "--calcFile",
	"--ourFile": "--outFile",
}

// normalizeArgs rewrites legacy flag spellings. Arguments after "--" are
// left alone.
//
// Example:
//
//	normalizeArgs([]string{"src", "-outFile", "m.json"}) // [src --outFile m.json]
//	normalizeArgs([]string{"-calcFile=sync.js"})         // [--calcFile=sync.js]
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		name, value, hasValue := strings.Cut(arg, "=")
		if replacement, ok := legacyFlags[name]; ok {
			if hasValue {
				out = append(out, replacement+"="+value)
			} else {
				out = append(out, replacement)
			}
			continue
		}
		out = append(out, arg)
	}
	return out
}

// newRootCmd builds the command tree writing to stdout and stderr.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "apiextract [paths...]",
		Short: "Extract annotated API declarations from TypeScript sources",
		Long: `apiextract scans TypeScript files for variable declarations marked with a
@mock doc tag or a [mock] comment line and prints one record per API call:
URL, verb, headers, and the request and response type shapes.

Directories are searched recursively for source files.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.teardown(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), opts, args)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.outFile, "outFile", "o", "", "write records to this file (.yaml/.yml for YAML, otherwise JSON)")
	flags.StringVarP(&opts.calcFile, "calcFile", "c", "", "run this program with the JSON records on stdin")
	flags.StringVar(&opts.configPath, "config", "", "config file (default $"+config.EnvConfigPath+" or built-in defaults)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.BoolVar(&opts.trace, "trace", false, "print OpenTelemetry spans to stderr")

	root.AddCommand(newListCmd(opts), newWatchCmd(opts))
	return root
}

// setup loads the environment, configures logging and tracing, and
// resolves the configuration.
func (o *rootOptions) setup(ctx context.Context) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	level, err := parseLevel(o.logLevel)
	if err != nil {
		return err
	}
	o.logger = newLogger(o.stderr, level).With(slog.String("run_id", uuid.NewString()))
	slog.SetDefault(o.logger)

	o.shutdown = func(context.Context) error { return nil }
	if o.trace {
		shutdown, err := setupTracing(o.stderr)
		if err != nil {
			return err
		}
		o.shutdown = shutdown
	}

	cfg, err := config.Resolve(ctx, o.configPath)
	if err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

func (o *rootOptions) teardown(ctx context.Context) error {
	if o.shutdown == nil {
		return nil
	}
	if err := o.shutdown(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("flushing traces: %w", err)
	}
	return nil
}

// runExtract performs one extraction and emits the records.
func runExtract(ctx context.Context, opts *rootOptions, paths []string) error {
	ctx, span := cliTracer.Start(ctx, "cli.extract")
	defer span.End()

	records, err := mock.NewRunner(opts.cfg, opts.logger).Run(ctx, paths)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("records", len(records)))
	return opts.emit(ctx, records)
}

// emit writes records to the output file and the collaborator, or to
// stdout when neither is set.
func (o *rootOptions) emit(ctx context.Context, records []mock.Record) error {
	var errs []error
	if o.outFile != "" {
		if err := output.WriteFile(o.outFile, records); err != nil {
			errs = append(errs, err)
		}
	}
	if o.calcFile != "" {
		if err := output.RunCollaborator(ctx, o.calcFile, records, o.stdout); err != nil {
			errs = append(errs, err)
		}
	}
	if o.outFile == "" && o.calcFile == "" {
		if err := output.Encode(o.stdout, records, output.FormatJSON); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// parseLevel converts a flag value to a slog level.
func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid --log-level %q: %w", s, err)
	}
	return level, nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isattyTerminal(f.Fd())
}
