// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package output writes extraction records to files and hands them to
// collaborator programs.
package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/apiextract/services/extract/mock"
)

// Format is a serialization of the record array.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnsupportedFormat indicates an unknown output format.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// ErrCollaboratorFailed indicates the collaborator exited unsuccessfully.
var ErrCollaboratorFailed = errors.New("collaborator failed")

// FormatFor picks the format from a file extension: ".yaml" and ".yml"
// are YAML, everything else is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode writes records to w. A nil slice is written as an empty array.
func Encode(w io.Writer, records []mock.Record, format Format) error {
	if records == nil {
		records = []mock.Record{}
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q (supported: json, yaml)", ErrUnsupportedFormat, format)
	}
}

// WriteFile writes records to path in the format its extension implies.
//
// Description:
//
//	The document is written to a temporary file in the same directory and
//	renamed over path, so readers never see a partial file. Missing parent
//	directories are created.
func WriteFile(path string, records []mock.Record) error {
	var buf bytes.Buffer
	if err := Encode(&buf, records, FormatFor(path)); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	slog.Info("records written",
		slog.String("path", path),
		slog.Int("records", len(records)),
		slog.Int("bytes", buf.Len()))
	return nil
}

// scriptRunners maps script extensions to the interpreter that runs them.
var scriptRunners = map[string]string{
	".js":  "node",
	".mjs": "node",
	".cjs": "node",
	".py":  "python3",
}

// collaboratorCommand is injectable in tests.
var collaboratorCommand = func(ctx context.Context, path string) *exec.Cmd {
	if runner, ok := scriptRunners[strings.ToLower(filepath.Ext(path))]; ok {
		return exec.CommandContext(ctx, runner, path)
	}
	return exec.CommandContext(ctx, path)
}

// RunCollaborator runs the program at path with the JSON record array on
// its standard input.
//
// Description:
//
//	Scripts with a known extension (.js, .mjs, .cjs, .py) run through
//	their interpreter; anything else must be executable. The program's
//	standard output goes to stdout; its standard error is captured and
//	included in the returned error on failure.
//
// Inputs:
//   - ctx: Cancels the program.
//   - path: The collaborator program.
//   - records: The records to hand over.
//   - stdout: Receives the program's output. Nil discards it.
//
// Outputs:
//   - error: Wraps ErrCollaboratorFailed when the program fails.
func RunCollaborator(ctx context.Context, path string, records []mock.Record, stdout io.Writer) error {
	ctx, span := tracer.Start(ctx, "output.RunCollaborator")
	defer span.End()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving collaborator %s: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("collaborator %s: %w", path, err)
	}

	var input bytes.Buffer
	if err := Encode(&input, records, FormatJSON); err != nil {
		return err
	}
	if stdout == nil {
		stdout = io.Discard
	}

	var stderr bytes.Buffer
	cmd := collaboratorCommand(ctx, abs)
	cmd.Stdin = &input
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	cmd.Dir = filepath.Dir(abs)

	if err := cmd.Run(); err != nil {
		span.RecordError(err)
		collaboratorRunsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %s: %w: %s", ErrCollaboratorFailed, path, err, strings.TrimSpace(stderr.String()))
	}
	collaboratorRunsTotal.WithLabelValues("success").Inc()
	slog.Info("collaborator finished",
		slog.String("path", abs),
		slog.Int("records", len(records)))
	return nil
}
