// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command apiextract extracts API declarations from TypeScript sources.
//
// Every variable declaration marked with a `@mock` doc tag or a `[mock]`
// comment line is read as an API call of the form
// `api.VERB<Response, Request>(url, flags, options)` and emitted as one
// JSON record with its URL, verb, headers and request/response shapes.
//
// Usage:
//
//	apiextract src/api                     # JSON records on stdout
//	apiextract src/api -o mock.json        # write to a file (.yaml for YAML)
//	apiextract src/api -c ./sync.js        # pipe records to a collaborator
//	apiextract list src/api                # table of discovered endpoints
//	apiextract watch src/api -o mock.json  # rewrite mock.json on change
//
// The legacy single-dash flags -outFile, -ourFile and -calcFile are
// accepted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(os.Stdout, os.Stderr)
	cmd.SetArgs(normalizeArgs(os.Args[1:]))
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
