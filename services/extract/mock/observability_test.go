// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AleutianAI/apiextract/services/extract/config"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func TestRunner_Run_Spans(t *testing.T) {
	exporter := setupTestTracer(t)
	dir := writeTree(t, projectFiles)
	cfg, err := config.Default(context.Background())
	require.NoError(t, err)

	_, err = NewRunner(cfg, nil).Run(context.Background(), []string{dir})
	require.NoError(t, err)

	counts := make(map[string]int)
	for _, span := range exporter.GetSpans() {
		counts[span.Name]++
	}
	assert.Equal(t, 1, counts["mock.Run"])
	assert.Equal(t, 3, counts["mock.Scan"], "one scan per input file")
	assert.Equal(t, 4, counts["mock.Assemble"], "one assembly per record")
	assert.Equal(t, 4, counts["mock.Bind"])
	assert.Positive(t, counts["shape.Extract"])
}
