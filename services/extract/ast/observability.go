// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// astTracerName is the OTel tracer name for parsing and loading.
const astTracerName = "apiextract.ast"

var tracer = otel.Tracer(astTracerName)

var (
	// parseDuration measures tree-sitter parse time per file.
	//
	// Labels:
	//   - status: "success" or "error"
	parseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "apiextract",
			Subsystem: "ast",
			Name:      "parse_duration_seconds",
			Help:      "Duration of tree-sitter parses in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"status"},
	)

	// filesParsedTotal counts parsed files.
	//
	// Labels:
	//   - status: "success" or "error"
	filesParsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apiextract",
			Subsystem: "ast",
			Name:      "files_parsed_total",
			Help:      "Total number of parsed source files.",
		},
		[]string{"status"},
	)

	// moduleResolutionsTotal counts module specifier resolutions.
	//
	// Labels:
	//   - result: "resolved" or "unresolved"
	moduleResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apiextract",
			Subsystem: "ast",
			Name:      "module_resolutions_total",
			Help:      "Total number of module specifier resolutions.",
		},
		[]string{"result"},
	)
)

// startParseSpan starts a span for parsing one file.
func startParseSpan(ctx context.Context, filePath string, size int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ast.Parse", trace.WithAttributes(
		attribute.String("file", filePath),
		attribute.Int("size_bytes", size),
	))
}

// setParseSpanResult annotates the parse span with the outcome.
func setParseSpanResult(span trace.Span, imports, aliases int, hasErrors bool) {
	span.SetAttributes(
		attribute.Int("imports", imports),
		attribute.Int("aliases", aliases),
		attribute.Bool("syntax_errors", hasErrors),
	)
}

// recordParseMetrics records duration and outcome of one parse.
func recordParseMetrics(d time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	parseDuration.WithLabelValues(status).Observe(d.Seconds())
	filesParsedTotal.WithLabelValues(status).Inc()
}
