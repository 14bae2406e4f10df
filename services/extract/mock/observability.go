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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("apiextract.mock")

var (
	// callSitesTotal counts annotated declarations found by the scanner.
	callSitesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "apiextract",
			Subsystem: "mock",
			Name:      "call_sites_total",
			Help:      "Total number of annotated API declarations found.",
		},
	)

	// bindResultsTotal counts API object bindings.
	//
	// Labels:
	//   - result: "bound", "no_access", or "unresolved"
	bindResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apiextract",
			Subsystem: "mock",
			Name:      "bind_results_total",
			Help:      "Total number of API object bindings by result.",
		},
		[]string{"result"},
	)

	// recordsEmittedTotal counts records produced by runs.
	recordsEmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "apiextract",
			Subsystem: "mock",
			Name:      "records_emitted_total",
			Help:      "Total number of API records emitted.",
		},
	)

	// runDuration measures whole extraction runs.
	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "apiextract",
			Subsystem: "mock",
			Name:      "run_duration_seconds",
			Help:      "Duration of extraction runs in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)
)
