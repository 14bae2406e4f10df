// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package shape

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("apiextract.shape")

var (
	// unresolvedReferencesTotal counts type references with no reachable
	// declaration.
	//
	// Labels:
	//   - reason: "not_found", "module" (import could not be resolved), or "load"
	unresolvedReferencesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apiextract",
			Subsystem: "shape",
			Name:      "unresolved_references_total",
			Help:      "Total number of type references that could not be resolved.",
		},
		[]string{"reason"},
	)

	// truncatedExpansionsTotal counts declarations not expanded because
	// they were already on the expansion path or the depth limit was hit.
	//
	// Labels:
	//   - reason: "cycle" or "depth"
	truncatedExpansionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apiextract",
			Subsystem: "shape",
			Name:      "truncated_expansions_total",
			Help:      "Total number of declaration expansions cut short by cycle or depth guards.",
		},
		[]string{"reason"},
	)
)
