// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package output

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("apiextract.output")

// collaboratorRunsTotal counts collaborator runs.
//
// Labels:
//   - status: "success" or "error"
var collaboratorRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "apiextract",
		Subsystem: "output",
		Name:      "collaborator_runs_total",
		Help:      "Total number of collaborator runs.",
	},
	[]string{"status"},
)
