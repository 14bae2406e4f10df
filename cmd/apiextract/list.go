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
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/apiextract/services/extract/mock"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	methodStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("6"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [paths...]",
		Short: "Print a table of the API declarations found",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, span := cliTracer.Start(cmd.Context(), "cli.list")
			defer span.End()

			records, err := mock.NewRunner(opts.cfg, opts.logger).Run(ctx, args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(opts.stdout, renderTable(records))
			return err
		},
	}
}

// renderTable lays records out as METHOD, URL, NAME, COMMENT rows.
// Restful verbs are shown normalized and flagged.
func renderTable(records []mock.Record) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("METHOD", "URL", "NAME", "COMMENT").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return methodStyle
			default:
				return cellStyle
			}
		})

	for _, r := range records {
		method, restful := mock.NormalizeVerb(r.Method)
		switch {
		case method == "":
			method = "?"
		case restful:
			method += " (restful)"
		}
		t.Row(method, r.URL, r.Name, r.Comment)
	}
	return t.Render()
}
