package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	pb "github.com/joseph-ayodele/custody-tracker/internal/api/custodyv1"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

var eventHeaders = []string{"When", "Type", "Legacy", "Title", "Child", "Flags"}

func eventRows(events []*pb.Event) [][]string {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		when := e.Timestamp
		if when == "" {
			when = "(unknown)"
		} else if e.TimePrecision != "" && e.TimePrecision != "exact" {
			when += " ~" + e.TimePrecision
		}
		child := ""
		if e.ChildInvolved {
			child = "yes"
		}
		rows = append(rows, []string{when, e.Type, e.LegacyType, e.Title, child, eventFlags(e)})
	}
	return rows
}

func eventFlags(e *pb.Event) string {
	var flags []string
	if e.SafetyConcern {
		flags = append(flags, "safety")
	}
	if e.AgreementViolation != nil && *e.AgreementViolation {
		flags = append(flags, "violation")
	}
	if e.WelfareImpact != "" {
		flags = append(flags, e.WelfareImpact)
	}
	return strings.Join(flags, ", ")
}

func jobRows(j *pb.Job) [][]string {
	rows := [][]string{
		{"Job", j.Id},
		{"Entry", j.EntryId},
		{"Status", j.Status},
		{"Attempt", fmt.Sprint(j.Attempt)},
		{"Created", j.CreatedAt},
	}
	if j.StartedAt != "" {
		rows = append(rows, []string{"Started", j.StartedAt})
	}
	if j.CompletedAt != "" {
		rows = append(rows, []string{"Completed", j.CompletedAt})
	}
	if j.ErrorMessage != "" {
		rows = append(rows, []string{"Error", j.ErrorMessage})
	}
	if s := j.ResultSummary; s != nil {
		rows = append(rows,
			[]string{"Events", fmt.Sprint(s.EventsCreated)},
			[]string{"Action items", fmt.Sprint(s.ActionItemsCreated)},
			[]string{"Evidence used", fmt.Sprint(s.EvidenceProcessed)},
		)
	}
	return rows
}
