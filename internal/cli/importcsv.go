package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/existflow/grantline/internal/db"
	"github.com/existflow/grantline/internal/timeline"
)

// csvColumns maps each grant field to the header names accepted for it
var csvColumns = map[string][]string{
	"name":        {"name", "grant", "title"},
	"start":       {"start", "start_date", "start date"},
	"end":         {"end", "end_date", "end date"},
	"progress":    {"progress", "progress_date", "progress date"},
	"description": {"description", "notes"},
	"color":       {"color", "colour"},
	"assigned":    {"assigned", "assigned_users", "assignees"},
}

// parseGrantCSV reads one grant per row. The header row is matched
// case-insensitively; name, start and end columns are required. Assigned
// users are separated by semicolons.
func parseGrantCSV(r io.Reader) ([]db.GrantInput, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}
	columnMap := make(map[string]int, len(header))
	for i, col := range header {
		columnMap[strings.ToLower(strings.TrimSpace(col))] = i
	}

	cols := make(map[string]int, len(csvColumns))
	for field, names := range csvColumns {
		cols[field] = -1
		for _, n := range names {
			if i, ok := columnMap[n]; ok {
				cols[field] = i
				break
			}
		}
	}
	for _, field := range []string{"name", "start", "end"} {
		if cols[field] < 0 {
			return nil, fmt.Errorf("%s column not found in CSV. Available columns: %v", field, header)
		}
	}

	var grants []db.GrantInput
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}

		in, err := parseGrantRow(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		grants = append(grants, in)
	}
	return grants, nil
}

func parseGrantRow(record []string, cols map[string]int) (db.GrantInput, error) {
	field := func(name string) string {
		i := cols[name]
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	in := db.GrantInput{
		Name:        field("name"),
		Description: field("description"),
		Color:       field("color"),
	}
	if in.Name == "" {
		return in, fmt.Errorf("grant name is empty")
	}

	var err error
	if in.StartDate, err = timeline.ParseDate(field("start")); err != nil {
		return in, err
	}
	if in.EndDate, err = timeline.ParseDate(field("end")); err != nil {
		return in, err
	}
	if s := field("progress"); s != "" {
		p, err := timeline.ParseDate(s)
		if err != nil {
			return in, err
		}
		in.ProgressDate = &p
	}
	if s := field("assigned"); s != "" {
		for _, u := range strings.Split(s, ";") {
			if u = strings.TrimSpace(u); u != "" {
				in.AssignedUsers = append(in.AssignedUsers, u)
			}
		}
	}
	return in, nil
}
