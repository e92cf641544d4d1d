package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"HerdPulse/internal/domain/models"
	"HerdPulse/pkg/util"

	"github.com/spf13/cobra"
)

// importRow is one parsed logbook line.
type importRow struct {
	line   int
	record models.YieldRecord
	label  string
}

var requiredColumns = []string{"subject_id", "date", "morning", "afternoon"}

var columnAliases = map[string]string{
	"subject": "subject_id",
	"animal":  "subject_id",
	"day":     "date",
	"am":      "morning",
	"pm":      "afternoon",
	"name":    "label",
}

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv|->",
		Short: "Import daily production records from a CSV logbook",
		Long: `Import daily production records from a CSV file with a header row.

Required columns: subject_id, date, morning, afternoon. An optional label
column names the subject. Dates may be YYYY-MM-DD or DD/MM/YYYY and amounts
may use a decimal comma. Re-importing a day replaces it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}
			rows, err := parseLogbook(in, opts.owner)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, b backend) (interface{}, error) {
				n, err := b.Import(ctx, rows)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{"owner_id": opts.owner, "imported": n, "subjects": len(subjectsOf(rows))}, nil
			})
		},
	}
}

// parseLogbook reads every row or fails on the first bad one, naming its line.
func parseLogbook(r io.Reader, owner string) ([]importRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty logbook")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		cols[name] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []importRow
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		subject := field(rec, "subject_id")
		if subject == "" {
			return nil, fmt.Errorf("line %d: subject_id is empty", line)
		}
		date, ok := util.ParseDate(field(rec, "date"))
		if !ok {
			return nil, fmt.Errorf("line %d: bad date %q", line, field(rec, "date"))
		}
		morning, err := util.ParseQuantity(field(rec, "morning"))
		if err != nil {
			return nil, fmt.Errorf("line %d: morning: %w", line, err)
		}
		afternoon, err := util.ParseQuantity(field(rec, "afternoon"))
		if err != nil {
			return nil, fmt.Errorf("line %d: afternoon: %w", line, err)
		}

		rows = append(rows, importRow{
			line:   line,
			record: models.NewYieldRecord(owner, subject, date, morning, afternoon),
			label:  field(rec, "label"),
		})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("logbook has no records")
	}
	return rows, nil
}

// labels returns the last non-empty label seen per subject, sorted by subject.
func labels(rows []importRow) []models.SubjectRequest {
	last := map[string]importRow{}
	for _, r := range rows {
		if r.label != "" {
			last[r.record.SubjectID] = r
		}
	}
	out := make([]models.SubjectRequest, 0, len(last))
	for id, r := range last {
		out = append(out, models.SubjectRequest{OwnerID: r.record.OwnerID, SubjectID: id, Label: r.label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectID < out[j].SubjectID })
	return out
}

func subjectsOf(rows []importRow) map[string]struct{} {
	set := make(map[string]struct{})
	for _, r := range rows {
		set[r.record.SubjectID] = struct{}{}
	}
	return set
}
