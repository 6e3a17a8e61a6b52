// Package export renders finished check runs to CSV and JSON files. CSV
// flattens each (column, check) verdict to one record and drops the sample
// rows; JSON marshals the reports whole, samples included.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/veriqa-inc/veriqa-engine/pkg/quality"
)

// csvHeader is the fixed record layout. Schema and table repeat on every
// record so suite exports covering several tables stay self-describing.
var csvHeader = []string{"schema", "table", "column", "check", "status", "violations", "pct", "error"}

// WriteCSV writes one flat record per check result.
func WriteCSV(w io.Writer, reports []*quality.RunReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, report := range reports {
		for _, res := range report.Results {
			record := []string{
				report.Schema,
				report.Table,
				res.Column,
				string(res.CheckID),
				string(res.Status),
				strconv.FormatInt(res.ViolationCount, 10),
				formatPct(res.ViolationPercentage),
				res.Err,
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("write csv record: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatPct renders a violation percentage with two decimals, empty when
// the table had no rows.
func formatPct(pct *float64) string {
	if pct == nil {
		return ""
	}
	return strconv.FormatFloat(*pct, 'f', 2, 64)
}
