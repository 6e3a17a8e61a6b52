package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/veriqa-inc/veriqa-engine/pkg/quality"
)

// WriteJSON writes the reports as an indented JSON array. The shape is the
// same whether the run covered one table or a whole suite.
func WriteJSON(w io.Writer, reports []*quality.RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}
	return nil
}

// WriteFile writes the reports to path, picking the format from the file
// extension (.csv or .json).
func WriteFile(path string, reports []*quality.RunReport) error {
	var write func(io.Writer, []*quality.RunReport) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		write = WriteCSV
	case ".json":
		write = WriteJSON
	default:
		return fmt.Errorf("unsupported export format %q (use .csv or .json)", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := write(f, reports); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	return nil
}
