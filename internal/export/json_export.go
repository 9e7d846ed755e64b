package export

import (
	"encoding/json"
	"errors"

	"github.com/reviewsim/reviewsim/internal/runner"
	"github.com/reviewsim/reviewsim/internal/store"
)

// ErrNoReport is returned when ExportData carries no report.
var ErrNoReport = errors.New("export: no report")

// JSONExporter renders the report as structured JSON.
type JSONExporter struct{}

type jsonOutput struct {
	*runner.Report
	Reviews []store.Review `json:"reviews,omitempty"`
}

func (e *JSONExporter) Export(data ExportData) (string, error) {
	if data.Report == nil {
		return "", ErrNoReport
	}
	b, err := json.MarshalIndent(jsonOutput{Report: data.Report, Reviews: data.Reviews}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
