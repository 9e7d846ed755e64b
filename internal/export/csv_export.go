package export

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// CSVExporter renders one row per review. Without full reviews it falls back
// to the report's samples.
type CSVExporter struct{}

var csvHeader = []string{"customer_id", "segment", "rating", "similarity", "review"}

func (e *CSVExporter) Export(data ExportData) (string, error) {
	if data.Report == nil {
		return "", ErrNoReport
	}
	reviews := data.Reviews
	if reviews == nil {
		reviews = data.Report.Samples
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, r := range reviews {
		row := []string{
			r.CustomerID,
			r.SegmentName,
			strconv.Itoa(r.Rating),
			strconv.FormatFloat(r.Similarity, 'f', 4, 64),
			r.Text,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return b.String(), nil
}
