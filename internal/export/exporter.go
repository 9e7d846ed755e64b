// Package export renders simulation reports into formats for other tools.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reviewsim/reviewsim/internal/runner"
	"github.com/reviewsim/reviewsim/internal/store"
)

// ExportData is passed to every Exporter.
type ExportData struct {
	Report *runner.Report
	// Reviews holds every stored review; exporters that only need the
	// samples ignore it.
	Reviews []store.Review
}

// Exporter renders ExportData to a string in a specific format.
type Exporter interface {
	Export(data ExportData) (string, error)
}

// registry maps format names to Exporter implementations.
var registry = map[string]Exporter{
	"markdown": &MarkdownExporter{},
	"json":     &JSONExporter{},
	"yaml":     &YAMLExporter{},
	"csv":      &CSVExporter{},
}

// Get returns the Exporter registered under name, and whether it was found.
func Get(name string) (Exporter, bool) {
	e, ok := registry[name]
	return e, ok
}

// ValidFormats returns the supported export format names, sorted.
func ValidFormats() []string {
	formats := make([]string, 0, len(registry))
	for k := range registry {
		formats = append(formats, k)
	}
	sort.Strings(formats)
	return formats
}

// Extension returns the file extension conventionally used for format.
func Extension(format string) string {
	switch format {
	case "markdown":
		return ".md"
	case "yaml":
		return ".yaml"
	default:
		return "." + format
	}
}

// Render looks up format and exports data with it.
func Render(format string, data ExportData) (string, error) {
	e, ok := Get(format)
	if !ok {
		return "", fmt.Errorf("export: unknown format %q (valid: %s)", format, strings.Join(ValidFormats(), ", "))
	}
	return e.Export(data)
}
