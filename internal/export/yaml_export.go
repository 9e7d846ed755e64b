package export

import (
	"gopkg.in/yaml.v3"

	"github.com/reviewsim/reviewsim/internal/runner"
	"github.com/reviewsim/reviewsim/internal/store"
)

// YAMLExporter renders the report as YAML.
type YAMLExporter struct{}

type yamlOutput struct {
	Report  runner.Report  `yaml:",inline"`
	Reviews []store.Review `yaml:"reviews,omitempty"`
}

func (e *YAMLExporter) Export(data ExportData) (string, error) {
	if data.Report == nil {
		return "", ErrNoReport
	}
	b, err := yaml.Marshal(yamlOutput{Report: *data.Report, Reviews: data.Reviews})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
