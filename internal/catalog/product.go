package catalog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reviewsim/reviewsim/internal/runner"
)

// ErrUnsupported is returned for files that are not product descriptions.
var ErrUnsupported = errors.New("catalog: unsupported file type")

// Product is one product read from a catalog file.
type Product struct {
	Path        string  `json:"-" yaml:"-"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Price       float64 `json:"price" yaml:"price"`
	Category    string  `json:"category" yaml:"category"`
	Segment     string  `json:"segment" yaml:"segment"`
}

// Request converts p to a simulation request.
func (p Product) Request() runner.Request {
	return runner.Request{
		Description: p.Description,
		Name:        p.Name,
		Price:       p.Price,
		Category:    p.Category,
		Segment:     p.Segment,
	}
}

// Supported reports whether name has a product file extension.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json", ".md", ".txt":
		return true
	}
	return false
}

// Load reads one product file. YAML and JSON files carry the Product fields;
// markdown and text files use their first line as the name (a leading "#"
// heading marker is stripped) and the rest as the description.
func Load(path string) (Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var p Product
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return Product{}, fmt.Errorf("catalog: parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &p); err != nil {
			return Product{}, fmt.Errorf("catalog: parse %s: %w", path, err)
		}
	case ".md", ".txt":
		p = parseText(string(data))
	default:
		return Product{}, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}

	p.Path = path
	if strings.TrimSpace(p.Name) == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

func parseText(s string) Product {
	sc := bufio.NewScanner(strings.NewReader(s))
	var name string
	var body []string
	for sc.Scan() {
		line := sc.Text()
		if name == "" && len(body) == 0 {
			if t := strings.TrimSpace(line); t != "" {
				name = strings.TrimSpace(strings.TrimLeft(t, "#"))
			}
			continue
		}
		body = append(body, line)
	}
	desc := strings.TrimSpace(strings.Join(body, "\n"))
	if desc == "" {
		// A single-line file is all description.
		return Product{Description: name}
	}
	return Product{Name: name, Description: desc}
}

// Discover walks root and loads every product file not excluded by
// .reviewsimignore, sorted by path. Paths in the result are absolute.
func Discover(root string) ([]Product, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	ignore := NewIgnoreMatcher(root)

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		if d.IsDir() {
			if rel != "." && (HardIgnore(d.Name()) || ignore.Match(rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == IgnoreFile || !Supported(d.Name()) || ignore.Match(rel) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: walk %s: %w", root, err)
	}
	sort.Strings(paths)

	products := make([]Product, 0, len(paths))
	for _, path := range paths {
		p, err := Load(path)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}
