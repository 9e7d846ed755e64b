// Package catalog discovers product description files in a directory tree
// and watches them for changes.
package catalog

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFile is the name of the per-catalog ignore file, in .gitignore syntax.
const IgnoreFile = ".reviewsimignore"

// IgnoreMatcher wraps a gitignore pattern matcher.
type IgnoreMatcher struct {
	gi *gitignore.GitIgnore
}

// NewIgnoreMatcher loads .reviewsimignore from root. Without one, the matcher
// accepts everything.
func NewIgnoreMatcher(root string) *IgnoreMatcher {
	path := filepath.Join(root, IgnoreFile)
	if _, err := os.Stat(path); err != nil {
		return &IgnoreMatcher{}
	}
	gi, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return &IgnoreMatcher{}
	}
	return &IgnoreMatcher{gi: gi}
}

// Match returns true if the given relative path should be ignored.
func (m *IgnoreMatcher) Match(relPath string) bool {
	if m.gi == nil {
		return false
	}
	return m.gi.MatchesPath(filepath.ToSlash(relPath))
}

// hardIgnored contains directories that are always skipped.
var hardIgnored = map[string]bool{
	".git":         true,
	".reviewsim":   true,
	"node_modules": true,
	"vendor":       true,
}

// HardIgnore returns true if the directory name is always excluded.
func HardIgnore(name string) bool {
	return hardIgnored[name]
}

// ignored reports whether rel lies under a hard-ignored directory or matches
// the ignore file.
func (m *IgnoreMatcher) ignored(rel string) bool {
	for _, p := range strings.Split(rel, string(filepath.Separator)) {
		if HardIgnore(p) {
			return true
		}
	}
	return m.Match(rel)
}
