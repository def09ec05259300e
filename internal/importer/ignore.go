package importer

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// IgnoreFile lists extra ignore patterns for the directory it is in.
const IgnoreFile = ".booruignore"

// defaultIgnorePatterns apply regardless of config or IgnoreFile.
var defaultIgnorePatterns = []string{IgnoreFile}

type ignorePattern struct {
	pattern   string
	matchPath bool // match the relative path instead of the basename
}

// IgnoreMatcher checks slash separated paths against ignore patterns.
// Patterns without '/' match the basename only, patterns with '/' match the
// path relative to the import root.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher parses raw patterns. Blank lines and lines starting with
// '#' are skipped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	m.Add(rawPatterns...)
	return m
}

// Add appends more patterns.
func (m *IgnoreMatcher) Add(rawPatterns ...string) {
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		m.patterns = append(m.patterns, ignorePattern{
			pattern:   strings.TrimPrefix(raw, "/"),
			matchPath: strings.Contains(raw, "/"),
		})
	}
}

// Match reports whether relativePath should be skipped.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	base := path.Base(relativePath)

	for _, p := range m.patterns {
		name := base
		if p.matchPath {
			name = relativePath
		}
		matched, err := path.Match(p.pattern, name)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// ReadIgnoreFile returns the patterns in name, or nil if it does not exist.
func ReadIgnoreFile(fsys fs.FS, name string) ([]string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return patterns, nil
}
