// Package analyzer implements the one-time knowledge extraction pass: it
// scans a framework source tree, condenses files into prompt-sized batches,
// and drives the collaborator to produce a structured knowledge artifact.
package analyzer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/fwexpert/config"
)

// DefaultInclude are the glob patterns scanned when none are configured.
var DefaultInclude = []string{"**/*.py", "**/*.robot"}

// DefaultExclude are always-skipped directories and files.
var DefaultExclude = []string{
	"**/.git/**",
	"**/__pycache__/**",
	"**/node_modules/**",
	"**/.venv/**",
	"**/*.pyc",
}

// File is one scanned source file.
type File struct {
	// Path is the path relative to the scan root, slash-separated.
	Path string
	// Content is the file text.
	Content string
}

// Scanner walks a framework source tree applying include/exclude globs.
type Scanner struct {
	root         string
	include      []string
	exclude      []string
	maxFileBytes int64
}

// NewScanner creates a scanner for one framework source location.
func NewScanner(src config.SourceConfig, maxFileBytes int64) *Scanner {
	include := src.Include
	if len(include) == 0 {
		include = DefaultInclude
	}
	exclude := append([]string{}, DefaultExclude...)
	exclude = append(exclude, src.Exclude...)

	if maxFileBytes <= 0 {
		maxFileBytes = 512 * 1024
	}

	return &Scanner{
		root:         src.Root,
		include:      include,
		exclude:      exclude,
		maxFileBytes: maxFileBytes,
	}
}

// Scan returns matching files in lexical path order. Oversized and unreadable
// files are skipped, not errors.
func (s *Scanner) Scan() ([]File, error) {
	if s.root == "" {
		return nil, fmt.Errorf("scan root not configured")
	}

	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("scan root %q: %w", s.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %q is not a directory", s.root)
	}

	var files []File

	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && s.excluded(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if s.excluded(rel) || !s.included(rel) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}
		if fi.Size() > s.maxFileBytes {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		files = append(files, File{Path: rel, Content: string(content)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %q: %w", s.root, err)
	}

	return files, nil
}

func (s *Scanner) included(rel string) bool {
	for _, pattern := range s.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) excluded(rel string) bool {
	for _, pattern := range s.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		// A directory prefix match also excludes everything under it
		if strings.HasSuffix(rel, "/") {
			if ok, _ := doublestar.Match(pattern, rel+"x"); ok {
				return true
			}
		}
	}
	return false
}
