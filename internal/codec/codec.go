// Package codec reads and writes bookmark and project files.
//
// Bookmarks travel as a JSON array, as a Netscape bookmarks HTML file (the
// format every browser imports), or as a Homepage bookmarks.yaml. Projects
// travel as a single JSON document.
package codec

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// Format is a bookmark file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatYAML Format = "yaml"
)

var (
	// ErrUnsupportedFormat is returned for unknown extensions or format names.
	ErrUnsupportedFormat = fmt.Errorf("%w: Unsupported file format", domain.ErrInvalidFormat)

	errNotArray       = fmt.Errorf("%w: Invalid JSON bookmark format", domain.ErrInvalidFormat)
	errInvalidProject = fmt.Errorf("%w: Invalid project file format", domain.ErrInvalidFormat)
)

// DetectFormat picks the format from a file name extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatJSON, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// ParseFormat validates an export format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatJSON, FormatHTML, FormatYAML:
		return f, nil
	case "htm":
		return FormatHTML, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Filename returns the conventional export file name for f.
func (f Format) Filename() string {
	return "bookmarks." + string(f)
}

// ContentType returns the MIME type used when serving f.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatYAML:
		return "application/yaml"
	default:
		return "application/json"
	}
}

// IsInvalidFormat reports whether err is a format/validation failure of an
// import source.
func IsInvalidFormat(err error) bool {
	return errors.Is(err, domain.ErrInvalidFormat)
}
