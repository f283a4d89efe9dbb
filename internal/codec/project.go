package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// ProjectFileVersion is written into every project export.
const ProjectFileVersion = "1.0"

// ProjectFile is the exported shape of a project.
type ProjectFile struct {
	domain.Project
	ExportedAt time.Time `json:"exportedAt"`
	Version    string    `json:"version"`
}

var filenameUnsafeRe = regexp.MustCompile(`(?i)[^a-z0-9]`)

// ProjectFilename returns the download name for a project export.
func ProjectFilename(name string) string {
	return strings.ToLower(filenameUnsafeRe.ReplaceAllString(name, "_")) + "_project.json"
}

// EncodeProject writes p as a pretty-printed project document.
func EncodeProject(w io.Writer, p domain.Project, exportedAt time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ProjectFile{Project: p, ExportedAt: exportedAt, Version: ProjectFileVersion}); err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	return nil
}

// DecodeProject parses a project document. Both name and id must be
// present; the caller replaces the id.
func DecodeProject(data []byte) (domain.Project, error) {
	if !gjson.ValidBytes(data) {
		return domain.Project{}, fmt.Errorf("%w: malformed JSON", domain.ErrInvalidFormat)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() || doc.Get("name").String() == "" || doc.Get("id").String() == "" {
		return domain.Project{}, errInvalidProject
	}

	var p domain.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Project{}, fmt.Errorf("%w: %v", errInvalidProject, err)
	}
	p.Normalize()
	return p, nil
}
