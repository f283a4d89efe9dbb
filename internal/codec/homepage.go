package codec

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// HomepageEntry is a single bookmark entry in a Homepage bookmarks.yaml.
type HomepageEntry struct {
	Icon string `yaml:"icon,omitempty"`
	Abbr string `yaml:"abbr,omitempty"`
	Href string `yaml:"href"`
}

// HomepageCategory maps a category name to its bookmarks.
// The YAML structure is: - CategoryName: [ - BookmarkName: [{ icon, abbr, href }] ]
type HomepageCategory map[string][]map[string][]HomepageEntry

// HomepageConfig is the root of bookmarks.yaml.
type HomepageConfig []HomepageCategory

var templateVarRe = regexp.MustCompile(`\{\{[^}]+\}\}`)

// stripTemplateVariables removes Homepage template variables from YAML.
// Example: {{HOMEPAGE_VAR_ADGUARD_USER}} -> ""
func stripTemplateVariables(data []byte) []byte {
	return templateVarRe.ReplaceAll(data, []byte(`""`))
}

// DecodeHomepage maps a Homepage bookmarks.yaml to bookmarks. The bookmark
// name becomes the title and a non-empty abbr becomes a tag.
func DecodeHomepage(data []byte) ([]domain.Bookmark, error) {
	data = stripTemplateVariables(data)

	var cfg HomepageConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse bookmarks yaml: %v", domain.ErrInvalidFormat, err)
	}

	out := make([]domain.Bookmark, 0)
	for _, category := range cfg {
		for categoryName, list := range category {
			for _, entryMap := range list {
				for name, entries := range entryMap {
					// Each bookmark name maps to a list with a single entry.
					if len(entries) == 0 {
						continue
					}
					entry := entries[0]
					href := strings.TrimSpace(entry.Href)
					title := strings.TrimSpace(name)
					if href == "" || title == "" {
						continue
					}

					b := domain.Bookmark{
						Title:    title,
						URL:      href,
						Category: categoryName,
						Tags:     domain.UniqueTags([]string{entry.Abbr}),
					}
					if isHTTPURL(entry.Icon) {
						b.Favicon = entry.Icon
					}
					out = append(out, b)
				}
			}
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no valid bookmarks found in yaml", domain.ErrInvalidFormat)
	}
	return out, nil
}

// EncodeHomepage writes bs as a Homepage bookmarks.yaml, grouped by
// category in first-seen order. The first tag is used as abbr.
func EncodeHomepage(w io.Writer, bs []domain.Bookmark) error {
	cfg := make(HomepageConfig, 0)
	index := make(map[string]int)

	for _, b := range bs {
		cat := b.Category
		if strings.TrimSpace(cat) == "" {
			cat = uncategorized
		}
		i, ok := index[cat]
		if !ok {
			i = len(cfg)
			index[cat] = i
			cfg = append(cfg, HomepageCategory{cat: {}})
		}

		entry := HomepageEntry{Href: b.URL, Icon: b.Favicon}
		if len(b.Tags) > 0 {
			entry.Abbr = b.Tags[0]
		}
		cfg[i][cat] = append(cfg[i][cat], map[string][]HomepageEntry{b.Title: {entry}})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode bookmarks yaml: %w", err)
	}
	return enc.Close()
}

func isHTTPURL(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
