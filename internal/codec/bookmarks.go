package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// DecodeBookmarks parses data in format f. Records come back as found in
// the file: ids and timestamps may be missing and are filled by the
// repository.
func DecodeBookmarks(f Format, data []byte) ([]domain.Bookmark, error) {
	switch f {
	case FormatJSON:
		return DecodeBookmarksJSON(data)
	case FormatHTML:
		return DecodeNetscape(data)
	case FormatYAML:
		return DecodeHomepage(data)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// EncodeBookmarks writes bs to w in format f.
func EncodeBookmarks(w io.Writer, f Format, bs []domain.Bookmark) error {
	switch f {
	case FormatJSON:
		return EncodeBookmarksJSON(w, bs)
	case FormatHTML:
		return EncodeNetscape(w, bs)
	case FormatYAML:
		return EncodeHomepage(w, bs)
	default:
		return ErrUnsupportedFormat
	}
}

// DecodeBookmarksJSON parses a top-level JSON array of bookmarks.
func DecodeBookmarksJSON(data []byte) ([]domain.Bookmark, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", domain.ErrInvalidFormat)
	}
	if !gjson.ParseBytes(data).IsArray() {
		return nil, errNotArray
	}

	var bs []domain.Bookmark
	if err := json.Unmarshal(data, &bs); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	for i := range bs {
		if strings.TrimSpace(bs[i].Title) == "" || strings.TrimSpace(bs[i].URL) == "" {
			return nil, fmt.Errorf("%w: bookmark %d needs a title and a url", domain.ErrInvalidFormat, i)
		}
		bs[i].Tags = domain.UniqueTags(bs[i].Tags)
	}
	return bs, nil
}

// EncodeBookmarksJSON writes bs as a pretty-printed JSON array.
func EncodeBookmarksJSON(w io.Writer, bs []domain.Bookmark) error {
	if bs == nil {
		bs = []domain.Bookmark{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bs); err != nil {
		return fmt.Errorf("failed to encode bookmarks: %w", err)
	}
	return nil
}
