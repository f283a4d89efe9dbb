package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

const (
	netscapeHeader = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<META HTTP-EQUIV="Content-Type" CONTENT="text/html;charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
`
	netscapeFooter = "</DL><p>"

	uncategorized    = "Uncategorized"
	importedCategory = "Imported"
)

// EncodeNetscape writes bs as a Netscape bookmark file, one folder per
// category in first-seen order.
func EncodeNetscape(w io.Writer, bs []domain.Bookmark) error {
	bw := bufio.NewWriter(w)

	order := make([]string, 0)
	groups := make(map[string][]domain.Bookmark)
	for _, b := range bs {
		cat := b.Category
		if strings.TrimSpace(cat) == "" {
			cat = uncategorized
		}
		if _, ok := groups[cat]; !ok {
			order = append(order, cat)
		}
		groups[cat] = append(groups[cat], b)
	}

	_, _ = bw.WriteString(netscapeHeader)
	for _, cat := range order {
		fmt.Fprintf(bw, "    <DT><H3 FOLDED>%s</H3>\n    <DL><p>\n", html.EscapeString(cat))
		for _, b := range groups[cat] {
			icon := ""
			if b.Favicon != "" {
				icon = fmt.Sprintf(` ICON="%s"`, html.EscapeString(b.Favicon))
			}
			fmt.Fprintf(bw, "        <DT><A HREF=\"%s\" ADD_DATE=\"%d\"%s>%s</A>\n",
				html.EscapeString(b.URL), b.CreatedAt.Unix(), icon, html.EscapeString(b.Title))
			if b.Description != "" {
				fmt.Fprintf(bw, "        <DD>%s\n", html.EscapeString(b.Description))
			}
		}
		_, _ = bw.WriteString("    </DL><p>\n")
	}
	_, _ = bw.WriteString(netscapeFooter)

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write bookmark html: %w", err)
	}
	return nil
}

// DecodeNetscape extracts every <a href> from a bookmark HTML file. The
// category is the nearest enclosing folder heading; records without a
// title or url are skipped.
func DecodeNetscape(data []byte) ([]domain.Bookmark, error) {
	doc, err := xhtml.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}

	out := make([]domain.Bookmark, 0)
	var walk func(n *xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode && n.DataAtom == atom.A {
			if b, ok := bookmarkFromAnchor(n); ok {
				out = append(out, b)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return out, nil
}

func bookmarkFromAnchor(a *xhtml.Node) (domain.Bookmark, bool) {
	href := strings.TrimSpace(attr(a, "href"))
	title := strings.TrimSpace(textContent(a))
	if href == "" || title == "" {
		return domain.Bookmark{}, false
	}

	b := domain.Bookmark{
		Title:       title,
		URL:         href,
		Category:    folderOf(a),
		Description: descriptionOf(a),
		Favicon:     strings.TrimSpace(attr(a, "icon")),
		Tags:        []string{},
	}
	if ts := attr(a, "add_date"); ts != "" {
		var sec int64
		if _, err := fmt.Sscan(ts, &sec); err == nil && sec > 0 {
			b.CreatedAt = time.Unix(sec, 0).UTC()
		}
	}
	return b, true
}

// folderOf walks up from n until an ancestor contains an <h3>, and
// returns that heading's text.
func folderOf(n *xhtml.Node) string {
	for p := n.Parent; p != nil; p = p.Parent {
		if h := findFirst(p, atom.H3); h != nil {
			if name := strings.TrimSpace(textContent(h)); name != "" {
				return name
			}
		}
	}
	return importedCategory
}

// descriptionOf returns the text of a <dd> that directly follows the
// anchor's <dt>.
func descriptionOf(a *xhtml.Node) string {
	if a.Parent == nil {
		return ""
	}
	for s := a.Parent.NextSibling; s != nil; s = s.NextSibling {
		if s.Type != xhtml.ElementNode {
			continue
		}
		if s.DataAtom == atom.Dd {
			return strings.TrimSpace(ownText(s))
		}
		return ""
	}
	return ""
}

func findFirst(n *xhtml.Node, a atom.Atom) *xhtml.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xhtml.ElementNode && c.DataAtom == a {
			return c
		}
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func textContent(n *xhtml.Node) string {
	var sb strings.Builder
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// ownText is the text of n up to its first element child.
func ownText(n *xhtml.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xhtml.ElementNode {
			break
		}
		if c.Type == xhtml.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}
