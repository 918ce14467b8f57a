package sources

import (
	"bytes"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"github.com/agentstation/favmerge/pkg/errors"
	"github.com/agentstation/favmerge/pkg/favorites"
)

const (
	// favoriteSectionID is the id of the element holding the favorites tables.
	favoriteSectionID = "favorite"

	// emptyListMarker appears in the favorites section when the list is empty.
	emptyListMarker = "見つかりませんでした"
)

// ParseHTML extracts favorites from a saved favorites page. The encoding is
// sniffed from the document.
func ParseHTML(name string, data []byte) (*favorites.Dataset, error) {
	r, err := charset.NewReader(bytes.NewReader(data), "text/html")
	if err != nil {
		return nil, errors.WrapParse("html", name, err)
	}
	return parseMarkup(name, r, nil)
}

// parseMarkup reads the favorites tables from an HTML document. Relative
// links are resolved against the document's <base href>, then against
// location when it is set.
func parseMarkup(name string, r io.Reader, location *url.URL) (*favorites.Dataset, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapParse("html", name, err)
	}

	section := findElement(doc, func(n *html.Node) bool {
		return attr(n, "id") == favoriteSectionID
	})
	if section == nil {
		return nil, errors.NewParseError("html", name, `favorites section <div id="favorite"> not found`, nil)
	}

	base := location
	if b := findElement(doc, func(n *html.Node) bool { return n.DataAtom == atom.Base }); b != nil {
		if href, err := url.Parse(attr(b, "href")); err == nil && href.String() != "" {
			base = resolve(base, href)
		}
	}

	rows := tableRows(section)
	if len(rows) == 0 && !strings.Contains(textContent(section), emptyListMarker) {
		return nil, errors.NewParseError("html", name, "favorites table not found", nil)
	}

	records := []favorites.Record{}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if rec, ok := parseRow(row, base); ok {
			records = append(records, rec)
		}
	}

	return favorites.NewDataset(records, nil), nil
}

// parseRow reads one table row: a link in the first cell and the favorited
// time in the fourth. Rows missing either are skipped.
func parseRow(row *html.Node, base *url.URL) (favorites.Record, bool) {
	cells := childElements(row)
	if len(cells) < 4 || cells[0].DataAtom != atom.Td || cells[3].DataAtom != atom.Td {
		return favorites.Record{}, false
	}

	link := findElement(cells[0], func(n *html.Node) bool { return n.DataAtom == atom.A })
	if link == nil {
		return favorites.Record{}, false
	}

	href := attr(link, "href")
	if u, err := url.Parse(strings.TrimSpace(href)); err == nil {
		href = resolve(base, u).String()
	}

	timestamp := strings.TrimSpace(textContent(cells[3]))
	if i := strings.Index(timestamp, "("); i >= 0 {
		timestamp = strings.TrimSpace(timestamp[:i])
	}

	return favorites.Record{
		Key:           href,
		Title:         strings.TrimSpace(textContent(link)),
		Tags:          []string{},
		UserTimestamp: timestamp,
	}, true
}

// tableRows returns every <tr> inside a <table> under n, in document order.
func tableRows(n *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(*html.Node, bool)
	walk = func(n *html.Node, inTable bool) {
		if n.Type == html.ElementNode {
			if n.DataAtom == atom.Table {
				inTable = true
			} else if n.DataAtom == atom.Tr && inTable {
				rows = append(rows, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inTable)
		}
	}
	walk(n, false)
	return rows
}

func resolve(base, ref *url.URL) *url.URL {
	if base == nil {
		return ref
	}
	return base.ResolveReference(ref)
}

// findElement returns the first element under n, in document order, that matches.
func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func childElements(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent concatenates all text below n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
