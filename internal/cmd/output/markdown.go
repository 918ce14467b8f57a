package output

import (
	"io"
	"strings"

	md "github.com/nao1215/markdown"
)

// Headed is implemented by reports that carry a title and a one-line summary.
type Headed interface {
	Heading() (title, summary string)
}

// MarkdownFormatter outputs Markdown reports.
type MarkdownFormatter struct{}

// Format writes data as Markdown. Tabular values become one table per
// section; anything else falls back to a fenced JSON block.
func (f *MarkdownFormatter) Format(w io.Writer, data any) error {
	doc := md.NewMarkdown(w)

	if h, ok := data.(Headed); ok {
		title, summary := h.Heading()
		doc.H1(title)
		if summary != "" {
			doc.PlainText(summary).LF()
		}
	}

	switch v := data.(type) {
	case Data:
		writeMarkdownTable(doc, v)
	case Tabular:
		for _, d := range v.Tables(true) {
			writeMarkdownTable(doc, d)
		}
	default:
		var buf strings.Builder
		if err := (&JSONFormatter{Indent: "  "}).Format(&buf, data); err != nil {
			return err
		}
		doc.CodeBlocks(md.SyntaxHighlight("json"), buf.String())
	}

	return doc.Build()
}

func writeMarkdownTable(doc *md.Markdown, d Data) {
	if d.Title != "" {
		doc.H2(d.Title)
	}
	if len(d.Rows) == 0 {
		doc.PlainText(md.Italic("none")).LF()
		return
	}
	doc.Table(md.TableSet{
		Header: d.Headers,
		Rows:   d.Rows,
	})
}
