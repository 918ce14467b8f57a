package sources

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/agentstation/favmerge/pkg/errors"
	"github.com/agentstation/favmerge/pkg/favorites"
)

// ParseMHTML extracts favorites from a page saved as a MIME web archive.
// The first text/html part is decoded and parsed like a plain HTML export.
// Content that is not a MIME message is parsed as HTML directly.
func ParseMHTML(name string, data []byte) (*favorites.Dataset, error) {
	tp := textproto.NewReader(bufio.NewReader(bytes.NewReader(data)))
	header, err := tp.ReadMIMEHeader()
	if err != nil || header.Get("Content-Type") == "" {
		return ParseHTML(name, data)
	}

	part, err := findHTMLPart(header, tp.R)
	if err != nil {
		return nil, errors.WrapParse("mhtml", name, err)
	}
	if part == nil {
		return nil, errors.NewParseError("mhtml", name, "archive has no text/html part", nil)
	}

	r, err := charset.NewReader(part.body, part.contentType)
	if err != nil {
		return nil, errors.WrapParse("mhtml", name, err)
	}
	return parseMarkup(name, r, part.location)
}

// htmlPart is a decoded text/html body from an archive.
type htmlPart struct {
	contentType string
	location    *url.URL
	body        io.Reader
}

// findHTMLPart walks a (possibly nested) multipart body for the first
// text/html part.
func findHTMLPart(header textproto.MIMEHeader, body io.Reader) (*htmlPart, error) {
	contentType := header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(body, params["boundary"])
		for {
			p, err := mr.NextRawPart()
			if err == io.EOF {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			found, err := findHTMLPart(p.Header, p)
			if err != nil || found != nil {
				if found != nil {
					// Parts are only valid until the next call to NextRawPart.
					data, readErr := io.ReadAll(found.body)
					if readErr != nil {
						return nil, readErr
					}
					found.body = bytes.NewReader(data)
				}
				return found, err
			}
		}
	}

	if mediaType != "text/html" {
		return nil, nil
	}

	part := &htmlPart{
		contentType: contentType,
		body:        decodeTransfer(header.Get("Content-Transfer-Encoding"), body),
	}
	if loc := header.Get("Content-Location"); loc != "" {
		if u, err := url.Parse(loc); err == nil {
			part.location = u
		}
	}
	return part, nil
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	default:
		return r
	}
}
