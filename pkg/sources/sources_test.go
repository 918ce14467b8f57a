package sources

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/favmerge/pkg/errors"
	"github.com/agentstation/favmerge/pkg/favorites"
	"github.com/agentstation/favmerge/pkg/persistence"
)

const favoritesPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><base href="https://example.com/"></head><body>
<div id="favorite">
<table>
<tr><th>スレッド</th><th>板</th><th>レス</th><th>登録日時</th></tr>
<tr><td><a href="https://example.com/test/read.cgi/news/1/"> Thread One </a></td><td>news</td><td>10</td><td> 2024/01/02 03:04 (火) </td></tr>
<tr><td><a href="/test/read.cgi/news/2/">Two</a></td><td>news</td><td>5</td><td>2024/01/03 04:05</td></tr>
<tr><td>no link</td><td></td><td></td><td>x</td></tr>
<tr><td><a href="/test/read.cgi/news/3/">Three cells</a></td><td></td><td></td></tr>
</table>
</div></body></html>`

const favoritesArchive = "From: <Saved by Blink>\n" +
	"Subject: favorites\n" +
	"MIME-Version: 1.0\n" +
	"Content-Type: multipart/related;\n" +
	"\ttype=\"text/html\";\n" +
	"\tboundary=\"----MultipartBoundary--abc----\"\n" +
	"\n" +
	"------MultipartBoundary--abc----\n" +
	"Content-Type: text/html; charset=utf-8\n" +
	"Content-Transfer-Encoding: quoted-printable\n" +
	"Content-Location: https://example.com/favorites\n" +
	"\n" +
	"<html><body><div id=3D\"favorite\"><table>\n" +
	"<tr><th>a</th><th>b</th><th>c</th><th>d</th></tr>\n" +
	"<tr><td><a href=3D\"/test/read.cgi/news/9/\">Nine</a></td><td></td><td></td><td>2=\n" +
	"024/02/02 10:00 (=E6=9C=A8)</td></tr>\n" +
	"</table></div></body></html>\n" +
	"------MultipartBoundary--abc----\n" +
	"Content-Type: image/png\n" +
	"Content-Transfer-Encoding: base64\n" +
	"\n" +
	"iVBORw0KGgo=\n" +
	"------MultipartBoundary--abc------\n"

func TestParseHTML(t *testing.T) {
	d, err := ParseHTML("fav.html", []byte(favoritesPage))
	require.NoError(t, err)

	require.Equal(t, 2, d.Len())
	assert.Equal(t, favorites.Record{
		Key:           "https://example.com/test/read.cgi/news/1/",
		Title:         "Thread One",
		Tags:          []string{},
		UserTimestamp: "2024/01/02 03:04",
	}, d.Records[0])
	assert.Equal(t, "https://example.com/test/read.cgi/news/2/", d.Records[1].Key, "relative links resolve against <base>")
	assert.Equal(t, "2024/01/03 04:05", d.Records[1].UserTimestamp)
	assert.Empty(t, d.Tags)
	assert.NoError(t, d.Validate("fav.html"))
}

func TestParseHTMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		wantErr bool
		records int
	}{
		{
			name:    "missing favorites section",
			page:    `<html><body><div id="other"></div></body></html>`,
			wantErr: true,
		},
		{
			name:    "no table and no empty marker",
			page:    `<html><body><div id="favorite">nothing here</div></body></html>`,
			wantErr: true,
		},
		{
			name: "empty list marker",
			page: `<html><head><meta charset="utf-8"></head><body><div id="favorite">お気に入りは見つかりませんでした</div></body></html>`,
		},
		{
			name: "header row only",
			page: `<html><body><div id="favorite"><table><tr><th>t</th></tr></table></div></body></html>`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := ParseHTML("fav.html", []byte(tc.page))
			if tc.wantErr {
				require.Error(t, err)
				var parseErr *errors.ParseError
				assert.ErrorAs(t, err, &parseErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.records, d.Len())
		})
	}
}

func TestParseHTMLDuplicateRowsAreReportedByValidate(t *testing.T) {
	page := `<html><body><div id="favorite"><table>
<tr><th>h</th></tr>
<tr><td><a href="https://example.com/1">One</a></td><td></td><td></td><td>t</td></tr>
<tr><td><a href="https://example.com/1">One again</a></td><td></td><td></td><td>t</td></tr>
</table></div></body></html>`

	d, err := ParseHTML("dup.html", []byte(page))
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	assert.True(t, errors.IsMalformedInput(d.Validate("dup.html")))
}

func TestParseMHTML(t *testing.T) {
	d, err := ParseMHTML("fav.mht", []byte(favoritesArchive))
	require.NoError(t, err)

	require.Equal(t, 1, d.Len())
	assert.Equal(t, "https://example.com/test/read.cgi/news/9/", d.Records[0].Key)
	assert.Equal(t, "Nine", d.Records[0].Title)
	assert.Equal(t, "2024/02/02 10:00", d.Records[0].UserTimestamp)
}

func TestParseMHTMLFallsBackToHTML(t *testing.T) {
	d, err := ParseMHTML("fav.mht", []byte(favoritesPage))
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
}

func TestParseMHTMLWithoutHTMLPart(t *testing.T) {
	archive := "MIME-Version: 1.0\n" +
		"Content-Type: multipart/related; boundary=\"b\"\n" +
		"\n" +
		"--b\n" +
		"Content-Type: text/plain\n" +
		"\n" +
		"hello\n" +
		"--b--\n"
	_, err := ParseMHTML("fav.mht", []byte(archive))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text/html part")
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"fav_database.json": FormatJSON,
		"FAV.HTML":          FormatHTML,
		"fav.htm":           FormatHTML,
		"fav.mht":           FormatMHTML,
		"fav.mhtml":         FormatMHTML,
		"fav.yml":           FormatYAML,
		"fav.db":            FormatSQLite,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("fav.txt")
	assert.True(t, errors.IsUnsupportedFormat(err))

	assert.Equal(t, favorites.Authoritative, FormatHTML.Kind())
	assert.Equal(t, favorites.Authoritative, FormatMHTML.Kind())
	assert.Equal(t, favorites.Advisory, FormatJSON.Kind())
	assert.Equal(t, favorites.Advisory, FormatSQLite.Kind())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	jsonPath := writeFile(t, "fav_database.json", `{
  "tags": ["news"],
  "threads": [{"url": "https://example.com/1", "title": "One", "tags": ["news"], "description": "", "user_timestamp": "", "add_timestamp": ""}]
}`)
	htmlPath := writeFile(t, "fav.html", favoritesPage)
	yamlPath := writeFile(t, "fav.yaml", strings.Join([]string{
		"tags: []",
		"threads:",
		"- url: https://example.com/y",
		"  title: Y",
		"  tags: []",
	}, "\n"))

	incoming, err := LoadAll(ctx, jsonPath, htmlPath, yamlPath)
	require.NoError(t, err)
	require.Len(t, incoming, 3)

	assert.Equal(t, "fav_database.json", incoming[0].Name)
	assert.Equal(t, favorites.Advisory, incoming[0].Kind)
	assert.Equal(t, []string{"news"}, incoming[0].Dataset.Tags)

	assert.Equal(t, "fav.html", incoming[1].Name)
	assert.Equal(t, favorites.Authoritative, incoming[1].Kind)
	assert.Equal(t, 2, incoming[1].Dataset.Len())

	assert.Equal(t, favorites.Advisory, incoming[2].Kind)
	assert.Equal(t, "Y", incoming[2].Dataset.Records[0].Title)
}

func TestLoadSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "favs.db")

	store, err := persistence.NewSQLiteStore(path)
	require.NoError(t, err)
	d := favorites.New()
	d.Put(favorites.Record{Key: "https://example.com/s", Title: "S", Tags: []string{"t"}})
	require.NoError(t, store.Save(ctx, d))
	require.NoError(t, store.Close())

	in, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, favorites.Advisory, in.Kind)
	assert.Equal(t, []string{"https://example.com/s"}, in.Dataset.Keys())
	assert.Equal(t, []string{"t"}, in.Dataset.Tags)

	_, err = Load(ctx, filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Load(ctx, writeFile(t, "fav.csv", "a,b"))
	assert.True(t, errors.IsUnsupportedFormat(err))

	_, err = Load(ctx, writeFile(t, "bad.json", `{"threads": {}}`))
	assert.Error(t, err)

	_, err = Load(ctx, filepath.Join(t.TempDir(), "missing.html"))
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)

	_, err = LoadAll(ctx, writeFile(t, "ok.html", favoritesPage), writeFile(t, "bad.html", "<html></html>"))
	assert.Error(t, err)
}
