package ingest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html>
<html><head><title>Journal</title><style>p{}</style></head>
<body><nav>Home | About</nav>
<p>I was flying over a <b>dark</b> sea.</p>
<script>var x = 1;</script>
<p>Then I woke up.</p>
<footer>(c) me</footer></body></html>`

func TestExtractText(t *testing.T) {
	assert.Equal(t, "I was flying over a dark sea. Then I woke up.", ExtractText(page))
	assert.Equal(t, "", ExtractText(""))
}

func TestExtractText_CapsAtRuneBoundary(t *testing.T) {
	// "é" is two bytes, so an odd prefix puts the byte cap inside a rune
	long := "a" + strings.Repeat("é", maxTextBytes)
	got := ExtractText("<p>" + long + "</p>")
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), maxTextBytes)
	assert.Equal(t, maxTextBytes-1, len(got))

	assert.Equal(t, "ab", clip("abc", 2))
	assert.Equal(t, "a", clip("aé", 2))
	assert.Equal(t, "aé", clip("aé", 3))
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "dream.txt")
	require.NoError(t, os.WriteFile(txt, []byte("  a quiet walk \n"), 0o644))
	text, err := ReadFile(txt)
	require.NoError(t, err)
	assert.Equal(t, "a quiet walk", text)

	htm := filepath.Join(dir, "export.md")
	require.NoError(t, os.WriteFile(htm, []byte(page), 0o644))
	text, err = ReadFile(htm)
	require.NoError(t, err)
	assert.Equal(t, "I was flying over a dark sea. Then I woke up.", text)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte(" \n"), 0o644))
	_, err = ReadFile(empty)
	assert.Error(t, err)

	_, err = ReadFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, page)
		case "/plain":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			fmt.Fprint(w, "a <plain> dream\n")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	text, err := Load(srv.URL + "/page")
	require.NoError(t, err)
	assert.Equal(t, "I was flying over a dark sea. Then I woke up.", text)

	text, err = Fetch(srv.URL + "/plain")
	require.NoError(t, err)
	assert.Equal(t, "a <plain> dream", text)

	_, err = Fetch(srv.URL + "/missing")
	assert.Error(t, err)

	_, err = Fetch("ftp://example.com/file")
	assert.Error(t, err)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com"))
	assert.True(t, IsURL(" www.example.com"))
	assert.False(t, IsURL("dream.txt"))
}
