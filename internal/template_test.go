package internal

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestHTMLEscape(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;Tom &amp; &quot;Jerry&quot;&lt;/b&gt; &#039;s &#36;5", HTMLEscape(`<b>Tom & "Jerry"</b> 's $5`))
	assert.Equal(t, "plain", HTMLEscape("plain"))
}

func TestDefaultTemplateHasPlaceholders(t *testing.T) {
	page, err := fs.ReadFile(DefaultTemplate(), indexFile)
	require.NoError(t, err)
	for _, tag := range []string{titlePlaceholder, svgPlaceholder, projectPlaceholder} {
		assert.Contains(t, string(page), tag)
	}

	_, err = fs.Stat(DefaultTemplate(), packageFile)
	assert.NoError(t, err)
}

func TestRenderIndex(t *testing.T) {
	p := mustParseProject(t, `{"title": "A & B", "user": {"nickname": "O'Neil"}, "note": "$1"}`)
	page := []byte("<head>" + titlePlaceholder + "</head><body>" + svgPlaceholder + projectPlaceholder + "</body>")

	out := string(RenderIndex(page, p, `<svg class="x"><text>$9</text></svg>`))

	assert.Contains(t, out, "<title>A &amp; B by O&#039;Neil</title>")
	assert.Contains(t, out, `<svg class="x"><text>&#36;9</text></svg>`)
	assert.Contains(t, out, `data-project="{&quot;title&quot;: &quot;A &amp; B&quot;`)
	assert.Contains(t, out, "&quot;&#36;1&quot;")
	assert.NotContains(t, out, "__PETRICHOR__")
}

func TestCopyTemplate(t *testing.T) {
	tmpl := fstest.MapFS{
		"index.html":        {Data: []byte("<html></html>")},
		"sounds/.gitkeep":   {Data: []byte{}},
		"assets/.DS_Store":  {Data: []byte("junk")},
		"assets/player.css": {Data: []byte("body{}")},
	}
	dest := filepath.Join(t.TempDir(), "nested", "bundle")

	require.NoError(t, copyTemplate(tmpl, dest, []string{"**/.DS_Store", "**/.gitkeep"}))

	assert.FileExists(t, filepath.Join(dest, "index.html"))
	assert.FileExists(t, filepath.Join(dest, "assets", "player.css"))
	assert.DirExists(t, filepath.Join(dest, "sounds"))
	assert.NoFileExists(t, filepath.Join(dest, "sounds", ".gitkeep"))
	assert.NoFileExists(t, filepath.Join(dest, "assets", ".DS_Store"))
}

func TestCopyTemplateRefusesExistingDestination(t *testing.T) {
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "keep.txt"), []byte("mine"), 0o644))

	err := copyTemplate(fstest.MapFS{"index.html": {Data: []byte("x")}}, dest, nil)

	var destErr *DestinationExistsError
	require.True(t, errors.As(err, &destErr))
	assert.Equal(t, dest, destErr.Path)
	assert.NoFileExists(t, filepath.Join(dest, "index.html"))
	assert.FileExists(t, filepath.Join(dest, "keep.txt"))
}

func TestStampPackage(t *testing.T) {
	p := mustParseProject(t, `{"title": "My Cool Game", "user": {"nickname": "ann"}}`)
	build := RuntimeBuild{Version: "1.5.3", PixiVersion: "4.8.6"}

	out, err := stampPackage([]byte(`{"name": "petrichor-bundle", "main": "main.js"}`), p, build)
	require.NoError(t, err)

	assert.Regexp(t, `^[a-z0-9-]+$`, gjson.GetBytes(out, "name").String())
	assert.Contains(t, gjson.GetBytes(out, "name").String(), "cool")
	assert.Equal(t, "main.js", gjson.GetBytes(out, "main").String())
	assert.Equal(t, "My Cool Game by ann", gjson.GetBytes(out, "productName").String())
	assert.Len(t, gjson.GetBytes(out, "petrichor.buildId").String(), 36)
	assert.Equal(t, "1.5.3", gjson.GetBytes(out, "petrichor.playerVersion").String())
	assert.Equal(t, "4.8.6", gjson.GetBytes(out, "petrichor.pixiVersion").String())
}

func TestStampPackageFallsBackToDefaultName(t *testing.T) {
	p := mustParseProject(t, `{"title": "!!!"}`)

	out, err := stampPackage([]byte(`{}`), p, RuntimeBuild{})
	require.NoError(t, err)
	assert.Equal(t, "petrichor-bundle", gjson.GetBytes(out, "name").String())
}
