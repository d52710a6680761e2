package internal

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/stoewer/go-strcase"
	"github.com/tidwall/sjson"
)

//go:embed all:template
var site embed.FS

const (
	titlePlaceholder   = "__PETRICHOR__TITLE__TAG__"
	svgPlaceholder     = "__PETRICHOR__SVG_STRING__TAG__"
	projectPlaceholder = "__PETRICHOR__PROJECT__TAG__"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
	"$", "&#36;",
)

// HTMLEscape escapes the five HTML special characters and '$'.
func HTMLEscape(s string) string {
	return htmlEscaper.Replace(s)
}

// DefaultTemplate is the bundle template compiled into the binary.
func DefaultTemplate() fs.FS {
	sub, err := fs.Sub(site, "template")
	if err != nil {
		panic(err)
	}
	return sub
}

// copyTemplate copies tmpl into dest, which must not exist yet. Files
// matching one of the ignore globs are skipped; their directories are kept.
func copyTemplate(tmpl fs.FS, dest string, ignore []string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if err := os.Mkdir(dest, 0o755); err != nil {
		if os.IsExist(err) {
			return &DestinationExistsError{Path: dest}
		}
		return err
	}
	return fs.WalkDir(tmpl, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		target := filepath.Join(dest, filepath.FromSlash(p))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		for _, pattern := range ignore {
			if ok, _ := doublestar.Match(pattern, p); ok {
				return nil
			}
		}
		data, err := fs.ReadFile(tmpl, p)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}

// RenderIndex fills the template placeholders. The title and the project
// document are escaped; the character art is markup and only has '$'
// escaped.
func RenderIndex(page []byte, p *Project, svg string) []byte {
	titleTag := fmt.Sprintf("<title>%s by %s</title>", HTMLEscape(p.Title()), HTMLEscape(p.Author()))
	projectTag := fmt.Sprintf(`<div id="petrichor-project" hidden data-project="%s"></div>`, HTMLEscape(string(p.Raw)))
	out := string(page)
	out = strings.Replace(out, titlePlaceholder, titleTag, 1)
	out = strings.Replace(out, svgPlaceholder, strings.ReplaceAll(svg, "$", "&#36;"), 1)
	out = strings.Replace(out, projectPlaceholder, projectTag, 1)
	return []byte(out)
}

// stampPackage records the project in the electron package.json.
func stampPackage(data []byte, p *Project, build RuntimeBuild) ([]byte, error) {
	name := strings.Trim(strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, strcase.KebabCase(p.Title())), "-")
	if name == "" {
		name = "petrichor-bundle"
	}
	edits := []struct {
		key   string
		value any
	}{
		{"name", name},
		{"productName", fmt.Sprintf("%s by %s", p.Title(), p.Author())},
		{"petrichor.buildId", uuid.NewString()},
		{"petrichor.playerVersion", build.Version},
		{"petrichor.pixiVersion", build.PixiVersion},
	}
	var err error
	for _, e := range edits {
		if data, err = sjson.SetBytes(data, e.key, e.value); err != nil {
			return nil, fmt.Errorf("stamp package.json %s: %w", e.key, err)
		}
	}
	return data, nil
}
