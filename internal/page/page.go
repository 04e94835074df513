// Package page turns tagged notes into site pages with generated front matter.
package page

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/starford/zettpub/internal/parser"
)

// Defaults for the generated pages.
const (
	DefaultLayout = "page"
	DefaultExt    = ".md"
)

const delimiter = "---\n"

// FrontMatter is the fixed schema written at the top of every page.
type FrontMatter struct {
	Layout  string `yaml:"layout"`
	Title   string `yaml:"title"`
	Exclude bool   `yaml:"exclude,omitempty"`
}

// Renderer renders notes into pages.
type Renderer struct {
	Marker *parser.Marker
	Layout string
	// Exclude sets "exclude: true" so the site keeps pages out of listings.
	Exclude bool
	Ext     string
}

// Title derives a page title from a note file name by dropping its extension.
// Invalid UTF-8 is replaced with U+FFFD so the title encodes as a YAML string.
func Title(fileName string) string {
	return strings.ToValidUTF8(strings.TrimSuffix(fileName, filepath.Ext(fileName)), "\uFFFD")
}

// FileName returns the destination file name for identifier id.
func (r Renderer) FileName(id string) string {
	ext := r.Ext
	if ext == "" {
		ext = DefaultExt
	}
	return id + ext
}

// Render builds the page for the note fileName with content text.
// Every line containing the raw tag is omitted from the body.
func (r Renderer) Render(fileName string, text []byte) ([]byte, error) {
	layout := r.Layout
	if layout == "" {
		layout = DefaultLayout
	}
	fm, err := yaml.Marshal(FrontMatter{
		Layout:  layout,
		Title:   Title(fileName),
		Exclude: r.Exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("page: encode front matter for %s: %w", fileName, err)
	}

	var buf bytes.Buffer
	buf.Grow(len(delimiter)*2 + len(fm) + len(text))
	buf.WriteString(delimiter)
	buf.Write(fm)
	buf.WriteString(delimiter)
	for _, line := range strings.SplitAfter(string(text), "\n") {
		if line == "" || r.Marker.OnLine(line) {
			continue
		}
		buf.WriteString(line)
	}
	return buf.Bytes(), nil
}

// Checksum fingerprints rendered page content as lowercase hex SHA-256.
// History stores it per page so unchanged pages are recognisable across runs.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Parse reads a published page back into its front matter and body.
func Parse(data []byte) (FrontMatter, []byte, error) {
	var fm FrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("page: parse front matter: %w", err)
	}
	return fm, body, nil
}
