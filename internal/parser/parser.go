// Package parser recognises the publish marker in note text.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/zettpub/internal/apperr"
)

// DefaultTag is the marker used when none is configured.
const DefaultTag = "#PublishToPages"

// identifierPattern follows the tag: optional whitespace, then the
// parenthesised identifier made of Unicode letters, marks, digits,
// underscores and hyphens.
const identifierPattern = `\s*\(([\p{L}\p{M}\p{N}_-]+)\)`

// selfTestID is the identifier used to verify a compiled marker.
const selfTestID = "test-url"

// Marker matches "<tag>(<identifier>)" in note text.
//
// The tag is used as a regular-expression fragment, so a tag containing
// metacharacters may not match itself. NewMarker rejects such tags.
type Marker struct {
	tag string
	re  *regexp.Regexp
}

// NewMarker compiles the marker pattern for tag and verifies it matches the
// constructed example "<tag>(test-url)".
func NewMarker(tag string) (*Marker, error) {
	if tag == "" {
		return nil, fmt.Errorf("%w: publish tag is empty", apperr.ErrConfig)
	}
	re, err := regexp.Compile(tag + identifierPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: publish tag %q: %w", apperr.ErrConfig, tag, err)
	}
	m := &Marker{tag: tag, re: re}
	if err := m.selfTest(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Marker) selfTest() error {
	example := m.tag + "(" + selfTestID + ")"
	loc := m.re.FindStringSubmatchIndex(example)
	if loc == nil || loc[0] != 0 || example[loc[2]:loc[3]] != selfTestID {
		return fmt.Errorf("%w: publish tag %q does not match %q", apperr.ErrConfig, m.tag, example)
	}
	return nil
}

// Tag returns the raw tag string.
func (m *Marker) Tag() string {
	return m.tag
}

// Find returns the identifier of the first marker anywhere in text.
func (m *Marker) Find(text []byte) (string, bool) {
	match := m.re.FindSubmatch(text)
	if match == nil {
		return "", false
	}
	return string(match[1]), true
}

// OnLine reports whether line contains the raw tag string. Lines for which
// this holds are dropped from published pages, whether or not they carry a
// well-formed marker.
func (m *Marker) OnLine(line string) bool {
	return strings.Contains(line, m.tag)
}
