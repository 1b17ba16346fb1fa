package sourcemap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Version of the source map format written by the generator
const Version = 3

// Document is a rendered source map.  Field order is the order the
// keys are written in.
type Document struct {
	Version    int      `json:"version"`
	File       string   `json:"file,omitempty"`
	SourceRoot string   `json:"sourceRoot,omitempty"`
	Sources    []string `json:"sources"`
	Names      []string `json:"names"`
	Mappings   string   `json:"mappings"`

	// SourcesContent is aligned with Sources, nil entries are
	// sources without known content
	SourcesContent []*string `json:"sourcesContent,omitempty"`
}

// Marshal renders the document as JSON.  HTML characters and slashes
// aren't escaped.  Strings that aren't valid UTF-8 fail with
// ErrSerialize instead of being replaced.
func (d *Document) Marshal() ([]byte, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSerialize, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// validate returns the first string field that isn't valid UTF-8
func (d *Document) validate() error {
	invalid := func(field string) error {
		return fmt.Errorf("%w: %s is not valid UTF-8", ErrSerialize, field)
	}
	if !utf8.ValidString(d.File) {
		return invalid("file")
	}
	if !utf8.ValidString(d.SourceRoot) {
		return invalid("sourceRoot")
	}
	for i, source := range d.Sources {
		if !utf8.ValidString(source) {
			return invalid(fmt.Sprintf("sources[%d]", i))
		}
	}
	for i, text := range d.SourcesContent {
		if text != nil && !utf8.ValidString(*text) {
			return invalid(fmt.Sprintf("sourcesContent[%d]", i))
		}
	}
	return nil
}
