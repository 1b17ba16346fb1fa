package sourcemap

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/buger/jsonparser"
)

// OriginalPosition is where a generated position came from.  Line is
// 1-based and Column 0-based.
type OriginalPosition struct {
	Source string
	Line   int
	Column int
}

// Consumer is a read-only view over an already generated source map,
// usually one found embedded in a source
type Consumer struct {
	file     string
	sources  []string
	contents map[string]content
	lines    [][]consumerSegment
}

type consumerSegment struct {
	generatedColumn int
	// source is -1 for segments that only have a generated column
	source         int
	originalLine   int
	originalColumn int
}

// NewConsumer parses the JSON text of a version 3 source map
func NewConsumer(data []byte) (*Consumer, error) {
	_, typ, end, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("can't parse source map: %w", err)
	}
	if typ != jsonparser.Object {
		return nil, fmt.Errorf("can't parse source map: expected an object, got %s", typ)
	}
	if rest := bytes.TrimSpace(data[end:]); len(rest) > 0 {
		return nil, fmt.Errorf("can't parse source map: unexpected data after the object at offset %d", end)
	}

	version, err := jsonparser.GetInt(data, "version")
	switch {
	case err == jsonparser.KeyPathNotFoundError:
	case err != nil:
		return nil, fmt.Errorf("can't read version: %w", err)
	case version != Version:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	c := &Consumer{contents: map[string]content{}}
	if c.file, err = getOptionalString(data, "file"); err != nil {
		return nil, err
	}
	root, err := getOptionalString(data, "sourceRoot")
	if err != nil {
		return nil, err
	}
	if c.sources, err = getStringArray(data, "sources"); err != nil {
		return nil, err
	}
	for i, source := range c.sources {
		c.sources[i] = joinSourceRoot(root, source)
	}
	if err := c.readContents(data); err != nil {
		return nil, err
	}
	mappings, err := getOptionalString(data, "mappings")
	if err != nil {
		return nil, err
	}
	if c.lines, err = decodeMappings(mappings, len(c.sources)); err != nil {
		return nil, err
	}
	return c, nil
}

// File returns the `file` field of the map, if any
func (c *Consumer) File() string { return c.file }

// Sources returns the sources listed by the map, in order
func (c *Consumer) Sources() []string {
	return append([]string(nil), c.sources...)
}

// SourceContentFor returns the content the map embeds for `source`
func (c *Consumer) SourceContentFor(source string) (string, bool) {
	ct := c.contents[source]
	return ct.text, ct.ok
}

// OriginalPositionFor takes a position of the generated space of
// the map (1-based line, 0-based column) and returns the position in
// the original source.  The closest segment at or before `column` on
// that line is used.
func (c *Consumer) OriginalPositionFor(line, column int) (OriginalPosition, bool) {
	if line < 1 || line > len(c.lines) {
		return OriginalPosition{}, false
	}
	segments := c.lines[line-1]
	i := sort.Search(len(segments), func(i int) bool {
		return segments[i].generatedColumn > column
	}) - 1
	if i < 0 {
		return OriginalPosition{}, false
	}
	seg := segments[i]
	if seg.source < 0 {
		return OriginalPosition{}, false
	}
	return OriginalPosition{
		Source: c.sources[seg.source],
		Line:   seg.originalLine + 1,
		Column: seg.originalColumn,
	}, true
}

// Mappings returns every decoded segment, ordered by generated
// position.  Segments without a source have an empty Source and
// OriginalLine set to NoLine.
func (c *Consumer) Mappings() []Mapping {
	var mappings []Mapping
	for i, line := range c.lines {
		for _, seg := range line {
			m := Mapping{GeneratedLine: i + 1, GeneratedColumn: seg.generatedColumn}
			if seg.source >= 0 {
				m.Source = c.sources[seg.source]
				m.OriginalLine = seg.originalLine + 1
				m.OriginalColumn = seg.originalColumn
			}
			mappings = append(mappings, m)
		}
	}
	return mappings
}

func (c *Consumer) readContents(data []byte) error {
	var (
		i       int
		readErr error
	)
	_, err := jsonparser.ArrayEach(data, func(value []byte, typ jsonparser.ValueType, _ int, err error) {
		defer func() { i++ }()
		if readErr != nil || i >= len(c.sources) {
			return
		}
		switch typ {
		case jsonparser.String:
			text, err := jsonparser.ParseString(value)
			if err != nil {
				readErr = fmt.Errorf("can't read sourcesContent[%d]: %w", i, err)
				return
			}
			c.contents[c.sources[i]] = content{text: text, ok: true}
		case jsonparser.Null:
		default:
			readErr = fmt.Errorf("can't read sourcesContent[%d]: unexpected %s", i, typ)
		}
	}, "sourcesContent")
	if err != nil && err != jsonparser.KeyPathNotFoundError {
		return fmt.Errorf("can't read sourcesContent: %w", err)
	}
	return readErr
}

func getOptionalString(data []byte, key string) (string, error) {
	value, typ, _, err := jsonparser.Get(data, key)
	if err == jsonparser.KeyPathNotFoundError || typ == jsonparser.Null {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("can't read %s: %w", key, err)
	}
	if typ != jsonparser.String {
		return "", fmt.Errorf("can't read %s: expected a string, got %s", key, typ)
	}
	return jsonparser.ParseString(value)
}

func getStringArray(data []byte, key string) ([]string, error) {
	var (
		items   []string
		readErr error
	)
	_, err := jsonparser.ArrayEach(data, func(value []byte, typ jsonparser.ValueType, _ int, err error) {
		if readErr != nil {
			return
		}
		switch typ {
		case jsonparser.String:
			s, err := jsonparser.ParseString(value)
			if err != nil {
				readErr = err
				return
			}
			items = append(items, s)
		case jsonparser.Null:
			items = append(items, "")
		default:
			readErr = fmt.Errorf("expected a string, got %s", typ)
		}
	}, key)
	if err == jsonparser.KeyPathNotFoundError {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("can't read %s: %w", key, err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("can't read %s: %w", key, readErr)
	}
	return items, nil
}

func joinSourceRoot(root, source string) string {
	if root == "" || source == "" {
		return source
	}
	return strings.TrimSuffix(root, "/") + "/" + source
}

// decodeMappings reads the `mappings` field into one slice of
// segments per generated line, each sorted by generated column
func decodeMappings(mappings string, nsources int) ([][]consumerSegment, error) {
	var (
		lines   [][]consumerSegment
		line    []consumerSegment
		fields  [5]int
		pos     int
		sorted  = true
		column  int
		source  int
		origLn  int
		origCol int
	)
	flush := func() {
		if !sorted {
			sort.SliceStable(line, func(i, j int) bool {
				return line[i].generatedColumn < line[j].generatedColumn
			})
		}
		lines = append(lines, line)
		line, sorted, column = nil, true, 0
	}
	for pos < len(mappings) {
		switch mappings[pos] {
		case ';':
			flush()
			pos++
			continue
		case ',':
			pos++
			continue
		}

		start, n := pos, 0
		for pos < len(mappings) && mappings[pos] != ',' && mappings[pos] != ';' {
			if n == len(fields) {
				return nil, &MappingsError{Offset: start, Err: ErrMalformedMappings}
			}
			v, next, err := DecodeVLQ(mappings, pos)
			if err != nil {
				return nil, &MappingsError{Offset: pos, Err: err}
			}
			fields[n], pos, n = v, next, n+1
		}

		switch n {
		case 1:
			column += fields[0]
			line = append(line, consumerSegment{generatedColumn: column, source: -1})
		case 4, 5:
			column += fields[0]
			source += fields[1]
			origLn += fields[2]
			origCol += fields[3]
			if source < 0 || source >= nsources {
				return nil, &MappingsError{Offset: start, Err: fmt.Errorf("source index %d out of range", source)}
			}
			line = append(line, consumerSegment{
				generatedColumn: column,
				source:          source,
				originalLine:    origLn,
				originalColumn:  origCol,
			})
		default:
			return nil, &MappingsError{Offset: start, Err: ErrMalformedMappings}
		}
		if len(line) > 1 && line[len(line)-2].generatedColumn > column {
			sorted = false
		}
	}
	flush()
	return lines, nil
}
