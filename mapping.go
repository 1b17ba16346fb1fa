package sourcemap

import (
	"sort"
	"strings"
)

// NoLine is the original line of a mapping that has no original
// position.  Lines are 1-based, so it never collides with a real one.
const NoLine = 0

// Mapping ties a position in the generated output to a position in
// one of the sources.  Generated and original lines are 1-based,
// columns are 0-based.
type Mapping struct {
	GeneratedLine   int
	GeneratedColumn int
	OriginalLine    int
	OriginalColumn  int
	Source          string
}

// HasOriginal tells if the mapping points at a position within its
// source and not only at the source itself
func (m Mapping) HasOriginal() bool {
	return m.OriginalLine != NoLine
}

// excludeFunc reports whether a source must be kept out of the map.
// The same predicate guards insertion and composition.
type excludeFunc func(source string) bool

func newExcludeFunc(sources []string) excludeFunc {
	excluded := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		excluded[s] = struct{}{}
	}
	return func(source string) bool {
		_, ok := excluded[source]
		return ok
	}
}

//  ---- Source set ----

// sourceSet is an insertion ordered set of source identifiers.  The
// order is the one of the `sources` field of the document.
type sourceSet struct {
	items []string
	index map[string]int
}

func newSourceSet() *sourceSet {
	return &sourceSet{index: map[string]int{}}
}

// Add appends `source` unless it's already there
func (s *sourceSet) Add(source string) {
	if _, ok := s.index[source]; ok {
		return
	}
	s.index[source] = len(s.items)
	s.items = append(s.items, source)
}

// Index returns the position of `source` within the set
func (s *sourceSet) Index(source string) (int, bool) {
	i, ok := s.index[source]
	return i, ok
}

func (s *sourceSet) Len() int { return len(s.items) }

// Items returns a copy of the sources in insertion order
func (s *sourceSet) Items() []string {
	return append([]string(nil), s.items...)
}

//  ---- Mapping store ----

type mappingStore struct {
	mappings []Mapping
	sources  *sourceSet
	excluded excludeFunc
}

func newMappingStore(excluded excludeFunc) *mappingStore {
	return &mappingStore{sources: newSourceSet(), excluded: excluded}
}

func (ms *mappingStore) Add(m Mapping) {
	if ms.excluded(m.Source) {
		return
	}
	ms.mappings = append(ms.mappings, m)
	ms.sources.Add(m.Source)
}

// mappingsLine holds all the mappings of one generated line, in the
// order they were added
type mappingsLine struct {
	number   int
	mappings []Mapping
}

// groupByLine buckets the mappings by generated line and sorts the
// buckets by line number.  Mappings within a bucket aren't sorted.
func (ms *mappingStore) groupByLine() []mappingsLine {
	var (
		lines  []mappingsLine
		byLine = map[int]int{}
	)
	for _, m := range ms.mappings {
		i, ok := byLine[m.GeneratedLine]
		if !ok {
			i = len(lines)
			byLine[m.GeneratedLine] = i
			lines = append(lines, mappingsLine{number: m.GeneratedLine})
		}
		lines[i].mappings = append(lines[i].mappings, m)
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].number < lines[j].number })
	return lines
}

// prefixOffset returns how many lines `prefix` pushes the output
// down and how many columns it adds to the line it ends at
func prefixOffset(prefix string) (lines, column int) {
	lines = strings.Count(prefix, "\n")
	column = len(prefix) - (strings.LastIndexByte(prefix, '\n') + 1)
	return lines, column
}

// segmentEncoder carries the values each segment is encoded
// relative to.  The generated column is reset on every line, the
// other three live through the whole mappings string.
type segmentEncoder struct {
	lastGeneratedColumn int
	lastSourceIndex     int
	lastOriginalLine    int
	lastOriginalColumn  int
}

func (e *segmentEncoder) appendSegment(dst []byte, m Mapping, column int, sources *sourceSet) []byte {
	dst = AppendVLQ(dst, column-e.lastGeneratedColumn)
	e.lastGeneratedColumn = column

	if m.Source == "" {
		return dst
	}
	index, ok := sources.Index(m.Source)
	if !ok {
		return dst
	}
	// lines are 0-based in the source map format
	originalLine := m.OriginalLine - 1

	dst = AppendVLQ(dst, index-e.lastSourceIndex)
	dst = AppendVLQ(dst, originalLine-e.lastOriginalLine)
	dst = AppendVLQ(dst, m.OriginalColumn-e.lastOriginalColumn)

	e.lastSourceIndex = index
	e.lastOriginalLine = originalLine
	e.lastOriginalColumn = m.OriginalColumn
	return dst
}

// Encode renders the `mappings` field.  `prefix` is text written
// ahead of the generated output, such as a banner, that shifts every
// mapping.
func (ms *mappingStore) Encode(prefix string) string {
	if len(ms.mappings) == 0 {
		return ""
	}

	prefixLines, prefixColumn := prefixOffset(prefix)

	var (
		out               = make([]byte, 0, len(ms.mappings)*8)
		enc               segmentEncoder
		lastGeneratedLine int
	)
	for _, line := range ms.groupByLine() {
		// the prefix only moves the columns of the first line
		if line.number > 1 {
			prefixColumn = 0
		}
		lineNumber := line.number + prefixLines

		for lastGeneratedLine++; lastGeneratedLine < lineNumber; lastGeneratedLine++ {
			out = append(out, ';')
		}

		enc.lastGeneratedColumn = 0
		for i, m := range line.mappings {
			if i > 0 {
				out = append(out, ',')
			}
			out = enc.appendSegment(out, m, m.GeneratedColumn+prefixColumn, ms.sources)
		}
		out = append(out, ';')
	}
	return strings.TrimRight(string(out), ";")
}
