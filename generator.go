package sourcemap

import (
	"context"
	"io"
	"log"
	"strings"
)

// Options are the settings a Generator reads from its Config when
// it's created.  They don't change afterwards.
type Options struct {
	SourceRoot       string
	File             string
	URL              string
	WriteTo          string
	EmbedSources     bool
	ExcludedSources  []string
	RootPath         string
	BasePath         string
	ApplyInline      bool
	MaxComposePasses int
}

// OptionsFromConfig reads the `map.*` and `compose.*` settings
func OptionsFromConfig(cfg *Config) Options {
	return Options{
		SourceRoot:       cfg.GetString("map.source_root"),
		File:             cfg.GetString("map.file"),
		URL:              cfg.GetString("map.url"),
		WriteTo:          cfg.GetString("map.write_to"),
		EmbedSources:     cfg.GetBool("map.embed_sources"),
		ExcludedSources:  cfg.GetStrings("map.exclude_sources"),
		RootPath:         cfg.GetString("map.root_path"),
		BasePath:         cfg.GetString("map.base_path"),
		ApplyInline:      cfg.GetBool("map.apply_inline"),
		MaxComposePasses: cfg.GetInt("compose.max_passes"),
	}
}

// Generator collects the mappings a compilation produces and renders
// them as a source map.  A Generator serves a single compilation and
// isn't safe for concurrent use.
type Generator struct {
	options  Options
	excluded excludeFunc
	store    *mappingStore
	contents *contentCache
	writer   ContentWriter
	logger   *log.Logger
}

type Option func(*Generator)

// WithContentLoader sets where the content of sources without an
// explicit SetSourceContent comes from.  Defaults to the file system.
func WithContentLoader(loader ContentLoader) Option {
	return func(g *Generator) { g.contents.loader = loader }
}

// WithContentWriter sets where SaveMap writes to.  Defaults to the
// file system.
func WithContentWriter(writer ContentWriter) Option {
	return func(g *Generator) { g.writer = writer }
}

// WithLogger receives diagnostics that don't stop the generation,
// like embedded maps that can't be parsed
func WithLogger(logger *log.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// NewGenerator creates a generator configured by `cfg`.  A nil config
// means the defaults of NewConfig.
func NewGenerator(cfg *Config, opts ...Option) *Generator {
	if cfg == nil {
		cfg = NewConfig()
	}
	options := OptionsFromConfig(cfg)
	excluded := newExcludeFunc(options.ExcludedSources)
	g := &Generator{
		options:  options,
		excluded: excluded,
		store:    newMappingStore(excluded),
		contents: newContentCache(NewFileContentLoader()),
		writer:   NewFileWriter(),
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Options returns the settings the generator was created with
func (g *Generator) Options() Options {
	o := g.options
	o.ExcludedSources = append([]string(nil), o.ExcludedSources...)
	return o
}

// SetSourceContent sets the content of the source `source`
func (g *Generator) SetSourceContent(content, source string) {
	g.contents.Set(source, content)
}

// AddMapping records that the generated position
// (generatedLine, generatedColumn) comes from (originalLine,
// originalColumn) of `source`.  Pass NoLine as originalLine for a
// mapping that only names its source.  Mappings of excluded sources
// are dropped.
func (g *Generator) AddMapping(generatedLine, generatedColumn, originalLine, originalColumn int, source string) {
	g.store.Add(Mapping{
		GeneratedLine:   generatedLine,
		GeneratedColumn: generatedColumn,
		OriginalLine:    originalLine,
		OriginalColumn:  originalColumn,
		Source:          source,
	})
}

// Mappings returns a copy of the recorded mappings
func (g *Generator) Mappings() []Mapping {
	return append([]Mapping(nil), g.store.mappings...)
}

// Sources returns the sources referenced by the mappings, in the
// order of the `sources` field and before normalization
func (g *Generator) Sources() []string {
	return g.store.sources.Items()
}

// GenerateMappings returns the encoded `mappings` field.  `prefix`
// is text added ahead of the generated output that shifts the
// mappings.
func (g *Generator) GenerateMappings(prefix string) string {
	return g.store.Encode(prefix)
}

// GenerateJSON renders the source map.  When sources are embedded,
// their contents are loaded and inline source maps are applied first.
func (g *Generator) GenerateJSON(prefix string) (string, error) {
	return g.GenerateJSONContext(context.Background(), prefix)
}

// GenerateJSONContext is GenerateJSON with a context checked between
// passes of the inline source map composition
func (g *Generator) GenerateJSONContext(ctx context.Context, prefix string) (string, error) {
	doc, err := g.DocumentContext(ctx, prefix)
	if err != nil {
		return "", err
	}
	b, err := doc.Marshal()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Document is GenerateJSON without rendering the JSON text
func (g *Generator) Document(prefix string) (*Document, error) {
	return g.DocumentContext(context.Background(), prefix)
}

// DocumentContext is Document with a context checked between passes
// of the inline source map composition
func (g *Generator) DocumentContext(ctx context.Context, prefix string) (*Document, error) {
	if g.options.EmbedSources {
		if err := g.loadSources(ctx); err != nil {
			return nil, err
		}
	}

	doc := &Document{
		Version:    Version,
		File:       g.options.File,
		SourceRoot: g.options.SourceRoot,
		Sources:    make([]string, 0, g.store.sources.Len()),
		Names:      []string{},
		Mappings:   g.store.Encode(prefix),
	}
	for _, source := range g.store.sources.items {
		doc.Sources = append(doc.Sources, g.normalizeFilename(source))
	}
	if g.options.EmbedSources {
		doc.SourcesContent = g.sourcesContent()
	}
	return doc, nil
}

// sourcesContent is aligned with the source set, nil when the set is
// empty
func (g *Generator) sourcesContent() []*string {
	if g.store.sources.Len() == 0 {
		return nil
	}
	contents := make([]*string, 0, g.store.sources.Len())
	for _, source := range g.store.sources.items {
		if text, ok := g.contents.Lookup(source); ok {
			contents = append(contents, &text)
		} else {
			contents = append(contents, nil)
		}
	}
	return contents
}

// SaveMap writes `content` to the configured destination and returns
// the configured map URL.
//
// Deprecated: write the output of GenerateJSON instead.
func (g *Generator) SaveMap(content string) (string, error) {
	if g.options.WriteTo == "" {
		return "", ErrNoDestination
	}
	if err := g.writer.WriteContent(g.options.WriteTo, []byte(content)); err != nil {
		return "", err
	}
	return g.options.URL, nil
}

// normalizeFilename turns a source identifier into the entry of the
// `sources` field
func (g *Generator) normalizeFilename(filename string) string {
	filename = FixWindowsPath(filename, false)

	if basePath := g.options.BasePath; basePath != "" {
		filename = strings.TrimPrefix(filename, basePath)
	}
	if strings.HasPrefix(filename, "/") || strings.HasPrefix(filename, "\\") {
		filename = filename[1:]
	}
	return g.options.RootPath + filename
}

// FixWindowsPath uses forward slashes in `path` and removes the
// trailing ones, adding a single one back if `addEndSlash` is set.
// Empty paths are returned as they are.
func FixWindowsPath(path string, addEndSlash bool) string {
	if path == "" {
		return path
	}
	path = strings.TrimRight(strings.ReplaceAll(path, "\\", "/"), "/")
	if addEndSlash {
		path += "/"
	}
	return path
}
