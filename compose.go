package sourcemap

import "context"

// loadSources makes sure every source has its content cached.  With
// inline maps enabled, sources carrying an embedded source map get
// composed through it.  Content found through an embedded map may
// embed yet another map, so passes repeat until one of them applies
// nothing.
func (g *Generator) loadSources(ctx context.Context) error {
	var (
		maxPasses = g.options.MaxComposePasses
		passes    int
		last      string
	)
	for needsLoad := true; needsLoad; {
		needsLoad = false
		if maxPasses > 0 && passes == maxPasses {
			return &ComposeError{Passes: passes, Source: last, Err: ErrComposeLimit}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		passes++

		for _, source := range g.store.sources.Items() {
			text, ok := g.contents.Load(source)
			if !ok || !g.options.ApplyInline {
				continue
			}
			applied, err := g.applyInlineMap(source, text)
			if err != nil {
				g.logger.Printf("sourcemap: ignoring inline source map of %s: %s", source, err)
				continue
			}
			if applied {
				needsLoad = true
				last = source
			}
		}
	}
	return nil
}

// applyInlineMap composes the mappings of `source` with the map
// embedded in `text`, if there's one.  The comment is removed from
// the cached content.
func (g *Generator) applyInlineMap(source, text string) (bool, error) {
	inline := FindInlineMap(text)
	switch inline.Kind {
	case InlineNone:
		return false, nil
	case InlineUnrecognized:
		g.logger.Printf("sourcemap: skipping inline source map of %s with type %s", source, inline.MimeType)
		return false, nil
	}
	data, err := inline.Decode()
	if err != nil {
		return false, err
	}
	consumer, err := NewConsumer(data)
	if err != nil {
		return false, err
	}
	g.contents.Set(source, inline.Strip(text))
	g.ApplySourceMap(consumer, source)
	return true, nil
}

// ApplySourceMap rewrites every mapping of `source` that has an
// original position with the position `consumer` resolves it to.
// The source set is rebuilt from all the mappings afterwards, and
// the contents `consumer` knows are copied over.
//
// A mapping that resolves to an excluded source keeps its record
// untouched but doesn't count when rebuilding the source set, so its
// source may disappear from `sources`.
func (g *Generator) ApplySourceMap(consumer *Consumer, source string) {
	sources := newSourceSet()

	for i := range g.store.mappings {
		m := &g.store.mappings[i]
		if m.Source == source && m.HasOriginal() {
			original, ok := consumer.OriginalPositionFor(m.OriginalLine, m.OriginalColumn)
			if ok && original.Source != "" {
				if g.excluded(original.Source) {
					continue
				}
				m.Source = original.Source
				m.OriginalLine = original.Line
				m.OriginalColumn = original.Column
			}
		}
		if m.Source != "" {
			sources.Add(m.Source)
		}
	}

	g.store.sources = sources

	for _, subSource := range consumer.Sources() {
		if text, ok := consumer.SourceContentFor(subSource); ok {
			g.contents.Set(subSource, text)
		}
	}
}
