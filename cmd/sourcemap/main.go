package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/clarete/sourcemap"
	difflib "github.com/pmezard/go-difflib/difflib"
)

// ANSI color codes for terminal output
const (
	colorReset = "\033[0m"
	colorRed   = "\033[1;31m"
	colorGray  = "\033[0;37m"
)

type args struct {
	mappingsPath *string
	prefixPath   *string
	decodePath   *string

	sourceRoot   *string
	file         *string
	url          *string
	outputPath   *string
	embedSources *bool
	applyInline  *bool
	exclude      *string
	rootPath     *string
	basePath     *string
	maxPasses    *int

	check      *bool
	showConfig *bool
	verbose    *bool
}

func readArgs() *args {
	a := &args{
		mappingsPath: flag.String("mappings", "", "Path to the mapping listing (genLine genCol origLine origCol source per line)"),
		prefixPath:   flag.String("prefix", "", "Path to a file with the text written ahead of the generated output"),

		// Inspection

		decodePath: flag.String("decode", "", "Print the decoded segments of an existing source map"),

		// Map Options

		sourceRoot:   flag.String("source-root", "", "Value of the sourceRoot field"),
		file:         flag.String("file", "", "Name of the generated file the map belongs to"),
		url:          flag.String("url", "", "URL of the map, printed after saving it"),
		outputPath:   flag.String("output-path", "", "Path to write the map to, defaults to the standard output"),
		embedSources: flag.Bool("embed-sources", false, "Include the content of the sources in the map"),
		applyInline:  flag.Bool("apply-inline", false, "Compose with source maps embedded in the sources (requires -embed-sources)"),
		exclude:      flag.String("exclude", "", "Comma separated list of sources to leave out of the map"),
		rootPath:     flag.String("root-path", "", "Prepended to each entry of sources"),
		basePath:     flag.String("base-path", "", "Trimmed from the start of each entry of sources"),
		maxPasses:    flag.Int("max-passes", 32, "Maximum passes applying inline source maps"),

		check:      flag.Bool("check", false, "Don't write, show the difference between -output-path and the generated map"),
		showConfig: flag.Bool("show-config", false, "Print the configuration before generating"),
		verbose:    flag.Bool("verbose", false, "Log inline source maps that couldn't be applied"),
	}

	flag.Parse()

	return a
}

func main() {
	a := readArgs()

	if *a.decodePath != "" {
		if err := decode(os.Stdout, *a.decodePath); err != nil {
			fatal("Can't decode source map: %s", err.Error())
		}
		return
	}

	if *a.mappingsPath == "" {
		fatal("Mapping listing not informed")
	}

	cfg := sourcemap.NewConfig()
	cfg.SetString("map.source_root", *a.sourceRoot)
	cfg.SetString("map.file", *a.file)
	cfg.SetString("map.url", *a.url)
	cfg.SetString("map.write_to", *a.outputPath)
	cfg.SetBool("map.embed_sources", *a.embedSources)
	cfg.SetBool("map.apply_inline", *a.applyInline)
	cfg.SetStrings("map.exclude_sources", splitList(*a.exclude))
	cfg.SetString("map.root_path", *a.rootPath)
	cfg.SetString("map.base_path", *a.basePath)
	cfg.SetInt("compose.max_passes", *a.maxPasses)

	if *a.showConfig {
		cfg.Fprint(os.Stderr)
	}

	logger := log.New(io.Discard, "", 0)
	if *a.verbose {
		logger = log.New(os.Stderr, "", 0)
	}

	f, err := os.Open(*a.mappingsPath)
	if err != nil {
		fatal("Can't open mapping listing: %s", err.Error())
	}
	mappings, err := readListing(f)
	f.Close()
	if err != nil {
		fatal("Can't read mapping listing: %s", err.Error())
	}

	var prefix string
	if *a.prefixPath != "" {
		b, err := os.ReadFile(*a.prefixPath)
		if err != nil {
			fatal("Can't open prefix: %s", err.Error())
		}
		prefix = string(b)
	}

	generator := sourcemap.NewGenerator(cfg, sourcemap.WithLogger(logger))
	for _, m := range mappings {
		generator.AddMapping(m.GeneratedLine, m.GeneratedColumn, m.OriginalLine, m.OriginalColumn, m.Source)
	}

	output, err := generator.GenerateJSON(prefix)
	if err != nil {
		fatal("Can't generate source map: %s", err.Error())
	}

	switch {
	case *a.check:
		if *a.outputPath == "" {
			fatal("Expected `-output-path` with `-check`")
		}
		current, err := os.ReadFile(*a.outputPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			fatal("Can't read %s: %s", *a.outputPath, err.Error())
		}
		diff, err := diffMaps(*a.outputPath, current, []byte(output))
		if err != nil {
			fatal("Can't compare source maps: %s", err.Error())
		}
		if diff != "" {
			fmt.Print(diff)
			os.Exit(1)
		}
	case *a.outputPath == "":
		fmt.Println(output)
	default:
		url, err := generator.SaveMap(output)
		if err != nil {
			fatal("Can't write output: %s", err.Error())
		}
		if url != "" {
			fmt.Println(url)
		}
	}
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// decode prints one line per segment of the map at `path`
func decode(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	consumer, err := sourcemap.NewConsumer(data)
	if err != nil {
		return err
	}
	for _, m := range consumer.Mappings() {
		if m.Source == "" {
			fmt.Fprintf(w, "%d:%d\n", m.GeneratedLine, m.GeneratedColumn)
			continue
		}
		fmt.Fprintf(w, "%d:%d %s%s:%d:%d%s\n",
			m.GeneratedLine, m.GeneratedColumn,
			colorGray, m.Source, m.OriginalLine, m.OriginalColumn, colorReset)
	}
	return nil
}

// diffMaps returns a unified diff between two rendered maps, empty
// when they're the same.  Both sides are indented first so the diff
// has one field per line.
func diffMaps(name string, current, generated []byte) (string, error) {
	a, err := indentJSON(current)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	b, err := indentJSON(generated)
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: name,
		ToFile:   "generated",
		Context:  3,
	})
}

func indentJSON(data []byte) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return "", err
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}

// fatal prints an error message and exits with code 1.
func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%serror:%s ", colorRed, colorReset)
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintf(os.Stderr, "\n")
	os.Exit(1)
}
