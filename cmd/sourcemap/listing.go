package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/clarete/sourcemap"
)

// readListing parses mapping listings.  Each non blank line that
// doesn't start with `#` reads
//
//	genLine genCol origLine origCol [source]
//
// where origLine and origCol may be `-` for a mapping without an
// original position.  Sources can't contain spaces.
func readListing(r io.Reader) ([]sourcemap.Mapping, error) {
	var (
		mappings []sourcemap.Mapping
		scanner  = bufio.NewScanner(r)
		lineNo   int
	)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m, err := parseListingLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		mappings = append(mappings, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return mappings, nil
}

func parseListingLine(line string) (sourcemap.Mapping, error) {
	var m sourcemap.Mapping

	fields := strings.Fields(line)
	if len(fields) < 4 || len(fields) > 5 {
		return m, fmt.Errorf("expected 4 or 5 fields, got %d", len(fields))
	}

	var err error
	if m.GeneratedLine, err = strconv.Atoi(fields[0]); err != nil {
		return m, fmt.Errorf("generated line: %w", err)
	}
	if m.GeneratedColumn, err = strconv.Atoi(fields[1]); err != nil {
		return m, fmt.Errorf("generated column: %w", err)
	}
	if m.OriginalLine, err = atoiOrAbsent(fields[2]); err != nil {
		return m, fmt.Errorf("original line: %w", err)
	}
	if m.OriginalColumn, err = atoiOrAbsent(fields[3]); err != nil {
		return m, fmt.Errorf("original column: %w", err)
	}
	if len(fields) == 5 {
		m.Source = fields[4]
	}
	return m, nil
}

func atoiOrAbsent(s string) (int, error) {
	if s == "-" {
		return sourcemap.NoLine, nil
	}
	return strconv.Atoi(s)
}
