package sourcemap

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"strings"
)

// InlineKind tells how the payload of an embedded source map is encoded
type InlineKind int

const (
	// InlineNone means there's no embedded source map comment
	InlineNone InlineKind = iota
	// InlineBase64JSON is `application/json;charset=utf-8;base64`
	InlineBase64JSON
	// InlineURLJSON is `application/json` or
	// `application/json;charset=utf-8`, percent encoded
	InlineURLJSON
	// InlineUnrecognized is a data URI with any other mime type
	InlineUnrecognized
)

func (k InlineKind) String() string {
	return map[InlineKind]string{
		InlineNone:         "none",
		InlineBase64JSON:   "base64-json",
		InlineURLJSON:      "url-json",
		InlineUnrecognized: "unrecognized",
	}[k]
}

var inlineMapPattern = regexp.MustCompile(`(?:/\*|//)# sourceMappingURL=data:([^,]+),(\S*) *(?:\*/|[\r\n]|$)`)

// InlineMap is the first embedded source map comment found within a
// source.  Start and End are the byte offsets of the whole comment.
type InlineMap struct {
	Kind     InlineKind
	MimeType string
	Payload  string
	Start    int
	End      int
}

// FindInlineMap looks for a `sourceMappingURL` comment carrying a
// data URI within `content`
func FindInlineMap(content string) InlineMap {
	loc := inlineMapPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return InlineMap{Kind: InlineNone}
	}
	m := InlineMap{
		MimeType: content[loc[2]:loc[3]],
		Payload:  content[loc[4]:loc[5]],
		Start:    loc[0],
		End:      loc[1],
	}
	switch m.MimeType {
	case "application/json;charset=utf-8;base64":
		m.Kind = InlineBase64JSON
	case "application/json", "application/json;charset=utf-8":
		m.Kind = InlineURLJSON
	default:
		m.Kind = InlineUnrecognized
	}
	return m
}

// Decode returns the JSON text of the embedded map
func (m InlineMap) Decode() ([]byte, error) {
	switch m.Kind {
	case InlineBase64JSON:
		payload := strings.TrimRight(m.Payload, "=")
		return base64.RawStdEncoding.DecodeString(payload)
	case InlineURLJSON:
		// PathUnescape leaves `+` alone, the payload isn't a query
		s, err := url.PathUnescape(m.Payload)
		return []byte(s), err
	default:
		return nil, ErrInlineEncoding
	}
}

// Strip returns `content` without the comment
func (m InlineMap) Strip(content string) string {
	return content[:m.Start] + content[m.End:]
}
