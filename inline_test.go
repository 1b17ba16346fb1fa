package sourcemap

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindInlineMap(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte(`{"version":3}`))

	tests := []struct {
		name     string
		content  string
		kind     InlineKind
		mimeType string
		payload  string
		stripped string
	}{
		{
			name:    "no comment",
			content: "a { color: red; }",
			kind:    InlineNone,
		},
		{
			name:    "comment pointing at a file",
			content: "a {}\n/*# sourceMappingURL=a.css.map */",
			kind:    InlineNone,
		},
		{
			name:     "base64 block comment",
			content:  "a {}\n/*# sourceMappingURL=data:application/json;charset=utf-8;base64," + payload + " */",
			kind:     InlineBase64JSON,
			mimeType: "application/json;charset=utf-8;base64",
			payload:  payload,
			stripped: "a {}\n",
		},
		{
			name:     "url encoded line comment ends at the newline",
			content:  "a {}\n//# sourceMappingURL=data:application/json,%7B%7D\nb {}",
			kind:     InlineURLJSON,
			mimeType: "application/json",
			payload:  "%7B%7D",
			stripped: "a {}\nb {}",
		},
		{
			name:     "url encoded with charset at the end of the input",
			content:  "//# sourceMappingURL=data:application/json;charset=utf-8,%7B%7D",
			kind:     InlineURLJSON,
			mimeType: "application/json;charset=utf-8",
			payload:  "%7B%7D",
			stripped: "",
		},
		{
			name:     "closing the comment right after the payload",
			content:  "/*# sourceMappingURL=data:application/json,%7B%7D*/ a {}",
			kind:     InlineURLJSON,
			mimeType: "application/json",
			payload:  "%7B%7D",
			stripped: " a {}",
		},
		{
			name:     "other mime types aren't recognized",
			content:  "/*# sourceMappingURL=data:text/plain;base64,e30= */",
			kind:     InlineUnrecognized,
			mimeType: "text/plain;base64",
			payload:  "e30=",
			stripped: "",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := FindInlineMap(test.content)
			require.Equal(t, test.kind, m.Kind, m.Kind.String())
			if test.kind == InlineNone {
				return
			}
			assert.Equal(t, test.mimeType, m.MimeType)
			assert.Equal(t, test.payload, m.Payload)
			assert.Equal(t, test.stripped, m.Strip(test.content))
		})
	}
}

func TestInlineMapDecode(t *testing.T) {
	t.Run("base64 with and without padding", func(t *testing.T) {
		for _, payload := range []string{"eyJhIjoxfQ==", "eyJhIjoxfQ"} {
			data, err := InlineMap{Kind: InlineBase64JSON, Payload: payload}.Decode()
			require.NoError(t, err)
			assert.Equal(t, `{"a":1}`, string(data))
		}
	})

	t.Run("percent encoding keeps plus signs", func(t *testing.T) {
		data, err := InlineMap{Kind: InlineURLJSON, Payload: "%7B%22a%22%3A%221+1%22%7D"}.Decode()
		require.NoError(t, err)
		assert.Equal(t, `{"a":"1+1"}`, string(data))
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := InlineMap{Kind: InlineBase64JSON, Payload: "***"}.Decode()
		require.Error(t, err)
	})

	t.Run("unrecognized", func(t *testing.T) {
		_, err := InlineMap{Kind: InlineUnrecognized}.Decode()
		require.ErrorIs(t, err, ErrInlineEncoding)
	})
}
