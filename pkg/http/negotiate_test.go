package http

import (
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r io.Reader) string {
	t.Helper()
	require.NotNil(t, r)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestNegotiateStructuredBody(t *testing.T) {
	body := Structured{"name": "Ada", "verified": true}
	upper := Transformer{Request: func(b map[string]any) map[string]any {
		b["name"] = strings.ToUpper(b["name"].(string))
		return b
	}}

	r, inferred, err := negotiateRequestBody(DefaultConfiguration(), upper, body)
	require.NoError(t, err)

	assert.JSONEq(t, `{"name":"ADA","verified":true}`, readAll(t, r))
	assert.Equal(t, "application/json", inferred.Get("Content-Type"))
	assert.Equal(t, "Ada", body["name"], "transformer must work on a copy")
}

func TestNegotiateStructuredWithoutInference(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.InferRequestBodyContentType = false

	r, inferred, err := negotiateRequestBody(cfg, Transformer{}, Structured{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, readAll(t, r))
	assert.Empty(t, inferred.Get("Content-Type"))
}

func TestNegotiateStructuredRejectedWhenJSONDisabled(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.ParseObjectAsJSON = false

	_, _, err := negotiateRequestBody(cfg, Transformer{}, Structured{"a": 1})
	assert.ErrorIs(t, err, ErrUnencodableBody)
}

func TestNegotiateNilBody(t *testing.T) {
	r, inferred, err := negotiateRequestBody(DefaultConfiguration(), Transformer{}, nil)
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Empty(t, inferred)
}

func TestNegotiateOpaqueBodies(t *testing.T) {
	called := false
	spy := Transformer{Request: func(b map[string]any) map[string]any {
		called = true
		return b
	}}

	tests := []struct {
		name        string
		body        Body
		wantBody    string
		contentType string
	}{
		{"text", Text("hello"), "hello", "text/plain;charset=UTF-8"},
		{"form", Form(url.Values{"q": {"go lang"}}), "q=go+lang", "application/x-www-form-urlencoded;charset=UTF-8"},
		{"binary with type", Binary{Data: []byte("abc"), ContentType: "application/x-custom"}, "abc", "application/x-custom"},
		{"binary sniffed", Binary{Data: []byte("\x89PNG\r\n\x1a\n0000")}, "\x89PNG\r\n\x1a\n0000", "image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, inferred, err := negotiateRequestBody(DefaultConfiguration(), spy, tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, readAll(t, r))
			assert.Equal(t, tt.contentType, inferred.Get("Content-Type"))
		})
	}
	assert.False(t, called, "opaque bodies bypass the request transformer")
}

func TestNegotiateBinaryNotSniffedWithoutInference(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.InferRequestBodyContentType = false

	_, inferred, err := negotiateRequestBody(cfg, Transformer{}, Binary{Data: []byte("\x89PNG\r\n\x1a\n0000")})
	require.NoError(t, err)
	assert.Empty(t, inferred.Get("Content-Type"))
}

func TestNegotiateMultipart(t *testing.T) {
	body := Multipart{
		Fields: url.Values{"title": {"report"}},
		Files:  []FilePart{{Field: "file", FileName: "r.txt", ContentType: "text/plain", Data: []byte("data")}},
	}

	r, inferred, err := negotiateRequestBody(DefaultConfiguration(), Transformer{}, body)
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(inferred.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	form, err := multipart.NewReader(r, params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)
	defer form.RemoveAll()

	assert.Equal(t, []string{"report"}, form.Value["title"])
	require.Len(t, form.File["file"], 1)
	assert.Equal(t, "r.txt", form.File["file"][0].Filename)
}
