package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync"

	"github.com/pkg/errors"
)

const (
	// maxFormMemory bounds the multipart parts kept in memory while decoding.
	maxFormMemory = 32 << 20
	// maxErrorBody bounds the bytes kept from a non-2xx response body.
	maxErrorBody = 1 << 20
)

// Response wraps a received *http.Response. Its body may be consumed by
// exactly one of the decode methods; later calls return ErrBodyUsed.
type Response struct {
	raw *http.Response

	mu   sync.Mutex
	used bool
}

func newResponse(raw *http.Response) *Response {
	return &Response{raw: raw}
}

// Raw returns the underlying *http.Response.
func (r *Response) Raw() *http.Response { return r.raw }

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int { return r.raw.StatusCode }

// Status returns the status line text, e.g. "404 Not Found".
func (r *Response) Status() string { return r.raw.Status }

// OK reports whether the status is in the 200–299 range.
func (r *Response) OK() bool {
	return r.raw.StatusCode >= 200 && r.raw.StatusCode < 300
}

// Header returns the response headers.
func (r *Response) Header() http.Header { return r.raw.Header }

// ContentType returns the Content-Type response header.
func (r *Response) ContentType() string { return r.raw.Header.Get("Content-Type") }

// BodyUsed reports whether the body has already been consumed.
func (r *Response) BodyUsed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used
}

// Close closes the body without reading it.
func (r *Response) Close() error {
	if r.raw.Body == nil {
		return nil
	}
	return r.raw.Body.Close()
}

// buffer swaps the body for an in-memory copy of at most limit bytes so it
// stays readable after the connection is released.
func (r *Response) buffer(limit int64) {
	if r.raw.Body == nil {
		return
	}
	data, _ := io.ReadAll(io.LimitReader(r.raw.Body, limit))
	_ = r.raw.Body.Close()
	r.raw.Body = io.NopCloser(bytes.NewReader(data))
}

// consume reads the whole body once and closes it.
func (r *Response) consume() ([]byte, error) {
	r.mu.Lock()
	if r.used {
		r.mu.Unlock()
		return nil, ErrBodyUsed
	}
	r.used = true
	r.mu.Unlock()

	if r.raw.Body == nil {
		return nil, nil
	}
	defer r.raw.Body.Close()
	data, err := io.ReadAll(r.raw.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}
	return data, nil
}

// Bytes returns the body as a byte slice.
func (r *Response) Bytes() ([]byte, error) {
	return r.consume()
}

// Text returns the body as a string.
func (r *Response) Text() (string, error) {
	data, err := r.consume()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// JSON decodes the body into a generic value (map[string]any, []any, ...).
func (r *Response) JSON() (any, error) {
	var v any
	if err := r.DecodeJSON(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeJSON decodes the body into v. An empty body leaves v untouched.
func (r *Response) DecodeJSON(v any) error {
	data, err := r.consume()
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "decoding json body")
	}
	return nil
}

// Blob is a binary body together with its media type.
type Blob struct {
	Type string
	Data []byte
}

// Size returns the number of bytes in the blob.
func (b *Blob) Size() int { return len(b.Data) }

// Blob returns the body as a *Blob.
func (r *Response) Blob() (*Blob, error) {
	data, err := r.consume()
	if err != nil {
		return nil, err
	}
	return &Blob{Type: normalizeMediaType(r.ContentType()), Data: data}, nil
}

// FormData is a decoded urlencoded or multipart body.
type FormData struct {
	Values url.Values
	Files  map[string][]*multipart.FileHeader

	form *multipart.Form
}

// RemoveAll deletes temporary files created while decoding a multipart body.
func (f *FormData) RemoveAll() error {
	if f.form == nil {
		return nil
	}
	return f.form.RemoveAll()
}

// FormData decodes an application/x-www-form-urlencoded or
// multipart/form-data body.
func (r *Response) FormData() (*FormData, error) {
	mediaType, params, err := mime.ParseMediaType(r.ContentType())
	if err != nil {
		return nil, errors.Wrap(err, "parsing content type for form data")
	}
	data, err := r.consume()
	if err != nil {
		return nil, err
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(data))
		if err != nil {
			return nil, errors.Wrap(err, "decoding urlencoded body")
		}
		return &FormData{Values: values}, nil
	case "multipart/form-data":
		boundary := params["boundary"]
		if boundary == "" {
			return nil, errors.New("multipart body without boundary")
		}
		form, err := multipart.NewReader(bytes.NewReader(data), boundary).ReadForm(maxFormMemory)
		if err != nil {
			return nil, errors.Wrap(err, "decoding multipart body")
		}
		return &FormData{Values: url.Values(form.Value), Files: form.File, form: form}, nil
	}
	return nil, errors.Errorf("cannot decode %q as form data", mediaType)
}

// decode consumes the body with the given strategy. ResponseRaw returns r.
func (r *Response) decode(rt ResponseType) (any, error) {
	switch rt {
	case ResponseRaw:
		return r, nil
	case ResponseJSON:
		return r.JSON()
	case ResponseText:
		return r.Text()
	case ResponseBlob:
		return r.Blob()
	case ResponseFormData:
		return r.FormData()
	case ResponseBuffer:
		return r.Bytes()
	}
	return nil, errors.Errorf("unknown response type %v", rt)
}
