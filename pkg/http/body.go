package http

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// Body is a request payload. Callers choose the variant explicitly:
// Structured is JSON-eligible data, every other variant is an opaque
// payload handed to the network unchanged.
type Body interface {
	isBody()
}

// Structured is a plain key-value payload, serialized as JSON.
type Structured map[string]any

// Text is a plain string payload.
type Text string

// Form is an application/x-www-form-urlencoded payload.
type Form url.Values

// Binary is a raw byte payload. An empty ContentType may be sniffed
// from the data when request content-type inference is enabled.
type Binary struct {
	Data        []byte
	ContentType string
}

// Multipart is a multipart/form-data payload.
type Multipart struct {
	Fields url.Values
	Files  []FilePart
}

// FilePart is one file of a Multipart body.
type FilePart struct {
	Field       string
	FileName    string
	ContentType string
	Data        []byte
}

func (Structured) isBody() {}
func (Text) isBody()       {}
func (Form) isBody()       {}
func (Binary) isBody()     {}
func (Multipart) isBody()  {}

// encodedBody is a body ready for transmission together with the
// content type it carries by itself.
type encodedBody struct {
	reader      io.Reader
	contentType string
}

// encodeOpaque encodes a non-structured body the way a fetch primitive
// would, including its intrinsic content type.
func encodeOpaque(body Body, sniff bool) (encodedBody, error) {
	switch b := body.(type) {
	case Text:
		return encodedBody{reader: strings.NewReader(string(b)), contentType: "text/plain;charset=UTF-8"}, nil
	case Form:
		return encodedBody{
			reader:      strings.NewReader(url.Values(b).Encode()),
			contentType: "application/x-www-form-urlencoded;charset=UTF-8",
		}, nil
	case Binary:
		contentType := b.ContentType
		if contentType == "" && sniff && len(b.Data) > 0 {
			contentType = mimetype.Detect(b.Data).String()
		}
		return encodedBody{reader: bytes.NewReader(b.Data), contentType: contentType}, nil
	case Multipart:
		return encodeMultipart(b)
	}
	return encodedBody{}, errors.Errorf("unsupported body type %T", body)
}

func encodeMultipart(m Multipart) (encodedBody, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, values := range m.Fields {
		for _, v := range values {
			if err := w.WriteField(key, v); err != nil {
				return encodedBody{}, errors.Wrap(err, "writing multipart field")
			}
		}
	}
	for _, f := range m.Files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", multipartDisposition(f.Field, f.FileName))
		contentType := f.ContentType
		if contentType == "" {
			contentType = mimetype.Detect(f.Data).String()
		}
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return encodedBody{}, errors.Wrap(err, "creating multipart file part")
		}
		if _, err := part.Write(f.Data); err != nil {
			return encodedBody{}, errors.Wrap(err, "writing multipart file part")
		}
	}
	if err := w.Close(); err != nil {
		return encodedBody{}, errors.Wrap(err, "closing multipart writer")
	}
	return encodedBody{reader: &buf, contentType: w.FormDataContentType()}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func multipartDisposition(field, fileName string) string {
	return `form-data; name="` + quoteEscaper.Replace(field) + `"; filename="` + quoteEscaper.Replace(fileName) + `"`
}
