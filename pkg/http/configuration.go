package http

import (
	"fmt"
	"strings"
)

// ResponseType selects how a successful response body is decoded.
type ResponseType int

const (
	// ResponseRaw returns the *Response itself with its body unread.
	ResponseRaw ResponseType = iota
	// ResponseJSON decodes the body as JSON into an `any`.
	ResponseJSON
	// ResponseText decodes the body as a string.
	ResponseText
	// ResponseBlob decodes the body into a *Blob carrying its media type.
	ResponseBlob
	// ResponseFormData decodes urlencoded or multipart bodies into a *FormData.
	ResponseFormData
	// ResponseBuffer decodes the body into a []byte.
	ResponseBuffer
)

var responseTypeNames = map[ResponseType]string{
	ResponseRaw:      "raw",
	ResponseJSON:     "json",
	ResponseText:     "text",
	ResponseBlob:     "blob",
	ResponseFormData: "formData",
	ResponseBuffer:   "arrayBuffer",
}

func (rt ResponseType) String() string {
	if name, ok := responseTypeNames[rt]; ok {
		return name
	}
	return fmt.Sprintf("ResponseType(%d)", int(rt))
}

// ParseResponseType maps a config value to a ResponseType.
func ParseResponseType(s string) (ResponseType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raw":
		return ResponseRaw, nil
	case "json":
		return ResponseJSON, nil
	case "text":
		return ResponseText, nil
	case "blob":
		return ResponseBlob, nil
	case "formdata", "form":
		return ResponseFormData, nil
	case "arraybuffer", "buffer":
		return ResponseBuffer, nil
	}
	return ResponseRaw, fmt.Errorf("unknown response type %q", s)
}

// Configuration holds the content negotiation flags of a Client.
// It is copied into the Client at construction and never changes afterwards.
type Configuration struct {
	// DefaultResponseType is used when neither a per-call override nor
	// content-type inference picks a strategy.
	DefaultResponseType ResponseType
	// InferRequestBodyContentType sets Content-Type: application/json for
	// structured bodies unless the caller supplied one.
	InferRequestBodyContentType bool
	// InferResponseBodyContentType resolves the decode strategy from the
	// response Content-Type header through the media-type registry.
	InferResponseBodyContentType bool
	// ParseObjectAsJSON runs the request transformer over structured bodies
	// and serializes them as JSON.
	ParseObjectAsJSON bool
}

// DefaultConfiguration returns the configuration used when none is given.
func DefaultConfiguration() Configuration {
	return Configuration{
		DefaultResponseType:          ResponseJSON,
		InferRequestBodyContentType:  true,
		InferResponseBodyContentType: true,
		ParseObjectAsJSON:            true,
	}
}
