package http

import (
	"mime"
	"strings"
)

// exactMediaTypes maps well-known content types to a decode strategy.
var exactMediaTypes = map[string]ResponseType{
	"application/json":          ResponseJSON,
	"application/ld+json":       ResponseJSON,
	"application/problem+json":  ResponseJSON,
	"application/vnd.api+json":  ResponseJSON,
	"application/manifest+json": ResponseJSON,

	"application/xml":        ResponseText,
	"application/xhtml+xml":  ResponseText,
	"application/rss+xml":    ResponseText,
	"application/atom+xml":   ResponseText,
	"application/javascript": ResponseText,
	"application/x-ndjson":   ResponseText,
	"application/graphql":    ResponseText,
	"application/yaml":       ResponseText,

	"application/x-www-form-urlencoded": ResponseFormData,

	"application/octet-stream": ResponseBuffer,

	"application/pdf":  ResponseBlob,
	"application/zip":  ResponseBlob,
	"application/gzip": ResponseBlob,
}

// topLevelMediaTypes is consulted when no exact entry matches.
var topLevelMediaTypes = map[string]ResponseType{
	"text":      ResponseText,
	"image":     ResponseBlob,
	"audio":     ResponseBlob,
	"video":     ResponseBlob,
	"font":      ResponseBlob,
	"model":     ResponseBlob,
	"multipart": ResponseFormData,
}

// normalizeMediaType strips parameters and lowercases a Content-Type value.
func normalizeMediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// LookupMediaType resolves a Content-Type value to a decode strategy:
// exact match first, then the top-level type. ok is false on a miss.
func LookupMediaType(contentType string) (rt ResponseType, ok bool) {
	mediaType := normalizeMediaType(contentType)
	if mediaType == "" {
		return ResponseRaw, false
	}
	if rt, ok := exactMediaTypes[mediaType]; ok {
		return rt, true
	}
	topLevel, _, _ := strings.Cut(mediaType, "/")
	if rt, ok := topLevelMediaTypes[topLevel]; ok {
		return rt, true
	}
	return ResponseRaw, false
}
