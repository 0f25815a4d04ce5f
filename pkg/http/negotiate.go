package http

import (
	"bytes"
	"encoding/json"
	"io"
	"maps"
	"net/http"

	"github.com/pkg/errors"
)

const contentTypeJSON = "application/json"

// negotiateRequestBody encodes body and returns the headers inferred for it.
// Inferred headers sit below the base and per-call init in precedence.
func negotiateRequestBody(cfg Configuration, t Transformer, body Body) (io.Reader, http.Header, error) {
	inferred := make(http.Header)
	if body == nil {
		return nil, inferred, nil
	}

	structured, ok := body.(Structured)
	if !ok {
		enc, err := encodeOpaque(body, cfg.InferRequestBodyContentType)
		if err != nil {
			return nil, nil, err
		}
		if enc.contentType != "" {
			inferred.Set("Content-Type", enc.contentType)
		}
		return enc.reader, inferred, nil
	}

	if !cfg.ParseObjectAsJSON {
		return nil, nil, ErrUnencodableBody
	}
	if cfg.InferRequestBodyContentType {
		inferred.Set("Content-Type", contentTypeJSON)
	}
	payload, err := json.Marshal(t.request(maps.Clone(map[string]any(structured))))
	if err != nil {
		return nil, nil, errors.Wrap(err, "encoding structured body")
	}
	return bytes.NewReader(payload), inferred, nil
}

// ResolveResponseType picks the decode strategy: an explicit override wins,
// then the Content-Type header when inference is enabled, then the default.
func ResolveResponseType(cfg Configuration, override *ResponseType, contentType string) ResponseType {
	if override != nil {
		return *override
	}
	if cfg.InferResponseBodyContentType {
		if rt, ok := LookupMediaType(contentType); ok {
			return rt
		}
	}
	return cfg.DefaultResponseType
}
