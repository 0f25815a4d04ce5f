package http

import (
	"net/http"
	"slices"
	"time"
)

// Init carries request options other than method and body. The base init,
// per-call init and interceptor output are all Init values.
type Init struct {
	Header  http.Header
	Cookies []*http.Cookie
	// Host overrides the Host header sent on the wire.
	Host string
	// Timeout bounds the network call when non-zero.
	Timeout time.Duration
	// Close asks the transport not to reuse the connection.
	Close bool
}

// Clone returns a deep copy of the init.
func (i Init) Clone() Init {
	out := i
	if i.Header != nil {
		out.Header = i.Header.Clone()
	}
	if i.Cookies != nil {
		out.Cookies = append([]*http.Cookie(nil), i.Cookies...)
	}
	return out
}

// mergeInit folds the layers left to right. Later non-zero fields win,
// headers are merged key by key and cookies are appended.
func mergeInit(layers ...Init) Init {
	merged := Init{Header: make(http.Header)}
	for _, layer := range layers {
		for key, values := range canonicalHeader(layer.Header) {
			merged.Header[key] = values
		}
		merged.Cookies = append(merged.Cookies, layer.Cookies...)
		if layer.Host != "" {
			merged.Host = layer.Host
		}
		if layer.Timeout != 0 {
			merged.Timeout = layer.Timeout
		}
		if layer.Close {
			merged.Close = true
		}
	}
	return merged
}

// canonicalHeader folds keys that differ only in case into their canonical
// form. Values of folded keys are joined in sorted key order.
func canonicalHeader(h http.Header) http.Header {
	keys := make([]string, 0, len(h))
	for key := range h {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	out := make(http.Header, len(h))
	for _, key := range keys {
		canon := http.CanonicalHeaderKey(key)
		out[canon] = append(out[canon], h[key]...)
	}
	return out
}
