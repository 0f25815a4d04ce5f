package http

import "net/url"

// Query holds query parameters; a nil value marks a parameter as absent.
type Query map[string]*string

// Value returns a pointer to s for use in a Query literal.
func Value(s string) *string { return &s }

// SanitizeQuery drops absent parameters and returns the rest as url.Values.
// The input map is left untouched.
func SanitizeQuery(q Query) url.Values {
	values := make(url.Values, len(q))
	for key, val := range q {
		if val == nil {
			continue
		}
		values.Set(key, *val)
	}
	return values
}
