package form

import (
	"sort"
	"strings"
)

// FormKey holds errors that cannot be attributed to a single field.
const FormKey = "_form"

// FieldErrors maps a JSON field path ("price", "variants[1].stock",
// "customer.firstName") to a human-readable message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := e.Paths()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Empty reports whether there are no errors. A nil map is empty.
func (e FieldErrors) Empty() bool { return len(e) == 0 }

// Paths returns the failing paths in sorted order.
func (e FieldErrors) Paths() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Only keeps the errors at, or nested under, one of paths.
func (e FieldErrors) Only(paths ...string) FieldErrors {
	var out FieldErrors
	for key, msg := range e {
		for _, p := range paths {
			if key == p || strings.HasPrefix(key, p+".") || strings.HasPrefix(key, p+"[") {
				if out == nil {
					out = FieldErrors{}
				}
				out[key] = msg
				break
			}
		}
	}
	return out
}

// Merge copies o into e, keeping e's message on conflicts.
func (e FieldErrors) Merge(o FieldErrors) FieldErrors {
	if e == nil && len(o) > 0 {
		e = make(FieldErrors, len(o))
	}
	for k, v := range o {
		if _, exists := e[k]; !exists {
			e[k] = v
		}
	}
	return e
}
