// ABOUTME: Ordered tuple keys for cached queries
// ABOUTME: Empty segments are dropped so optional parameters don't fragment the key space
package cache

import (
	"fmt"
	"strings"
)

// Key addresses one cached query: an entity name followed by its
// identifying parameters.
type Key []string

// NewKey builds a key from parts, skipping nil and empty values.
func NewKey(parts ...any) Key {
	k := make(Key, 0, len(parts))
	for _, p := range parts {
		var s string
		switch v := p.(type) {
		case nil:
			continue
		case string:
			s = v
		case fmt.Stringer:
			s = v.String()
		default:
			s = fmt.Sprint(v)
		}
		if s == "" {
			continue
		}
		k = append(k, s)
	}
	return k
}

// HasPrefix reports whether k starts with every segment of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (k Key) String() string {
	return strings.Join(k, "\x1f")
}
