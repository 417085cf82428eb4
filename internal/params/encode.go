package params

import (
	"net/url"
	"strings"
)

// characters left readable in generated links
var linkUnescaper = strings.NewReplacer(
	"%2C", ",",
	"%3A", ":",
	"%7C", "|",
	"%5B", "[",
	"%5D", "]",
	"%2A", "*",
	"%2F", "/",
)

func escape(s string) string {
	return linkUnescaper.Replace(url.QueryEscape(s))
}

// Encode serializes the bag back into a query string in bag order, eliding
// every parameter whose value equals its registry default.
func (b *Bag) Encode() string {
	parts := make([]string, 0, len(b.keys))

	for _, k := range b.keys {
		v := b.values[k]
		if b.registry.IsDefault(k, v) {
			continue
		}
		parts = append(parts, escape(k)+"="+escape(v))
	}

	return strings.Join(parts, "&")
}

// URL joins base (scheme, host and path of the originating request) with the
// encoded bag.
func (b *Bag) URL(base string) string {
	q := b.Encode()
	if q == "" {
		return base
	}
	return base + "?" + q
}
