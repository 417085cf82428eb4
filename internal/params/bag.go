// Package params turns a raw query string (or a map of parameters) into the
// canonical, ordered parameter bag consumed by the compiler, the presenter
// and the format writers.
package params

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/npolar/icelastic-ws/internal/defaults"
	apperrors "github.com/npolar/icelastic-ws/internal/errors"
)

// Bag is an ordered mapping of parameter names to values. Multi-valued
// parameters are held comma-joined. A Bag is never mutated after
// construction; With and Without return modified copies.
type Bag struct {
	keys     []string
	values   map[string]string
	explicit map[string]bool
	registry *defaults.Registry
	index    *Index
}

// Normalize builds a bag from raw, which may be a query string (with or
// without a leading '?'), url.Values, map[string][]string, map[string]string
// or map[string]any. Registry defaults are merged under explicit values.
func Normalize(raw any, reg *defaults.Registry) (*Bag, error) {
	if reg == nil {
		reg = defaults.Builtin()
	}

	var pairs [][2]string
	var err error

	switch v := raw.(type) {
	case string:
		pairs, err = parseQuery(v)
	case url.Values:
		pairs = fromMultiMap(v)
	case map[string][]string:
		pairs = fromMultiMap(v)
	case map[string]string:
		for _, k := range sortedKeys(v) {
			pairs = append(pairs, [2]string{k, v[k]})
		}
	case map[string]any:
		for _, k := range sortedKeys(v) {
			pairs = append(pairs, [2]string{k, stringify(v[k])})
		}
	case nil:
	default:
		err = apperrors.Newf(apperrors.ErrConfiguration, http.StatusBadRequest, "unsupported parameter container %T", raw)
	}

	if err != nil {
		return nil, err
	}

	b := &Bag{
		values:   make(map[string]string),
		explicit: make(map[string]bool),
		registry: reg,
	}

	for _, kv := range pairs {
		k, v := kv[0], kv[1]
		if prev, ok := b.values[k]; ok {
			b.values[k] = prev + "," + v
			continue
		}
		b.keys = append(b.keys, k)
		b.values[k] = v
		b.explicit[k] = true
	}

	for _, kv := range reg.Values() {
		if _, ok := b.values[kv[0]]; !ok {
			b.keys = append(b.keys, kv[0])
			b.values[kv[0]] = kv[1]
		}
	}

	b.index = buildIndex(b.keys, b.values)

	return b, nil
}

func parseQuery(s string) ([][2]string, error) {
	s = strings.TrimPrefix(s, "?")

	var pairs [][2]string

	for _, part := range strings.Split(s, "&") {
		if part == "" {
			continue
		}

		rawKey, rawVal, _ := strings.Cut(part, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrConfiguration, http.StatusBadRequest, "cannot decode parameter name %q", rawKey)
		}

		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrConfiguration, http.StatusBadRequest, "cannot decode value of %q", key)
		}

		if key == "" {
			continue
		}

		pairs = append(pairs, [2]string{key, val})
	}

	return pairs, nil
}

func fromMultiMap(m map[string][]string) [][2]string {
	var pairs [][2]string
	for _, k := range sortedKeys(m) {
		pairs = append(pairs, [2]string{k, strings.Join(m[k], ",")})
	}
	return pairs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, ",")
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}

// Registry returns the registry the bag was normalized against.
func (b *Bag) Registry() *defaults.Registry {
	return b.registry
}

// Index returns the classified view of the bag.
func (b *Bag) Index() *Index {
	return b.index
}

// Keys returns the parameter names in bag order.
func (b *Bag) Keys() []string {
	return append([]string(nil), b.keys...)
}

// Get returns the value of key and whether it is present.
func (b *Bag) Get(key string) (string, bool) {
	v, ok := b.values[key]
	return v, ok
}

// Value returns the value of key, or "" when absent.
func (b *Bag) Value(key string) string {
	return b.values[key]
}

// Has reports whether key is present, explicitly or by default.
func (b *Bag) Has(key string) bool {
	_, ok := b.values[key]
	return ok
}

// Explicit reports whether key was supplied by the caller rather than
// merged from the registry.
func (b *Bag) Explicit(key string) bool {
	return b.explicit[key]
}

// Int returns key parsed as an integer, or fallback.
func (b *Bag) Int(key string, fallback int) int {
	if v, ok := b.values[key]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

// Bool reports whether key holds a true value.
func (b *Bag) Bool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(b.values[key]))
	return err == nil && v
}

// Start returns the zero-based offset of the first result.
func (b *Bag) Start() int {
	if n := b.Int("start", b.registry.DefaultParams().Start); n > 0 {
		return n
	}
	return 0
}

// Limit returns the page size. An explicit size parameter stands in for a
// missing limit.
func (b *Bag) Limit() int {
	def := b.registry.DefaultParams().Limit

	key := "limit"
	if !b.explicit["limit"] && b.explicit["size"] {
		key = "size"
	}

	if n := b.Int(key, def); n >= 0 {
		return n
	}
	return def
}

// LimitAll reports whether the caller asked for every matching document.
func (b *Bag) LimitAll() bool {
	return strings.EqualFold(strings.TrimSpace(b.values["limit"]), "all")
}

// FacetSize returns the bucket count for terms aggregations.
func (b *Bag) FacetSize() int {
	def := b.registry.DefaultParams().SizeFacet
	for _, e := range b.index.Entries(KindFacetSize) {
		if n, err := strconv.Atoi(strings.TrimSpace(e.Value)); err == nil && n > 0 {
			def = n
		}
	}
	return def
}

// Format returns the requested output format, lower-cased.
func (b *Bag) Format() string {
	return strings.ToLower(strings.TrimSpace(b.values["format"]))
}

// Variant returns the requested output variant, lower-cased.
func (b *Bag) Variant() string {
	return strings.ToLower(strings.TrimSpace(b.values["variant"]))
}

// List splits a comma-joined value into its trimmed, non-empty parts.
func (b *Bag) List(key string) []string {
	return SplitList(b.values[key])
}

// SplitList splits s on commas, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (b *Bag) clone() *Bag {
	c := &Bag{
		keys:     append([]string(nil), b.keys...),
		values:   make(map[string]string, len(b.values)),
		explicit: make(map[string]bool, len(b.explicit)),
		registry: b.registry,
	}
	for k, v := range b.values {
		c.values[k] = v
	}
	for k, v := range b.explicit {
		c.explicit[k] = v
	}
	return c
}

// With returns a copy of the bag with key set to value. An existing key
// keeps its position; a new key is appended.
func (b *Bag) With(key, value string) *Bag {
	c := b.clone()
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
	c.explicit[key] = true
	c.index = buildIndex(c.keys, c.values)
	return c
}

// Without returns a copy of the bag with key removed.
func (b *Bag) Without(key string) *Bag {
	c := b.clone()
	if _, ok := c.values[key]; ok {
		delete(c.values, key)
		delete(c.explicit, key)
		for i, k := range c.keys {
			if k == key {
				c.keys = append(c.keys[:i], c.keys[i+1:]...)
				break
			}
		}
	}
	c.index = buildIndex(c.keys, c.values)
	return c
}
