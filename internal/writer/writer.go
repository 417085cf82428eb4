// Package writer renders a feed model in one of the supported output
// formats.
package writer

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	apperrors "github.com/npolar/icelastic-ws/internal/errors"
	"github.com/npolar/icelastic-ws/internal/feed"
	"github.com/npolar/icelastic-ws/internal/params"
)

// Writer serializes a feed model for one format.
type Writer interface {
	Format() string
	MediaType() string
	Write(w io.Writer, m *feed.Model, b *params.Bag) error
}

type variantMediaTyper interface {
	MediaTypeFor(b *params.Bag) string
}

// MediaType returns the content type w produces for the request in b. It
// differs from w.MediaType when a variant delegates to another format.
func MediaType(w Writer, b *params.Bag) string {
	if v, ok := w.(variantMediaTyper); ok {
		return v.MediaTypeFor(b)
	}
	return w.MediaType()
}

// Registry maps format names onto writers. It is built once and only read
// afterwards.
type Registry struct {
	writers map[string]Writer
	def     string
}

// NewRegistry registers writers under their format names. def names the
// writer used when a request has no format. Registering a format twice is an
// error.
func NewRegistry(def string, writers ...Writer) (*Registry, error) {
	r := &Registry{writers: make(map[string]Writer), def: strings.ToLower(def)}

	for _, w := range writers {
		key := strings.ToLower(w.Format())
		if _, ok := r.writers[key]; ok {
			return nil, apperrors.Newf(apperrors.ErrUnknownFormat, http.StatusInternalServerError, "format %q registered more than once", key)
		}
		r.writers[key] = w
	}

	if _, ok := r.writers[r.def]; !ok {
		return nil, apperrors.Newf(apperrors.ErrUnknownFormat, http.StatusInternalServerError, "default format %q has no writer", r.def)
	}

	return r, nil
}

// Standard returns the registry of all built-in writers, with the feed as
// the default.
func Standard() (*Registry, error) {
	hal := NewHAL()
	return NewRegistry(FormatJSON,
		NewFeed(hal),
		NewCSV(FormatCSV, ','),
		NewCSV(FormatTSV, '\t'),
		NewGeoJSON(),
		hal,
		NewRaw(),
	)
}

// Lookup returns the writer for format, or the default writer when format
// is empty.
func (r *Registry) Lookup(format string) (Writer, error) {
	key := strings.ToLower(strings.TrimSpace(format))
	if key == "" {
		key = r.def
	}

	w, ok := r.writers[key]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrUnknownFormat, http.StatusBadRequest, "no writer for format %q (supported: %s)", key, strings.Join(r.Formats(), ", "))
	}

	return w, nil
}

// Formats lists the registered format names.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.writers))
	for k := range r.writers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) String() string {
	return fmt.Sprintf("writers[%s] default=%s", strings.Join(r.Formats(), ","), r.def)
}
