package writer

import (
	"io"

	"github.com/npolar/icelastic-ws/internal/feed"
	"github.com/npolar/icelastic-ws/internal/params"
)

// Raw passes the backend response through untouched.
type Raw struct{}

func NewRaw() *Raw {
	return &Raw{}
}

func (r *Raw) Format() string    { return FormatRaw }
func (r *Raw) MediaType() string { return "application/json; charset=utf-8" }

func (r *Raw) Write(w io.Writer, m *feed.Model, b *params.Bag) error {
	if len(m.Raw) == 0 {
		_, err := io.WriteString(w, "{}\n")
		return err
	}
	_, err := w.Write(m.Raw)
	return err
}
