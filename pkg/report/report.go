// Package report prints sweep results as a delimited text table.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/codeGROOVE-dev/hitbench/pkg/sweep"
)

// Reporter writes a header naming the policies, then one line per capacity point.
type Reporter struct {
	w     io.Writer
	names []string
	delim string
}

// Option configures a Reporter.
type Option func(*Reporter)

// Delimiter sets the column separator. Default is a tab.
func Delimiter(d string) Option {
	return func(r *Reporter) {
		r.delim = d
	}
}

// New creates a Reporter for the given policy columns.
func New(w io.Writer, names []string, opts ...Option) *Reporter {
	r := &Reporter{w: w, names: names, delim: "\t"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Header writes the column titles.
func (r *Reporter) Header() error {
	_, err := fmt.Fprintln(r.w, "cache size"+r.delim+strings.Join(r.names, r.delim))
	return err
}

// Row writes the fraction followed by each policy's hit ratio.
func (r *Reporter) Row(row sweep.Row) error {
	if len(row.Results) != len(r.names) {
		return fmt.Errorf("row has %d results for %d policies", len(row.Results), len(r.names))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%.4f", row.Point.Fraction)
	for _, res := range row.Results {
		b.WriteString(r.delim)
		b.WriteString(Percent(res.Ratio()))
	}
	b.WriteByte('\n')
	_, err := io.WriteString(r.w, b.String())
	return err
}

// Table writes the header and every row of t.
func (r *Reporter) Table(t *sweep.Table) error {
	if err := r.Header(); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := r.Row(row); err != nil {
			return err
		}
	}
	return nil
}

// Percent formats a ratio as a percentage with two decimals.
func Percent(ratio float64) string {
	return fmt.Sprintf("%.2f%%", ratio*100)
}
