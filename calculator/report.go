package calculator

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

// LoadRecord is one node's row of a rebalance evaluation.
type LoadRecord struct {
	Step    int64   `csv:"step"`
	Epoch   int64   `csv:"epoch"`
	Rank    int     `csv:"rank"`
	Compute float64 `csv:"compute_s"`
	Idle    float64 `csv:"idle_s"`
	// extent along the rebalance axis of the node's slab after the evaluation
	Extent   int32  `csv:"extent"`
	Accepted bool   `csv:"accepted"`
	Reason   string `csv:"reason"`
}

// Report appends load records to a CSV stream, header first.
type Report struct {
	w      io.Writer
	closer io.Closer

	headerWritten bool
}

func NewReport(w io.Writer) *Report {
	return &Report{w: w}
}

// OpenReport creates the CSV file at path. An empty path disables the report.
func OpenReport(path string) (*Report, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating load report: %w", err)
	}
	return &Report{w: f, closer: f}, nil
}

func (r *Report) Write(records []LoadRecord) error {
	if r == nil || len(records) == 0 {
		return nil
	}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.w); err != nil {
			return fmt.Errorf("writing load report: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.w); err != nil {
		return fmt.Errorf("writing load report: %w", err)
	}
	return nil
}

func (r *Report) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
