// Package stream renders the executor's output paths: raw per-node blocks,
// merged collated records, and the end-of-run failure summary. It is a pure
// display layer; indentation and styling never reach the collator.
package stream

import (
	"fmt"
	"io"

	"github.com/yaahc/scdoall-rewrite/internal/domain"
)

// WriteRaw copies multiplexed output lines to w as they arrive: header lines
// styled, body lines prefixed with indent.
func WriteRaw(w io.Writer, lines <-chan domain.OutputLine, indent string) error {
	s := newStyles()

	for line := range lines {
		var err error
		if line.Header {
			_, err = fmt.Fprintln(w, s.header.Render(line.Text))
		} else {
			_, err = fmt.Fprintln(w, indent+line.Text)
		}
		if err != nil {
			return fmt.Errorf("write output line: %w", err)
		}
	}

	return nil
}

// WriteMerged writes one collated record per line in merge order.
func WriteMerged(w io.Writer, records <-chan domain.CollatedRecord) error {
	for record := range records {
		if _, err := fmt.Fprintln(w, record.String()); err != nil {
			return fmt.Errorf("write collated record: %w", err)
		}
	}

	return nil
}

// WriteSummary reports the failed nodes, one per line. It writes nothing when
// every node succeeded and returns the number of failures.
func WriteSummary(w io.Writer, results []domain.NodeResult) (int, error) {
	s := newStyles()

	failed := 0
	for _, result := range results {
		if !result.Outcome.Failed() {
			continue
		}
		failed++
		line := fmt.Sprintf("%s %s",
			s.failure.Render(string(result.Node)+":"),
			result.Outcome,
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return failed, fmt.Errorf("write failure summary: %w", err)
		}
	}

	return failed, nil
}
