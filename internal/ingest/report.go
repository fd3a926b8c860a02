package ingest

import (
	"fmt"
	"slices"
	"strings"

	"animedb/internal/parser"
)

// Report summarizes one upload batch.
type Report struct {
	BatchID    string            `json:"batch_id"`
	User       string            `json:"user"`
	Provenance parser.Provenance `json:"provenance"`
	Added      int               `json:"added"`
	Skipped    int               `json:"skipped"`
	Total      int               `json:"total"`
	Series     int               `json:"series"`
	Qualities  map[string]int    `json:"qualities,omitempty"`
	// Errors holds at most the configured number of per-entry messages.
	Errors     []string `json:"errors,omitempty"`
	ErrorCount int      `json:"error_count"`
	Diagnostic string   `json:"diagnostic,omitempty"`
	URLs       []string `json:"-"`
}

func (r *Report) addError(limit int, msg string) {
	r.ErrorCount++
	if len(r.Errors) < limit {
		r.Errors = append(r.Errors, msg)
	}
}

// Text renders the report for chat or terminal output.
func (r Report) Text() string {
	var b strings.Builder
	b.WriteString("Upload complete\n\n")
	if r.User != "" {
		fmt.Fprintf(&b, "Uploader: %s\n", r.User)
	}
	fmt.Fprintf(&b, "Added: %d episodes\n", r.Added)
	fmt.Fprintf(&b, "Skipped: %d (duplicates)\n", r.Skipped)
	fmt.Fprintf(&b, "Total: %d\n", r.Total)
	fmt.Fprintf(&b, "Series: %d\n", r.Series)

	if len(r.Qualities) > 0 {
		b.WriteString("\nQuality breakdown:\n")
		keys := make([]string, 0, len(r.Qualities))
		for q := range r.Qualities {
			keys = append(keys, q)
		}
		slices.Sort(keys)
		for _, q := range keys {
			fmt.Fprintf(&b, " • %s: %d eps\n", q, r.Qualities[q])
		}
	}

	if len(r.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "• %s\n", e)
		}
		if extra := r.ErrorCount - len(r.Errors); extra > 0 {
			fmt.Fprintf(&b, "...and %d more\n", extra)
		}
	}
	return b.String()
}
