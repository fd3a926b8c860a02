package api

import (
	"animedb/internal/catalog"
	"animedb/internal/ingest"
	"animedb/internal/release"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Release describes a catalog row in a transport-friendly format.
type Release struct {
	SeriesID string `json:"seriesId"`
	Title    string `json:"title"`
	Season   string `json:"season"`
	Episode  string `json:"episode"`
	Quality  string `json:"quality"`
	Audio    string `json:"audio"`
	URL      string `json:"url"`
	AddedAt  string `json:"addedAt,omitempty"`
	Status   string `json:"status"`
}

// Filter mirrors catalog.Filter on the wire.
type Filter struct {
	Title   string `json:"title,omitempty"`
	Season  string `json:"season,omitempty"`
	Episode string `json:"episode,omitempty"`
	Quality string `json:"quality,omitempty"`
	Audio   string `json:"audio,omitempty"`
}

// SearchResult is the response for a catalog lookup.
type SearchResult struct {
	Query   string    `json:"query,omitempty"`
	Source  string    `json:"source"`
	Filter  Filter    `json:"filter"`
	Count   int       `json:"count"`
	Results []Release `json:"results"`
	Text    string    `json:"text"`
}

// TitlesResponse lists distinct titles.
type TitlesResponse struct {
	Count  int      `json:"count"`
	Titles []string `json:"titles"`
	Text   string   `json:"text"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// ChatResult is the assistant's answer. UploadHint is set instead of a reply
// when the message looks like a release listing.
type ChatResult struct {
	Reply      string `json:"reply,omitempty"`
	UploadHint string `json:"uploadHint,omitempty"`
}

// ClearChatResponse reports whether a conversation was dropped.
type ClearChatResponse struct {
	Cleared bool `json:"cleared"`
}

// UploadRequest is the JSON form of an upload body.
type UploadRequest struct {
	Text string `json:"text"`
}

// UploadResponse summarizes a stored batch.
type UploadResponse struct {
	BatchID    string         `json:"batchId"`
	Provenance string         `json:"provenance"`
	Added      int            `json:"added"`
	Skipped    int            `json:"skipped"`
	Total      int            `json:"total"`
	Series     int            `json:"series"`
	Qualities  map[string]int `json:"qualities,omitempty"`
	Errors     []string       `json:"errors,omitempty"`
	ErrorCount int            `json:"errorCount"`
	Diagnostic string         `json:"diagnostic,omitempty"`
	Text       string         `json:"text"`
}

// UploadersResponse lists authorized uploaders.
type UploadersResponse struct {
	Uploaders []string `json:"uploaders"`
}

// AuthorizeRequest is the body of POST /api/uploaders.
type AuthorizeRequest struct {
	UserID string `json:"userId"`
}

// AuthorizeResponse reports whether the user was newly added.
type AuthorizeResponse struct {
	UserID string `json:"userId"`
	Added  bool   `json:"added"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	OK           bool `json:"ok"`
	Records      int  `json:"records"`
	Series       int  `json:"series"`
	ChatSessions int  `json:"chatSessions"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromRecord converts a stored record into its transport form.
func FromRecord(r release.Record) Release {
	out := Release{
		SeriesID: r.SeriesID,
		Title:    r.Title,
		Season:   r.Season,
		Episode:  r.Episode,
		Quality:  r.Quality,
		Audio:    r.Audio,
		URL:      r.URL,
		Status:   r.Status,
	}
	if !r.AddedAt.IsZero() {
		out.AddedAt = r.AddedAt.Format(dateTimeFormat)
	}
	return out
}

// FromRecords converts a slice of records, never returning nil.
func FromRecords(records []release.Record) []Release {
	out := make([]Release, 0, len(records))
	for _, r := range records {
		out = append(out, FromRecord(r))
	}
	return out
}

// FromFilter converts a catalog filter.
func FromFilter(f catalog.Filter) Filter {
	return Filter(f)
}

// ToFilter converts a wire filter into a catalog filter.
func (f Filter) ToFilter() catalog.Filter {
	return catalog.Filter(f)
}

// FromReport converts an ingest report.
func FromReport(r ingest.Report) UploadResponse {
	return UploadResponse{
		BatchID:    r.BatchID,
		Provenance: string(r.Provenance),
		Added:      r.Added,
		Skipped:    r.Skipped,
		Total:      r.Total,
		Series:     r.Series,
		Qualities:  r.Qualities,
		Errors:     r.Errors,
		ErrorCount: r.ErrorCount,
		Diagnostic: r.Diagnostic,
		Text:       r.Text(),
	}
}
