package catalog

import (
	"strings"
	"time"

	"animedb/internal/release"
	"animedb/internal/sheet"
)

func encodeRow(r release.Record) sheet.Row {
	return sheet.Row{
		SeriesID: r.SeriesID,
		Title:    r.Title,
		Season:   r.Season,
		Episode:  r.Episode,
		Quality:  r.Quality,
		Audio:    r.Audio,
		URL:      r.URL,
		AddedAt:  r.AddedAt.Format(release.AddedAtLayout),
		Status:   r.Status,
	}
}

// decodeRows converts stored rows to records, skipping rows without a series ID.
func decodeRows(rows []sheet.Row) []release.Record {
	records := make([]release.Record, 0, len(rows))
	for _, row := range rows {
		id := strings.TrimSpace(row.SeriesID)
		if id == "" {
			continue
		}
		status := strings.TrimSpace(row.Status)
		if status == "" {
			status = release.DefaultStatus
		}
		var added time.Time
		if ts, err := time.ParseInLocation(release.AddedAtLayout, strings.TrimSpace(row.AddedAt), time.Local); err == nil {
			added = ts
		}
		records = append(records, release.Record{
			SeriesID: id,
			Title:    row.Title,
			Season:   row.Season,
			Episode:  row.Episode,
			Quality:  row.Quality,
			Audio:    row.Audio,
			URL:      row.URL,
			AddedAt:  added,
			Status:   status,
		})
	}
	return records
}
