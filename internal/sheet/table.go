package sheet

import (
	"context"
	"fmt"

	"animedb/internal/config"
)

// Row is one stored line of the catalog.
type Row struct {
	SeriesID string `csv:"Anime ID"`
	Title    string `csv:"Anime Name"`
	Season   string `csv:"Season"`
	Episode  string `csv:"Episode"`
	Quality  string `csv:"Quality"`
	Audio    string `csv:"Audio"`
	URL      string `csv:"Download URL"`
	AddedAt  string `csv:"Added Date"`
	Status   string `csv:"Status"`
}

// Headers lists the column names in storage order.
var Headers = []string{
	"Anime ID", "Anime Name", "Season", "Episode", "Quality", "Audio", "Download URL", "Added Date", "Status",
}

// Table is an append-only row store.
type Table interface {
	// ReadAll returns every row in insertion order.
	ReadAll(ctx context.Context) ([]Row, error)
	// Append adds one row at the end of the table.
	Append(ctx context.Context, row Row) error
	// Close releases any underlying resources.
	Close() error
}

// Open returns the table selected by cfg.Store.
func Open(cfg *config.Config) (Table, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	switch cfg.Store.Backend {
	case config.BackendCSV:
		return OpenCSV(cfg.Store.Path)
	case config.BackendSQLite, "":
		return OpenSQLite(cfg.Store.Path)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}
