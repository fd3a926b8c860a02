package sheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gocarina/gocsv"
)

// CSVTable stores rows in a CSV file with a header line.
type CSVTable struct {
	mu   sync.Mutex
	path string
}

// OpenCSV prepares a CSV-backed table at path, writing the header line when
// the file does not exist yet.
func OpenCSV(path string) (*CSVTable, error) {
	table := &CSVTable{path: path}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := table.writeHeader(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("stat csv: %w", err)
	case info.IsDir():
		return nil, fmt.Errorf("csv path %q is a directory", path)
	}
	return table, nil
}

// Path returns the file location.
func (t *CSVTable) Path() string {
	return t.path
}

// Close is a no-op; the file is opened per operation.
func (t *CSVTable) Close() error {
	return nil
}

// ReadAll parses every data row of the file.
func (t *CSVTable) ReadAll(ctx context.Context) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	file, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	var rows []Row
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) || errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

// Append writes row at the end of the file.
func (t *CSVTable) Append(ctx context.Context, row Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	info, err := os.Stat(t.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat csv: %w", err)
	}
	file, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	rows := []Row{row}
	if info == nil || info.Size() == 0 {
		err = gocsv.Marshal(rows, file)
	} else {
		err = gocsv.MarshalWithoutHeaders(rows, file)
	}
	if err != nil {
		return fmt.Errorf("append csv row: %w", err)
	}
	return nil
}

func (t *CSVTable) writeHeader() error {
	file, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer file.Close()
	writer := gocsv.DefaultCSVWriter(file)
	if err := writer.Write(Headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	return writer.Error()
}
