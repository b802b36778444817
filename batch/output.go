package batch

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// WriteCSV writes one row per record to path, with a header.
func WriteCSV[T any](path string, records []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := gocsv.MarshalFile(&records, f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// ReadResults loads a results CSV written by WriteCSV.
func ReadResults(path string) ([]Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var results []Result
	if err := gocsv.UnmarshalFile(f, &results); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return results, nil
}
