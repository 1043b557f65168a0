package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/breadlens/backend/internal/domain"
)

// RequiredColumns must all be present in a flattened CSV export
var RequiredColumns = []string{"name", "brand", "weight", "price", "platform"}

// ReadCSV parses a flattened listing export. Extra columns are ignored.
// Bare numeric weights are grams and bare numeric prices are rupees.
func ReadCSV(r io.Reader) ([]domain.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty csv", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("%w: read header: %v", domain.ErrInvalidInput, err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}

	field := func(row []string, col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []domain.RawRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrInvalidInput, line, err)
		}
		records = append(records, domain.RawRecord{
			Name:     field(row, "name"),
			Brand:    field(row, "brand"),
			Weight:   withUnit(field(row, "weight"), "%s g"),
			Price:    withUnit(field(row, "price"), "₹%s"),
			Platform: domain.Platform(field(row, "platform")),
		})
	}
	return records, nil
}

// withUnit formats bare numbers, leaving any other text untouched
func withUnit(value, format string) string {
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		return value
	}
	return fmt.Sprintf(format, value)
}

// LoadRecords reads raw records from a combined snapshot (.json) or a
// flattened export (.csv)
func LoadRecords(path string) ([]domain.RawRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		snap, err := Load(path)
		if err != nil {
			return nil, err
		}
		return snap.Flatten(), nil
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("%w: unsupported input format %q", domain.ErrInvalidInput, filepath.Ext(path))
	}
}
