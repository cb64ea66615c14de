package repository

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"FraudSight/internal/domain/repository"
	"FraudSight/pkg/cache"
)

// FSDatasetStore resolves dataset ids to files under a directory:
// <dir>/<id>.csv or <dir>/<id>.json, whichever exists. Parsed frames
// are cached so repeated jobs over the same dataset skip the parse.
type FSDatasetStore struct {
	dir      string
	cache    cache.Service
	cacheTTL time.Duration
}

func NewFSDatasetStore(dir string, c cache.Service, ttl time.Duration) *FSDatasetStore {
	return &FSDatasetStore{dir: dir, cache: c, cacheTTL: ttl}
}

func (s *FSDatasetStore) Load(ctx context.Context, datasetID string) (*repository.Dataset, error) {
	if filepath.Base(datasetID) != datasetID || datasetID == "" || datasetID == "." {
		return nil, fmt.Errorf("%w: invalid dataset id %q", repository.ErrInvalidInput, datasetID)
	}

	cacheKey := "dataset:" + datasetID
	if s.cache != nil {
		if v, err := s.cache.Get(ctx, cacheKey); err == nil {
			if ds, ok := v.(*repository.Dataset); ok {
				return ds, nil
			}
		}
	}

	ds, err := s.loadFile(datasetID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, ds, s.cacheTTL)
	}
	return ds, nil
}

func (s *FSDatasetStore) loadFile(datasetID string) (*repository.Dataset, error) {
	csvPath := filepath.Join(s.dir, datasetID+".csv")
	if _, err := os.Stat(csvPath); err == nil {
		return parseCSV(csvPath)
	}
	jsonPath := filepath.Join(s.dir, datasetID+".json")
	if _, err := os.Stat(jsonPath); err == nil {
		return parseJSON(jsonPath)
	}
	return nil, fmt.Errorf("%w: %s", repository.ErrDatasetNotFound, datasetID)
}

// parseCSV reads a header row of column names followed by numeric rows.
func parseCSV(path string) (*repository.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = false

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrSchema, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: csv needs a header and at least one row", repository.ErrSchema)
	}

	columns := records[0]
	rows := make([][]float64, 0, len(records)-1)
	for line, record := range records[1:] {
		if len(record) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, header has %d",
				repository.ErrSchema, line+2, len(record), len(columns))
		}
		row := make([]float64, len(record))
		for i, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: non-numeric value %q in row %d column %q",
					repository.ErrSchema, cell, line+2, columns[i])
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	return &repository.Dataset{Columns: columns, Rows: rows}, nil
}

// parseJSON reads an array of flat objects with numeric values. The
// column set is the union of keys, sorted for a stable order.
func parseJSON(path string) (*repository.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var objects []map[string]float64
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrSchema, err)
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: json dataset is empty", repository.ErrSchema)
	}

	colSet := map[string]bool{}
	for _, obj := range objects {
		for k := range obj {
			colSet[k] = true
		}
	}
	columns := make([]string, 0, len(colSet))
	for k := range colSet {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	rows := make([][]float64, len(objects))
	for i, obj := range objects {
		row := make([]float64, len(columns))
		for j, col := range columns {
			row[j] = obj[col]
		}
		rows[i] = row
	}
	return &repository.Dataset{Columns: columns, Rows: rows}, nil
}
