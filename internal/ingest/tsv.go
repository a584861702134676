package ingest

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// tsvReader streams one IMDb dataset file: tab-delimited, header row first,
// `\N` for null, gzip-compressed when the path ends in .gz.
type tsvReader struct {
	file   *os.File
	gz     *gzip.Reader
	csv    *csv.Reader
	cols   map[string]int
	maxCol int
	err    error
}

func openTSV(path string) (*tsvReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	var raw io.Reader = file
	var gz *gzip.Reader
	if strings.HasSuffix(path, ".gz") {
		gz, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		raw = gz
	}

	cr := csv.NewReader(raw)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if gz != nil {
			gz.Close()
		}
		file.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for idx, name := range header {
		cols[name] = idx
	}

	return &tsvReader{file: file, gz: gz, csv: cr, cols: cols, maxCol: len(header)}, nil
}

// Next returns the next data row, or false at EOF or on error. A read error
// is held for Err; a single malformed row does not stop the stream.
func (r *tsvReader) Next() ([]string, bool) {
	for {
		row, err := r.csv.Read()
		if err == io.EOF {
			return nil, false
		}
		if err != nil {
			if _, ok := err.(*csv.ParseError); ok {
				continue
			}
			r.err = err
			return nil, false
		}
		return row, true
	}
}

func (r *tsvReader) Err() error { return r.err }

func (r *tsvReader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	return r.file.Close()
}

// field returns the named column of a row, with `\N` collapsed to empty.
func (r *tsvReader) field(row []string, name string) string {
	idx, ok := r.cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	value := row[idx]
	if value == `\N` {
		return ""
	}
	return value
}

func (r *tsvReader) intField(row []string, name string) *int {
	value := r.field(row, name)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &n
}

func (r *tsvReader) floatField(row []string, name string) *float64 {
	value := r.field(row, name)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}
