package io

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/causetree/causetree/pkg/errors"
	"github.com/causetree/causetree/pkg/table"
)

var (
	recordHeader      = []string{"code", "year", "sex", "age", "count"}
	descriptionHeader = []string{"code", "description"}
)

// ReadRecords decodes a count table from r.
//
// The input must carry the header "code,year,sex,age,count". Every data row
// becomes one [table.RawRecord]; counts must be non-negative integers.
// Errors identify the offending line. ReadRecords does not close r.
func ReadRecords(r io.Reader) ([]table.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	if err := readHeader(cr, recordHeader); err != nil {
		return nil, err
	}

	var records []table.RawRecord
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "line %d", line)
		}

		year, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "line %d: bad year %q", line, fields[1])
		}
		sex, err := table.ParseSex(fields[2])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "line %d", line)
		}
		count, err := strconv.Atoi(strings.TrimSpace(fields[4]))
		if err != nil || count < 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "line %d: bad count %q", line, fields[4])
		}

		records = append(records, table.RawRecord{
			Code:    strings.TrimSpace(fields[0]),
			Year:    year,
			Sex:     sex,
			AgeBand: strings.TrimSpace(fields[3]),
			Count:   count,
		})
	}
}

// ImportRecords reads a count table from the CSV file at path.
func ImportRecords(path string) ([]table.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadRecords(f)
}

// ReadDescriptions decodes a code-to-description table from r.
//
// The input must carry the header "code,description". Duplicate codes are
// rejected: a description table with two entries for one code is ambiguous
// and points at a broken mapping source.
func ReadDescriptions(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	if err := readHeader(cr, descriptionHeader); err != nil {
		return nil, err
	}

	descs := make(map[string]string)
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if err == io.EOF {
			return descs, nil
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "line %d", line)
		}

		code := strings.TrimSpace(fields[0])
		if code == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "line %d: empty code", line)
		}
		if _, ok := descs[code]; ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "line %d: duplicate code %q", line, code)
		}
		descs[code] = strings.TrimSpace(fields[1])
	}
}

// ImportDescriptions reads a description table from the CSV file at path.
func ImportDescriptions(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDescriptions(f)
}

// readHeader consumes and validates the header row.
func readHeader(cr *csv.Reader, want []string) error {
	fields, err := cr.Read()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read header")
	}
	if len(fields) != len(want) {
		return errors.New(errors.ErrCodeInvalidInput, "header has %d columns, want %d", len(fields), len(want))
	}
	for i, col := range want {
		if strings.ToLower(strings.TrimSpace(fields[i])) != col {
			return errors.New(errors.ErrCodeInvalidInput, "header column %d is %q, want %q", i+1, fields[i], col)
		}
	}
	return nil
}
