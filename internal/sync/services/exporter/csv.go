package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/fedisync/blocksync/internal/sync/domain"
)

// csvHeader is the target server's bulk-import column set. Order and names
// are a hard external constraint; do not touch.
var csvHeader = []string{"domain", "severity", "public_comment", "reject_media", "reject_reports", "obfuscate"}

// WriteCSV serializes the merged set to path in the bulk-import format, one
// row per domain in sorted order, header row first. An existing file is
// overwritten.
func WriteCSV(path string, set domain.MergedBlockSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	for _, d := range set.Domains() {
		e := set.Entries[d]
		row := []string{
			e.Domain,
			e.Severity.String(),
			e.PublicComment,
			strconv.FormatBool(e.RejectMedia),
			strconv.FormatBool(e.RejectReports),
			strconv.FormatBool(e.Obfuscate),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadCSV parses a file previously produced by WriteCSV (or exported by a
// compatible server) back into a SourceList with the file path as origin.
// It verifies the header and tolerates missing boolean columns in short
// rows, since hand-edited import files frequently drop them.
func ReadCSV(path string) (domain.SourceList, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.SourceList{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return domain.SourceList{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(rows) == 0 {
		return domain.SourceList{}, fmt.Errorf("parsing %s: file is empty", path)
	}
	if err := checkHeader(rows[0]); err != nil {
		return domain.SourceList{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	list := domain.NewSourceList(path)
	for i, row := range rows[1:] {
		entry, err := rowToEntry(row)
		if err != nil {
			return domain.SourceList{}, fmt.Errorf("parsing %s row %d: %w", path, i+2, err)
		}
		list.Add(entry)
	}
	return list, nil
}

func checkHeader(row []string) error {
	if len(row) < 2 {
		return fmt.Errorf("header has %d columns, want at least 2", len(row))
	}
	for i, want := range csvHeader {
		if i >= len(row) {
			break
		}
		if row[i] != want {
			return fmt.Errorf("header column %d is %q, want %q", i+1, row[i], want)
		}
	}
	return nil
}

func rowToEntry(row []string) (domain.BlockEntry, error) {
	if len(row) < 2 {
		return domain.BlockEntry{}, fmt.Errorf("row has %d columns, want at least 2", len(row))
	}
	sev, err := domain.ParseSeverity(row[1])
	if err != nil {
		return domain.BlockEntry{}, err
	}
	entry, err := domain.NewBlockEntry(row[0], sev)
	if err != nil {
		return domain.BlockEntry{}, err
	}
	if len(row) > 2 {
		entry.PublicComment = row[2]
	}
	if entry.RejectMedia, err = columnBool(row, 3); err != nil {
		return domain.BlockEntry{}, err
	}
	if entry.RejectReports, err = columnBool(row, 4); err != nil {
		return domain.BlockEntry{}, err
	}
	if entry.Obfuscate, err = columnBool(row, 5); err != nil {
		return domain.BlockEntry{}, err
	}
	return entry, nil
}

// columnBool reads an optional boolean column; absent or empty means false.
func columnBool(row []string, idx int) (bool, error) {
	if idx >= len(row) || row[idx] == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(row[idx])
	if err != nil {
		return false, fmt.Errorf("column %d: %w", idx+1, err)
	}
	return v, nil
}
