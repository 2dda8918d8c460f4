package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Invoices"

// Service appends invoice records to XLSX workbooks. Writes to the same
// destination are serialized with a per-file mutex so concurrent pipeline
// runs cannot interleave read-modify-write cycles on one workbook.
type Service struct {
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger: logger,
		locks:  map[string]*sync.Mutex{},
	}
}

func (s *Service) lockFor(dest string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[dest]
	if !ok {
		m = &sync.Mutex{}
		s.locks[dest] = m
	}
	return m
}

// Append writes one flattened invoice record to the workbook at destination,
// creating the file with a header row on first use. New columns introduced
// by later records extend the header in place.
func (s *Service) Append(ctx context.Context, destination string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dest, err := filepath.Abs(filepath.Clean(destination))
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}

	lock := s.lockFor(dest)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	keys, flat := Flatten(fields)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	f, created, err := openWorkbook(dest)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("export.workbook_close_error", "file", dest, "error", cerr)
		}
	}()

	header, err := s.syncHeader(f, keys)
	if err != nil {
		return err
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return fmt.Errorf("read sheet: %w", err)
	}
	rowIdx := len(rows) + 1

	for col, key := range header {
		val, ok := flat[key]
		if !ok || val == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, rowIdx)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, cellValue(val)); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}

	if err := f.SaveAs(dest); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	s.logger.Info("export.append.ok",
		"file", dest,
		"created", created,
		"row", rowIdx,
		"columns", len(header),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func openWorkbook(dest string) (*excelize.File, bool, error) {
	if _, err := os.Stat(dest); err == nil {
		f, err := excelize.OpenFile(dest)
		if err != nil {
			return nil, false, fmt.Errorf("open workbook: %w", err)
		}
		return f, false, nil
	}
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, false, fmt.Errorf("name sheet: %w", err)
	}
	return f, true, nil
}

// syncHeader makes sure every key has a column, appending new columns for
// keys the existing header does not carry. Returns the effective header.
func (s *Service) syncHeader(f *excelize.File, keys []string) ([]string, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}
	existing := make(map[string]bool, len(header))
	for _, h := range header {
		existing[h] = true
	}

	for _, k := range keys {
		if existing[k] {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(len(header)+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, k); err != nil {
			return nil, fmt.Errorf("write header %q: %w", k, err)
		}
		header = append(header, k)
		existing[k] = true
	}
	return header, nil
}

func cellValue(v any) any {
	switch t := v.(type) {
	case float64, float32, int, int64, string, bool:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
