package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jask/cortracker/internal/cor"
	"github.com/jask/cortracker/internal/csvcodec"
)

// Source provides the records to export.
type Source interface {
	Records() []cor.Record
}

// SourceFunc adapts a function to Source.
type SourceFunc func() []cor.Record

func (f SourceFunc) Records() []cor.Record { return f() }

// ExportService writes the collection as CSV.
type ExportService struct {
	Source Source
}

// ExportFileName is the dated name of an export made on day now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("CORs-%s.csv", now.Format(time.DateOnly))
}

// ExportFile writes CORs-YYYY-MM-DD.csv into dir and returns its path.
func (s *ExportService) ExportFile(ctx context.Context, dir string, now time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir export dir: %w", err)
	}
	path := filepath.Join(dir, ExportFileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export: %w", err)
	}
	if err := s.ExportTo(f); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export: %w", err)
	}
	return path, nil
}

// ExportTo writes the CSV document to w.
func (s *ExportService) ExportTo(w io.Writer) error {
	if err := csvcodec.Write(w, s.Source.Records()); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
