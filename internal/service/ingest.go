package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jask/cortracker/internal/cor"
	"github.com/jask/cortracker/internal/csvcodec"
	"github.com/jask/cortracker/internal/logger"
)

// ErrImportFailed is the single user-facing import failure. The underlying
// cause is wrapped for logs.
var ErrImportFailed = errors.New("import failed")

// Importer receives decoded records ahead of the existing collection.
type Importer interface {
	Import(records []cor.Record)
}

// ImportService reads CSV exports back into the store.
type ImportService struct {
	Store Importer
	Log   *logger.Logger
	// OnImported, when set, is told how many records each import added.
	OnImported func(n int)
	Now        func() time.Time
}

// ImportResult reports what an import added.
type ImportResult struct {
	Imported int
}

// ImportFile reads and imports the CSV file at path. On any read failure the
// store is left untouched.
func (s *ImportService) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return s.fail(path, err)
	}
	defer f.Close()
	return s.importFrom(ctx, path, f)
}

// ImportReader imports CSV text from r.
func (s *ImportService) ImportReader(ctx context.Context, r io.Reader) (ImportResult, error) {
	return s.importFrom(ctx, "reader", r)
}

func (s *ImportService) importFrom(ctx context.Context, source string, r io.Reader) (ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return s.fail(source, err)
	}
	records, err := csvcodec.DecodeReader(r, s.now())
	if err != nil {
		return s.fail(source, err)
	}
	if err := ctx.Err(); err != nil {
		return s.fail(source, err)
	}
	s.Store.Import(records)
	if s.OnImported != nil {
		s.OnImported(len(records))
	}
	s.log().Info("imported records", "source", source, "count", len(records))
	return ImportResult{Imported: len(records)}, nil
}

func (s *ImportService) fail(source string, cause error) (ImportResult, error) {
	s.log().Warn("import failed", "source", source, "error", cause)
	return ImportResult{}, fmt.Errorf("%w: %w", ErrImportFailed, cause)
}

func (s *ImportService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *ImportService) log() *logger.Logger {
	if s.Log == nil {
		return logger.Nop()
	}
	return s.Log
}
