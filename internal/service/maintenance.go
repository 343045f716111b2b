package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jask/cortracker/internal/cor"
)

// Clearer removes the persisted collection.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Replacer swaps the in-memory collection.
type Replacer interface {
	ReplaceAll(records []cor.Record)
}

// MaintenanceService houses destructive actions surfaced through the CLI.
type MaintenanceService struct {
	Storage Clearer
	Store   Replacer
	Seed    func(now time.Time) []cor.Record
}

// Reset wipes the persisted collection and reloads the store with the seed
// set, or with nothing when withSeed is false.
func (s *MaintenanceService) Reset(ctx context.Context, withSeed bool, now time.Time) error {
	if s.Storage == nil || s.Store == nil {
		return fmt.Errorf("maintenance: storage not configured")
	}
	if err := s.Storage.Clear(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	records := []cor.Record{}
	if withSeed && s.Seed != nil {
		records = s.Seed(now)
	}
	s.Store.ReplaceAll(records)
	return nil
}
