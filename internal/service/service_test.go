package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/cortracker/internal/cor"
	"github.com/jask/cortracker/internal/csvcodec"
	"github.com/jask/cortracker/internal/filestore"
	"github.com/jask/cortracker/internal/persist"
	"github.com/jask/cortracker/internal/store"
	"github.com/jask/cortracker/internal/testdata"
)

var now = time.Date(2024, 10, 2, 15, 4, 5, 0, time.UTC)

func existing() []cor.Record {
	return []cor.Record{{ID: "old", CORNumber: "COR-OLD", Tags: []string{}}}
}

func TestImportFilePrependsRecords(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	path := filepath.Join(t.TempDir(), "in.csv")
	doc := csvcodec.HeaderLine + "\n" +
		`"COR-7","Rebar","Acme","Concrete","2024-09-01","","Submitted","high","1200","","","a|b","","7","ignored"` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	s := store.New(existing())
	var counted int
	svc := &ImportService{Store: s, Now: func() time.Time { return now }, OnImported: func(n int) { counted += n }}
	res, err := svc.ImportFile(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)
	require.Equal(t, 1, counted)

	records := s.Snapshot().Records
	require.Len(t, records, 2)
	require.Equal(t, "COR-7", records[0].CORNumber)
	require.Equal(t, cor.StatusSubmitted, records[0].Status)
	require.Equal(t, cor.PriorityHigh, records[0].Priority)
	require.Equal(t, []string{"a", "b"}, records[0].Tags)
	require.Equal(t, now, records[0].CreatedAt)
	require.Equal(t, "old", records[1].ID)
}

func TestImportFailureLeavesStoreUntouched(t *testing.T) {
	t.Parallel()

	s := store.New(existing())
	svc := &ImportService{Store: s}

	_, err := svc.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, ErrImportFailed)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = svc.ImportReader(context.Background(), iotest.ErrReader(errors.New("io")))
	require.ErrorIs(t, err, ErrImportFailed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.ImportReader(ctx, strings.NewReader(csvcodec.HeaderLine))
	require.ErrorIs(t, err, ErrImportFailed)

	require.Equal(t, uint64(0), s.Snapshot().Version)
	require.Len(t, s.Snapshot().Records, 1)
}

func TestImportHeaderOnly(t *testing.T) {
	t.Parallel()

	s := store.New(existing())
	svc := &ImportService{Store: s}
	res, err := svc.ImportReader(context.Background(), strings.NewReader(csvcodec.HeaderLine+"\n\n"))
	require.NoError(t, err)
	require.Zero(t, res.Imported)
	require.Len(t, s.Snapshot().Records, 1)
}

func TestExportFile(t *testing.T) {
	t.Parallel()

	records := testdata.Records(testdata.NewRand(3), 4, now)
	svc := &ExportService{Source: SourceFunc(func() []cor.Record { return records })}

	dir := filepath.Join(t.TempDir(), "out")
	path, err := svc.ExportFile(context.Background(), dir, now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "CORs-2024-10-02.csv"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, csvcodec.Encode(records), string(b))

	var buf bytes.Buffer
	require.NoError(t, svc.ExportTo(&buf))
	require.True(t, strings.HasPrefix(buf.String(), csvcodec.HeaderLine))
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()

	records := testdata.Records(testdata.NewRand(11), 6, now, testdata.WithAwkwardText())
	exp := &ExportService{Source: SourceFunc(func() []cor.Record { return records })}
	var buf bytes.Buffer
	require.NoError(t, exp.ExportTo(&buf))

	s := store.New(nil)
	imp := &ImportService{Store: s, Now: func() time.Time { return now }}
	res, err := imp.ImportReader(context.Background(), &buf)
	require.NoError(t, err)
	require.Equal(t, len(records), res.Imported)

	got := s.Snapshot().Records
	for i := range records {
		require.Equal(t, records[i].CORNumber, got[i].CORNumber)
		require.Equal(t, records[i].Title, got[i].Title)
		require.Equal(t, records[i].Amount, got[i].Amount)
		require.NotEqual(t, records[i].ID, got[i].ID)
	}
}

func TestMaintenanceReset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := &persist.Records{Backend: filestore.New(t.TempDir())}
	s := store.New(existing(), store.WithPersister(p))
	s.Create(cor.Draft{Title: "extra"})

	m := &MaintenanceService{Storage: p, Store: s, Seed: func(time.Time) []cor.Record {
		return []cor.Record{{ID: "s1"}, {ID: "s2"}}
	}}
	require.NoError(t, m.Reset(ctx, true, now))
	require.Len(t, s.Snapshot().Records, 2)

	require.NoError(t, m.Reset(ctx, false, now))
	require.Empty(t, s.Snapshot().Records)
	require.Empty(t, p.Load(ctx, now))

	require.Error(t, (&MaintenanceService{}).Reset(ctx, true, now))
}
