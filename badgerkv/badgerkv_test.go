package badgerkv

import (
	"bytes"
	"context"
	"testing"
	"time"

	groupkey "github.com/pqmsg/groupkey-go"
)

const (
	testGroup  = "0f0e32a0-8497-4f0d-92fd-227e3b032c46"
	otherGroup = "7b9d1c34-55aa-4e0f-8c21-9d3f6a2e10bb"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return s
}

func testRecord(groupID string, version uint32, expiresIn time.Duration) *groupkey.Record {
	now := time.Unix(1700000000, 0)
	blob := bytes.Repeat([]byte{byte(version)}, 1628)
	return &groupkey.Record{
		GroupID:   groupID,
		Version:   version,
		Blob:      blob,
		CreatedAt: now,
		ExpiresAt: now.Add(expiresIn),
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	want := testRecord(testGroup, 3, time.Hour)
	if err := s.Put(ctx, want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := s.Get(ctx, testGroup, 3)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for existing record")
	}
	if got.GroupID != want.GroupID || got.Version != want.Version {
		t.Errorf("got (%s, %d), want (%s, %d)", got.GroupID, got.Version, want.GroupID, want.Version)
	}
	if !bytes.Equal(got.Blob, want.Blob) {
		t.Error("blob mismatch after round trip")
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Error("timestamp mismatch after round trip")
	}
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	got, err := s.Get(ctx, testGroup, 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing record, got %+v", got)
	}
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.Put(ctx, testRecord(testGroup, 1, time.Hour)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	updated := testRecord(testGroup, 1, 2*time.Hour)
	if err := s.Put(ctx, updated); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, err := s.Get(ctx, testGroup, 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.ExpiresAt.Equal(updated.ExpiresAt) {
		t.Error("Put must upsert the existing record")
	}
}

func TestLatest(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	got, err := s.Latest(ctx, testGroup)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil latest for empty group, got %+v", got)
	}

	for _, version := range []uint32{1, 300, 2} {
		if err := s.Put(ctx, testRecord(testGroup, version, time.Hour)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	// A record in another group must not interfere.
	if err := s.Put(ctx, testRecord(otherGroup, 999, time.Hour)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err = s.Latest(ctx, testGroup)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if got == nil || got.Version != 300 {
		t.Fatalf("expected latest version 300, got %+v", got)
	}
}

func TestScanByGroupAndAll(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, version := range []uint32{1, 2} {
		if err := s.Put(ctx, testRecord(testGroup, version, time.Hour)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	if err := s.Put(ctx, testRecord(otherGroup, 1, time.Hour)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	recs, err := s.Scan(ctx, testGroup)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("expected 2 records for group, got %d", len(recs))
	}
	for _, rec := range recs {
		if rec.GroupID != testGroup {
			t.Errorf("scan leaked record for group %s", rec.GroupID)
		}
	}

	all, err := s.Scan(ctx, "")
	if err != nil {
		t.Fatalf("Scan all failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 records in total, got %d", len(all))
	}
}

func TestDeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.Put(ctx, testRecord(testGroup, 1, time.Hour)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, testRecord(testGroup, 2, 3*time.Hour)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, testRecord(otherGroup, 1, time.Minute)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	now := time.Unix(1700000000, 0).Add(2 * time.Hour)
	count, err := s.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 deleted records, got %d", count)
	}

	survivor, err := s.Get(ctx, testGroup, 2)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if survivor == nil {
		t.Error("unexpired record must survive DeleteExpired")
	}
	gone, err := s.Get(ctx, testGroup, 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if gone != nil {
		t.Error("expired record must be deleted")
	}
}

func TestRecordsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Put(ctx, testRecord(testGroup, 7, time.Hour)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get(ctx, testGroup, 7)
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got == nil || got.Version != 7 {
		t.Fatalf("record lost across reopen: %+v", got)
	}
}
