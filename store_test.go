package groupkey

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestGenerateStoreLoad(t *testing.T) {
	ctx := context.Background()
	id := newTestIdentity(t)
	r := newTestRing(t, id, newMemKV())

	key, err := r.Generate(testGroup, 1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(key) != 32 {
		t.Fatalf("expected 32-byte key, got %d", len(key))
	}

	if err := r.Store(ctx, testGroup, 1, key); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got, err := r.Load(ctx, testGroup, 1)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Error("loaded key does not match stored key")
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	id := newTestIdentity(t)
	r := newTestRing(t, id, newMemKV())

	if _, err := r.Generate("not-a-uuid", 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for bad group id, got %v", err)
	}
	if _, err := r.Generate(testGroup, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for zero version, got %v", err)
	}
}

func TestGenerateKeysAreUnique(t *testing.T) {
	id := newTestIdentity(t)
	r := newTestRing(t, id, newMemKV())

	a, err := r.Generate(testGroup, 1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	b, err := r.Generate(testGroup, 2)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("two generated keys are identical")
	}
}

func TestLoadMissing(t *testing.T) {
	ctx := context.Background()
	id := newTestIdentity(t)
	r := newTestRing(t, id, newMemKV())

	if _, err := r.Load(ctx, testGroup, 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadExpired(t *testing.T) {
	ctx := context.Background()
	id := newTestIdentity(t)
	clock := newFakeClock()
	r := newTestRing(t, id, newMemKV(), WithClock(clock.Now), WithKeyTTL(time.Hour))

	key, err := r.Generate(testGroup, 1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if err := r.Store(ctx, testGroup, 1, key); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	clock.Advance(2 * time.Hour)

	if _, err := r.Load(ctx, testGroup, 1); !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
}

func TestLoadUnavailableKey(t *testing.T) {
	ctx := context.Background()
	id := newTestIdentity(t)
	kv := newMemKV()
	r := newTestRing(t, id, kv)

	key, err := r.Generate(testGroup, 1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if err := r.Store(ctx, testGroup, 1, key); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	// Corrupt the sealed blob in place.
	kv.recs[testGroup][1].Blob[1600] ^= 0x01

	_, err = r.Load(ctx, testGroup, 1)
	if !errors.Is(err, ErrCryptoFailure) {
		t.Errorf("expected ErrCryptoFailure, got %v", err)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unavailable key must also match ErrNotFound, got %v", err)
	}
}

func TestLoadActivePicksGreatestUnexpired(t *testing.T) {
	ctx := context.Background()
	id := newTestIdentity(t)
	clock := newFakeClock()
	r := newTestRing(t, id, newMemKV(), WithClock(clock.Now), WithKeyTTL(time.Hour))

	// Version 1 will be expired by the time we read.
	key1, _ := r.Generate(testGroup, 1)
	if err := r.Store(ctx, testGroup, 1, key1); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	clock.Advance(50 * time.Minute)
	key2, _ := r.Generate(testGroup, 2)
	if err := r.Store(ctx, testGroup, 2, key2); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	key3, _ := r.Generate(testGroup, 3)
	if err := r.Store(ctx, testGroup, 3, key3); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	clock.Advance(30 * time.Minute)

	got, version, err := r.LoadActive(ctx, testGroup)
	if err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}
	if version != 3 {
		t.Errorf("expected active version 3, got %d", version)
	}
	if !bytes.Equal(got, key3) {
		t.Error("active key does not match version 3")
	}
}

func TestLoadActiveNoKeys(t *testing.T) {
	ctx := context.Background()
	id := newTestIdentity(t)
	r := newTestRing(t, id, newMemKV())

	if _, _, err := r.LoadActive(ctx, testGroup); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadActiveAllExpired(t *testing.T) {
	ctx := context.Background()
	id := newTestIdentity(t)
	clock := newFakeClock()
	r := newTestRing(t, id, newMemKV(), WithClock(clock.Now), WithKeyTTL(time.Hour))

	key, _ := r.Generate(testGroup, 1)
	if err := r.Store(ctx, testGroup, 1, key); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	clock.Advance(2 * time.Hour)

	if _, _, err := r.LoadActive(ctx, testGroup); !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
}

func TestCurrentVersionIgnoresExpiry(t *testing.T) {
	ctx := context.Background()
	id := newTestIdentity(t)
	clock := newFakeClock()
	r := newTestRing(t, id, newMemKV(), WithClock(clock.Now), WithKeyTTL(time.Hour))

	key, _ := r.Generate(testGroup, 9)
	if err := r.Store(ctx, testGroup, 9, key); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	clock.Advance(48 * time.Hour)

	version, err := r.CurrentVersion(ctx, testGroup)
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != 9 {
		t.Errorf("expected version 9, got %d", version)
	}
}

func TestCurrentVersionMissing(t *testing.T) {
	ctx := context.Background()
	id := newTestIdentity(t)
	r := newTestRing(t, id, newMemKV())

	if _, err := r.CurrentVersion(ctx, testGroup); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	id := newTestIdentity(t)
	clock := newFakeClock()
	r := newTestRing(t, id, newMemKV(), WithClock(clock.Now), WithKeyTTL(time.Hour))

	key1, _ := r.Generate(testGroup, 1)
	if err := r.Store(ctx, testGroup, 1, key1); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	clock.Advance(50 * time.Minute)
	key2, _ := r.Generate(testGroup, 2)
	if err := r.Store(ctx, testGroup, 2, key2); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	clock.Advance(30 * time.Minute)

	count, err := r.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 swept record, got %d", count)
	}

	if _, err := r.Load(ctx, testGroup, 2); err != nil {
		t.Errorf("unexpired record must survive sweep: %v", err)
	}
}

func TestPersistenceErrorWraps(t *testing.T) {
	ctx := context.Background()
	id := newTestIdentity(t)
	kv := newMemKV()
	kv.fail = errors.New("disk on fire")
	r := newTestRing(t, id, kv)

	_, err := r.Load(ctx, testGroup, 1)
	if !errors.Is(err, ErrPersistence) {
		t.Errorf("expected ErrPersistence, got %v", err)
	}
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PersistenceError, got %T", err)
	}
}
