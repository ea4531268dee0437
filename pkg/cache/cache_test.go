package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFileCache_GetSet(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	if err := c.Set(ctx, "key1", []byte(`{"foo":"bar"}`), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	data, ok, err := c.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !ok {
		t.Fatal("Get() returned miss for existing key")
	}
	if string(data) != `{"foo":"bar"}` {
		t.Errorf("Get() = %q, want %q", data, `{"foo":"bar"}`)
	}
}

func TestFileCache_Miss(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	defer c.Close()

	_, ok, err := c.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("Get() returned hit for missing key")
	}
}

func TestFileCache_Expiration(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	defer c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "key", []byte("value"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	if _, ok, _ := c.Get(ctx, "key"); !ok {
		t.Fatal("Get() returned miss before expiration")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Error("Get() returned hit for expired key")
	}
}

func TestFileCache_NoTTL(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	defer c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	if _, ok, _ := c.Get(ctx, "key"); !ok {
		t.Error("entry with zero TTL should never expire")
	}
}

func TestFileCache_Delete(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	defer c.Close()

	ctx := context.Background()
	_ = c.Set(ctx, "key", []byte("value"), time.Hour)

	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Error("Get() returned hit after Delete")
	}

	// Deleting a missing key is not an error.
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Error("NullCache should never store values")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("test"))
	h2 := Hash([]byte("test"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
	if Hash([]byte("other")) == h1 {
		t.Error("different inputs should produce different hashes")
	}
}

func TestRetryWithBackoff_NonRetryable(t *testing.T) {
	calls := 0
	errBoom := errors.New("boom")
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Errorf("got error %v, want %v", err, errBoom)
	}
	if calls != 1 {
		t.Errorf("non-retryable error retried %d times", calls)
	}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("got %d calls, want 1", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(errors.New("plain")) {
		t.Error("plain error should not be retryable")
	}
	if !IsRetryable(Retryable(errors.New("wrapped"))) {
		t.Error("wrapped error should be retryable")
	}
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
}
