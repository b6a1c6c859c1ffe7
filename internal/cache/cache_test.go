package cache

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tobysim/radiation/internal/audio"
)

func TestMemory_LRUEviction(t *testing.T) {
	c := NewMemory(10)

	_ = c.Put("a", []byte("aaaa"))
	_ = c.Put("b", []byte("bbbb"))

	// Touch a so b becomes least recently used.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("Expected a to be cached")
	}

	_ = c.Put("c", []byte("cccc"))

	if c.Contains("b") {
		t.Error("Expected b to be evicted")
	}
	if !c.Contains("a") || !c.Contains("c") {
		t.Error("Expected a and c to remain")
	}

	stats := c.Stats()
	if stats.Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", stats.Evictions)
	}
	if stats.Size != 8 || stats.Items != 2 {
		t.Errorf("Expected size 8 with 2 items, got %d with %d", stats.Size, stats.Items)
	}
}

func TestMemory_TooLarge(t *testing.T) {
	c := NewMemory(4)
	if err := c.Put("big", []byte("12345")); !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("Expected ErrItemTooLarge, got %v", err)
	}
}

func TestMemory_Overwrite(t *testing.T) {
	c := NewMemory(100)
	_ = c.Put("k", []byte("one"))
	_ = c.Put("k", []byte("three"))

	got, ok := c.Get("k")
	if !ok || string(got) != "three" {
		t.Errorf("Expected %q, got %q", "three", got)
	}
	if size := c.Stats().Size; size != 5 {
		t.Errorf("Expected size 5, got %d", size)
	}
}

func TestDisk_CompressAndReopen(t *testing.T) {
	dir := t.TempDir()
	value := bytes.Repeat([]byte("radiation "), 1000)

	d, err := NewDisk(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	if err := d.Put("k", value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if stats := d.Stats(); stats.Size >= int64(len(value)) {
		t.Errorf("Expected compressed size below %d, got %d", len(value), stats.Size)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	d2, err := NewDisk(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer d2.Close()

	got, ok := d2.Get("k")
	if !ok {
		t.Fatal("Expected entry to survive reopen")
	}
	if !bytes.Equal(got, value) {
		t.Error("Reopened entry does not match")
	}
}

func TestDisk_EvictsOldest(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 10, 0)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	defer d.Close()

	_ = d.Put("a", []byte("aaaa"))
	time.Sleep(5 * time.Millisecond)
	_ = d.Put("b", []byte("bbbb"))
	time.Sleep(5 * time.Millisecond)
	_ = d.Put("c", []byte("cccc"))

	if _, ok := d.Get("a"); ok {
		t.Error("Expected a to be evicted")
	}
	if _, ok := d.Get("c"); !ok {
		t.Error("Expected c to be cached")
	}
}

func TestDisk_RemoveOlderThan(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 1<<10, 0)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	defer d.Close()

	_ = d.Put("old", []byte("x"))
	if n := d.RemoveOlderThan(time.Now().Add(time.Second)); n != 1 {
		t.Errorf("Expected 1 removed, got %d", n)
	}
	if d.Stats().Items != 0 {
		t.Error("Expected empty cache")
	}
}

func TestStore_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DiskPath = t.TempDir()

	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	key := Key{Engine: "mock", Voice: "Toby Fox", Rate: 120, Text: "Kris is here"}
	clip := audio.NewClip(audio.Format{SampleRate: 22050, Channels: 1}, make([]int16, 2048))

	if _, ok := s.Get(key); ok {
		t.Fatal("Expected miss on empty store")
	}
	s.Put(key, clip)

	got, ok := s.Get(key)
	if !ok {
		t.Fatal("Expected hit after Put")
	}
	if got.Format != clip.Format || !bytes.Equal(got.Data, clip.Data) {
		t.Error("Cached clip does not match")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A fresh store over the same directory is served from disk.
	s2, err := Open(cfg)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer s2.Close()
	if _, ok := s2.Get(key); !ok {
		t.Error("Expected disk hit after reopen")
	}
	if _, disk := s2.Stats(); disk.Hits != 1 {
		t.Errorf("Expected 1 disk hit, got %d", disk.Hits)
	}
}

func TestStore_MemoryOnly(t *testing.T) {
	s, err := Open(Config{MemoryCapacity: 1 << 20})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	key := Key{Engine: "mock", Text: "hi"}
	s.Put(key, audio.NewClip(audio.Format{SampleRate: 8000, Channels: 1}, []int16{1, 2}))
	if _, ok := s.Get(key); !ok {
		t.Error("Expected memory hit")
	}
	if _, disk := s.Stats(); disk.Capacity != 0 {
		t.Error("Expected no disk tier")
	}
}

func TestKey_String(t *testing.T) {
	a := Key{Engine: "piper", Voice: "v", Rate: 120, Text: "hi"}
	b := a
	b.Rate = 121

	if a.String() == b.String() {
		t.Error("Expected rate to change the key")
	}
	if len(a.String()) != 32 {
		t.Errorf("Expected 32 hex chars, got %d", len(a.String()))
	}
}

func TestStats_String(t *testing.T) {
	s := Stats{Capacity: 2048, Size: 1024, Items: 3, Hits: 1, Misses: 1}
	got := s.String()
	if !strings.Contains(got, "3 items") || !strings.Contains(got, "1.0 KiB") || !strings.Contains(got, "50% hits") {
		t.Errorf("Unexpected stats summary %q", got)
	}
}

func TestDecodeClip_Corrupted(t *testing.T) {
	if _, err := decodeClip([]byte{1, 2}); !errors.Is(err, ErrCacheCorrupted) {
		t.Errorf("Expected ErrCacheCorrupted, got %v", err)
	}
}
