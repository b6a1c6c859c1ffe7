package cache

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	indexName = "cache.index"
	// entries smaller than this are stored raw
	compressThreshold = 1024
)

// Disk stores entries as files under a directory with an optional zstd
// layer. An index of entries is persisted on Close.
type Disk struct {
	dir      string
	capacity int64
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*diskEntry

	mu    sync.Mutex
	stats Stats
}

type diskEntry struct {
	Key        string
	File       string
	Size       int64 // bytes on disk
	Created    time.Time
	LastAccess time.Time
	Compressed bool
}

// NewDisk opens or creates a disk cache in dir. compressionLevel 0
// disables compression.
func NewDisk(dir string, capacity int64, compressionLevel int) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	d := &Disk{
		dir:      dir,
		capacity: capacity,
		index:    make(map[string]*diskEntry),
	}

	if compressionLevel > 0 {
		var err error
		d.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		d.decoder, err = zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
	}

	// A missing or unreadable index just means an empty cache.
	if err := d.loadIndex(); err != nil {
		d.index = make(map[string]*diskEntry)
	}
	for _, e := range d.index {
		d.size += e.Size
	}

	return d, nil
}

// Get reads key from disk.
func (d *Disk) Get(key string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.index[key]
	if !ok {
		d.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(entry.File)
	if err == nil && entry.Compressed {
		if d.decoder == nil {
			err = ErrCacheCorrupted
		} else {
			data, err = d.decoder.DecodeAll(data, nil)
		}
	}
	if err != nil {
		d.removeEntry(entry)
		d.stats.Misses++
		return nil, false
	}

	entry.LastAccess = time.Now()
	d.stats.Hits++
	return data, true
}

// Put writes value to disk under key.
func (d *Disk) Put(key string, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, compressed := value, false
	if d.encoder != nil && len(value) > compressThreshold {
		if packed := d.encoder.EncodeAll(value, nil); len(packed) < len(value) {
			data, compressed = packed, true
		}
	}

	n := int64(len(data))
	if n > d.capacity {
		return ErrItemTooLarge
	}

	if existing, ok := d.index[key]; ok {
		d.removeEntry(existing)
	}
	for d.size+n > d.capacity && len(d.index) > 0 {
		d.evictOldest()
	}

	file := filepath.Join(d.dir, key+".cache")
	if err := writeFileAtomic(file, data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	now := time.Now()
	d.index[key] = &diskEntry{
		Key:        key,
		File:       file,
		Size:       n,
		Created:    now,
		LastAccess: now,
		Compressed: compressed,
	}
	d.size += n
	return nil
}

// RemoveOlderThan drops entries created before cutoff.
func (d *Disk) RemoveOlderThan(cutoff time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for _, e := range d.index {
		if e.Created.Before(cutoff) {
			d.removeEntry(e)
			removed++
		}
	}
	return removed
}

// Stats returns cache statistics.
func (d *Disk) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := d.stats
	stats.Capacity = d.capacity
	stats.Size = d.size
	stats.Items = int64(len(d.index))
	return stats
}

// Close persists the index.
func (d *Disk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.encoder != nil {
		_ = d.encoder.Close()
	}
	if d.decoder != nil {
		d.decoder.Close()
	}
	return d.saveIndex()
}

func (d *Disk) removeEntry(e *diskEntry) {
	_ = os.Remove(e.File)
	delete(d.index, e.Key)
	d.size -= e.Size
}

func (d *Disk) evictOldest() {
	entries := make([]*diskEntry, 0, len(d.index))
	for _, e := range d.index {
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastAccess.Before(entries[j].LastAccess)
	})

	d.removeEntry(entries[0])
	d.stats.Evictions++
	d.stats.LastEvict = time.Now()
}

func (d *Disk) loadIndex() error {
	f, err := os.Open(filepath.Join(d.dir, indexName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer func() { _ = f.Close() }()

	if err := gob.NewDecoder(f).Decode(&d.index); err != nil {
		return err
	}

	// Drop entries whose file has gone missing.
	for k, e := range d.index {
		if _, err := os.Stat(e.File); err != nil {
			delete(d.index, k)
		}
	}
	return nil
}

func (d *Disk) saveIndex() error {
	f, err := os.CreateTemp(d.dir, indexName+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()

	err = gob.NewEncoder(f).Encode(d.index)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, filepath.Join(d.dir, indexName))
}

// writeFileAtomic writes to a temp file first, then renames.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
