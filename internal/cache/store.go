package cache

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"

	"github.com/tobysim/radiation/internal/audio"
)

const clipHeaderSize = 8

// Store is the two-level audio cache used by the speaker. Lookups check
// memory first, then disk; disk hits are promoted to memory.
type Store struct {
	memory *Memory
	disk   *Disk // nil when disk caching is off

	writes sync.WaitGroup
}

// Open builds a store from config. An empty DiskPath uses the user cache
// directory; a zero DiskCapacity disables the disk tier.
func Open(config Config) (*Store, error) {
	s := &Store{memory: NewMemory(config.MemoryCapacity)}
	if config.DiskCapacity <= 0 {
		return s, nil
	}

	dir := config.DiskPath
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}

	disk, err := NewDisk(dir, config.DiskCapacity, config.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk cache: %w", err)
	}
	if config.MaxAge > 0 {
		if n := disk.RemoveOlderThan(time.Now().Add(-config.MaxAge)); n > 0 {
			log.Debug("Expired cached speech", "entries", n)
		}
	}
	s.disk = disk

	return s, nil
}

// DefaultDir is the per-user audio cache directory.
func DefaultDir() (string, error) {
	dir, err := gap.NewScope(gap.User, "radiation").CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return dir, nil
}

// Get returns the cached clip for key.
func (s *Store) Get(key Key) (audio.Clip, bool) {
	id := key.String()

	if data, ok := s.memory.Get(id); ok {
		if clip, err := decodeClip(data); err == nil {
			return clip, true
		}
		s.memory.Delete(id)
	}

	if s.disk == nil {
		return audio.Clip{}, false
	}
	data, ok := s.disk.Get(id)
	if !ok {
		return audio.Clip{}, false
	}
	clip, err := decodeClip(data)
	if err != nil {
		log.Debug("Dropping corrupted cache entry", "key", id, "error", err)
		return audio.Clip{}, false
	}
	_ = s.memory.Put(id, data)
	return clip, true
}

// Put caches clip under key. The disk write happens in the background.
func (s *Store) Put(key Key, clip audio.Clip) {
	id := key.String()
	data := encodeClip(clip)

	if err := s.memory.Put(id, data); err != nil && err != ErrItemTooLarge {
		log.Debug("Memory cache put failed", "error", err)
	}

	if s.disk == nil {
		return
	}
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		if err := s.disk.Put(id, data); err != nil {
			log.Debug("Disk cache put failed", "key", id, "error", err)
		}
	}()
}

// Stats returns the memory and disk tier statistics.
func (s *Store) Stats() (memory, disk Stats) {
	memory = s.memory.Stats()
	if s.disk != nil {
		disk = s.disk.Stats()
	}
	return memory, disk
}

// Close waits for pending writes and saves the disk index.
func (s *Store) Close() error {
	s.writes.Wait()
	if s.disk == nil {
		return nil
	}
	if err := s.disk.Close(); err != nil {
		return fmt.Errorf("failed to close disk cache: %w", err)
	}
	return nil
}

func encodeClip(clip audio.Clip) []byte {
	out := make([]byte, clipHeaderSize+len(clip.Data))
	binary.LittleEndian.PutUint32(out[0:], uint32(clip.Format.SampleRate))
	binary.LittleEndian.PutUint16(out[4:], uint16(clip.Format.Channels))
	copy(out[clipHeaderSize:], clip.Data)
	return out
}

func decodeClip(data []byte) (audio.Clip, error) {
	if len(data) < clipHeaderSize {
		return audio.Clip{}, ErrCacheCorrupted
	}
	clip := audio.Clip{
		Format: audio.Format{
			SampleRate: int(binary.LittleEndian.Uint32(data[0:])),
			Channels:   int(binary.LittleEndian.Uint16(data[4:])),
		},
		Data: data[clipHeaderSize:],
	}
	if err := clip.Validate(); err != nil {
		return audio.Clip{}, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
	}
	return clip, nil
}
