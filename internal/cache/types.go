package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when a stored entry cannot be decoded
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// Level identifies the tier an entry was served from.
type Level int

const (
	LevelMemory Level = iota
	LevelDisk
)

func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Stats holds cache counters for one tier.
type Stats struct {
	Capacity  int64
	Size      int64
	Items     int64
	Hits      int64
	Misses    int64
	Evictions int64
	LastEvict time.Time
}

// HitRate returns hits / (hits + misses).
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// String summarizes the stats for logs.
func (s Stats) String() string {
	return fmt.Sprintf("%d items, %s of %s, %.0f%% hits",
		s.Items,
		humanize.IBytes(uint64(max(s.Size, 0))),
		humanize.IBytes(uint64(max(s.Capacity, 0))),
		s.HitRate()*100,
	)
}

// Config holds cache configuration.
type Config struct {
	MemoryCapacity int64  `yaml:"memory_capacity" mapstructure:"memory_capacity"`
	DiskCapacity   int64  `yaml:"disk_capacity" mapstructure:"disk_capacity"`
	DiskPath       string `yaml:"dir" mapstructure:"dir"`
	// CompressionLevel is the zstd level; 0 stores entries uncompressed.
	CompressionLevel int `yaml:"compression_level" mapstructure:"compression_level"`
	// MaxAge drops disk entries older than this when the store opens; 0 keeps everything.
	MaxAge time.Duration `yaml:"max_age" mapstructure:"max_age"`
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		MemoryCapacity:   32 * 1024 * 1024,
		DiskCapacity:     256 * 1024 * 1024,
		CompressionLevel: 3,
		MaxAge:           30 * 24 * time.Hour,
	}
}

// Key identifies one synthesized utterance.
type Key struct {
	Engine string
	Voice  string
	Rate   int
	Text   string
}

// String hashes the key components into a short stable identifier.
func (k Key) String() string {
	data := fmt.Sprintf("%s|%s|%d|%s", k.Engine, k.Voice, k.Rate, k.Text)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
