// Package cache provides a persistent store of normalized file lines so that
// unchanged files are not re-read and re-decoded between runs.
package cache

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ivoronin/repolizer/internal/types"
)

const bucketName = "lines"

// Cache provides persistent caching of normalized lines using BoltDB.
// Implements self-cleaning: each run creates a new database, only used entries survive.
// A nil *Cache behaves like a disabled one.
type Cache struct {
	readDB  *bolt.DB // Existing cache (read-only)
	writeDB *bolt.DB // New cache (write) - BoltDB locks this file
	path    string   // Final path (for atomic swap)
	enabled bool
}

// Open opens existing cache for reading and creates new cache for writing.
// BoltDB's built-in file locking on .new file prevents concurrent instances.
// Returns disabled cache if path is empty.
func Open(path string) (*Cache, error) {
	if path == "" {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	c := &Cache{path: path, enabled: true}
	var err error

	// Open existing cache for reading (if exists)
	if _, statErr := os.Stat(path); statErr == nil {
		c.readDB, err = bolt.Open(path, 0o600, &bolt.Options{
			ReadOnly: true,
			Timeout:  1 * time.Second,
		})
		if err != nil {
			// Can't open existing - continue without read cache
			c.readDB = nil
		}
	}

	newPath := path + ".new"
	c.writeDB, err = bolt.Open(newPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("create new cache (locked by another instance?): %w", err)
	}

	if err := c.writeDB.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// Enabled reports whether lookups and stores have any effect.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// Close closes both databases and atomically replaces old with new.
// Only replaces if write database closed successfully to avoid data loss.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.readDB != nil {
		if err := c.readDB.Close(); err != nil {
			errs = append(errs, err)
		}
		c.readDB = nil
	}
	if c.writeDB != nil {
		if err := c.writeDB.Close(); err != nil {
			errs = append(errs, err)
		} else if err := os.Rename(c.path+".new", c.path); err != nil {
			errs = append(errs, err)
		}
		c.writeDB = nil
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

const keyVersion byte = 1 // Increment when key or value format changes

// makeKey builds deterministic byte key for BoltDB lookup.
// Key = ver(1) + path + NUL + fileSize(8) + ino(8) + mtime(8)
func makeKey(fi *types.FileInfo) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(keyVersion)
	buf.WriteString(fi.Path)
	buf.WriteByte(0)
	_ = binary.Write(buf, binary.BigEndian, fi.Size)
	_ = binary.Write(buf, binary.BigEndian, fi.Ino)
	_ = binary.Write(buf, binary.BigEndian, fi.ModTime.UnixNano())
	return buf.Bytes()
}

// Lookup retrieves the normalized lines cached for a file.
// Key = (path, fileSize, ino, mtime) - any change = cache miss.
// On HIT: copies entry to writeDB (self-cleaning).
func (c *Cache) Lookup(fi *types.FileInfo) ([]types.Line, bool, error) {
	if !c.Enabled() || c.readDB == nil {
		return nil, false, nil
	}

	key := makeKey(fi)
	var raw []byte

	err := c.readDB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		if data := b.Get(key); data != nil {
			raw = bytes.Clone(data)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup: %w", err)
	}
	if raw == nil {
		return nil, false, nil
	}

	var lines []types.Line
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&lines); err != nil {
		return nil, false, fmt.Errorf("cache decode %s: %w", fi.Path, err)
	}

	// Self-cleaning: copy valid entry to new database
	if err := c.put(key, raw); err != nil {
		return lines, true, err
	}
	return lines, true, nil
}

// Store saves the normalized lines of a file to the new database.
func (c *Cache) Store(fi *types.FileInfo, lines []types.Line) error {
	if !c.Enabled() || c.writeDB == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(lines); err != nil {
		return fmt.Errorf("cache encode %s: %w", fi.Path, err)
	}
	return c.put(makeKey(fi), buf.Bytes())
}

func (c *Cache) put(key, value []byte) error {
	err := c.writeDB.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put(key, value)
	})
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}
