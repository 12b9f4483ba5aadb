package tiny

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"os"
	"path/filepath"
	"time"

	"github.com/vito/tiny/pkg/ast"
	"github.com/vito/tiny/pkg/bytecode"
	"github.com/vito/tiny/pkg/resolve"
	bolt "go.etcd.io/bbolt"
)

var programsBucket = []byte("programs")

// CacheFile is the database file name inside the cache directory.
const CacheFile = "programs.db"

// Cache stores compiled programs keyed by the tree and the names bound
// around it. It is safe for concurrent use.
type Cache struct {
	db *bolt.DB
}

// DefaultCacheDir returns the directory programs are cached in
func DefaultCacheDir() string {
	// Try XDG_CACHE_HOME first
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "tiny")
	}
	// Fall back to ~/.cache
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "tiny")
	}
	// Last resort: temp dir
	return filepath.Join(os.TempDir(), "tiny-cache")
}

// OpenCache opens (creating if needed) the cache database in dir.
func OpenCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := bolt.Open(filepath.Join(dir, CacheFile), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(programsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing cache: %w", err)
	}

	return &Cache{db: db}, nil
}

// Get returns the cached program for key, if any.
func (c *Cache) Get(key string) (bytecode.Program, bool, error) {
	var prog bytecode.Program
	err := c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(programsBucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		// data is only valid inside the transaction; Unmarshal copies it
		decoded, err := bytecode.Unmarshal(data)
		if err != nil {
			return fmt.Errorf("cached program %s: %w", key, err)
		}
		prog = decoded
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return prog, prog != nil, nil
}

func (c *Cache) Put(key string, prog bytecode.Program) error {
	data, err := prog.MarshalBinary()
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(programsBucket).Put([]byte(key), data)
	})
}

// Len returns the number of cached programs.
func (c *Cache) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(programsBucket).Stats().KeyN
		return nil
	})
	return n, err
}

// Clear removes every cached program.
func (c *Cache) Clear() error {
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(programsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(programsBucket)
		return err
	})
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// ClearCache empties the cache in dir. A missing cache is not an error.
func ClearCache(dir string) error {
	if _, err := os.Stat(filepath.Join(dir, CacheFile)); os.IsNotExist(err) {
		return nil
	}
	cache, err := OpenCache(dir)
	if err != nil {
		return err
	}
	defer cache.Close()
	return cache.Clear()
}

// CacheKey identifies the program compiled from expr under env. Two keys
// are equal only when resolution would produce the same nameless tree.
func CacheKey(expr ast.Expr, env *resolve.Env) string {
	h := sha256.New()
	writeString(h, "env")
	for _, name := range env.Names() {
		writeString(h, name)
	}
	writeExpr(h, expr)
	return hex.EncodeToString(h.Sum(nil))
}

// writeExpr hashes expr in preorder; every node kind has a fixed number of
// children, so the sequence of tags identifies the tree.
func writeExpr(h hash.Hash, expr ast.Expr) {
	ast.Walk(expr, func(node ast.Expr) bool {
		switch e := node.(type) {
		case *ast.Constant:
			writeString(h, "const")
			writeInt(h, e.Value)
		case *ast.BinaryOp:
			writeString(h, "op")
			writeInt(h, int64(e.Op))
		case *ast.Variable:
			writeString(h, "var")
			writeString(h, e.Name)
		case *ast.Let:
			writeString(h, "let")
			writeString(h, e.Name)
		default:
			writeString(h, fmt.Sprintf("%T", node))
		}
		return true
	})
}

// length-prefixed so that adjacent names can't run together
func writeString(h hash.Hash, s string) {
	writeInt(h, int64(len(s)))
	h.Write([]byte(s))
}

func writeInt(h hash.Hash, v int64) {
	h.Write(binary.AppendVarint(nil, v))
}
