// Package cache stores compiled artifact records keyed by snippet
// digest, so re-submitting an identical snippet within a session skips
// the toolchain. The cache lives inside the session build root and is
// removed with it; nothing persists across sessions.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when Payload format changes.
const schemaVersion uint16 = 1

// Digest identifies one compile input (entry source + manifest inputs).
type Digest [sha256.Size]byte

// Key hashes the given parts into a cache digest. Parts are length-
// prefix separated so concatenation ambiguity cannot alias two inputs.
func Key(parts ...string) Digest {
	h := sha256.New()
	for _, part := range parts {
		var lenBuf [8]byte
		n := len(part)
		for i := 0; i < 8; i++ {
			lenBuf[i] = byte(n >> (8 * i))
		}
		h.Write(lenBuf[:])
		h.Write([]byte(part))
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Payload is the cached record for one successful compile.
type Payload struct {
	// Schema version for safe invalidation when the format changes.
	Schema uint16

	Name         string
	ArtifactPath string
	Library      bool

	// DepCount is informational, for session stats.
	DepCount uint32
}

// NewPayload builds a payload for a compiled snippet artifact.
func NewPayload(name, artifactPath string, library bool, deps int) (*Payload, error) {
	count, err := safecast.Conv[uint32](deps)
	if err != nil {
		return nil, err
	}
	return &Payload{
		Schema:       schemaVersion,
		Name:         name,
		ArtifactPath: artifactPath,
		Library:      library,
		DepCount:     count,
	}, nil
}

// Session is an on-disk artifact cache scoped to one console session.
// Thread-safe for concurrent access.
type Session struct {
	mu  sync.RWMutex
	dir string
}

// Open initializes the cache directory under the session build root.
func Open(buildRoot string) (*Session, error) {
	dir := filepath.Join(buildRoot, "cache")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	return &Session{dir: dir}, nil
}

func (s *Session) pathFor(key Digest) string {
	return filepath.Join(s.dir, hex.EncodeToString(key[:])+".mp")
}

// Put serializes and writes a payload, atomically replacing any
// previous record for the same key.
func (s *Session) Put(key Digest, payload *Payload) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pathFor(key)
	f, err := os.CreateTemp(s.dir, "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the payload for key. A missing record or a schema mismatch
// reports a miss, not an error.
func (s *Session) Get(key Digest, out *Payload) (bool, error) {
	if s == nil {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		_ = f.Close()
	}()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != schemaVersion {
		return false, nil
	}

	// The artifact itself may have been cleaned from under us; treat
	// that as a miss so the caller recompiles.
	if _, err := os.Stat(out.ArtifactPath); err != nil {
		return false, nil
	}
	return true, nil
}

// Clear drops every cached record.
func (s *Session) Clear() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.dir); err != nil {
		return err
	}
	return os.MkdirAll(s.dir, 0o750)
}
