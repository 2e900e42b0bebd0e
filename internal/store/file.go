package store

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

// sealedMagic prefixes files written with an encryption key.
var sealedMagic = []byte("wpyvr-sealed-v1\n")

const (
	saltLen  = 16
	nonceLen = 24
)

// ErrDecrypt is returned when a sealed file cannot be opened with the
// configured key, or a sealed file is read without one.
var ErrDecrypt = errors.New("store: cannot decrypt session file")

// FileStore keeps every key in one JSON document on disk. With a non-empty
// passphrase the document is sealed with NaCl secretbox under a key derived
// by Argon2id; a fresh salt and nonce are used on every write.
type FileStore struct {
	mu         sync.Mutex
	path       string
	passphrase []byte
}

// NewFileStore returns a FileStore at path. The parent directory is created
// with 0700 permissions.
func NewFileStore(path, passphrase string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("store: create dir: %w", err)
	}
	s := &FileStore{path: path}
	if passphrase != "" {
		s.passphrase = []byte(passphrase)
	}
	return s, nil
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	v, ok := data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// Put implements Store.
func (s *FileStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}
	data[key] = append([]byte(nil), value...)
	return s.save(data)
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return s.save(data)
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) load() (map[string][]byte, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string][]byte), nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", s.path, err)
	}

	plain := raw
	if bytes.HasPrefix(raw, sealedMagic) {
		if s.passphrase == nil {
			return nil, ErrDecrypt
		}
		plain, err = s.open(raw[len(sealedMagic):])
		if err != nil {
			return nil, err
		}
	}

	data := make(map[string][]byte)
	if len(bytes.TrimSpace(plain)) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(plain, &data); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", s.path, err)
	}
	return data, nil
}

// save writes through a temp file and rename so a crash never leaves a
// truncated session file behind.
func (s *FileStore) save(data map[string][]byte) error {
	plain, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}
	out := plain
	if s.passphrase != nil {
		sealed, err := s.seal(plain)
		if err != nil {
			return err
		}
		out = append(append([]byte(nil), sealedMagic...), sealed...)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("store: temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("store: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("store: rename: %w", err)
	}
	return nil
}

func (s *FileStore) deriveKey(salt []byte) *[32]byte {
	var key [32]byte
	copy(key[:], argon2.IDKey(s.passphrase, salt, 1, 64*1024, 4, 32))
	return &key
}

// seal returns salt || nonce || secretbox(plain).
func (s *FileStore) seal(plain []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("store: salt: %w", err)
	}
	var nonce [nonceLen]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("store: nonce: %w", err)
	}
	out := append(append([]byte(nil), salt...), nonce[:]...)
	return secretbox.Seal(out, plain, &nonce, s.deriveKey(salt)), nil
}

func (s *FileStore) open(sealed []byte) ([]byte, error) {
	if len(sealed) < saltLen+nonceLen+secretbox.Overhead {
		return nil, ErrDecrypt
	}
	salt := sealed[:saltLen]
	var nonce [nonceLen]byte
	copy(nonce[:], sealed[saltLen:saltLen+nonceLen])
	plain, ok := secretbox.Open(nil, sealed[saltLen+nonceLen:], &nonce, s.deriveKey(salt))
	if !ok {
		return nil, ErrDecrypt
	}
	return plain, nil
}
