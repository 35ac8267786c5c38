// Package vault keeps marketplace credentials encrypted at rest.
package vault

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	json "github.com/json-iterator/go"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/xkilldash9x/listpilot/api/schemas"
)

const (
	keySize   = 32
	nonceSize = 24
)

var (
	ErrNoKey       = errors.New("credential key is not set; run 'listpilot credentials keygen' and export LISTPILOT_CREDENTIAL_KEY")
	ErrInvalidKey  = errors.New("credential key must be base64 encoding of 32 bytes")
	ErrNotFound    = errors.New("no credentials stored for platform")
	ErrDecryption  = errors.New("credential store could not be decrypted with the configured key")
	ErrCorruptFile = errors.New("credential store is truncated or corrupt")
)

// Vault is a secretbox-sealed JSON map of platform to credentials.
type Vault struct {
	path string
	key  *[keySize]byte
	mu   sync.Mutex
}

// GenerateKey returns a fresh base64 encoded key.
func GenerateKey() (string, error) {
	var k [keySize]byte
	if _, err := io.ReadFull(rand.Reader, k[:]); err != nil {
		return "", fmt.Errorf("failed to read random key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(k[:]), nil
}

// ParseKey decodes a key produced by GenerateKey.
func ParseKey(encoded string) (*[keySize]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, ErrNoKey
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) != keySize {
		return nil, ErrInvalidKey
	}
	var k [keySize]byte
	copy(k[:], raw)
	return &k, nil
}

// Open returns a vault backed by path. The file need not exist yet.
func Open(path, encodedKey string) (*Vault, error) {
	key, err := ParseKey(encodedKey)
	if err != nil {
		return nil, err
	}
	return &Vault{path: path, key: key}, nil
}

// Save stores creds for platform, replacing any previous entry.
func (v *Vault) Save(platform string, creds schemas.Credentials) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	entries, err := v.load()
	if err != nil {
		return err
	}
	entries[normalize(platform)] = creds
	return v.store(entries)
}

// Get returns the stored credentials for platform.
func (v *Vault) Get(platform string) (schemas.Credentials, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	entries, err := v.load()
	if err != nil {
		return schemas.Credentials{}, err
	}
	creds, ok := entries[normalize(platform)]
	if !ok {
		return schemas.Credentials{}, fmt.Errorf("%w '%s'", ErrNotFound, platform)
	}
	return creds, nil
}

// Platforms lists the platforms with stored credentials.
func (v *Vault) Platforms() ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	entries, err := v.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for k := range entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

func (v *Vault) load() (map[string]schemas.Credentials, error) {
	entries := map[string]schemas.Credentials{}
	sealed, err := os.ReadFile(v.path)
	if errors.Is(err, os.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential store: %w", err)
	}
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrCorruptFile
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, v.key)
	if !ok {
		return nil, ErrDecryption
	}
	if err := json.Unmarshal(plain, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	return entries, nil
}

func (v *Vault) store(entries map[string]schemas.Credentials) error {
	plain, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("failed to read nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, v.key)

	if err := os.MkdirAll(filepath.Dir(v.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}
	tmp := v.path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("failed to write credential store: %w", err)
	}
	if err := os.Rename(tmp, v.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace credential store: %w", err)
	}
	return nil
}

func normalize(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}
