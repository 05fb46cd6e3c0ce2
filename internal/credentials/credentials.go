// Package credentials implements the encrypted-at-rest credential
// store: per-field AEAD encryption keyed off a
// process secret, with a generation tag so key rotation can run
// multiple KDF parameter sets side by side. Plaintext never persists
// and decryption happens only inside the caller's in-memory scope.
package credentials

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/umt-agenthub/core/internal/errkind"
)

// Generation identifies the KDF/cipher parameter set a blob was
// sealed under. Only generationCurrent is ever used for new writes,
// and Open rejects a blob tagged with any other generation.
type Generation byte

const generationCurrent Generation = 0x01

const (
	saltSize  = 16 // 128 bits
	nonceSize = chacha20poly1305.NonceSizeX
)

// argon2 parameters for generation 0x01. Chosen for interactive use
// (credential encrypt/decrypt happens on the request path): time=1,
// memory=64MB, parallelism=4, matching the argon2 package's own
// "less sensitive" recommendation for non-password KDF use.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = chacha20poly1305.KeySize
)

// Field is one encrypted value: a generation-tagged blob containing
// salt + nonce + ciphertext, ready to persist as a single column.
type Field struct {
	Blob []byte
}

// Store seals and opens Fields using a process secret injected via
// CREDENTIAL_SECRET (config.AppConfig.CredentialProcessSecret).
type Store struct {
	processSecret []byte
}

// NewStore builds a Store from the process secret. The secret must be
// non-empty; an empty secret would make every derived key identical
// across fields, breaking the AEAD's confidentiality guarantee.
func NewStore(processSecret string) (*Store, error) {
	if processSecret == "" {
		return nil, errkind.New(errkind.Internal, "credentials: process secret is empty")
	}
	return &Store{processSecret: []byte(processSecret)}, nil
}

// Seal encrypts plaintext into a Field. The same plaintext sealed
// twice yields different blobs because the salt (and therefore the
// derived key) and the nonce are freshly random each call.
func (s *Store) Seal(plaintext string) (Field, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return Field{}, errkind.Wrap(errkind.Internal, err)
	}

	key := s.deriveKey(salt, generationCurrent)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return Field{}, errkind.Wrap(errkind.Internal, err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return Field{}, errkind.Wrap(errkind.Internal, err)
	}

	ciphertext := aead.Seal(nil, nonce, []byte(plaintext), nil)

	blob := make([]byte, 0, 1+saltSize+nonceSize+len(ciphertext))
	blob = append(blob, byte(generationCurrent))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)
	return Field{Blob: blob}, nil
}

// Open decrypts a Field back to plaintext. Callers must not log or
// cache the returned value; it is for immediate use at
// the adapter call boundary only.
func (s *Store) Open(f Field) (string, error) {
	if len(f.Blob) < 1+saltSize+nonceSize {
		return "", errkind.New(errkind.Internal, "credentials: malformed blob")
	}
	gen := Generation(f.Blob[0])
	if gen != generationCurrent {
		return "", errkind.Newf(errkind.Internal, "credentials: unsupported generation %d", gen)
	}

	salt := f.Blob[1 : 1+saltSize]
	nonce := f.Blob[1+saltSize : 1+saltSize+nonceSize]
	ciphertext := f.Blob[1+saltSize+nonceSize:]

	key := s.deriveKey(salt, gen)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", errkind.Wrap(errkind.Internal, err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errkind.Wrap(errkind.AuthN, fmt.Errorf("credentials: decrypt failed: %w", err))
	}
	return string(plaintext), nil
}

func (s *Store) deriveKey(salt []byte, gen Generation) []byte {
	switch gen {
	default:
		return argon2.IDKey(s.processSecret, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	}
}

// SealFields encrypts every entry of a plaintext field map, as
// produced by setup_platform_integration's caller-supplied
// credentials payload.
func (s *Store) SealFields(plaintext map[string]string) (map[string]Field, error) {
	out := make(map[string]Field, len(plaintext))
	for name, value := range plaintext {
		f, err := s.Seal(value)
		if err != nil {
			return nil, fmt.Errorf("credentials: seal field %q: %w", name, err)
		}
		out[name] = f
	}
	return out, nil
}

// OpenFields decrypts every entry back to plaintext, scoped to the
// caller's stack frame.
func (s *Store) OpenFields(sealed map[string]Field) (map[string]string, error) {
	out := make(map[string]string, len(sealed))
	for name, f := range sealed {
		v, err := s.Open(f)
		if err != nil {
			return nil, fmt.Errorf("credentials: open field %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}
