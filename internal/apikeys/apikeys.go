// Package apikeys implements the API-key lifecycle and rate limiter:
// create/validate/rate-limit, hashing secrets with bcrypt (a salted,
// slow KDF-backed hash) rather than a bare digest.
package apikeys

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/umt-agenthub/core/internal/cache"
	"github.com/umt-agenthub/core/internal/errkind"
)

// Key is one persisted API key record. Secret is never stored; only
// SecretHash is.
type Key struct {
	KeyID      string
	BrandID    string
	Name       string
	SecretHash string
	Scopes     []string
	RateLimit  int // requests per minute
	Active     bool
	CreatedBy  string
	ExpiresAt  *time.Time
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

func (k *Key) hasScope(scope string) bool {
	if scope == "" {
		return true
	}
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

func (k *Key) expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}

// Repository persists Key records.
type Repository interface {
	Create(ctx context.Context, k *Key) error
	ListByBrand(ctx context.Context, brandID string) ([]*Key, error)
	ListActive(ctx context.Context) ([]*Key, error)
	Touch(ctx context.Context, keyID string, at time.Time) error
}

// Manager implements Create/Validate and the rate-limit check.
type Manager struct {
	repo  Repository
	cache cache.Cache // nil: rate limiting fails open
}

func NewManager(repo Repository, c cache.Cache) *Manager {
	return &Manager{repo: repo, cache: c}
}

// CreateResult carries the plaintext secret exactly once, at
// creation time.
type CreateResult struct {
	KeyID     string
	Secret    string
	Name      string
	Scopes    []string
	RateLimit int
	ExpiresAt *time.Time
}

// Create generates a ≥256-bit random secret, bcrypt-hashes it, and
// persists the record. rateLimit<=0 defaults to 60/minute.
func (m *Manager) Create(ctx context.Context, brandID, name string, scopes []string, rateLimit int, createdBy string, expiresAt *time.Time) (CreateResult, error) {
	if name == "" {
		return CreateResult{}, errkind.New(errkind.Validation, "apikeys: key_name is required")
	}
	if rateLimit <= 0 {
		rateLimit = 60
	}

	secretBytes := make([]byte, 32) // 256 bits
	if _, err := rand.Read(secretBytes); err != nil {
		return CreateResult{}, errkind.Wrap(errkind.Internal, err)
	}
	secret := hex.EncodeToString(secretBytes)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return CreateResult{}, errkind.Wrap(errkind.Internal, err)
	}

	k := &Key{
		KeyID:      uuid.NewString(),
		BrandID:    brandID,
		Name:       name,
		SecretHash: string(hash),
		Scopes:     scopes,
		RateLimit:  rateLimit,
		Active:     true,
		CreatedBy:  createdBy,
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now().UTC(),
	}
	if err := m.repo.Create(ctx, k); err != nil {
		return CreateResult{}, fmt.Errorf("apikeys: persist: %w", err)
	}

	return CreateResult{
		KeyID:     k.KeyID,
		Secret:    secret,
		Name:      k.Name,
		Scopes:    k.Scopes,
		RateLimit: k.RateLimit,
		ExpiresAt: k.ExpiresAt,
	}, nil
}

// validationCacheTTL bounds how long a successful Validate result is
// cached, keyed by the presented secret ("≤ 60s").
const validationCacheTTL = 60 * time.Second

// Validate checks presented against every active key's bcrypt hash
// (bcrypt.CompareHashAndPassword runs in constant time with respect
// to its own inputs), rejecting expired, inactive, or scope-missing
// keys. requiredScope == "" skips the scope check. A successful
// match is cached for up to validationCacheTTL, keyed by a digest of
// the presented secret (never the secret itself, to limit blast
// radius if the cache backend is ever inspected).
func (m *Manager) Validate(ctx context.Context, presented, requiredScope string) (*Key, error) {
	digest := cacheKey(presented, requiredScope)
	if m.cache != nil {
		if cached, found, _ := m.cache.Get(ctx, digest); found {
			return keyFromCacheValue(cached), nil
		}
	}

	keys, err := m.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("apikeys: list active: %w", err)
	}

	now := time.Now().UTC()
	for _, k := range keys {
		if !k.Active || k.expired(now) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(k.SecretHash), []byte(presented)) != nil {
			continue
		}
		if !k.hasScope(requiredScope) {
			return nil, errkind.New(errkind.AuthZ, "apikeys: key lacks required scope").WithMeta("scope", requiredScope)
		}

		_ = m.repo.Touch(ctx, k.KeyID, now)
		if m.cache != nil {
			_ = m.cache.Set(ctx, digest, cacheValue(k), validationCacheTTL)
		}
		return k, nil
	}
	return nil, errkind.New(errkind.AuthN, "apikeys: no active key matches presented secret")
}

// cacheKey never embeds the raw secret in the cache's key either,
// since some cache backends (Redis) persist keys in plaintext logs
// and slow-query output.
func cacheKey(presented, requiredScope string) string {
	sum := sha256.Sum256([]byte(presented + "|" + requiredScope))
	return "api_key_validation:" + hex.EncodeToString(sum[:])
}

func cacheValue(k *Key) []byte {
	return []byte(k.KeyID + "|" + k.BrandID)
}

func keyFromCacheValue(v []byte) *Key {
	s := string(v)
	for i := 0; i < len(s); i++ {
		if s[i] == '|' {
			return &Key{KeyID: s[:i], BrandID: s[i+1:], Active: true}
		}
	}
	return &Key{}
}

// RateLimitResult is Check(key)'s response shape.
type RateLimitResult struct {
	Allowed      bool
	Limit        int
	Current      int64
	Remaining    int64
	ResetAfter   time.Duration
	RateLimiting string // "enabled" or "disabled"
}

// Check increments the per-(key_id, current_minute) counter and
// reports whether the call is allowed. Without a cache backend,
// requests are allowed (fail-open)
func (m *Manager) Check(ctx context.Context, k *Key) (RateLimitResult, error) {
	if m.cache == nil {
		return RateLimitResult{Allowed: true, Limit: k.RateLimit, RateLimiting: "disabled"}, nil
	}

	now := time.Now().UTC()
	windowEnd := now.Truncate(time.Minute).Add(time.Minute)
	ttl := windowEnd.Sub(now)
	bucketKey := fmt.Sprintf("rate_limit:%s:%d", k.KeyID, now.Truncate(time.Minute).Unix())

	current, err := m.cache.Incr(ctx, bucketKey, ttl)
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("apikeys: rate counter: %w", err)
	}

	allowed := current <= int64(k.RateLimit)
	remaining := int64(k.RateLimit) - current
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{
		Allowed:      allowed,
		Limit:        k.RateLimit,
		Current:      current,
		Remaining:    remaining,
		ResetAfter:   ttl,
		RateLimiting: "enabled",
	}, nil
}
