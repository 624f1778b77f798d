package utils

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"
	"time"
)

type pendingEntry struct {
	payload   string
	expiresAt time.Time
}

// SignupStore keeps signup candidates between registration and verification.
// Redis is preferred so the handshake survives restarts and multiple
// instances; a guarded in-memory map is the single-instance fallback.
type SignupStore struct {
	mu      sync.Mutex
	entries map[string]pendingEntry
}

// NewSignupStore creates a store with an empty fallback map.
func NewSignupStore() *SignupStore {
	return &SignupStore{entries: map[string]pendingEntry{}}
}

func signupKey(token string) string {
	return "signup:pending:" + token
}

// Save stores a candidate payload with TTL, overwriting any prior entry.
func (s *SignupStore) Save(token, payload string, ttl time.Duration) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, signupKey(token), payload, ttl).Err(); err == nil {
			return
		}
	}
	s.mu.Lock()
	s.entries[token] = pendingEntry{payload: payload, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
}

// Get returns the candidate payload if present and unexpired.
func (s *SignupStore) Get(token string) (string, bool) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if val, err := rc.Get(ctx, signupKey(token)).Result(); err == nil {
			return val, true
		}
		// On redis miss or error, fall through to the memory fallback.
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[token]
	if !ok {
		return "", false
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, token)
		return "", false
	}
	return entry.payload, true
}

// Delete removes a candidate once the handshake finishes or expires.
func (s *SignupStore) Delete(token string) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rc.Del(ctx, signupKey(token)).Err()
	}
	s.mu.Lock()
	delete(s.entries, token)
	s.mu.Unlock()
}

// GenerateVerificationCode creates a numeric code with the given length.
func GenerateVerificationCode(n int) string {
	if n <= 0 {
		n = 4
	}
	digits := make([]byte, n)
	for i := 0; i < n; i++ {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// crypto/rand failure is effectively fatal elsewhere; degrade to a
			// time-derived digit rather than abort the signup.
			v = big.NewInt(time.Now().UnixNano() % 10)
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits)
}
