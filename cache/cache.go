// Package cache is the in-process session store: accumulated evidence,
// progress snapshots and analysis results live here under namespaced keys
// with a TTL, so abandoned sessions age out on their own.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Key namespaces. A session's evidence lives under the bare id; derived
// artifacts get a prefix.
const (
	progressPrefix = "progress:"
	reportPrefix   = "report:"
	resultPrefix   = "analysis_result:"
)

// SessionCache stores JSON blobs keyed by session id with a default TTL.
type SessionCache struct {
	store *gocache.Cache
	ttl   time.Duration
}

// NewSessionCache creates a cache whose entries expire after ttl.
func NewSessionCache(ttl time.Duration) *SessionCache {
	return &SessionCache{
		store: gocache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

// Put marshals value and stores it under key with the default TTL.
func (c *SessionCache) Put(key string, value any) error {
	blob, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	c.store.Set(key, blob, c.ttl)
	return nil
}

// Get unmarshals the value stored under key into dst. The boolean reports
// whether the key existed.
func (c *SessionCache) Get(key string, dst any) (bool, error) {
	raw, found := c.store.Get(key)
	if !found {
		return false, nil
	}
	blob, ok := raw.([]byte)
	if !ok {
		return false, fmt.Errorf("unexpected cache value type for %s", key)
	}
	if err := json.Unmarshal(blob, dst); err != nil {
		return false, fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return true, nil
}

// Delete removes key. Deleting a missing key is a no-op.
func (c *SessionCache) Delete(key string) {
	c.store.Delete(key)
}

// ProgressKey namespaces a session id for its progress snapshot.
func ProgressKey(sessionID string) string { return progressPrefix + sessionID }

// ReportKey namespaces a session id for its canonical report data.
func ReportKey(sessionID string) string { return reportPrefix + sessionID }

// ResultKey namespaces a session id for its completed-run payload.
func ResultKey(sessionID string) string { return resultPrefix + sessionID }
