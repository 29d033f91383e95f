// Package cache stores serialized search responses for reuse between requests.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cache is a byte store with per-entry expiry. Get returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// KeyRouteSearch identifies a route search against the data named by scope.
func KeyRouteSearch(scope, query, from, to string) string {
	return fmt.Sprintf("routes:search:%s:%s", scope, digest(strings.ToLower(query), strings.ToLower(from), strings.ToLower(to)))
}

// KeyOverlap identifies an overlap analysis of a path against the data named by
// scope. Coordinates are keyed at full precision: paths that round to the same
// polyline can still score differently near the threshold.
func KeyOverlap(scope string, threshold float64, path [][2]float64) string {
	parts := make([]string, 0, 2*len(path))
	for _, p := range path {
		parts = append(parts, strconv.FormatFloat(p[0], 'g', -1, 64), strconv.FormatFloat(p[1], 'g', -1, 64))
	}
	return fmt.Sprintf("routes:overlap:%s:%g:%s", scope, threshold, digest(parts...))
}

func digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// GetJSON decodes a cached value into dest. The boolean is false on a miss.
func GetJSON(ctx context.Context, c Cache, key string, dest interface{}) (bool, error) {
	data, err := c.Get(ctx, key)
	if err != nil || data == nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("json unmarshal: %w", err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, c Cache, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}
