package settings

import (
	"encoding/json"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// snapshot is an immutable copy of the settings table.
type snapshot struct {
	updatedAt time.Time
	values    map[string]json.RawMessage
}

var current atomic.Pointer[snapshot]

// StoreDBConfig replaces the in-memory snapshot of DB-backed settings.
func StoreDBConfig(updatedAt time.Time, values map[string]json.RawMessage) {
	next := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		next[key] = cloneRaw(v)
	}
	current.Store(&snapshot{updatedAt: updatedAt.UTC(), values: next})
}

// DBConfigUpdatedAt returns the newest row timestamp seen by the last refresh.
func DBConfigUpdatedAt() time.Time {
	if snap := current.Load(); snap != nil {
		return snap.updatedAt
	}
	return time.Time{}
}

// DBConfigValue returns a copy of the raw config value for a key.
func DBConfigValue(key string) (json.RawMessage, bool) {
	snap := current.Load()
	if snap == nil {
		return nil, false
	}
	val, ok := snap.values[strings.TrimSpace(key)]
	if !ok {
		return nil, false
	}
	return cloneRaw(val), true
}

// DBConfigKeys returns the stored keys in sorted order.
func DBConfigKeys() []string {
	snap := current.Load()
	if snap == nil {
		return nil
	}
	keys := make([]string, 0, len(snap.values))
	for k := range snap.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneRaw(v json.RawMessage) json.RawMessage {
	if v == nil {
		return nil
	}
	copied := make([]byte, len(v))
	copy(copied, v)
	return copied
}
