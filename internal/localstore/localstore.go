// Package localstore is the client-side key-value cache the state layer
// falls back to when the remote store is unreachable. Operations are
// synchronous and never partial: a Set either lands fully or not at all.
package localstore

// KV is a simple synchronous string key-value store.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// Well-known cache keys, matching the persisted snapshot layout.
const (
	KeyData          = "lababil-data"
	KeyMigrationDone = "lababil-migration-done"
)
