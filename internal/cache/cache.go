package cache

import (
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error

	// Scan calls fn for every unexpired entry whose key has prefix, until fn returns false
	Scan(prefix string, fn func(key string, value []byte) bool) error
}

const keyPrefix = "verity:v1:"

// Key builds a namespaced cache key, e.g. Key("scan", fingerprint)
func Key(namespace, id string) string {
	return keyPrefix + namespace + ":" + id
}

// Prefix returns the key prefix shared by every entry in namespace
func Prefix(namespace string) string {
	return keyPrefix + namespace + ":"
}

// ID strips the namespace prefix from key
func ID(namespace, key string) string {
	return strings.TrimPrefix(key, Prefix(namespace))
}
