package redis

import "fmt"

// entryKey returns the Redis key for a storage key inside the namespace
func entryKey(namespace, key string) string {
	return fmt.Sprintf("%s:session:%s", namespace, key)
}
