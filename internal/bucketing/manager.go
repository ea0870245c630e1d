package bucketing

import (
	"fmt"
	"hash"
	"sync"

	"github.com/spaolacci/murmur3"
)

const DefaultBuckets = 64

// KeyHasher derives stable opaque keys from usernames so cache keys, log
// fields and published events never carry the raw name.
type KeyHasher struct {
	buckets    int
	hasherPool sync.Pool
}

func NewKeyHasher(buckets int) *KeyHasher {
	if buckets <= 0 {
		buckets = DefaultBuckets
	}
	kh := &KeyHasher{buckets: buckets}

	kh.hasherPool = sync.Pool{
		New: func() interface{} {
			return murmur3.New64()
		},
	}

	return kh
}

// UserKey returns the 16-hex-digit murmur3 key for a username.
func (kh *KeyHasher) UserKey(username string) string {
	return fmt.Sprintf("%016x", kh.getHash(username))
}

func (kh *KeyHasher) Buckets() int {
	return kh.buckets
}

// UserBucket returns a consistent bucket in [0, buckets).
func (kh *KeyHasher) UserBucket(username string) int {
	return int(kh.getHash(username) % uint64(kh.buckets))
}

func (kh *KeyHasher) getHash(key string) uint64 {
	hasher := kh.hasherPool.Get().(hash.Hash64)
	defer kh.hasherPool.Put(hasher)

	hasher.Reset()
	hasher.Write([]byte(key))
	return hasher.Sum64()
}
