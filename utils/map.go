package utils

// Hashable is the key interface for Map. Keys provide a fast hash code and
// an equality check used to resolve bucket collisions.
type Hashable interface {
	HashCode() uint64
	EqualI(Hashable) bool
}

type mapEntry struct {
	key Hashable
	val interface{}
}

// Map is a hash map keyed by Hashable values. The zero value is not usable;
// create one with make(Map).
type Map map[uint64][]mapEntry

func (m Map) Find(key Hashable) (interface{}, bool) {
	for _, e := range m[key.HashCode()] {
		if e.key.EqualI(key) {
			return e.val, true
		}
	}
	return nil, false
}

func (m Map) Set(key Hashable, val interface{}) {
	h := key.HashCode()
	bucket := m[h]
	for i := range bucket {
		if bucket[i].key.EqualI(key) {
			bucket[i].val = val
			return
		}
	}
	m[h] = append(bucket, mapEntry{key: key, val: val})
}

// Add inserts (key, val) and returns val, unless key already exists, in
// which case the existing value is returned unchanged.
func (m Map) Add(key Hashable, val interface{}) interface{} {
	h := key.HashCode()
	bucket := m[h]
	for i := range bucket {
		if bucket[i].key.EqualI(key) {
			return bucket[i].val
		}
	}
	m[h] = append(bucket, mapEntry{key: key, val: val})
	return val
}

func (m Map) Len() int {
	n := 0
	for _, bucket := range m {
		n += len(bucket)
	}
	return n
}
