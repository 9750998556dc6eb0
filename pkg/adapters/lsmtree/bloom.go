package lsmtree

import (
	"hash/fnv"
	"math"
)

// filterCapacity and filterFalsePositiveRate size every membership
// filter the tree constructs, for a memtable or for an SSTable.
const (
	filterCapacity        = 1000
	filterFalsePositiveRate = 0.01
)

// BloomFilter is a fixed-size probabilistic set: MightContain never
// false-negatives a key that was Add-ed, but may false-positive.
type BloomFilter struct {
	bits   []bool
	nhash  uint
	nbits  uint
}

// NewBloomFilter sizes a filter for capacity items at the given
// false-positive rate, using the standard optimal-parameter formulas:
// m = ceil(-n*ln(p) / ln(2)^2), k = round(m/n * ln(2)).
func NewBloomFilter(capacity uint, falsePositiveRate float64) *BloomFilter {
	if capacity == 0 {
		capacity = 1
	}
	n := float64(capacity)
	m := math.Ceil(-n * math.Log(falsePositiveRate) / (math.Ln2 * math.Ln2))
	k := math.Round((m / n) * math.Ln2)
	if k < 1 {
		k = 1
	}
	return &BloomFilter{
		bits:  make([]bool, uint(m)),
		nhash: uint(k),
		nbits: uint(m),
	}
}

// NewDefaultBloomFilter builds a filter sized for the tree's standard
// memtable/SSTable capacity and false-positive rate.
func NewDefaultBloomFilter() *BloomFilter {
	return NewBloomFilter(filterCapacity, filterFalsePositiveRate)
}

// Add records key as present.
func (bf *BloomFilter) Add(key string) {
	h1, h2 := bf.seedHashes(key)
	for i := uint(0); i < bf.nhash; i++ {
		bf.bits[bf.index(h1, h2, i)] = true
	}
}

// MightContain reports whether key was possibly added. A false result
// is a guarantee of absence; a true result is not a guarantee of presence.
func (bf *BloomFilter) MightContain(key string) bool {
	h1, h2 := bf.seedHashes(key)
	for i := uint(0); i < bf.nhash; i++ {
		if !bf.bits[bf.index(h1, h2, i)] {
			return false
		}
	}
	return true
}

// index computes the i-th probe slot via Kirsch-Mitzenmacher double hashing.
func (bf *BloomFilter) index(h1, h2 uint64, i uint) uint {
	combined := h1 + uint64(i)*h2
	return uint(combined % uint64(bf.nbits))
}

// seedHashes derives two independent 64-bit hashes of key from FNV-1a
// and FNV-1, used to simulate an arbitrary number of hash functions.
func (bf *BloomFilter) seedHashes(key string) (uint64, uint64) {
	h1 := fnv.New64a()
	h1.Write([]byte(key))
	h2 := fnv.New64()
	h2.Write([]byte(key))
	return h1.Sum64(), h2.Sum64()
}
