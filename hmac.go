package nexthash256

import "hash"

// hmacDigest implements HMAC-NEXTHASH-256 per the standard inner/outer
// construction (block size 64, output size 32). It is not a generic
// crypto/hmac wrapper: NEXTHASH-256 is not a standard library hash, so
// the construction is reproduced directly here rather than built on top
// of crypto/hmac.New.
type hmacDigest struct {
	opad, ipad [BlockSize]byte
	inner      digest
}

// NewHMAC returns a hash.Hash computing HMAC-NEXTHASH-256 with the given
// key. Keys longer than the block size are first compressed with
// Sum256, per §4.8.
func NewHMAC(key []byte) hash.Hash {
	h := &hmacDigest{}

	k := key
	if len(k) > BlockSize {
		sum := Sum256(k)
		k = sum[:]
	}

	for i := range h.ipad {
		h.ipad[i] = 0x36
	}
	for i := range h.opad {
		h.opad[i] = 0x5C
	}
	for i := 0; i < len(k); i++ {
		h.ipad[i] ^= k[i]
		h.opad[i] ^= k[i]
	}

	h.Reset()
	return h
}

func (h *hmacDigest) Write(p []byte) (int, error) {
	return h.inner.Write(p)
}

func (h *hmacDigest) Sum(in []byte) []byte {
	inner := h.inner.Sum(nil)

	var outer digest
	outer.Reset()
	outer.Write(h.opad[:])
	outer.Write(inner)
	return outer.Sum(in)
}

func (h *hmacDigest) Reset() {
	h.inner.Reset()
	h.inner.Write(h.ipad[:])
}

func (h *hmacDigest) Size() int { return Size }

func (h *hmacDigest) BlockSize() int { return BlockSize }

// MAC computes HMAC-NEXTHASH-256(key, msg) in one call.
func MAC(key, msg []byte) [Size]byte {
	h := NewHMAC(key)
	h.Write(msg)
	var out [Size]byte
	copy(out[:], h.Sum(nil))
	return out
}
