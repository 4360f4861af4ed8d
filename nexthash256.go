// Package nexthash256 implements NEXTHASH-256, a 256-bit Merkle-Damgard
// hash function built around a 512-bit internal state, a 52-round
// message-dependent mixing schedule, and a periodic 16-way state
// permutation. It also implements the keyed HMAC-NEXTHASH-256
// construction on top of the same primitive.
//
// There is no claim of cryptanalytic security and no interoperability
// with any pre-existing hash standard: NEXTHASH-256 is a standalone,
// structurally-specified primitive, reproduced here bit-exactly from its
// reference definition.
package nexthash256

import "hash"

// Size is the size, in bytes, of a NEXTHASH-256 digest.
const Size = 32

// BlockSize is the block size, in bytes, of NEXTHASH-256.
const BlockSize = 64

const numWords = 16   // 512-bit internal state, sixteen 32-bit words
const numSchedule = 52 // message schedule words, one per round
const numRounds = 52

// roundConstants holds the 52 fixed round constants: fractional parts of
// the cube roots of the first 52 primes.
var roundConstants = [numRounds]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5,
	0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3,
	0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc,
	0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7,
	0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13,
	0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3,
	0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5,
}

// lowerHalfMask is XORed into the round constant when forming the
// lower-half temp T3, so the two halves of each round never mix with an
// identical constant.
const lowerHalfMask = 0x5A5A5A5A

// initState holds the 16 fixed initial state words: fractional parts of
// the square roots of the first 16 primes.
var initState = [numWords]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
	0xcbbb9d5d, 0x629a292a, 0x9159015a, 0x152fecd8,
	0x67332667, 0x8eb44a87, 0xdb0c2e0d, 0x47b5481d,
}

// Ctx is the low-level NEXTHASH-256 context matching the spec-literal
// init/update/final API. Unlike the hash.Hash wrapper below, Final
// obliterates the receiver: a Ctx is single-use past Final and must not
// be reused without another call to Init.
//
// A Ctx is not safe for concurrent use. Independent Ctx values may be
// used concurrently without coordination.
type Ctx struct {
	state    [numWords]uint32
	bitcount uint64
	buffer   [BlockSize]byte
	buflen   int
}

// Init resets c to the start-of-stream state.
func (c *Ctx) Init() {
	c.state = initState
	c.bitcount = 0
	c.buflen = 0
}

// Update absorbs len(data) bytes into c. A zero-length data is a no-op
// that leaves c unchanged.
func (c *Ctx) Update(data []byte) {
	if len(data) == 0 {
		return
	}
	c.bitcount += uint64(len(data)) * 8

	if c.buflen > 0 {
		need := BlockSize - c.buflen
		if len(data) < need {
			copy(c.buffer[c.buflen:], data)
			c.buflen += len(data)
			return
		}
		copy(c.buffer[c.buflen:], data[:need])
		compress(&c.state, &c.buffer)
		data = data[need:]
		c.buflen = 0
	}

	for len(data) >= BlockSize {
		var block [BlockSize]byte
		copy(block[:], data[:BlockSize])
		compress(&c.state, &block)
		data = data[BlockSize:]
	}

	if len(data) > 0 {
		c.buflen = copy(c.buffer[:], data)
	}
}

// Final pads the absorbed stream, computes the 32-byte digest into out,
// and then obliterates c. After Final, c reads as a freshly zeroed Ctx.
func (c *Ctx) Final(out *[Size]byte) {
	pad(c)
	*out = finalizeFold(&c.state)
	obliterate(c)
}

// IsZero reports whether every field of c is at its zero value, which
// holds after Final has run and before Init has been called.
func (c *Ctx) IsZero() bool {
	if c.state != ([numWords]uint32{}) {
		return false
	}
	if c.bitcount != 0 || c.buflen != 0 {
		return false
	}
	return c.buffer == ([BlockSize]byte{})
}

// Sum256 computes the NEXTHASH-256 digest of data in one call.
func Sum256(data []byte) [Size]byte {
	var c Ctx
	c.Init()
	c.Update(data)
	var out [Size]byte
	c.Final(&out)
	return out
}

// digest adapts Ctx to the standard hash.Hash interface. Sum does not
// mutate or obliterate the receiver: it finalizes a copy, matching the
// streaming contract Go code expects (Write may continue after Sum).
type digest struct {
	ctx Ctx
}

// New returns a new hash.Hash computing the NEXTHASH-256 checksum.
func New() hash.Hash {
	d := &digest{}
	d.Reset()
	return d
}

func (d *digest) Write(p []byte) (int, error) {
	d.ctx.Update(p)
	return len(p), nil
}

func (d *digest) Sum(in []byte) []byte {
	c := d.ctx // value copy: Final below obliterates the copy, not d.ctx
	var out [Size]byte
	c.Final(&out)
	return append(in, out[:]...)
}

func (d *digest) Reset() {
	d.ctx.Init()
}

func (d *digest) Size() int { return Size }

func (d *digest) BlockSize() int { return BlockSize }
