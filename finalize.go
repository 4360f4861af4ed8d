package nexthash256

import (
	"encoding/binary"
	"runtime"
)

// pad appends Merkle-Damgard padding (a 0x80 byte, zero bytes, and the
// pre-padding bit count as an 8-byte big-endian suffix) to c. The
// padding bytes are absorbed through the ordinary Update path, so
// c.bitcount is mutated by them too — that no longer matters, since c is
// obliterated immediately after Final reads the resulting state.
func pad(c *Ctx) {
	bitlen := c.bitcount

	var padlen int
	if c.buflen < 56 {
		padlen = 56 - c.buflen
	} else {
		padlen = 120 - c.buflen
	}

	suffix := make([]byte, padlen+8)
	suffix[0] = 0x80
	binary.BigEndian.PutUint64(suffix[padlen:], bitlen)
	c.Update(suffix)
}

// finalizeFold folds the final 16-word state down to 8 words and runs
// three mixing passes over them, producing the 32-byte big-endian
// digest.
func finalizeFold(state *[numWords]uint32) [Size]byte {
	var folded [8]uint32
	for i := 0; i < 8; i++ {
		upper, lower := state[i], state[i+8]
		folded[i] = (upper ^ lower) +
			wmul(upper, rotl(lower, 13)) +
			wmul(lower, rotr(upper, 7)) +
			wmul(upper^lower, rotr(upper, 3)^rotl(lower, 11)) +
			rotr(upper^lower, uint(i+1))
	}

	for pass := 0; pass < 3; pass++ {
		var next [8]uint32
		for i := 0; i < 8; i++ {
			next[i] = folded[i] +
				wmul(folded[(i+1)%8], folded[(i+5)%8]) +
				wmul(folded[(i+2)%8], folded[(i+6)%8]) +
				rotr(folded[(i+3)%8], 7) +
				rotl(folded[(i+7)%8], 11)
		}
		folded = next
	}

	var out [Size]byte
	for i := 0; i < 8; i++ {
		binary.BigEndian.PutUint32(out[i*4:], folded[i])
	}
	return out
}

// obliterate zeroes every field of c so that intermediate hash state
// cannot leak once the context is no longer in use. The write loop plus
// runtime.KeepAlive keeps the compiler from proving the stores are dead
// and eliding them, which a plain struct reset (c = &Ctx{}) would risk
// once c's backing memory is otherwise unreachable.
func obliterate(c *Ctx) {
	for i := range c.state {
		c.state[i] = 0
	}
	c.bitcount = 0
	for i := range c.buffer {
		c.buffer[i] = 0
	}
	c.buflen = 0
	runtime.KeepAlive(c)
}
