package nexthash256

import (
	"bytes"
	"encoding/hex"
	"math/rand"
	"strings"
	"testing"
)

func mustDecode(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex literal %q: %v", s, err)
	}
	return b
}

func TestKnownAnswers(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want string
	}{
		{"empty", []byte(""), "358285dfcac6757d8fde93327ff754a1f0a8baf8582c28664dfcfefaf609e70b"},
		{"abc", []byte("abc"), "2522d5fef2a05ae3db9574af7623611cc029e99226b408a0d036df03a333c1b8"},
		{"fox", []byte("The quick brown fox jumps over the lazy dog"), "23f979d42679cee10a12de96eebf8af2073ae52dd543bfd70d80d9450c6d4d59"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Sum256(c.in)
			want := mustDecode(t, c.want)
			if !bytes.Equal(got[:], want) {
				t.Fatalf("Sum256(%q) = %x, want %s", c.in, got, c.want)
			}
		})
	}
}

func TestKnownAnswerMillionA(t *testing.T) {
	data := bytes.Repeat([]byte("a"), 1_000_000)
	got := Sum256(data)
	want := mustDecode(t, "d2ac343e050bbf39ecea3b449f80c4558c965c089dd6b7bc1d5550986f3f422b")
	if !bytes.Equal(got[:], want) {
		t.Fatalf("Sum256(1e6 'a') = %x, want d2ac343e...", got)
	}
}

func TestHMACKnownAnswers(t *testing.T) {
	cases := []struct {
		name string
		key  []byte
		msg  []byte
		want string
	}{
		{
			"short key",
			[]byte("key"), []byte("message"),
			"91df38346f9d1355ebd10920119c62e11554c0c5acd51d720d01b10eaa348916",
		},
		{
			"oversized key",
			bytes.Repeat([]byte{0x0b}, 65), []byte("Hi There"),
			"14941b6b3d77142639b5ddb4ff8ea2fd6e62d4795e00f61913e4b5b5bd1abb3f",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := MAC(c.key, c.msg)
			want := mustDecode(t, c.want)
			if !bytes.Equal(got[:], want) {
				t.Fatalf("MAC(%x, %q) = %x, want %s", c.key, c.msg, got, c.want)
			}
		})
	}
}

// TestHMACKeyLengthBoundary covers key lengths straddling the §4.8
// key-compression threshold (len(k) > BlockSize), including the
// exact-fill case len(k) == BlockSize, which must NOT be compressed.
// Expected values come from an independent reference implementation,
// not from this package.
func TestHMACKeyLengthBoundary(t *testing.T) {
	msg := []byte("boundary message")
	cases := []struct {
		keyLen int
		want   string
	}{
		{0, "2beed429adb42ea31bdca7bf08ed64185ab674f96a666408946ed65791562d9b"},
		{1, "e9a08e0147d5787ad6dd69848e10bfc199bcab68ea2e6d21cf0100f202cf3d97"},
		{63, "2f63404f364348046ed7aa44a2353d1fbe3e00d26bb14f8c2a79ed22480caae0"},
		{64, "c07870d6c49c2183b0cb21e00e1f32cec8e859cf2bd6678ab5fc7584adea1bf5"},
		{65, "b7639c5a272f8f74e65a098ef19b25932043d6d77f6c41ddcd1c13a332887035"},
		{256, "77c91d9a034d553659508f79a2cd8f8c7745f958b23d97d7d29625fedfec639a"},
	}

	for _, c := range cases {
		key := make([]byte, c.keyLen)
		for i := range key {
			key[i] = byte(i + 1)
		}
		got := MAC(key, msg)
		want := mustDecode(t, c.want)
		if !bytes.Equal(got[:], want) {
			t.Fatalf("key length %d: MAC = %x, want %s", c.keyLen, got, c.want)
		}

		// len(k) > BlockSize must be equivalent to using Sum256(k) as
		// the key; len(k) <= BlockSize must not be.
		digest := Sum256(key)
		compressedEquiv := MAC(digest[:], msg) == got
		if wantCompressed := c.keyLen > BlockSize; compressedEquiv != wantCompressed {
			t.Fatalf("key length %d: compressed-key equivalence = %v, want %v", c.keyLen, compressedEquiv, wantCompressed)
		}
	}
}

// TestHMACOversizedKeyEquivalence checks §4.8's rule directly: a key
// longer than the block size is equivalent to its own digest.
func TestHMACOversizedKeyEquivalence(t *testing.T) {
	longKey := bytes.Repeat([]byte{0x0b}, 65)
	msg := []byte("Hi There")

	compressed := Sum256(longKey)
	a := MAC(longKey, msg)
	b := MAC(compressed[:], msg)
	if a != b {
		t.Fatalf("MAC with oversized key %x != MAC with its digest %x", a, b)
	}
}

func TestEmptyUpdateIsNoOp(t *testing.T) {
	var c1, c2 Ctx
	c1.Init()
	c2.Init()
	c2.Update(nil)
	c2.Update([]byte{})

	var out1, out2 [Size]byte
	c1.Final(&out1)
	c2.Final(&out2)
	if out1 != out2 {
		t.Fatalf("zero-length updates changed the digest: %x != %x", out1, out2)
	}
}

func TestFinalObliteratesContext(t *testing.T) {
	var c Ctx
	c.Init()
	c.Update([]byte("obliterate me"))
	var out [Size]byte
	c.Final(&out)

	if c.state != ([numWords]uint32{}) {
		t.Fatalf("state not zeroed after Final: %v", c.state)
	}
	if c.bitcount != 0 {
		t.Fatalf("bitcount not zeroed after Final: %d", c.bitcount)
	}
	if c.buflen != 0 {
		t.Fatalf("buflen not zeroed after Final: %d", c.buflen)
	}
	for i, b := range c.buffer {
		if b != 0 {
			t.Fatalf("buffer[%d] not zeroed after Final: %x", i, b)
		}
	}
}

func TestSumDoesNotMutateHash(t *testing.T) {
	h := New()
	h.Write([]byte("partial"))
	first := h.Sum(nil)
	second := h.Sum(nil)
	if !bytes.Equal(first, second) {
		t.Fatalf("Sum is not idempotent: %x != %x", first, second)
	}

	h.Write([]byte(" more"))
	third := h.Sum(nil)
	if bytes.Equal(first, third) {
		t.Fatalf("writing more data after Sum had no effect")
	}

	want := Sum256([]byte("partial more"))
	if !bytes.Equal(third, want[:]) {
		t.Fatalf("continued hash.Hash stream = %x, want %x", third, want)
	}
}

// TestStreamingMatchesOneShot exercises arbitrary Write-call splits
// against the one-shot digest, across a range of lengths straddling
// block and padding boundaries.
func TestStreamingMatchesOneShot(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(300)
		data := make([]byte, n)
		rng.Read(data)

		want := Sum256(data)

		h := New()
		rest := data
		for len(rest) > 0 {
			chunk := 1 + rng.Intn(len(rest))
			h.Write(rest[:chunk])
			rest = rest[chunk:]
		}
		got := h.Sum(nil)
		if !bytes.Equal(got, want[:]) {
			t.Fatalf("trial %d (len %d): streaming = %x, want %x", trial, n, got, want)
		}
	}
}

func TestExpandEndianness(t *testing.T) {
	var block [BlockSize]byte
	block[0], block[1], block[2], block[3] = 0x00, 0x01, 0x02, 0x03

	w := expand(&block)
	if w[0] != 0x00010203 {
		t.Fatalf("W[0] = %#08x, want 0x00010203", w[0])
	}
}

// TestBoundaryLengths exercises the single-block/two-block padding
// boundary lengths called out for the digest (0, 1, 55, 56, 63, 64, 65,
// 119, 120, 127, 128 bytes), each checked against a digest computed by
// an independent reference implementation of section 4 of the
// specification, not against arithmetic duplicated from this package.
func TestBoundaryLengths(t *testing.T) {
	cases := []struct {
		length int
		want   string
	}{
		{0, "358285dfcac6757d8fde93327ff754a1f0a8baf8582c28664dfcfefaf609e70b"},
		{1, "8ce91b75d0f3510d0a0ff0d51ae1318d96607bf6b1ac837585345e609d8619e4"},
		{55, "56fa420925d81432939b08a7284af24fd9d29f17641ebb98358d16583aa1e62d"},
		{56, "4f6d73f5bc65dc1b4230e8536ad414a40a311464dde32e971ad1eeefcd1a0166"},
		{63, "b39ccd30a57ccd24ae92e8fb4ca189bc40f9d5c8861967e755e14abbbf896c88"},
		{64, "df838b1f326152384b78066e33c60199c0a3f612ff0bd227d3057dca0ae18fff"},
		{65, "f1a740204c3b3fccc50e59b5b93447701c0334b75d5a4f25dbac6119e857a769"},
		{119, "3b91f598f5eafafccc9b9385c5e3e3bbf65b02782fa8574e8692f9a1092f3a52"},
		{120, "abe7317f71bb73da8e0b95ac48b048bb8f4625f06a7b1036af0e3193c4131bcf"},
		{127, "30e3b10091938c05fff0a5f4833b588d726aa2367697c82f78b75b2fd97a9461"},
		{128, "c2edac46e4f2499c22f452dff23e010a734502457de75b29b797a54bd0228c74"},
	}

	for _, c := range cases {
		msg := make([]byte, c.length)
		for i := range msg {
			msg[i] = byte(i)
		}
		got := Sum256(msg)
		want := mustDecode(t, c.want)
		if !bytes.Equal(got[:], want) {
			t.Fatalf("length %d: Sum256 = %x, want %s", c.length, got, c.want)
		}
	}
}

func TestSum256MatchesHashHash(t *testing.T) {
	msg := []byte(strings.Repeat("gopher", 37))
	a := Sum256(msg)
	h := New()
	h.Write(msg)
	b := h.Sum(nil)
	if !bytes.Equal(a[:], b) {
		t.Fatalf("Sum256 and hash.Hash disagree: %x != %x", a, b)
	}
}

func TestDigestSizeAndBlockSize(t *testing.T) {
	h := New()
	if h.Size() != Size {
		t.Fatalf("Size() = %d, want %d", h.Size(), Size)
	}
	if h.BlockSize() != BlockSize {
		t.Fatalf("BlockSize() = %d, want %d", h.BlockSize(), BlockSize)
	}
}
