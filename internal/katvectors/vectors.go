// Package katvectors holds the known-answer test vectors for
// NEXTHASH-256 and HMAC-NEXTHASH-256 and a small suite runner that
// verifies them against the live implementation.
package katvectors

import (
	"bytes"
	"encoding/hex"
	"log"
	"strings"

	"golang.org/x/crypto/sha3"

	"nexthash256"
)

// Vector is a single known-answer test case. Key is nil for a plain
// digest vector; when set, Want is checked against MAC(Key, Message)
// instead of Sum256(Message).
type Vector struct {
	ID          string
	Description string
	Message     []byte
	Key         []byte
	Want        [nexthash256.Size]byte
}

// Suite runs a fixed set of vectors and tracks pass/fail counts.
type Suite struct {
	vectors []Vector
	passed  int
	failed  int
}

// NewSuite returns an empty suite.
func NewSuite() *Suite {
	return &Suite{vectors: make([]Vector, 0)}
}

// Add appends a vector to the suite.
func (s *Suite) Add(v Vector) {
	s.vectors = append(s.vectors, v)
}

// VectorCount returns the number of loaded vectors.
func (s *Suite) VectorCount() int {
	return len(s.vectors)
}

func hex32(s string) (out [nexthash256.Size]byte) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != nexthash256.Size {
		panic("katvectors: malformed hex vector: " + s)
	}
	copy(out[:], b)
	return out
}

// LoadDefaults populates s with the standard NEXTHASH-256 and
// HMAC-NEXTHASH-256 known-answer vectors.
func (s *Suite) LoadDefaults() {
	s.Add(Vector{
		ID:          "KAT-HASH-001",
		Description: "empty message",
		Message:     []byte(""),
		Want:        hex32("358285dfcac6757d8fde93327ff754a1f0a8baf8582c28664dfcfefaf609e70b"),
	})
	s.Add(Vector{
		ID:          "KAT-HASH-002",
		Description: `"abc"`,
		Message:     []byte("abc"),
		Want:        hex32("2522d5fef2a05ae3db9574af7623611cc029e99226b408a0d036df03a333c1b8"),
	})
	s.Add(Vector{
		ID:          "KAT-HASH-003",
		Description: "quick brown fox sentence",
		Message:     []byte("The quick brown fox jumps over the lazy dog"),
		Want:        hex32("23f979d42679cee10a12de96eebf8af2073ae52dd543bfd70d80d9450c6d4d59"),
	})
	s.Add(Vector{
		ID:          "KAT-HASH-004",
		Description: "one million 'a' characters",
		Message:     bytes.Repeat([]byte("a"), 1_000_000),
		Want:        hex32("d2ac343e050bbf39ecea3b449f80c4558c965c089dd6b7bc1d5550986f3f422b"),
	})
	s.Add(Vector{
		ID:          "KAT-MAC-001",
		Description: `key="key", msg="message"`,
		Message:     []byte("message"),
		Key:         []byte("key"),
		Want:        hex32("91df38346f9d1355ebd10920119c62e11554c0c5acd51d720d01b10eaa348916"),
	})
	s.Add(Vector{
		ID:          "KAT-MAC-002",
		Description: "65-byte key exercises the key-compression path",
		Message:     []byte("Hi There"),
		Key:         bytes.Repeat([]byte{0x0b}, 65),
		Want:        hex32("14941b6b3d77142639b5ddb4ff8ea2fd6e62d4795e00f61913e4b5b5bd1abb3f"),
	})
}

// Verify checks one vector against the live implementation.
func (s *Suite) Verify(v Vector) bool {
	var got [nexthash256.Size]byte
	if v.Key != nil {
		got = nexthash256.MAC(v.Key, v.Message)
	} else {
		got = nexthash256.Sum256(v.Message)
	}
	return got == v.Want
}

// RunAll verifies every loaded vector, logging a line per vector, and
// returns the number of failures.
func (s *Suite) RunAll(logger *log.Logger) int {
	s.passed, s.failed = 0, 0
	logger.Printf("running %d known-answer vectors", len(s.vectors))

	for _, v := range s.vectors {
		ok := s.Verify(v)
		status := "PASS"
		if !ok {
			status = "FAIL"
			s.failed++
		} else {
			s.passed++
		}
		logger.Printf("%-14s %-40s %s", v.ID, v.Description, status)
	}

	logger.Printf("%d passed, %d failed, %d total", s.passed, s.failed, len(s.vectors))
	return s.failed
}

// Passed reports whether the most recent RunAll call had zero failures
// and at least one vector.
func (s *Suite) Passed() bool {
	return s.failed == 0 && len(s.vectors) > 0
}

// AuditDigest returns a SHA3-256 digest binding the suite's vector IDs
// and expected outputs together, independent of NEXTHASH-256 itself, so
// a tampered vector file can be detected without trusting the primitive
// under test.
func (s *Suite) AuditDigest() [32]byte {
	var buf strings.Builder
	for _, v := range s.vectors {
		buf.WriteString(v.ID)
		buf.Write(v.Want[:])
	}
	return sha3.Sum256([]byte(buf.String()))
}
