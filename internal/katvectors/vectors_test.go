package katvectors

import (
	"log"
	"testing"
)

func discardLogger() *log.Logger {
	return log.New(discardWriter{}, "", 0)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestDefaultsAllPass(t *testing.T) {
	s := NewSuite()
	s.LoadDefaults()

	if failed := s.RunAll(discardLogger()); failed != 0 {
		t.Fatalf("%d of %d default vectors failed", failed, len(s.vectors))
	}
	if !s.Passed() {
		t.Fatal("Passed() reported false after a clean run")
	}
}

func TestAuditDigestStable(t *testing.T) {
	a := NewSuite()
	a.LoadDefaults()
	b := NewSuite()
	b.LoadDefaults()

	if a.AuditDigest() != b.AuditDigest() {
		t.Fatal("AuditDigest is not deterministic across identical suites")
	}

	b.Add(Vector{ID: "EXTRA", Want: [32]byte{1}})
	if a.AuditDigest() == b.AuditDigest() {
		t.Fatal("AuditDigest did not change after adding a vector")
	}
}
