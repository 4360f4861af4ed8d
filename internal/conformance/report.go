// Package conformance runs a battery of real checks against the
// NEXTHASH-256 implementation and produces a pass/fail report. Every
// Check in a Report reflects a check that was actually executed against
// live code in this process; there is no field that is simply set to
// true.
package conformance

import (
	"fmt"
	"io"
	"log"
	"time"

	"nexthash256"
	"nexthash256/internal/diagnostics"
	"nexthash256/internal/katvectors"
)

// Check is the outcome of one conformance check.
type Check struct {
	Name   string
	Passed bool
	Detail string
}

// Report is the result of running the full conformance battery.
type Report struct {
	GeneratedAt time.Time
	Checks      []Check
}

// Score returns the percentage of checks that passed, 0 if no checks
// ran.
func (r *Report) Score() int {
	if len(r.Checks) == 0 {
		return 0
	}
	passed := 0
	for _, c := range r.Checks {
		if c.Passed {
			passed++
		}
	}
	return passed * 100 / len(r.Checks)
}

// AllPassed reports whether every check in the report passed and at
// least one check ran.
func (r *Report) AllPassed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return len(r.Checks) > 0
}

func (r *Report) add(name string, passed bool, detail string) {
	r.Checks = append(r.Checks, Check{Name: name, Passed: passed, Detail: detail})
}

// Run executes the full conformance battery and returns a Report.
func Run(logger *log.Logger) *Report {
	r := &Report{GeneratedAt: time.Now()}

	r.checkKnownAnswers(logger)
	r.checkStreamingEquivalence()
	r.checkHMACOversizedKeyEquivalence()
	r.checkFinalObliterates()
	r.checkMonobitBalance()
	r.checkAvalanche()

	return r
}

func (r *Report) checkKnownAnswers(logger *log.Logger) {
	s := katvectors.NewSuite()
	s.LoadDefaults()
	failed := s.RunAll(logger)
	r.add("known_answer_vectors", failed == 0,
		fmt.Sprintf("%d failed of %d vectors", failed, s.VectorCount()))
}

func (r *Report) checkStreamingEquivalence() {
	msg := []byte("conformance streaming equivalence probe, long enough to span blocks, padding across more than one 64-byte boundary to be a meaningful check")
	want := nexthash256.Sum256(msg)

	h := nexthash256.New()
	h.Write(msg[:17])
	h.Write(msg[17:64])
	h.Write(msg[64:])
	got := h.Sum(nil)

	ok := len(got) == nexthash256.Size
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			ok = false
			break
		}
	}
	r.add("streaming_equivalence", ok, "split-write digest matches one-shot digest")
}

func (r *Report) checkHMACOversizedKeyEquivalence() {
	longKey := make([]byte, 200)
	for i := range longKey {
		longKey[i] = byte(i)
	}
	msg := []byte("oversized key equivalence probe")

	compressed := nexthash256.Sum256(longKey)
	a := nexthash256.MAC(longKey, msg)
	b := nexthash256.MAC(compressed[:], msg)

	r.add("hmac_oversized_key_equivalence", a == b,
		"MAC with a >64-byte key equals MAC with that key's digest")
}

func (r *Report) checkFinalObliterates() {
	var c nexthash256.Ctx
	c.Init()
	c.Update([]byte("about to be obliterated"))
	var out [nexthash256.Size]byte
	c.Final(&out)

	r.add("final_obliterates_context", c.IsZero(), "Ctx is zero-filled after Final")
}

func (r *Report) checkMonobitBalance() {
	sum := nexthash256.Sum256([]byte("monobit probe message, arbitrary content"))
	res := diagnostics.Monobit(sum[:])
	ok := res.Ratio > 0.3 && res.Ratio < 0.7
	r.add("digest_monobit_balance", ok, res.String())
}

func (r *Report) checkAvalanche() {
	mean := diagnostics.AvalancheSweep([]byte("avalanche probe message"))
	ok := mean > 0.3 && mean < 0.7
	r.add("avalanche_diffusion", ok, fmt.Sprintf("mean flipped-bit fraction %.3f", mean))
}

// PrintReport writes a human-readable rendering of r to w.
func PrintReport(w io.Writer, r *Report) {
	fmt.Fprintf(w, "conformance report generated %s\n", r.GeneratedAt.Format(time.RFC3339))
	for _, c := range r.Checks {
		status := "PASS"
		if !c.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "  [%s] %-32s %s\n", status, c.Name, c.Detail)
	}
	fmt.Fprintf(w, "score: %d/100\n", r.Score())
}
