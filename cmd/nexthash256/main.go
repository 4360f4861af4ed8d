// Command nexthash256 is the CLI entry point: it can hash or HMAC a
// message, run the conformance battery, benchmark throughput, or serve
// the REST API.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"nexthash256"
	"nexthash256/internal/conformance"
	"nexthash256/internal/server"
)

func main() {
	hashHex := flag.String("hash", "", "hex-encoded message to digest")
	hmacKeyHex := flag.String("hmac-key", "", "hex-encoded HMAC key (requires -hmac-msg)")
	hmacMsgHex := flag.String("hmac-msg", "", "hex-encoded HMAC message (requires -hmac-key)")
	validate := flag.Bool("validate", false, "run the conformance battery and print a report")
	benchmark := flag.Bool("benchmark", false, "benchmark hashing throughput")
	serve := flag.Bool("serve", false, "start the REST API server")
	addr := flag.String("addr", ":8443", "listen address for -serve")
	summary := flag.Bool("summary", false, "print a short system summary")

	flag.Parse()

	switch {
	case *summary:
		printSummary()
	case *validate:
		runValidate()
	case *benchmark:
		runBenchmark()
	case *serve:
		runServe(*addr)
	case *hashHex != "":
		runHash(*hashHex)
	case *hmacKeyHex != "" || *hmacMsgHex != "":
		runHMAC(*hmacKeyHex, *hmacMsgHex)
	default:
		printHelp()
	}
}

func runHash(messageHex string) {
	message, err := hex.DecodeString(messageHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nexthash256: invalid -hash hex: %v\n", err)
		os.Exit(1)
	}
	digest := nexthash256.Sum256(message)
	fmt.Println(hex.EncodeToString(digest[:]))
}

func runHMAC(keyHex, msgHex string) {
	if keyHex == "" || msgHex == "" {
		fmt.Fprintln(os.Stderr, "nexthash256: -hmac-key and -hmac-msg must both be set")
		os.Exit(1)
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nexthash256: invalid -hmac-key hex: %v\n", err)
		os.Exit(1)
	}
	message, err := hex.DecodeString(msgHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nexthash256: invalid -hmac-msg hex: %v\n", err)
		os.Exit(1)
	}
	mac := nexthash256.MAC(key, message)
	fmt.Println(hex.EncodeToString(mac[:]))
}

func runValidate() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	report := conformance.Run(logger)
	conformance.PrintReport(os.Stdout, report)
	if !report.AllPassed() {
		os.Exit(1)
	}
}

func runBenchmark() {
	const blockCount = 2000
	message := make([]byte, nexthash256.BlockSize)
	if _, err := rand.Read(message); err != nil {
		log.Fatalf("nexthash256: generating benchmark input: %v", err)
	}

	fmt.Println("nexthash256 throughput benchmark")
	fmt.Println(strings.Repeat("=", 40))

	start := time.Now()
	for i := 0; i < blockCount; i++ {
		nexthash256.Sum256(message)
	}
	elapsed := time.Since(start)

	totalBytes := float64(blockCount * len(message))
	fmt.Printf("blocks:     %d\n", blockCount)
	fmt.Printf("block size: %d bytes\n", len(message))
	fmt.Printf("elapsed:    %v\n", elapsed)
	fmt.Printf("throughput: %.2f MB/s\n", totalBytes/elapsed.Seconds()/1e6)

	key := make([]byte, 32)
	rand.Read(key)
	start = time.Now()
	for i := 0; i < blockCount; i++ {
		nexthash256.MAC(key, message)
	}
	elapsed = time.Since(start)
	fmt.Printf("\nHMAC-NEXTHASH-256 throughput: %.2f MB/s\n", totalBytes/elapsed.Seconds()/1e6)
}

func runServe(addr string) {
	rbac := server.NewRBAC()
	if _, err := rbac.CreateUser("admin", "default admin", server.RoleAdmin); err != nil {
		log.Fatalf("nexthash256: bootstrapping admin user: %v", err)
	}

	logger := log.New(os.Stdout, "nexthash256-server: ", log.LstdFlags)
	srv := server.New(rbac, logger)

	cfg := server.Config{
		Addr:         addr,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Printf("listening on %s", addr)
	if err := server.ListenAndServe(cfg, srv.Mux(logger)); err != nil {
		log.Fatalf("nexthash256: server stopped: %v", err)
	}
}

func printSummary() {
	fmt.Printf(`nexthash256 - NEXTHASH-256 reference implementation

  digest size:   %d bytes
  block size:    %d bytes
  internal state: 512 bits (16 x 32-bit words)
  rounds:        52
  construction:  Merkle-Damgard with Davies-Meyer feed-forward
  keyed MAC:     HMAC-NEXTHASH-256 (RFC 2104 construction)

Run with -help to see available commands.
`, nexthash256.Size, nexthash256.BlockSize)
}

func printHelp() {
	fmt.Println(`nexthash256 - NEXTHASH-256 hash and HMAC CLI

Usage:
  nexthash256 -hash <hex>                      digest a hex-encoded message
  nexthash256 -hmac-key <hex> -hmac-msg <hex>   compute HMAC-NEXTHASH-256
  nexthash256 -validate                        run the conformance battery
  nexthash256 -benchmark                       benchmark hashing throughput
  nexthash256 -serve [-addr :8443]             start the REST API server
  nexthash256 -summary                         print a short system summary`)
}
