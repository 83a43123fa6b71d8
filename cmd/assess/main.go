// Command assess runs a file of parsed claims through the claim processor
// using the providers configured in the environment, and prints a summary
// per claim. It exits non-zero if any claim could not be parsed.
//
// Usage:
//
//	go run ./cmd/assess -input claims.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/flight-disruption-verifier/internal/aggregator"
	"github.com/couchcryptid/flight-disruption-verifier/internal/config"
	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
	"github.com/couchcryptid/flight-disruption-verifier/internal/observability"
	"github.com/couchcryptid/flight-disruption-verifier/internal/pipeline"
)

func main() {
	input := flag.String("input", "", "path to a JSON array of parsed claims")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(run(*input))
}

func run(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read input: %v\n", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		return 1
	}
	logger := observability.NewLogger(cfg)

	ctx := context.Background()
	agg, err := aggregator.Build(ctx, cfg, logger, nil, aggregator.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: build services: %v\n", err)
		return 1
	}
	defer agg.Close() //nolint:errcheck // process is exiting

	rejected, err := assessAll(ctx, data, agg.Processor, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	if rejected > 0 {
		return 1
	}
	return 0
}

// assessAll assesses every claim in a JSON array, writing one summary block
// per claim, and returns how many entries were rejected.
func assessAll(ctx context.Context, data []byte, assessor pipeline.ClaimAssessor, out io.Writer) (int, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("input is not a JSON array: %w", err)
	}

	fmt.Fprintf(out, "=== Assessing %d claims ===\n\n", len(entries))

	var rejected, eligible int
	for i, entry := range entries {
		claim, err := pipeline.DecodeClaim(domain.RawMessage{Value: entry})
		if err != nil {
			rejected++
			fmt.Fprintf(out, "[%d] \033[31mREJECTED\033[0m %v\n\n", i+1, err)
			continue
		}
		a := assessor.Process(ctx, claim)
		if a.Eligibility.IsEligible {
			eligible++
		}
		printAssessment(out, i+1, a)
	}

	fmt.Fprintf(out, "Claims: %d assessed, %d eligible, %d rejected\n", len(entries)-rejected, eligible, rejected)
	return rejected, nil
}

func printAssessment(out io.Writer, n int, a domain.ClaimAssessment) {
	e := a.Eligibility
	status := "\033[33mINELIGIBLE\033[0m"
	if e.IsEligible {
		status = fmt.Sprintf("\033[32mELIGIBLE %d %s\033[0m", e.CompensationAmount, e.Currency)
	}
	verified := "unverified"
	if a.ParsedData.IsVerified {
		verified = "verified"
	}

	fmt.Fprintf(out, "[%d] %s %s %s  %s\n", n, a.ClaimID, a.ParsedData.FlightNumber,
		a.ParsedData.FlightDate.Format("2006-01-02"), status)
	fmt.Fprintf(out, "    delay %d min (%s), %s\n", e.DelayMinutes, verified, e.Reason)
	if wc := e.WeatherContext; wc != nil && wc.DataAvailable {
		fmt.Fprintf(out, "    weather %s at %s, attribution %s (%.2f)\n",
			wc.Severity, orDash(wc.AirportCode), wc.Attribution, wc.Confidence)
	}
	for _, r := range a.Recommendations {
		fmt.Fprintf(out, "    - %s\n", r)
	}
	fmt.Fprintln(out)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
