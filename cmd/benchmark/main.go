// Benchmark tool for load-testing Harrier with synthetic applications.
//
// Usage:
//   go run cmd/benchmark/main.go -url http://localhost:8080 -n 10000
//
// This tool:
//  1. Generates synthetic applicant profiles across the input space
//  2. Sends each to POST /api/v1/credit/check concurrently
//  3. Tallies decisions, risk bands, and error responses
//  4. Reports throughput and latency percentiles
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// CheckRequest mirrors the credit check API request format.
type CheckRequest struct {
	ClientID string         `json:"client_id,omitempty"`
	Client   map[string]any `json:"client"`
	Loan     map[string]any `json:"loan"`
}

// CheckResponse is the subset of the decision payload the benchmark reads.
type CheckResponse struct {
	RequestID   string  `json:"request_id"`
	Decision    string  `json:"decision"`
	CreditScore float64 `json:"credit_score"`
	RiskLevel   string  `json:"risk_level"`
}

// Tally tracks benchmark results.
type Tally struct {
	Approved  int64
	Rejected  int64
	Errors    int64
	Processed int64
}

var (
	genders     = []string{"M", "F"}
	maritals    = []string{"single", "married", "divorced", "widowed"}
	educations  = []string{"none", "basic", "secondary", "tertiary"}
	employments = []string{"formal", "informal", "self_employed", "unemployed"}
	sectors     = []string{"government", "private", "agriculture", "trading", "other"}
	purposes    = []string{"business", "education", "medical", "housing", "personal", "agriculture"}
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Harrier base URL")
	apiKey := flag.String("key", "dev-api-key", "API key for requests")
	total := flag.Int("n", 10000, "Number of applications to send")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	seed := flag.Int64("seed", 42, "Random seed for profile generation")
	verbose := flag.Bool("verbose", false, "Print each decision")
	flag.Parse()

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║          HARRIER BENCHMARK - Synthetic Applications           ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nHarrier URL: %s\n", *baseURL)
	fmt.Printf("Requests:    %d\n", *total)
	fmt.Printf("Workers:     %d\n", *workers)
	fmt.Printf("Seed:        %d\n", *seed)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Harrier not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Harrier is running:")
		fmt.Println("  go run cmd/harrier/main.go")
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	requests := make([]CheckRequest, *total)
	for i := range requests {
		requests[i] = syntheticRequest(rng, i)
	}

	var tally Tally
	var mu sync.Mutex
	latencies := make([]time.Duration, 0, *total)

	jobs := make(chan CheckRequest)
	client := &http.Client{Timeout: 30 * time.Second}

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range jobs {
				reqStart := time.Now()
				resp, err := sendCheck(client, *baseURL, *apiKey, req)
				elapsed := time.Since(reqStart)

				atomic.AddInt64(&tally.Processed, 1)
				if err != nil {
					atomic.AddInt64(&tally.Errors, 1)
					if *verbose {
						fmt.Printf("  error: %v\n", err)
					}
					continue
				}

				mu.Lock()
				latencies = append(latencies, elapsed)
				mu.Unlock()

				switch resp.Decision {
				case "approved":
					atomic.AddInt64(&tally.Approved, 1)
				case "rejected":
					atomic.AddInt64(&tally.Rejected, 1)
				}

				if *verbose {
					fmt.Printf("  %s score=%.1f risk=%s (%.0fms)\n",
						resp.Decision, resp.CreditScore, resp.RiskLevel,
						float64(elapsed.Milliseconds()))
				}
			}
		}()
	}

	for _, req := range requests {
		jobs <- req
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(start)

	printReport(&tally, latencies, elapsed)
}

// syntheticRequest builds one random but valid application.
func syntheticRequest(rng *rand.Rand, i int) CheckRequest {
	total := rng.Intn(6)
	repaid := 0
	if total > 0 {
		repaid = rng.Intn(total + 1)
	}

	hasExisting := rng.Intn(3) == 0
	balance := 0.0
	payment := 0.0
	if hasExisting {
		balance = 500 + rng.Float64()*20000
		payment = 50 + rng.Float64()*800
	}

	return CheckRequest{
		ClientID: fmt.Sprintf("bench-client-%04d", i%500),
		Client: map[string]any{
			"age":                           18 + rng.Intn(48),
			"gender":                        pick(rng, genders),
			"marital_status":                pick(rng, maritals),
			"number_of_dependents":          rng.Intn(11),
			"education_level":               pick(rng, educations),
			"employment_type":               pick(rng, employments),
			"employment_sector":             pick(rng, sectors),
			"years_at_current_job":          rng.Float64() * 20,
			"monthly_income":                500 + rng.Float64()*9500,
			"has_other_income":              rng.Intn(2) == 1,
			"other_income_amount":           rng.Float64() * 2000,
			"total_savings":                 rng.Float64() * 50000,
			"savings_account_age_months":    rng.Intn(120),
			"average_monthly_deposit":       rng.Float64() * 1500,
			"num_previous_loans":            total,
			"previous_loans_repaid_on_time": repaid,
			"has_existing_loan":             hasExisting,
			"existing_loan_balance":         balance,
			"existing_loan_monthly_payment": payment,
		},
		Loan: map[string]any{
			"requested_loan_amount": 500 + rng.Float64()*49500,
			"loan_tenure_months":    3 + rng.Intn(58),
			"loan_purpose":          pick(rng, purposes),
			"has_guarantor":         rng.Intn(2) == 1,
			"has_collateral":        rng.Intn(2) == 1,
		},
	}
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}

func sendCheck(client *http.Client, baseURL, apiKey string, req CheckRequest) (*CheckResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/credit/check", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}

	var out CheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned status %d", resp.StatusCode)
	}
	return nil
}

func printReport(tally *Tally, latencies []time.Duration, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("═══════════════════════ RESULTS ═══════════════════════")
	fmt.Printf("Processed:   %d in %.1fs (%.0f req/s)\n",
		tally.Processed, elapsed.Seconds(),
		float64(tally.Processed)/elapsed.Seconds())
	fmt.Printf("Approved:    %d\n", tally.Approved)
	fmt.Printf("Rejected:    %d\n", tally.Rejected)
	fmt.Printf("Errors:      %d\n", tally.Errors)

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		fmt.Println()
		fmt.Printf("Latency p50: %s\n", latencies[len(latencies)*50/100])
		fmt.Printf("Latency p95: %s\n", latencies[len(latencies)*95/100])
		fmt.Printf("Latency p99: %s\n", latencies[len(latencies)*99/100])
	}
	fmt.Println("════════════════════════════════════════════════════════")
}
