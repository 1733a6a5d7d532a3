package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/pflag"
	"go.uber.org/atomic"
)

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

type target struct {
	baseURL  string
	keywords []string
}

func main() {
	baseURL := pflag.String("url", "http://127.0.0.1:8089", "Base URL of the read API")
	workers := pflag.Int("workers", 50, "Concurrent workers")
	duration := pflag.Duration("duration", 10*time.Second, "Duration of each phase")
	pflag.Parse()

	fmt.Println("=== PickMe Read API Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n\n", *workers, *duration)

	fmt.Print("Waiting for server... ")
	tgt, err := discover(*baseURL)
	if err != nil {
		fmt.Printf("FAILED: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK (%d search keywords)\n", len(tgt.keywords))

	// Phase 1: hot keys only
	fmt.Println("\n--- Phase 1: State and selection ---")
	runPhase(*workers, *duration, func(rng *rand.Rand) result {
		if rng.Float64() < 0.7 {
			return tgt.get("GET /state", "/state")
		}
		return tgt.get("GET /selection", "/selection")
	})

	// Phase 2: mixed read load across every endpoint
	fmt.Println("\n--- Phase 2: Mixed reads ---")
	runPhase(*workers, *duration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.30:
			return tgt.get("GET /state", "/state")
		case r < 0.60:
			return tgt.get("GET /students", "/students?q="+url.QueryEscape(tgt.keyword(rng)))
		case r < 0.85:
			return tgt.get("GET /history", "/history")
		case r < 0.95:
			return tgt.get("GET /selection", "/selection")
		default:
			return tgt.get("GET /health", "/health")
		}
	})
}

// discover waits for the server and collects search keywords from the
// current roster so the student search spreads across cache keys.
func discover(baseURL string) (*target, error) {
	var lastErr error
	for range 30 {
		resp, err := httpClient.Get(baseURL + "/state")
		if err != nil {
			lastErr = err
			time.Sleep(200 * time.Millisecond)
			continue
		}
		defer resp.Body.Close()

		var body struct {
			CurrentClass struct {
				Payload struct {
					Students []struct {
						Name string `json:"name"`
					} `json:"students"`
				} `json:"payload"`
			} `json:"current_class"`
		}
		if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decode /state: %w", err)
		}

		tgt := &target{baseURL: baseURL, keywords: []string{""}}
		for _, s := range body.CurrentClass.Payload.Students {
			if r := []rune(s.Name); len(r) > 0 {
				tgt.keywords = append(tgt.keywords, string(r[:1]))
			}
		}
		return tgt, nil
	}
	return nil, fmt.Errorf("server not responding: %w", lastErr)
}

func (t *target) keyword(rng *rand.Rand) string {
	return t.keywords[rng.IntN(len(t.keywords))]
}

func (t *target) get(endpoint, path string) result {
	start := time.Now()
	resp, err := httpClient.Get(t.baseURL + path)
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return result{endpoint, resp.StatusCode, lat, resp.StatusCode != http.StatusOK}
}

func runPhase(workers int, duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := range workers {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(seed, uint64(i)))
			for {
				select {
				case <-stop:
					return
				default:
					results <- workFn(rng)
					totalOps.Inc()
				}
			}
		}(rand.Uint64())
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, totalOps.Load(), duration)
}

func printResults(allResults map[string]*stats, totalOps int64, duration time.Duration) {
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	slices.Sort(endpoints)

	fmt.Printf("\n  %-16s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 82))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalErrors += s.errors
		slices.Sort(s.latencies)

		fmt.Printf("  %-16s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors,
			fmtDur(avgDuration(s.latencies)),
			fmtDur(percentile(s.latencies, 0.50)),
			fmtDur(percentile(s.latencies, 0.95)),
			fmtDur(percentile(s.latencies, 0.99)))
	}

	fmt.Println("  " + strings.Repeat("-", 82))
	if totalOps == 0 {
		fmt.Println("  No requests completed")
		return
	}
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, float64(totalOps)/duration.Seconds())
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
