package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

var (
	baseURL    = flag.String("url", "http://127.0.0.1:8080", "guildpulse API base url")
	numWorkers = flag.Int("workers", 50, "concurrent clients")
	duration   = flag.Duration("duration", 10*time.Second, "length of each phase")
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
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

type leaderboardEntry struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
	XP    int64  `json:"xp"`
}

func main() {
	flag.Parse()

	fmt.Println("=== GuildPulse API Load Test ===")
	fmt.Printf("Target: %s | Workers: %d | Phase: %s\n\n", *baseURL, *numWorkers, *duration)

	fmt.Print("Waiting for server... ")
	if !waitHealthy() {
		fmt.Println("FAILED: server not responding")
		return
	}
	fmt.Println("OK")

	if err := checkLeaderboardOrder(); err != nil {
		fmt.Println("Leaderboard check FAILED:", err)
		return
	}
	fmt.Println("Leaderboard is sorted by xp")

	fmt.Println("\n--- Phase 1: Dashboard mix (leaderboard + stats) ---")
	runPhase(func(rng *rand.Rand) result {
		if rng.Float64() < 0.6 {
			return get("/api/leaderboard", false)
		}
		return get("/api/stats", false)
	})

	fmt.Println("\n--- Phase 2: Everything, half the clients gzip ---")
	runPhase(func(rng *rand.Rand) result {
		gz := rng.Intn(2) == 0
		switch r := rng.Float64(); {
		case r < 0.40:
			return get("/api/leaderboard", gz)
		case r < 0.70:
			return get("/api/stats", gz)
		case r < 0.90:
			return get("/", gz)
		default:
			return get("/health", gz)
		}
	})
}

func waitHealthy() bool {
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(*baseURL + "/health")
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	return false
}

func checkLeaderboardOrder() error {
	resp, err := httpClient.Get(*baseURL + "/api/leaderboard")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var entries []leaderboardEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if len(entries) > 50 {
		return fmt.Errorf("%d entries, at most 50 expected", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].XP > entries[i-1].XP {
			return fmt.Errorf("entry %d (%d xp) above entry %d (%d xp)", i, entries[i].XP, i-1, entries[i-1].XP)
		}
	}
	return nil
}

func get(path string, gzip bool) result {
	name := "GET " + path
	req, _ := http.NewRequest(http.MethodGet, *baseURL+path, nil)
	if gzip {
		name += " (gz)"
		req.Header.Set("Accept-Encoding", "gzip")
	}

	start := time.Now()
	resp, err := httpClient.Do(req)
	lat := time.Since(start)
	if err != nil {
		return result{name, lat, true}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return result{name, lat, resp.StatusCode != http.StatusOK}
}

func runPhase(workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < *numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					results <- workFn(rng)
					totalOps.Add(1)
				}
			}
		}(rand.Int63() + int64(i))
	}

	all := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := all[r.endpoint]
			if !ok {
				s = &stats{}
				all[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(*duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(all, totalOps.Load())
}

func printResults(all map[string]*stats, totalOps int64) {
	var totalErrors int64

	endpoints := make([]string, 0, len(all))
	for ep := range all {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-28s %8s %6s %10s %10s %10s\n", "Endpoint", "Reqs", "Errs", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 78))

	for _, ep := range endpoints {
		s := all[ep]
		totalErrors += s.errors
		sort.Slice(s.latencies, func(i, j int) bool { return s.latencies[i] < s.latencies[j] })

		fmt.Printf("  %-28s %8d %6d %10s %10s %10s\n", ep, s.count, s.errors,
			fmtDur(percentile(s.latencies, 0.50)), fmtDur(percentile(s.latencies, 0.95)), fmtDur(percentile(s.latencies, 0.99)))
	}

	fmt.Println("  " + strings.Repeat("-", 78))
	if totalOps == 0 {
		fmt.Println("  No requests completed")
		return
	}
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, float64(totalOps)/duration.Seconds())
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
