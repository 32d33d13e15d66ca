package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/atomic"
)

const (
	baseURL      = "http://127.0.0.1:18090"
	numWorkers   = 50
	testDuration = 10 * time.Second
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

// gravity drifts down over the run like a real ferment
var gravity = atomic.NewUint64(10500)

func main() {
	fmt.Println("=== fermmon Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n\n", numWorkers, testDuration)

	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	id, err := activeFermentation()
	if err != nil {
		fmt.Println("FAILED:", err)
		return
	}
	fmt.Printf("Using fermentation %d\n", id)

	fmt.Println("\n--- Phase 1: Ingest (POST /readings/ingest) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		return doIngest(rng)
	})

	fmt.Println("\n--- Phase 2: Mixed load (50% ingest, 50% reads) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.50:
			return doIngest(rng)
		case r < 0.70:
			return doGet("GET /analysis", fmt.Sprintf("/analysis?id=%d", id))
		case r < 0.85:
			return doGet("GET /readings", fmt.Sprintf("/readings?id=%d&hours=1", id))
		default:
			return doGet("GET /alerts", fmt.Sprintf("/alerts?id=%d", id))
		}
	})

	fmt.Println("\n--- Phase 3: Read-heavy load (5% ingest, 95% reads) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.05:
			return doIngest(rng)
		case r < 0.60:
			return doGet("GET /analysis", fmt.Sprintf("/analysis?id=%d", id))
		case r < 0.80:
			return doGet("GET /history", fmt.Sprintf("/history?id=%d", id))
		default:
			return doGet("GET /fermentations", "/fermentations")
		}
	})
}

// activeFermentation creates a load-test batch, or reuses the active one.
func activeFermentation() (int64, error) {
	body := []byte(`{"batch_name":"loadtest","og":1.050,"fg_target":1.010,"temp_target":19}`)
	resp, err := httpClient.Post(baseURL+"/fermentations", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusCreated {
		var f struct {
			ID int64 `json:"id"`
		}
		err = json.NewDecoder(resp.Body).Decode(&f)
		return f.ID, err
	}

	health, err := httpClient.Get(baseURL + "/health")
	if err != nil {
		return 0, err
	}
	defer health.Body.Close()
	var h struct {
		ActiveFermentationID *int64 `json:"active_fermentation_id"`
	}
	if err := json.NewDecoder(health.Body).Decode(&h); err != nil {
		return 0, err
	}
	if h.ActiveFermentationID == nil {
		return 0, fmt.Errorf("create returned %d and no fermentation is active", resp.StatusCode)
	}
	return *h.ActiveFermentationID, nil
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
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
				}
			}
		}(rand.Int63() + int64(i))
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

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-24s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 90))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		fmt.Printf("  %-24s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors,
			fmtDur(avgDuration(s.latencies)),
			fmtDur(percentile(s.latencies, 0.50)),
			fmtDur(percentile(s.latencies, 0.95)),
			fmtDur(percentile(s.latencies, 0.99)))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + strings.Repeat("-", 90))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(max(totalOps, 1))*100, rps)
}

func doIngest(rng *rand.Rand) result {
	// gravity in 1/10000 SG, never below 1.0080
	g := gravity.Load()
	if g > 10080 && rng.Float64() < 0.1 {
		gravity.CompareAndSwap(g, g-1)
	}

	data, _ := json.Marshal(map[string]interface{}{
		"timestamp":   time.Now().UTC(),
		"gravity":     float64(g) / 10000,
		"temperature": 18 + rng.Float64()*2,
		"battery":     90,
		"device_id":   "loadtest",
	})
	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/readings/ingest", "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{"POST /readings/ingest", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"POST /readings/ingest", resp.StatusCode, lat, resp.StatusCode != http.StatusOK}
}

func doGet(endpoint, path string) result {
	start := time.Now()
	resp, err := httpClient.Get(baseURL + path)
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{endpoint, resp.StatusCode, lat, resp.StatusCode != http.StatusOK}
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
