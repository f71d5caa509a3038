package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/readmission-guard/internal/types"
)

func unlimited(o *Options) {
	o.Security.MaxRequestsPerMin = 1_000_000
}

func serveJSON(r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, nil
}

func calculatePercentiles(durations []time.Duration, percentiles ...float64) []time.Duration {
	sorted := slices.Clone(durations)
	slices.Sort(sorted)

	results := make([]time.Duration, len(percentiles))
	for i, p := range percentiles {
		results[i] = sorted[int(float64(len(sorted)-1)*p)]
	}
	return results
}

func TestConcurrentSessions_ThreadSafety(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping thread safety test in short mode")
	}

	srv, r := newTestServer(t, unlimited)

	const numGoroutines = 20

	// Each goroutine drives its own session with its own inputs.
	inputs := make([]types.ScoreRequest, numGoroutines)
	expected := make([]string, numGoroutines)
	for i := range inputs {
		req := highRisk
		req.NumberInpatient = i % 5
		req.NumMedications = 5 + i*2
		inputs[i] = req

		res, err := srv.analyzer.Analyze(req.ToInputs())
		require.NoError(t, err)
		expected[i] = res.Percent
	}

	errs := make(chan error, numGoroutines)
	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- driveSession(r, inputs[i], expected[i])
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, numGoroutines, srv.Sessions().Len())
}

func driveSession(r http.Handler, in types.ScoreRequest, percent string) error {
	w, err := serveJSON(r, http.MethodPost, "/api/v1/sessions", nil)
	if err != nil {
		return err
	}
	if w.Code != http.StatusCreated {
		return fmt.Errorf("create: status %d", w.Code)
	}

	var created types.SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		return err
	}
	base := "/api/v1/sessions/" + created.ID

	if w, err = serveJSON(r, http.MethodPut, base+"/inputs", in); err != nil {
		return err
	}
	if w.Code != http.StatusOK {
		return fmt.Errorf("inputs: status %d", w.Code)
	}

	if w, err = serveJSON(r, http.MethodPost, base+"/analyze", nil); err != nil {
		return err
	}
	if w.Code != http.StatusOK {
		return fmt.Errorf("analyze: status %d: %s", w.Code, w.Body.String())
	}

	var analyzed types.SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &analyzed); err != nil {
		return err
	}
	if analyzed.Result == nil || analyzed.Result.Percent != percent {
		return fmt.Errorf("session %s: unexpected result %+v, want %s", created.ID, analyzed.Result, percent)
	}
	return nil
}

func TestScore_ResponseTimeDistribution(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping response time distribution test in short mode")
	}

	_, r := newTestServer(t, unlimited)

	const numRequests = 100
	durations := make([]time.Duration, numRequests)

	for i := 0; i < numRequests; i++ {
		// Vary the body so the response cache does not answer every request.
		req := highRisk
		req.NumLabProcedures = 1 + i

		start := time.Now()
		w, err := serveJSON(r, http.MethodPost, "/api/v1/score", req)
		durations[i] = time.Since(start)

		require.NoError(t, err)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	p := calculatePercentiles(durations, 0.5, 0.95, 0.99)
	t.Logf("Score latency over %d requests: p50=%v p95=%v p99=%v", numRequests, p[0], p[1], p[2])

	assert.Less(t, p[1], 100*time.Millisecond, "95th percentile should be under 100ms")
}

func TestHealth_ConcurrentRequests(t *testing.T) {
	_, r := newTestServer(t, nil)

	const numRequests = 10
	codes := make(chan int, numRequests)

	var wg sync.WaitGroup
	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			codes <- w.Code
		}()
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
}

func BenchmarkScore(b *testing.B) {
	_, r := newTestServer(b, unlimited)
	body, err := json.Marshal(highRisk)
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/score", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			b.Fatalf("status %d", w.Code)
		}
	}
}
