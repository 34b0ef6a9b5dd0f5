package simulation

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
)

func TestSummarizeFiltersAndSorts(t *testing.T) {
	raw := []float64{5, math.NaN(), 3, math.Inf(1), 1, 4, 2, math.Inf(-1)}

	s := summarize(raw)

	if s.N != 5 {
		t.Fatalf("Expected 5 finite outcomes, got %d", s.N)
	}
	want := []float64{1, 2, 3, 4, 5}
	for i, v := range want {
		if s.Outcomes[i] != v {
			t.Errorf("Outcome %d expected %f, got %f", i, v, s.Outcomes[i])
		}
	}
	if s.Mean != 3 {
		t.Errorf("Mean expected 3, got %f", s.Mean)
	}
	// n=5: median idx 2, p10 idx 0, p90 idx 4
	if s.Median != 3 || s.P10 != 1 || s.P90 != 5 {
		t.Errorf("Percentiles expected (3,1,5), got (%f,%f,%f)", s.Median, s.P10, s.P90)
	}
	if s.Min != 1 || s.Max != 5 {
		t.Errorf("Min/Max expected (1,5), got (%f,%f)", s.Min, s.Max)
	}
}

func TestSummarizeNearestRank(t *testing.T) {
	// Nearest-rank, not interpolated: for {10,20,30,40} the median is the
	// element at index 4/2=2, i.e. 30, never the 25 an interpolating
	// estimator would report.
	s := summarize([]float64{40, 10, 30, 20})
	if s.Median != 30 {
		t.Errorf("Median expected 30 (nearest-rank), got %f", s.Median)
	}
	if s.P10 != 10 {
		t.Errorf("P10 expected element 0 (=10), got %f", s.P10)
	}
	if s.P90 != 40 {
		t.Errorf("P90 expected element 3 (=40), got %f", s.P90)
	}

	// n=10: indices 5, 1, 9.
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	s = summarize(vals)
	if s.Median != 6 || s.P10 != 2 || s.P90 != 10 {
		t.Errorf("n=10 percentiles expected (6,2,10), got (%f,%f,%f)", s.Median, s.P10, s.P90)
	}
}

func TestSummarizeAllNonFinite(t *testing.T) {
	// When every trial overflows, n is 0 and the statistics are NaN
	// rather than a spurious zero mean.
	s := summarize([]float64{math.NaN(), math.Inf(1), math.Inf(-1)})

	if s.N != 0 || len(s.Outcomes) != 0 {
		t.Fatalf("Expected empty outcome set, got n=%d len=%d", s.N, len(s.Outcomes))
	}
	for name, v := range map[string]float64{
		"mean": s.Mean, "median": s.Median, "p10": s.P10, "p90": s.P90,
	} {
		if !math.IsNaN(v) {
			t.Errorf("%s expected NaN with no outcomes, got %f", name, v)
		}
	}
}

func TestSummaryMarshalNaNAsNull(t *testing.T) {
	s := summarize(nil)
	s.Seed = 42

	data, err := json.Marshal(&s)
	if err != nil {
		t.Fatalf("Marshal failed on empty summary: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `"mean":null`) {
		t.Errorf("Expected null mean in %s", text)
	}
	if !strings.Contains(text, `"seed":42`) {
		t.Errorf("Expected seed in %s", text)
	}
	if !strings.Contains(text, `"status":"completed"`) {
		t.Errorf("Expected status in %s", text)
	}
}

func TestSummaryMarshalFinite(t *testing.T) {
	s := summarize([]float64{2, 1, 3})

	data, err := json.Marshal(&s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Round trip failed: %v", err)
	}
	if decoded["mean"].(float64) != 2 {
		t.Errorf("Mean expected 2, got %v", decoded["mean"])
	}
	if decoded["n"].(float64) != 3 {
		t.Errorf("n expected 3, got %v", decoded["n"])
	}
}

func TestSummaryJSONRoundTrip(t *testing.T) {
	original := summarize([]float64{12.5, 9.0, 15.25, 11.0})
	original.Seed = 77
	original.Correlation = 0.3
	original.Trials = 4
	original.Completed = 4
	original.Elapsed = 1500 * time.Millisecond

	data, err := json.Marshal(&original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var restored Summary
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if restored.Mean != original.Mean || restored.Median != original.Median {
		t.Errorf("Expected stats to survive, got mean %f median %f", restored.Mean, restored.Median)
	}
	if restored.Elapsed != 1500*time.Millisecond {
		t.Errorf("Expected elapsed 1.5s restored, got %v", restored.Elapsed)
	}
	if restored.Seed != 77 || restored.Trials != 4 {
		t.Errorf("Expected metadata to survive, got seed %d trials %d", restored.Seed, restored.Trials)
	}
	if len(restored.Outcomes) != 4 || restored.Outcomes[0] != 9.0 {
		t.Errorf("Expected sorted outcomes to survive, got %v", restored.Outcomes)
	}

	// The empty-run shape restores NaN from null
	empty := summarize(nil)
	data, err = json.Marshal(&empty)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var restoredEmpty Summary
	if err := json.Unmarshal(data, &restoredEmpty); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !math.IsNaN(restoredEmpty.Mean) || !math.IsNaN(restoredEmpty.P90) {
		t.Errorf("Expected NaN statistics restored, got mean %f p90 %f", restoredEmpty.Mean, restoredEmpty.P90)
	}
}
