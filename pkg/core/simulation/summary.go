package simulation

import (
	"encoding/json"
	"math"
	"sort"
	"time"
)

// Summary is the aggregate outcome of one run. Outcomes holds only finite
// per-share values, sorted ascending; N is its length. When every trial
// came back non-finite, N is 0 and the statistics are NaN (mapped to null
// in JSON).
type Summary struct {
	Outcomes []float64 `json:"outcomes"`
	N        int       `json:"n"`
	Mean     float64   `json:"mean"`
	Median   float64   `json:"median"`
	P10      float64   `json:"p10"`
	P90      float64   `json:"p90"`
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`

	Seed        uint32  `json:"seed"`
	Correlation float64 `json:"correlation"`
	Trials      int     `json:"trials"`    // after clamping
	Completed   int     `json:"completed"` // trials finished before any stop
	Cancelled   bool    `json:"cancelled"`

	Elapsed time.Duration `json:"-"`
}

// Status reports the terminal state of the run
func (s *Summary) Status() string {
	if s.Cancelled {
		return "cancelled"
	}
	return "completed"
}

// summarize filters non-finite outcomes, sorts ascending, and computes the
// statistics. Percentiles are nearest-rank: the elements at floor(n/2),
// floor(n/10) and floor(9n/10). No interpolation.
func summarize(raw []float64) Summary {
	finite := make([]float64, 0, len(raw))
	for _, v := range raw {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	sort.Float64s(finite)

	n := len(finite)
	if n == 0 {
		nan := math.NaN()
		return Summary{
			Outcomes: finite,
			N:        0,
			Mean:     nan,
			Median:   nan,
			P10:      nan,
			P90:      nan,
			Min:      nan,
			Max:      nan,
		}
	}

	var sum float64
	for _, v := range finite {
		sum += v
	}

	return Summary{
		Outcomes: finite,
		N:        n,
		Mean:     sum / float64(n),
		Median:   finite[n/2],
		P10:      finite[n/10],
		P90:      finite[9*n/10],
		Min:      finite[0],
		Max:      finite[n-1],
	}
}

// MarshalJSON emits NaN/Inf statistics as null, since bare JSON has no
// encoding for them, and reports elapsed time in milliseconds.
func (s *Summary) MarshalJSON() ([]byte, error) {
	type alias Summary
	return json.Marshal(struct {
		Mean      *float64 `json:"mean"`
		Median    *float64 `json:"median"`
		P10       *float64 `json:"p10"`
		P90       *float64 `json:"p90"`
		Min       *float64 `json:"min"`
		Max       *float64 `json:"max"`
		ElapsedMs int64    `json:"elapsed_ms"`
		Status    string   `json:"status"`
		*alias
	}{
		Mean:      finiteOrNil(s.Mean),
		Median:    finiteOrNil(s.Median),
		P10:       finiteOrNil(s.P10),
		P90:       finiteOrNil(s.P90),
		Min:       finiteOrNil(s.Min),
		Max:       finiteOrNil(s.Max),
		ElapsedMs: s.Elapsed.Milliseconds(),
		Status:    s.Status(),
		alias:     (*alias)(s),
	})
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// UnmarshalJSON restores a summary serialized by MarshalJSON: null
// statistics come back as NaN, elapsed_ms as Elapsed. Needed so persisted
// runs round-trip through JSON columns.
func (s *Summary) UnmarshalJSON(data []byte) error {
	type alias Summary
	aux := struct {
		Mean      *float64 `json:"mean"`
		Median    *float64 `json:"median"`
		P10       *float64 `json:"p10"`
		P90       *float64 `json:"p90"`
		Min       *float64 `json:"min"`
		Max       *float64 `json:"max"`
		ElapsedMs int64    `json:"elapsed_ms"`
		*alias
	}{alias: (*alias)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	s.Mean = nanIfNil(aux.Mean)
	s.Median = nanIfNil(aux.Median)
	s.P10 = nanIfNil(aux.P10)
	s.P90 = nanIfNil(aux.P90)
	s.Min = nanIfNil(aux.Min)
	s.Max = nanIfNil(aux.Max)
	s.Elapsed = time.Duration(aux.ElapsedMs) * time.Millisecond
	return nil
}

func nanIfNil(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
