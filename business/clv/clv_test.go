//go:build !integration

package clv

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"salesInsight/business/rfm"
	"salesInsight/domain"
)

// linearTable builds n customers whose Monetary is an exact linear function
// of Recency and Frequency.
func linearTable(t *testing.T, n int) *rfm.Table {
	t.Helper()
	recs := make([]domain.RFMRecord, 0, n)
	for i := 1; i <= n; i++ {
		r := i
		f := (i*7)%11 + 1
		recs = append(recs, domain.RFMRecord{
			CustomerID: int64(i),
			Recency:    r,
			Frequency:  f,
			Monetary:   100 + 5*float64(r) + 20*float64(f),
		})
	}
	return tableOf(t, recs)
}

func tableOf(t *testing.T, recs []domain.RFMRecord) *rfm.Table {
	t.Helper()
	table, err := rfm.NewTable(time.Date(2014, 1, 29, 0, 0, 0, 0, time.UTC), recs)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func TestSplitDisjointAndComplete(t *testing.T) {
	rows := RowsFromTable(linearTable(t, 30))

	for _, fraction := range []float64{0.1, 0.2, 0.33, 0.5} {
		for seed := int64(0); seed < 20; seed++ {
			train, test, err := Split(rows, fraction, seed)
			if err != nil {
				t.Fatalf("Split(%v, %d): %v", fraction, seed, err)
			}

			wantTest := int(math.Ceil(30 * fraction))
			if len(test) != wantTest || len(train) != 30-wantTest {
				t.Fatalf("Split(%v, %d): sizes train=%d test=%d", fraction, seed, len(train), len(test))
			}

			seen := map[int64]bool{}
			for _, r := range train {
				seen[r.CustomerID] = true
			}
			for _, r := range test {
				if seen[r.CustomerID] {
					t.Fatalf("Split(%v, %d): customer %d in both partitions", fraction, seed, r.CustomerID)
				}
				seen[r.CustomerID] = true
			}
			if len(seen) != 30 {
				t.Fatalf("Split(%v, %d): covered %d of 30 rows", fraction, seed, len(seen))
			}
		}
	}
}

func TestSplitIgnoresInputOrder(t *testing.T) {
	rows := RowsFromTable(linearTable(t, 25))
	reversed := make([]Row, len(rows))
	for i, r := range rows {
		reversed[len(rows)-1-i] = r
	}

	_, a, err := Split(rows, 0.2, 42)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	_, b, err := Split(reversed, 0.2, 42)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	for i := range a {
		if a[i].CustomerID != b[i].CustomerID {
			t.Fatalf("test partitions differ at %d: %d vs %d", i, a[i].CustomerID, b[i].CustomerID)
		}
	}
}

func TestSplitSeedMatters(t *testing.T) {
	rows := RowsFromTable(linearTable(t, 30))
	_, base, _ := Split(rows, 0.2, 42)

	for seed := int64(1); seed <= 5; seed++ {
		_, other, _ := Split(rows, 0.2, seed)
		for i := range base {
			if base[i].CustomerID != other[i].CustomerID {
				return
			}
		}
	}
	t.Fatalf("five different seeds all produced the seed-42 split")
}

func TestTrainExactLinearFit(t *testing.T) {
	a, m, err := Train(linearTable(t, 40), DefaultTrainOptions())
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if math.Abs(m.R2-1) > 1e-9 {
		t.Fatalf("R2: want=1 got=%v", m.R2)
	}
	if m.RMSE > 1e-6 {
		t.Fatalf("RMSE: want~0 got=%v", m.RMSE)
	}
	if a.Metrics() != m {
		t.Fatalf("artifact metrics %+v differ from returned %+v", a.Metrics(), m)
	}

	train, test := a.Rows()
	if train != 32 || test != 8 {
		t.Fatalf("rows: want 32/8 got %d/%d", train, test)
	}
	if a.Seed() != DefaultSeed || a.TestFraction() != DefaultTestFraction {
		t.Fatalf("artifact must carry its split: seed=%d fraction=%v", a.Seed(), a.TestFraction())
	}

	got, err := Predict(a, 10, 3)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if math.Abs(got-210) > 1e-6 {
		t.Fatalf("Predict(10,3): want=210 got=%v", got)
	}
}

func TestTrainReproducible(t *testing.T) {
	table := linearTable(t, 30)
	opts := TrainOptions{TestFraction: 0.25, Seed: 7}

	a1, m1, err := Train(table, opts)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	a2, m2, err := Train(table, opts)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	if m1 != m2 {
		t.Fatalf("metrics differ: %+v vs %+v", m1, m2)
	}
	if a1.Version() != a2.Version() {
		t.Fatalf("versions differ: %s vs %s", a1.Version(), a2.Version())
	}
	b1, _ := json.Marshal(a1)
	b2, _ := json.Marshal(a2)
	if string(b1) != string(b2) {
		t.Fatalf("artifacts differ:\n%s\n%s", b1, b2)
	}

	a3, _, err := Train(table, TrainOptions{TestFraction: 0.25, Seed: 8})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if a3.Version() == a1.Version() {
		t.Fatalf("different seed must produce a different version")
	}
}

func TestTrainInsufficientData(t *testing.T) {
	_, _, err := Train(linearTable(t, 9), DefaultTrainOptions())
	var ide *domain.InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("want InsufficientDataError, got %v", err)
	}
	if ide.Rows != 9 || ide.Required != MinTrainingRows {
		t.Fatalf("unexpected error context: %+v", ide)
	}

	_, _, err = Train(linearTable(t, 10), TrainOptions{TestFraction: 0.8, Seed: 1})
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("tiny train partition: want ErrInsufficientData, got %v", err)
	}

	_, _, err = Train(nil, DefaultTrainOptions())
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("nil table: want ErrInsufficientData, got %v", err)
	}
}

func TestTrainRejectsBadFraction(t *testing.T) {
	table := linearTable(t, 20)
	for _, f := range []float64{0, 1, -0.2, 1.5, math.NaN()} {
		if _, _, err := Train(table, TrainOptions{TestFraction: f, Seed: 1}); !errors.Is(err, domain.ErrInvalidTrainOptions) {
			t.Fatalf("fraction %v: want ErrInvalidTrainOptions, got %v", f, err)
		}
	}
}

func TestTrainDegenerateFeatures(t *testing.T) {
	t.Run("constant recency", func(t *testing.T) {
		var recs []domain.RFMRecord
		for i := 1; i <= 15; i++ {
			recs = append(recs, domain.RFMRecord{CustomerID: int64(i), Recency: 5, Frequency: i, Monetary: float64(10 * i)})
		}
		_, _, err := Train(tableOf(t, recs), DefaultTrainOptions())
		var mfe *domain.ModelFitError
		if !errors.As(err, &mfe) || !errors.Is(err, domain.ErrModelFit) {
			t.Fatalf("want ModelFitError, got %v", err)
		}
	})

	t.Run("collinear features", func(t *testing.T) {
		var recs []domain.RFMRecord
		for i := 1; i <= 15; i++ {
			recs = append(recs, domain.RFMRecord{CustomerID: int64(i), Recency: i, Frequency: i, Monetary: float64(3 * i)})
		}
		_, _, err := Train(tableOf(t, recs), DefaultTrainOptions())
		if !errors.Is(err, domain.ErrModelFit) {
			t.Fatalf("want ErrModelFit, got %v", err)
		}
	})
}

func TestPredictRejectsInvalidFeatures(t *testing.T) {
	a, _, err := Train(linearTable(t, 20), DefaultTrainOptions())
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	cases := []struct {
		recency, frequency float64
		feature            string
	}{
		{-1, 5, "Recency"},
		{3, -0.5, "Frequency"},
		{math.NaN(), 1, "Recency"},
		{1, math.Inf(1), "Frequency"},
	}
	for _, tc := range cases {
		_, err := Predict(a, tc.recency, tc.frequency)
		var ife *domain.InvalidFeatureError
		if !errors.As(err, &ife) {
			t.Fatalf("Predict(%v,%v): want InvalidFeatureError, got %v", tc.recency, tc.frequency, err)
		}
		if ife.Feature != tc.feature {
			t.Fatalf("Predict(%v,%v): feature want=%s got=%s", tc.recency, tc.frequency, tc.feature, ife.Feature)
		}
	}

	if _, err := Predict(a, 0, 0); err != nil {
		t.Fatalf("Predict(0,0): zero features are valid, got %v", err)
	}
}

func TestPredictWithoutArtifact(t *testing.T) {
	v, err := Predict(nil, 10, 2)
	if err != nil {
		t.Fatalf("Predict(nil): %v", err)
	}
	if !math.IsNaN(v) {
		t.Fatalf("Predict(nil): want NaN got %v", v)
	}

	v, err = Predict(&Artifact{}, 10, 2)
	if err != nil || !math.IsNaN(v) {
		t.Fatalf("Predict(empty artifact): want NaN, nil got %v, %v", v, err)
	}

	if _, err := Predict(nil, -1, 2); !errors.Is(err, domain.ErrInvalidFeature) {
		t.Fatalf("Predict(nil, -1): want ErrInvalidFeature, got %v", err)
	}
}

func TestPredictIsPure(t *testing.T) {
	a, _, err := Train(linearTable(t, 20), DefaultTrainOptions())
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	before, _ := json.Marshal(a)

	first, _ := Predict(a, 12, 4)
	for i := 0; i < 100; i++ {
		got, _ := Predict(a, 12, 4)
		if got != first {
			t.Fatalf("Predict not stable: %v vs %v", got, first)
		}
	}

	after, _ := json.Marshal(a)
	if string(before) != string(after) {
		t.Fatalf("Predict mutated the artifact")
	}
}

func TestArtifactJSONRoundTrip(t *testing.T) {
	a, _, err := Train(linearTable(t, 20), DefaultTrainOptions())
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	a = a.withTrainedAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var loaded Artifact
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if loaded.Info() != a.Info() {
		t.Fatalf("info differs:\n%+v\n%+v", loaded.Info(), a.Info())
	}

	want, _ := Predict(a, 7, 2)
	got, _ := Predict(&loaded, 7, 2)
	if got != want {
		t.Fatalf("loaded artifact predicts %v, want %v", got, want)
	}
}

func TestArtifactRejectsCorruptJSON(t *testing.T) {
	a, _, err := Train(linearTable(t, 20), DefaultTrainOptions())
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	data, _ := json.Marshal(a)

	tamper := func(key string, v any) []byte {
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("Unmarshal map: %v", err)
		}
		m[key] = v
		out, _ := json.Marshal(m)
		return out
	}

	cases := map[string][]byte{
		"truncated":         data[:len(data)/2],
		"coefficients":      tamper("coefficients", []float64{1, 2, 3}),
		"zero std":          tamper("stds", []float64{0, 1}),
		"wrong shape":       tamper("means", []float64{1}),
		"unknown algorithm": tamper("algorithm", "random-forest"),
		"no test rows":      tamper("test_rows", 0),
	}
	for name, raw := range cases {
		if _, err := DecodeArtifact(raw); !errors.Is(err, domain.ErrCorruptArtifact) {
			t.Fatalf("%s: want ErrCorruptArtifact, got %v", name, err)
		}
	}
}

func TestR2ConstantTarget(t *testing.T) {
	if got := r2Score([]float64{3, 3, 3}, []float64{3, 3, 3}); got != 1 {
		t.Fatalf("exact constant fit: want 1 got %v", got)
	}
	if got := r2Score([]float64{3, 3, 3}, []float64{3, 4, 3}); got != 0 {
		t.Fatalf("inexact constant fit: want 0 got %v", got)
	}
	if got := rmse([]float64{1, 2}, []float64{2, 4}); math.Abs(got-math.Sqrt(2.5)) > 1e-12 {
		t.Fatalf("rmse: want %v got %v", math.Sqrt(2.5), got)
	}
}

func TestSolveLinear(t *testing.T) {
	// 2x + y - z = 8, -3x - y + 2z = -11, -2x + y + 2z = -3 -> (2, 3, -1)
	A := [][]float64{{2, 1, -1}, {-3, -1, 2}, {-2, 1, 2}}
	x, err := solveLinear(A, []float64{8, -11, -3})
	if err != nil {
		t.Fatalf("solveLinear: %v", err)
	}
	for i, want := range []float64{2, 3, -1} {
		if math.Abs(x[i]-want) > 1e-9 {
			t.Fatalf("x[%d]: want=%v got=%v", i, want, x[i])
		}
	}

	if _, err := solveLinear([][]float64{{1, 2}, {2, 4}}, []float64{1, 2}); !errors.Is(err, errSingular) {
		t.Fatalf("singular: want errSingular, got %v", err)
	}
}
