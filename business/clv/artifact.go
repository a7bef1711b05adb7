package clv

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"salesInsight/domain"
)

// Algorithm identifies the regression technique in stored artifacts.
const Algorithm = "ols-standardized"

var artifactNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("salesInsight/clv/artifact"))

// Artifact is a fitted CLV model together with its held-out metrics and the
// split that produced it. It is never modified after Train returns it.
type Artifact struct {
	version      string
	model        linearModel
	metrics      domain.ModelMetrics
	seed         int64
	testFraction float64
	trainRows    int
	testRows     int
	trainedAt    time.Time
}

func newArtifact(m linearModel, metrics domain.ModelMetrics, opts TrainOptions, trainRows, testRows int) *Artifact {
	a := &Artifact{
		model:        m,
		metrics:      metrics,
		seed:         opts.Seed,
		testFraction: opts.TestFraction,
		trainRows:    trainRows,
		testRows:     testRows,
	}
	a.version = a.fingerprint()
	return a
}

// fingerprint derives the version from everything but the training time, so
// identical runs yield identical versions.
func (a *Artifact) fingerprint() string {
	var sb strings.Builder
	sb.WriteString(Algorithm)
	for _, v := range a.model.means {
		sb.WriteString("|" + strconv.FormatFloat(v, 'g', -1, 64))
	}
	for _, v := range a.model.stds {
		sb.WriteString("|" + strconv.FormatFloat(v, 'g', -1, 64))
	}
	for _, v := range a.model.coef {
		sb.WriteString("|" + strconv.FormatFloat(v, 'g', -1, 64))
	}
	fmt.Fprintf(&sb, "|%d|%s|%d|%d", a.seed, strconv.FormatFloat(a.testFraction, 'g', -1, 64), a.trainRows, a.testRows)
	return uuid.NewSHA1(artifactNamespace, []byte(sb.String())).String()
}

// withTrainedAt returns a copy stamped with t.
func (a *Artifact) withTrainedAt(t time.Time) *Artifact {
	cp := *a
	cp.trainedAt = t
	return &cp
}

func (a *Artifact) Version() string              { return a.version }
func (a *Artifact) Metrics() domain.ModelMetrics { return a.metrics }
func (a *Artifact) Seed() int64                  { return a.seed }
func (a *Artifact) TestFraction() float64        { return a.testFraction }
func (a *Artifact) TrainedAt() time.Time         { return a.trainedAt }
func (a *Artifact) Algorithm() string            { return Algorithm }
func (a *Artifact) Rows() (train int, test int)  { return a.trainRows, a.testRows }

// Info is the metadata shown by the gateway.
func (a *Artifact) Info() domain.ModelInfo {
	return domain.ModelInfo{
		Version:      a.version,
		Algorithm:    Algorithm,
		Metrics:      a.metrics,
		Seed:         a.seed,
		TestFraction: a.testFraction,
		TrainRows:    a.trainRows,
		TestRows:     a.testRows,
		TrainedAt:    a.trainedAt,
	}
}

func (a *Artifact) valid() bool {
	return a != nil && a.version != "" && a.model.valid()
}

type artifactWire struct {
	Version      string              `json:"version"`
	Algorithm    string              `json:"algorithm"`
	Features     []string            `json:"features"`
	Means        []float64           `json:"means"`
	Stds         []float64           `json:"stds"`
	Coefficients []float64           `json:"coefficients"`
	Metrics      domain.ModelMetrics `json:"metrics"`
	Seed         int64               `json:"seed"`
	TestFraction float64             `json:"test_fraction"`
	TrainRows    int                 `json:"train_rows"`
	TestRows     int                 `json:"test_rows"`
	TrainedAt    time.Time           `json:"trained_at"`
}

func (a *Artifact) MarshalJSON() ([]byte, error) {
	if !a.valid() {
		return nil, fmt.Errorf("marshal artifact: %w", domain.ErrCorruptArtifact)
	}
	return json.Marshal(artifactWire{
		Version:      a.version,
		Algorithm:    Algorithm,
		Features:     FeatureNames[:],
		Means:        a.model.means[:],
		Stds:         a.model.stds[:],
		Coefficients: a.model.coef[:],
		Metrics:      a.metrics,
		Seed:         a.seed,
		TestFraction: a.testFraction,
		TrainRows:    a.trainRows,
		TestRows:     a.testRows,
		TrainedAt:    a.trainedAt,
	})
}

// UnmarshalJSON rejects anything that does not describe exactly the artifact
// its version was derived from.
func (a *Artifact) UnmarshalJSON(data []byte) error {
	var w artifactWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCorruptArtifact, err)
	}
	if w.Algorithm != Algorithm {
		return fmt.Errorf("%w: unsupported algorithm %q", domain.ErrCorruptArtifact, w.Algorithm)
	}
	if len(w.Means) != featureDim || len(w.Stds) != featureDim || len(w.Coefficients) != featureDim+1 {
		return fmt.Errorf("%w: parameter shape mismatch", domain.ErrCorruptArtifact)
	}
	if w.TrainRows < minTrainRows || w.TestRows < 1 {
		return fmt.Errorf("%w: row counts %d/%d", domain.ErrCorruptArtifact, w.TrainRows, w.TestRows)
	}

	out := Artifact{
		version:      w.Version,
		metrics:      w.Metrics,
		seed:         w.Seed,
		testFraction: w.TestFraction,
		trainRows:    w.TrainRows,
		testRows:     w.TestRows,
		trainedAt:    w.TrainedAt,
	}
	copy(out.model.means[:], w.Means)
	copy(out.model.stds[:], w.Stds)
	copy(out.model.coef[:], w.Coefficients)

	if !out.model.valid() {
		return fmt.Errorf("%w: invalid parameters", domain.ErrCorruptArtifact)
	}
	if out.fingerprint() != w.Version {
		return fmt.Errorf("%w: version %q does not match parameters", domain.ErrCorruptArtifact, w.Version)
	}

	*a = out
	return nil
}

// DecodeArtifact parses a stored artifact. Every failure, including malformed
// JSON, wraps domain.ErrCorruptArtifact.
func DecodeArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		if errors.Is(err, domain.ErrCorruptArtifact) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptArtifact, err)
	}
	return &a, nil
}
