// Package model adapts a trained scoring artifact to the domain.Scorer
// contract. The artifact is produced offline; this package only loads it
// and serves predictions.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/opensource-finance/harrier/internal/domain"
)

// Artifact file names expected inside the model directory.
const (
	ArtifactFile   = "credit_model.json"
	MetricsFile    = "model_metrics.json"
	ImportanceFile = "feature_importance.json"
)

// Artifact is the serialized scoring model: a calibrated linear scorer
// over standardized numeric features plus indicator terms. Weight keys are
// either plain feature names ("debt_to_income_ratio"), indicator terms of
// the form "feature=value" ("employment_type=unemployed"), or boolean flag
// names ("has_guarantor").
type Artifact struct {
	Name    string             `json:"name"`
	Version string             `json:"version"`
	Bias    float64            `json:"bias"`
	Weights map[string]float64 `json:"weights"`
	Means   map[string]float64 `json:"means"`
	Stddevs map[string]float64 `json:"stddevs"`
}

// Provider implements domain.Scorer over a loaded artifact. The artifact
// is immutable after load and shared read-only across all requests.
type Provider struct {
	artifact   *Artifact
	metrics    map[string]float64
	importance map[string]float64
	topFactors []domain.ModelFactor // precomputed descending ranking
}

// Load reads the artifact and its sidecars from dir. A missing artifact
// file is not an error at startup: the provider loads in an unavailable
// state and every Score call fails closed with ErrModelUnavailable.
// Missing sidecars degrade to empty metrics or importances.
func Load(dir string) (*Provider, error) {
	p := &Provider{
		metrics:    map[string]float64{},
		importance: map[string]float64{},
	}

	if err := readJSON(filepath.Join(dir, ArtifactFile), &p.artifact); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load model artifact: %w", err)
		}
		slog.Warn("model artifact not found, scoring unavailable", "path", filepath.Join(dir, ArtifactFile))
	}

	if err := readJSON(filepath.Join(dir, MetricsFile), &p.metrics); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load model metrics: %w", err)
	}
	if err := readJSON(filepath.Join(dir, ImportanceFile), &p.importance); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load feature importances: %w", err)
	}

	p.topFactors = rankFactors(p.importance)
	return p, nil
}

// NewFromArtifact builds a provider around an already-parsed artifact.
func NewFromArtifact(artifact *Artifact, metrics, importance map[string]float64) *Provider {
	if metrics == nil {
		metrics = map[string]float64{}
	}
	if importance == nil {
		importance = map[string]float64{}
	}
	return &Provider{
		artifact:   artifact,
		metrics:    metrics,
		importance: importance,
		topFactors: rankFactors(importance),
	}
}

// Loaded reports whether a scoring artifact is available.
func (p *Provider) Loaded() bool {
	return p.artifact != nil
}

// Score computes the credit-worthiness probability for the feature set.
func (p *Provider) Score(fs domain.FeatureSet) (float64, error) {
	if p.artifact == nil {
		return 0, domain.ErrModelUnavailable
	}

	z := p.artifact.Bias
	for key, weight := range p.artifact.Weights {
		z += weight * p.term(key, fs)
	}

	return 1 / (1 + math.Exp(-z)), nil
}

// term resolves one weight key against the feature set. Indicator terms
// contribute 1 when the categorical value matches; numeric terms are
// standardized when the artifact carries moments for them.
func (p *Provider) term(key string, fs domain.FeatureSet) float64 {
	for i := 0; i < len(key); i++ {
		if key[i] == '=' {
			if fs.String(key[:i]) == key[i+1:] {
				return 1
			}
			return 0
		}
	}

	x := fs.Number(key)
	if mean, ok := p.artifact.Means[key]; ok {
		std := p.artifact.Stddevs[key]
		if std <= 0 {
			std = 1
		}
		x = (x - mean) / std
	}
	return x
}

// TopFactors returns the n most important factors, descending by
// importance; equal importances order lexicographically by factor name.
func (p *Provider) TopFactors(n int) []domain.ModelFactor {
	if n > len(p.topFactors) {
		n = len(p.topFactors)
	}
	out := make([]domain.ModelFactor, n)
	copy(out, p.topFactors[:n])
	return out
}

// Metrics returns the offline evaluation metrics of the artifact.
func (p *Provider) Metrics() map[string]float64 {
	return p.metrics
}

// Info describes the loaded artifact for the model info endpoint.
func (p *Provider) Info() *domain.ModelInfo {
	name := "credit-scoring-model"
	version := "unknown"
	if p.artifact != nil {
		if p.artifact.Name != "" {
			name = p.artifact.Name
		}
		if p.artifact.Version != "" {
			version = p.artifact.Version
		}
	}
	return &domain.ModelInfo{
		Name:       name,
		Version:    version,
		Loaded:     p.Loaded(),
		Metrics:    p.metrics,
		TopFactors: p.TopFactors(10),
	}
}

func rankFactors(importance map[string]float64) []domain.ModelFactor {
	factors := make([]domain.ModelFactor, 0, len(importance))
	for name, imp := range importance {
		factors = append(factors, domain.ModelFactor{Factor: name, Importance: imp})
	}
	sort.Slice(factors, func(i, j int) bool {
		if factors[i].Importance != factors[j].Importance {
			return factors[i].Importance > factors[j].Importance
		}
		return factors[i].Factor < factors[j].Factor
	})
	return factors
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
