package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/kartoza/plasma-dashboard/internal/models"
)

// Config holds engine configuration
type Config struct {
	Grid      models.GridDimensions
	Economics Economics
	Messages  Messages

	// NewSource is called once per prediction
	NewSource func() Source
	Now       func() time.Time
	NewID     func() string
}

// DefaultConfig returns the standard grid, economics and a fresh random source per prediction
func DefaultConfig() Config {
	return Config{
		Grid:      DefaultGrid,
		Economics: DefaultEconomics(),
		Messages:  DefaultMessages,
		NewSource: newRandomSource,
		Now:       func() time.Time { return time.Now().UTC() },
		NewID:     func() string { return uuid.New().String() },
	}
}

// Engine predicts etch chamber behaviour from process parameters.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// New creates an engine. Unset fields in cfg fall back to DefaultConfig.
func New(cfg Config) *Engine {
	def := DefaultConfig()

	if cfg.Grid.X < 2 || cfg.Grid.Y < 2 || cfg.Grid.Z < 2 {
		cfg.Grid = def.Grid
	}
	if cfg.Economics.BatchSize <= 0 {
		cfg.Economics = def.Economics
	}
	if cfg.Messages == nil {
		cfg.Messages = def.Messages
	}
	if cfg.NewSource == nil {
		cfg.NewSource = def.NewSource
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = def.NewID
	}

	return &Engine{cfg: cfg}
}

// Predict validates the parameters and runs the full model.
// Invalid parameters return a *models.ValidationError and no partial result.
func (e *Engine) Predict(p models.ProcessParameters) (*models.PredictionResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	src := e.cfg.NewSource()

	factors := Normalize(p)
	dist := SimulateField(p, factors, e.cfg.Grid, src)
	quality := PredictQuality(p, dist, src)
	status := ClassifyStatus(quality)
	stability := GenerateStability(p, dist, quality.EtchUniformity, src)
	recs := Recommend(p, dist, quality, status, e.cfg.Messages)
	roi := CalculateROI(quality, status, e.cfg.Economics)

	return &models.PredictionResult{
		ID:                  e.cfg.NewID(),
		CreatedAt:           e.cfg.Now(),
		Parameters:          p,
		RadicalDistribution: dist,
		QualityMetrics:      quality,
		RoiMetrics:          &roi,
		StabilityData:       stability,
		Status:              status,
		Recommendations:     recs,
	}, nil
}
