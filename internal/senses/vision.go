package senses

import (
	"context"

	"github.com/vthunder/cube/internal/types"
)

// Detector finds labeled objects in an image
type Detector interface {
	Detect(ctx context.Context, imagePath string) ([]types.Detection, error)
}

// FixtureDetector returns the same detections for every image. It stands
// in for the camera model during development and tests.
type FixtureDetector struct {
	Fixtures []types.Detection
	Err      error
}

// NewFixtureDetector creates a detector that always reports fixtures
func NewFixtureDetector(fixtures ...types.Detection) *FixtureDetector {
	return &FixtureDetector{Fixtures: fixtures}
}

func (d *FixtureDetector) Detect(ctx context.Context, imagePath string) ([]types.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Err != nil {
		return nil, d.Err
	}
	result := make([]types.Detection, len(d.Fixtures))
	copy(result, d.Fixtures)
	return result, nil
}
