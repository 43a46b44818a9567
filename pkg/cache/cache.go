// Package cache provides stage-result caching for the pipeline.
//
// Classifying and aggregating a century of source tables is the expensive
// part of a run; the layout stage is cheap and frequently re-run while
// tuning alignment or category order. The cache stores serialized stage
// results keyed by content hashes of the inputs and the configuration, so
// an unchanged year never reprocesses.
package cache

import (
	"context"
	"time"
)

// Cache stores serialized stage results.
//
// Get returns the data and whether the key was present. A miss is not an
// error; errors are reserved for storage failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys for the pipeline's stages. Keys must change
// whenever any input that affects the stage's output changes.
type Keyer interface {
	// TableKey identifies one year's aggregated rows: the year, a hash of
	// the year's raw input tables, and a hash of the classification and
	// aggregation configuration.
	TableKey(year int, inputHash, configHash string) string

	// LayoutKey identifies a full layout result: a hash of the aggregated
	// table and the layout options.
	LayoutKey(tableHash string, opts LayoutKeyOpts) string
}

// LayoutKeyOpts are the layout options that affect cache identity.
type LayoutKeyOpts struct {
	Mode          string `json:"mode"`
	TrunkCategory string `json:"trunk_category"`
	TrunkLabel    string `json:"trunk_label"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// TableKey generates a key for one year's aggregated rows.
func (k *DefaultKeyer) TableKey(year int, inputHash, configHash string) string {
	return hashKey("table", year, inputHash, configHash)
}

// LayoutKey generates a key for a layout result.
func (k *DefaultKeyer) LayoutKey(tableHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", tableHash, opts)
}
