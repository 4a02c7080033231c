// Package engineconfig carries the functional-options configuration and
// LIFO resource cleanup used by the top-level driver.
package engineconfig

import "io"

// PagerConfig holds pager-tunable options.
type PagerConfig struct {
	// CacheCapacityOverride, when > 0, overrides the page cache size
	// derived from the database header's default_page_cache_size field.
	CacheCapacityOverride int
	ValidationMode        ValidationLevel
}

// ValidationLevel names a decoder strictness level. It is stored in
// PagerConfig only; no decoder reads it, so every level decodes the
// same way.
type ValidationLevel int

const (
	ValidationBasic ValidationLevel = iota
	ValidationStrict
)

// Option is a functional option for PagerConfig.
type Option func(*PagerConfig)

// WithCacheCapacity overrides the derived cache capacity.
func WithCacheCapacity(n int) Option {
	return func(cfg *PagerConfig) {
		cfg.CacheCapacityOverride = n
	}
}

// WithValidation records the validation level in PagerConfig.
func WithValidation(level ValidationLevel) Option {
	return func(cfg *PagerConfig) {
		cfg.ValidationMode = level
	}
}

// Default returns the default pager configuration.
func Default() *PagerConfig {
	return &PagerConfig{ValidationMode: ValidationBasic}
}

// ResourceManager closes managed resources in reverse (LIFO) order.
type ResourceManager struct {
	resources []io.Closer
}

// NewResourceManager returns an empty manager.
func NewResourceManager() *ResourceManager {
	return &ResourceManager{}
}

// Add registers a resource for cleanup.
func (rm *ResourceManager) Add(resource io.Closer) {
	rm.resources = append(rm.resources, resource)
}

// Close closes every managed resource, last-added first, returning the
// first error encountered (if any) after attempting them all.
func (rm *ResourceManager) Close() error {
	var first error
	for i := len(rm.resources) - 1; i >= 0; i-- {
		if err := rm.resources[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
