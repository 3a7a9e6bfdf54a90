package config

import (
	"fmt"
	"runtime"
)

// Validator validates a Config and fills in any defaults that still need
// the running system's characteristics (CPU count) to resolve.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates cfg and applies smart defaults in place.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if len(cfg.SearchRoots) == 0 {
		return fmt.Errorf("config: at least one search root is required")
	}
	for _, root := range cfg.SearchRoots {
		if root == "" {
			return fmt.Errorf("config: search roots cannot contain an empty path")
		}
	}

	if cfg.LargeFileMB <= 0 {
		return fmt.Errorf("config: LargeFileMB must be positive, got %d", cfg.LargeFileMB)
	}

	if cfg.SampleSizeLines <= 0 {
		return fmt.Errorf("config: SampleSizeLines must be positive, got %d", cfg.SampleSizeLines)
	}

	if cfg.MaxSubprocesses < 0 {
		return fmt.Errorf("config: MaxSubprocesses cannot be negative, got %d", cfg.MaxSubprocesses)
	}

	if err := v.validateChunkConfig(&cfg.Chunk); err != nil {
		return err
	}
	if err := v.validateAnomalyConfig(&cfg.Anomaly); err != nil {
		return err
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateChunkConfig(c *ChunkConfig) error {
	if c.MinChunkBytes <= 0 {
		return fmt.Errorf("config: Chunk.MinChunkBytes must be positive, got %d", c.MinChunkBytes)
	}
	if c.MaxChunksPerFile <= 0 {
		return fmt.Errorf("config: Chunk.MaxChunksPerFile must be positive, got %d", c.MaxChunksPerFile)
	}
	return nil
}

func (v *Validator) validateAnomalyConfig(a *AnomalyConfig) error {
	if a.WindowSize <= 0 {
		return fmt.Errorf("config: Anomaly.WindowSize must be positive, got %d", a.WindowSize)
	}
	if a.MaxRanges <= 0 {
		return fmt.Errorf("config: Anomaly.MaxRanges must be positive, got %d", a.MaxRanges)
	}
	return nil
}

// setSmartDefaults fills in the zero-means-auto-detect fields.
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.MaxSubprocesses == 0 {
		cfg.MaxSubprocesses = max(1, runtime.NumCPU())
	}
}

// ValidateConfig is a convenience wrapper around Validator.
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
