package config

import "testing"

func TestValidateAndSetDefaults(t *testing.T) {
	cfg := Default()
	cfg.MaxSubprocesses = 0 // force the smart-default path

	validator := NewValidator()
	if err := validator.ValidateAndSetDefaults(cfg); err != nil {
		t.Fatalf("ValidateAndSetDefaults failed: %v", err)
	}

	if cfg.MaxSubprocesses == 0 {
		t.Errorf("MaxSubprocesses should have been set to CPU count")
	}
}

func TestValidateAndSetDefaults_EmptySearchRoots(t *testing.T) {
	cfg := Default()
	cfg.SearchRoots = nil

	if err := NewValidator().ValidateAndSetDefaults(cfg); err == nil {
		t.Errorf("expected an error for empty search roots")
	}
}

func TestValidateAndSetDefaults_EmptyRootEntry(t *testing.T) {
	cfg := Default()
	cfg.SearchRoots = []string{"/var/log", ""}

	if err := NewValidator().ValidateAndSetDefaults(cfg); err == nil {
		t.Errorf("expected an error for an empty search root entry")
	}
}

func TestValidateAndSetDefaults_NonPositiveLargeFileMB(t *testing.T) {
	cfg := Default()
	cfg.LargeFileMB = 0

	if err := NewValidator().ValidateAndSetDefaults(cfg); err == nil {
		t.Errorf("expected an error for LargeFileMB <= 0")
	}
}

func TestValidateAndSetDefaults_NegativeMaxSubprocesses(t *testing.T) {
	cfg := Default()
	cfg.MaxSubprocesses = -1

	if err := NewValidator().ValidateAndSetDefaults(cfg); err == nil {
		t.Errorf("expected an error for negative MaxSubprocesses")
	}
}

func TestValidateChunkConfig(t *testing.T) {
	validator := NewValidator()

	if err := validator.validateChunkConfig(&ChunkConfig{MinChunkBytes: 0, MaxChunksPerFile: 8}); err == nil {
		t.Errorf("expected an error for non-positive MinChunkBytes")
	}
	if err := validator.validateChunkConfig(&ChunkConfig{MinChunkBytes: 1024, MaxChunksPerFile: 0}); err == nil {
		t.Errorf("expected an error for non-positive MaxChunksPerFile")
	}
	if err := validator.validateChunkConfig(&ChunkConfig{MinChunkBytes: 1024, MaxChunksPerFile: 8}); err != nil {
		t.Errorf("unexpected error for a valid chunk config: %v", err)
	}
}

func TestValidateAnomalyConfig(t *testing.T) {
	validator := NewValidator()

	if err := validator.validateAnomalyConfig(&AnomalyConfig{WindowSize: 0, MaxRanges: 10}); err == nil {
		t.Errorf("expected an error for non-positive WindowSize")
	}
	if err := validator.validateAnomalyConfig(&AnomalyConfig{WindowSize: 32, MaxRanges: 0}); err == nil {
		t.Errorf("expected an error for non-positive MaxRanges")
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(Default()); err != nil {
		t.Errorf("ValidateConfig on defaults should not fail: %v", err)
	}
}
