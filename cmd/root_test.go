package cmd

import (
	"errors"
	"testing"
	"time"

	"github.com/theirongolddev/budgetchat/internal/config"
	"github.com/theirongolddev/budgetchat/internal/estimate"
)

func TestNewEstimatorByKind(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "")

	cfg := config.DefaultConfig()
	est, err := newEstimator(cfg)
	if err != nil {
		t.Fatalf("canned: %v", err)
	}
	if _, ok := est.(*estimate.Canned); !ok {
		t.Errorf("canned kind built %T", est)
	}

	cfg.Estimator.Kind = config.EstimatorHTTP
	cfg.Estimator.Endpoint = "http://127.0.0.1:9000/estimate"
	est, err = newEstimator(cfg)
	if err != nil {
		t.Fatalf("http: %v", err)
	}
	if _, ok := est.(*estimate.HTTP); !ok {
		t.Errorf("http kind built %T", est)
	}

	cfg.Estimator.Kind = config.EstimatorOpenAI
	cfg.Estimator.APIKey = "sk-test"
	est, err = newEstimator(cfg)
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := est.(*estimate.OpenAI); !ok {
		t.Errorf("openai kind built %T", est)
	}

	cfg.Estimator.Kind = "carrier-pigeon"
	if _, err := newEstimator(cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("unknown kind err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadConfigAppliesFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Cleanup(func() {
		flagSeed, flagTimeout, flagNoArchive = "", 0, false
	})

	flagSeed = config.SeedEmpty
	flagTimeout = 1500 * time.Millisecond
	flagNoArchive = true

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.General.Seed != config.SeedEmpty {
		t.Errorf("seed = %q", cfg.General.Seed)
	}
	if cfg.Timeout() != 2*time.Second {
		t.Errorf("timeout = %s, want 2s (rounded up)", cfg.Timeout())
	}
	if cfg.General.Archive {
		t.Error("--no-archive should disable the archive")
	}
}

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"serve", "--detach", "--addr", ":9000", "--detach=true"})
	want := []string{"serve", "--addr", ":9000"}
	if len(got) != len(want) {
		t.Fatalf("filterDetachArg = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("filterDetachArg = %q, want %q", got, want)
		}
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := map[string]string{
		"sk-1234567890abcdefXYZ": "sk-12345...fXYZ",
		"short-key":              "shor...",
		"abc":                    "****",
	}
	for in, want := range tests {
		if got := maskAPIKey(in); got != want {
			t.Errorf("maskAPIKey(%q) = %q, want %q", in, got, want)
		}
	}
}
