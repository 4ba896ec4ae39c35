package config

import (
	"testing"
	"time"
)

func TestFromEnvOverlay(t *testing.T) {
	t.Setenv(EnvAddr, ":9000")
	t.Setenv(EnvModelPath, "/opt/ml/model/tiny.gguf")
	t.Setenv(EnvBackend, "llamaserver")
	t.Setenv(EnvWorkers, "2")
	t.Setenv(EnvRequestTimeout, "45s")
	t.Setenv(EnvDrainTimeout, "10")
	t.Setenv(EnvCORSOrigins, "http://a.example, http://b.example")

	cfg, err := FromEnv(Default())
	if err != nil {
		t.Fatalf("fromenv: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.ModelPath != "/opt/ml/model/tiny.gguf" || cfg.Backend != BackendLlamaServer {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Workers != 2 {
		t.Fatalf("workers=%d", cfg.Workers)
	}
	if cfg.RequestTimeout.Std() != 45*time.Second {
		t.Fatalf("request_timeout=%v", cfg.RequestTimeout)
	}
	// bare integers are seconds
	if cfg.DrainTimeout.Std() != 10*time.Second {
		t.Fatalf("drain_timeout=%v", cfg.DrainTimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.example" {
		t.Fatalf("cors=%v", cfg.CORSOrigins)
	}
	// unset vars keep defaults
	if cfg.CtxSize != 4096 || cfg.MaxQueue != 32 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestFromEnvBadValues(t *testing.T) {
	t.Run("workers", func(t *testing.T) {
		t.Setenv(EnvWorkers, "many")
		if _, err := FromEnv(Default()); err == nil {
			t.Fatalf("expected error")
		}
	})
	t.Run("timeout", func(t *testing.T) {
		t.Setenv(EnvRequestTimeout, "soon")
		if _, err := FromEnv(Default()); err == nil {
			t.Fatalf("expected error")
		}
	})
	t.Run("body bytes", func(t *testing.T) {
		t.Setenv(EnvMaxBodyBytes, "1MB")
		if _, err := FromEnv(Default()); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestParseDurationEnvForms(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"30", 30 * time.Second},
		{" 5 ", 5 * time.Second},
		{"1m30s", 90 * time.Second},
		{"250ms", 250 * time.Millisecond},
	}
	for _, c := range cases {
		got, err := parseDurationEnv(c.in)
		if err != nil {
			t.Fatalf("%q: %v", c.in, err)
		}
		if got.Std() != c.want {
			t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
		}
	}
	if _, err := parseDurationEnv("whenever"); err == nil {
		t.Fatalf("expected parse error")
	}
}
