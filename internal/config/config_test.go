package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.TableName != "analysis_duckdb" {
		t.Errorf("default table name = %q", cfg.TableName)
	}
	if cfg.TopNPairs != 15 || cfg.TopNAccounts != 30 {
		t.Errorf("default cutoffs = %d, %d", cfg.TopNPairs, cfg.TopNAccounts)
	}
}

func TestNormalize_Clamping(t *testing.T) {
	tests := []struct {
		name                   string
		pairs, accounts        int
		wantPairs, wantAccount int
	}{
		{"below bounds", 1, 2, MinTopNPairs, MinTopNAccounts},
		{"above bounds", 500, 5000, MaxTopNPairs, MaxTopNAccounts},
		{"in bounds", 20, 50, 20, 50},
		{"zero means default", 0, 0, DefaultTopNPairs, DefaultTopNAccounts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{TopNPairs: tt.pairs, TopNAccounts: tt.accounts}
			cfg.Normalize()
			if cfg.TopNPairs != tt.wantPairs {
				t.Errorf("TopNPairs = %d, want %d", cfg.TopNPairs, tt.wantPairs)
			}
			if cfg.TopNAccounts != tt.wantAccount {
				t.Errorf("TopNAccounts = %d, want %d", cfg.TopNAccounts, tt.wantAccount)
			}
		})
	}
}

func TestNormalize_FillsEmptyStrings(t *testing.T) {
	cfg := Config{}
	cfg.Normalize()
	if cfg.TableName != DefaultTableName || cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("Normalize() = %+v", cfg)
	}
}

func TestLoad_YAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.yaml")
	content := "table_name: sales_2024\ntop_n_pairs: 99\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TableName != "sales_2024" {
		t.Errorf("TableName = %q", cfg.TableName)
	}
	// 99 exceeds the pair bound and must be clamped.
	if cfg.TopNPairs != MaxTopNPairs {
		t.Errorf("TopNPairs = %d, want %d", cfg.TopNPairs, MaxTopNPairs)
	}
	// Untouched fields keep defaults.
	if cfg.TopNAccounts != DefaultTopNAccounts {
		t.Errorf("TopNAccounts = %d", cfg.TopNAccounts)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("table_name: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
