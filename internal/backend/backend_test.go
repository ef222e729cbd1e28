package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"rewards/internal/config"
	"rewards/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:     "mongodb",
		MongoURI:        "mongodb://localhost:27017",
		MongoDatabase:   "rewards",
		MongoCollection: "purchases",
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != MongoDBBackend || cfg.MongoCollection != "purchases" {
		t.Errorf("unexpected backend config %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory without seed", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sheets without id", Config{Type: SheetsBackend}, true},
		{"mongodb without uri", Config{Type: MongoDBBackend, MongoDatabase: "d", MongoCollection: "c"}, true},
		{"mongodb without collection", Config{Type: MongoDBBackend, MongoURI: "mongodb://x", MongoDatabase: "d"}, true},
		{"unknown type", Config{Type: "redis"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	want := config.Backends
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Close()

	recs, err := res.Source.Records(context.Background(), core.ForAccount("cust1"))
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("got %d sample records for cust1, want 3", len(recs))
	}
	if res.Writer == nil {
		t.Error("memory backend should accept writes")
	}
	if err := res.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "data", "rewards.db"),
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Close()

	if err := res.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	recs, err := res.Source.Records(ctx, core.AllAccounts())
	if err != nil || len(recs) != 0 {
		t.Fatalf("fresh database: recs = %v, err = %v", recs, err)
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCreateMemoryBackendRejectsMalformedSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.toml")
	content := "[[purchase]]\naccount = \"cust1\"\namount = \"12O.00\"\ndate = \"2025-01-15\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, SeedFile: path})
	if err == nil {
		res.Close()
		t.Fatal("expected malformed seed file to fail backend creation")
	}
}
