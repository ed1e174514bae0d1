package config_test

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"tmx-go/internal/config"
)

func TestNewConfig(t *testing.T) {
	cfg := config.NewConfig("/base")

	if cfg.LogDir != filepath.Join("/base", "log") {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if cfg.DataDir != filepath.Join("/base", "data") {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Store.Type != "s3" || cfg.Store.Endpoint != "localhost:9000" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Buckets.Models != "cad3dfiles" || cfg.Buckets.Drawings != "svg" {
		t.Errorf("Buckets = %+v", cfg.Buckets)
	}
	if !reflect.DeepEqual(cfg.Areas, config.DefaultAreas) {
		t.Errorf("Areas = %v", cfg.Areas)
	}
}

func TestManager_ReadWrite(t *testing.T) {
	t.Run("round trip preserves all fields", func(t *testing.T) {
		cfg := config.NewConfig("/base")
		cfg.Store.AccessKey = "minio"
		cfg.Store.SecretKey = "secret"
		cfg.Areas = []string{"prototipos"}

		m := &config.Manager{}
		var buf bytes.Buffer
		if err := m.Write(&buf, cfg); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		got, err := m.Read(&buf)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if !reflect.DeepEqual(got, cfg) {
			t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, cfg)
		}
	})

	t.Run("missing areas fall back to defaults", func(t *testing.T) {
		m := &config.Manager{}
		got, err := m.Read(strings.NewReader(`
base_dir = "/base"

[store]
type = "memory"
`))
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if !reflect.DeepEqual(got.Areas, config.DefaultAreas) {
			t.Errorf("Areas = %v, want defaults", got.Areas)
		}
	})

	t.Run("malformed config is an error", func(t *testing.T) {
		m := &config.Manager{}
		if _, err := m.Read(strings.NewReader("not [valid toml")); err == nil {
			t.Fatal("expected decode error")
		}
	})
}

func TestInit(t *testing.T) {
	t.Run("creates the config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "conf", "tmx.toml")
		if err := config.Init(path, config.NewConfig("/base")); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := config.ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Buckets.Models != "cad3dfiles" {
			t.Errorf("Models = %q", got.Buckets.Models)
		}
	})

	t.Run("refuses to clobber an existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tmx.toml")
		if err := config.Init(path, config.NewConfig("/base")); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := config.Init(path, config.NewConfig("/other")); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tmx.toml")
	cfg := config.NewConfig("/base")
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	cfg.Store.Endpoint = "minio.local:9000"
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := config.ReadFromFile(path)
	if err != nil {
		t.Fatalf("ReadFromFile() error = %v", err)
	}
	if got.Store.Endpoint != "minio.local:9000" {
		t.Errorf("Endpoint = %q, want updated value", got.Store.Endpoint)
	}
}
