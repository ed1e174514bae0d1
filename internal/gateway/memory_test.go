package gateway_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tmx-go/internal/gateway"
)

func putObject(t *testing.T, g *gateway.MemoryGateway, bucket, key, content string, metadata map[string]string) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "src")
	if err := os.WriteFile(src, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	etag, err := g.PutObject(context.Background(), bucket, key, src, metadata)
	if err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}
	return etag
}

func TestMemoryGateway_Buckets(t *testing.T) {
	ctx := context.Background()
	g := gateway.NewMemoryGateway()

	exists, err := g.BucketExists(ctx, "models")
	if err != nil {
		t.Fatalf("BucketExists() error = %v", err)
	}
	if exists {
		t.Error("bucket exists before MakeBucket")
	}

	if err := g.MakeBucket(ctx, "models"); err != nil {
		t.Fatalf("MakeBucket() error = %v", err)
	}
	exists, err = g.BucketExists(ctx, "models")
	if err != nil {
		t.Fatalf("BucketExists() error = %v", err)
	}
	if !exists {
		t.Error("bucket missing after MakeBucket")
	}

	// MakeBucket is idempotent.
	if err := g.MakeBucket(ctx, "models"); err != nil {
		t.Errorf("second MakeBucket() error = %v", err)
	}
}

func TestMemoryGateway_PutStatGet(t *testing.T) {
	ctx := context.Background()
	g := gateway.NewMemoryGateway()
	if err := g.MakeBucket(ctx, "models"); err != nil {
		t.Fatal(err)
	}

	etag := putObject(t, g, "models", "extrusion/Arm.FCStd", "solid arm", map[string]string{"revision": "1.00"})
	if etag == "" {
		t.Fatal("PutObject() returned empty etag")
	}

	stat, err := g.StatObject(ctx, "models", "extrusion/Arm.FCStd")
	if err != nil {
		t.Fatalf("StatObject() error = %v", err)
	}
	if stat.ETag != etag {
		t.Errorf("stat.ETag = %q, want %q", stat.ETag, etag)
	}
	if stat.Metadata["revision"] != "1.00" {
		t.Errorf("stat.Metadata = %v", stat.Metadata)
	}
	if stat.Size != int64(len("solid arm")) {
		t.Errorf("stat.Size = %d", stat.Size)
	}

	dest := filepath.Join(t.TempDir(), "Arm.FCStd")
	if err := g.GetObject(ctx, "models", "extrusion/Arm.FCStd", dest); err != nil {
		t.Fatalf("GetObject() error = %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "solid arm" {
		t.Errorf("downloaded content = %q", data)
	}

	// Same content yields the same etag.
	again := putObject(t, g, "models", "laminadora/Arm.FCStd", "solid arm", nil)
	if again != etag {
		t.Errorf("etag differs for identical content: %q vs %q", again, etag)
	}
}

func TestMemoryGateway_ListObjects(t *testing.T) {
	ctx := context.Background()
	g := gateway.NewMemoryGateway()
	if err := g.MakeBucket(ctx, "models"); err != nil {
		t.Fatal(err)
	}
	putObject(t, g, "models", "extrusion/Arm.FCStd", "a", nil)
	putObject(t, g, "models", "extrusion/rodillos/Roller.FCStd", "b", nil)
	putObject(t, g, "models", "Root.FCStd", "c", nil)

	t.Run("recursive returns every object", func(t *testing.T) {
		infos, err := g.ListObjects(ctx, "models", "", true)
		if err != nil {
			t.Fatalf("ListObjects() error = %v", err)
		}
		if len(infos) != 3 {
			t.Errorf("ListObjects() returned %d objects, want 3", len(infos))
		}
	})

	t.Run("non-recursive synthesizes folder entries", func(t *testing.T) {
		infos, err := g.ListObjects(ctx, "models", "extrusion/", false)
		if err != nil {
			t.Fatalf("ListObjects() error = %v", err)
		}
		var keys []string
		for _, info := range infos {
			keys = append(keys, info.Key)
		}
		want := []string{"extrusion/Arm.FCStd", "extrusion/rodillos/"}
		if len(keys) != 2 || keys[0] != want[0] || keys[1] != want[1] {
			t.Errorf("keys = %v, want %v", keys, want)
		}
		// Folder entries carry no etag.
		if infos[1].ETag != "" {
			t.Errorf("folder entry ETag = %q, want empty", infos[1].ETag)
		}
	})

	t.Run("missing bucket is an error", func(t *testing.T) {
		if _, err := g.ListObjects(ctx, "nope", "", true); err == nil {
			t.Fatal("expected error for missing bucket")
		}
	})
}

func TestMemoryGateway_RemoveObject(t *testing.T) {
	ctx := context.Background()
	g := gateway.NewMemoryGateway()
	if err := g.MakeBucket(ctx, "models"); err != nil {
		t.Fatal(err)
	}
	putObject(t, g, "models", "extrusion/Arm.FCStd", "a", nil)

	if err := g.RemoveObject(ctx, "models", "extrusion/Arm.FCStd"); err != nil {
		t.Fatalf("RemoveObject() error = %v", err)
	}
	if _, err := g.StatObject(ctx, "models", "extrusion/Arm.FCStd"); err == nil {
		t.Error("object still present after RemoveObject")
	}
}
