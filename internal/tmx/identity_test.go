package tmx_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tmx-go/internal/testutil"
	"tmx-go/internal/tmx"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"9a0364b9e99bb480dd25e1f0284c8555"`, "9a0364b9e99bb480dd25e1f0284c8555"},
		{"9A0364B9E99BB480DD25E1F0284C8555", "9a0364b9e99bb480dd25e1f0284c8555"},
		{` "ABC" `, "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := tmx.NormalizeTag(tt.in); got != tt.want {
			t.Errorf("NormalizeTag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIdentityResolver_FindByIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("empty tag issues no storage call", func(t *testing.T) {
		gw := testutil.NewMockGateway()
		r := tmx.NewIdentityResolver(gw, nil, tmx.NewNopLogger())

		key, found, err := r.FindByIdentity(ctx, "models", "")
		if err != nil {
			t.Fatalf("FindByIdentity() error = %v", err)
		}
		if found || key != "" {
			t.Errorf("FindByIdentity() = %q, %v, want absent", key, found)
		}
		if gw.ListCalls != 0 {
			t.Errorf("ListCalls = %d, want 0", gw.ListCalls)
		}
	})

	t.Run("finds object by fingerprint despite quoting and case", func(t *testing.T) {
		gw := testutil.NewMockGateway()
		etag := gw.AddObject("models", "extrusion/Arm.FCStd", []byte("content"), nil)
		r := tmx.NewIdentityResolver(gw, nil, tmx.NewNopLogger())

		// The document records the tag quoted and upper-cased.
		tag := "\"" + strings.ToUpper(tmx.NormalizeTag(etag)) + "\""
		key, found, err := r.FindByIdentity(ctx, "models", tag)
		if err != nil {
			t.Fatalf("FindByIdentity() error = %v", err)
		}
		if !found || key != "extrusion/Arm.FCStd" {
			t.Errorf("FindByIdentity() = %q, %v, want extrusion/Arm.FCStd, true", key, found)
		}
	})

	t.Run("absent fingerprint reports not found", func(t *testing.T) {
		gw := testutil.NewMockGateway()
		gw.AddObject("models", "extrusion/Arm.FCStd", []byte("content"), nil)
		r := tmx.NewIdentityResolver(gw, nil, tmx.NewNopLogger())

		_, found, err := r.FindByIdentity(ctx, "models", "deadbeef")
		if err != nil {
			t.Fatalf("FindByIdentity() error = %v", err)
		}
		if found {
			t.Error("FindByIdentity() found a fingerprint that does not exist")
		}
	})

	t.Run("cache hit skips the bucket scan", func(t *testing.T) {
		gw := testutil.NewMockGateway()
		cat := testutil.NewTestCatalog(t)
		if err := cat.SaveIdentity("models", "cafebabe", "extrusion/Arm.FCStd"); err != nil {
			t.Fatalf("SaveIdentity() error = %v", err)
		}
		r := tmx.NewIdentityResolver(gw, cat, tmx.NewNopLogger())

		key, found, err := r.FindByIdentity(ctx, "models", "cafebabe")
		if err != nil {
			t.Fatalf("FindByIdentity() error = %v", err)
		}
		if !found || key != "extrusion/Arm.FCStd" {
			t.Errorf("FindByIdentity() = %q, %v", key, found)
		}
		if gw.ListCalls != 0 {
			t.Errorf("ListCalls = %d, want 0 (cache hit)", gw.ListCalls)
		}
	})

	t.Run("scan result is written back to the cache", func(t *testing.T) {
		gw := testutil.NewMockGateway()
		etag := gw.AddObject("models", "laminadora/Roller.FCStd", []byte("x"), nil)
		cat := testutil.NewTestCatalog(t)
		r := tmx.NewIdentityResolver(gw, cat, tmx.NewNopLogger())

		if _, found, err := r.FindByIdentity(ctx, "models", etag); err != nil || !found {
			t.Fatalf("FindByIdentity() = %v, %v", found, err)
		}

		cached, ok, err := cat.LookupIdentity("models", tmx.NormalizeTag(etag))
		if err != nil {
			t.Fatalf("LookupIdentity() error = %v", err)
		}
		if !ok || cached != "laminadora/Roller.FCStd" {
			t.Errorf("LookupIdentity() = %q, %v, want cached key", cached, ok)
		}
	})

	t.Run("scan failure reports absent plus the error", func(t *testing.T) {
		gw := testutil.NewMockGateway()
		gw.AddBucket("models")
		gw.FailList = errors.New("connection reset")
		r := tmx.NewIdentityResolver(gw, nil, tmx.NewNopLogger())

		key, found, err := r.FindByIdentity(ctx, "models", "cafebabe")
		if err == nil {
			t.Fatal("expected error from failed scan")
		}
		if found || key != "" {
			t.Errorf("FindByIdentity() = %q, %v, want absent", key, found)
		}
	})
}
