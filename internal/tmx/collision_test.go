package tmx_test

import (
	"context"
	"testing"

	"tmx-go/internal/testutil"
	"tmx-go/internal/tmx"
)

func TestDetectCollision(t *testing.T) {
	ctx := context.Background()

	t.Run("existing filename in target folder is a collision", func(t *testing.T) {
		gw := testutil.NewMockGateway()
		gw.AddObject("svg", "extrusion/Arm.svg", []byte("x"), nil)

		existing, err := tmx.DetectCollision(ctx, gw, "svg", "extrusion/", "Arm.svg")
		if err != nil {
			t.Fatalf("DetectCollision() error = %v", err)
		}
		if existing == nil {
			t.Fatal("DetectCollision() = nil, want collision")
		}
		if existing.Key != "extrusion/Arm.svg" {
			t.Errorf("existing.Key = %q", existing.Key)
		}
	})

	t.Run("different filename is free", func(t *testing.T) {
		gw := testutil.NewMockGateway()
		gw.AddObject("svg", "extrusion/Arm.svg", []byte("x"), nil)

		existing, err := tmx.DetectCollision(ctx, gw, "svg", "extrusion/", "Leg.svg")
		if err != nil {
			t.Fatalf("DetectCollision() error = %v", err)
		}
		if existing != nil {
			t.Errorf("DetectCollision() = %v, want nil", existing)
		}
	})

	t.Run("same filename in a deeper folder is not a collision", func(t *testing.T) {
		gw := testutil.NewMockGateway()
		gw.AddObject("svg", "extrusion/rodillos/Arm.svg", []byte("x"), nil)

		existing, err := tmx.DetectCollision(ctx, gw, "svg", "extrusion/", "Arm.svg")
		if err != nil {
			t.Fatalf("DetectCollision() error = %v", err)
		}
		if existing != nil {
			t.Errorf("DetectCollision() = %v, want nil", existing)
		}
	})

	t.Run("same filename at the bucket root is scoped out", func(t *testing.T) {
		gw := testutil.NewMockGateway()
		gw.AddObject("svg", "Arm.svg", []byte("x"), nil)

		existing, err := tmx.DetectCollision(ctx, gw, "svg", "extrusion/", "Arm.svg")
		if err != nil {
			t.Fatalf("DetectCollision() error = %v", err)
		}
		if existing != nil {
			t.Errorf("DetectCollision() = %v, want nil", existing)
		}
	})
}
