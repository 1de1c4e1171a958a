package services_test

import (
	"context"
	"testing"

	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithStage(ctx, "plan")
	ctx = services.WithASIN(ctx, "B000TEST01")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "plan" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if asin, ok := services.ASINFromContext(ctx); !ok || asin != "B000TEST01" {
		t.Fatalf("unexpected asin: %v %v", asin, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithASIN(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.ASINFromContext(ctx); ok {
		t.Fatal("expected no asin value")
	}
}
