package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/andrifs/tokobolen/internal/domain"
)

func TestCatalogFetchesOnce(t *testing.T) {
	src := &staticSource{products: []domain.Product{{ID: "p1", Name: "P1", Price: 10000}}}
	uc := NewCatalogUC(src)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if got := uc.Products(ctx); len(got) != 1 {
			t.Fatalf("expected 1 product, got %d", len(got))
		}
	}
	if src.calls != 1 {
		t.Fatalf("source fetched %d times, want 1", src.calls)
	}
}

func TestCatalogFailureCachesEmptyList(t *testing.T) {
	src := &staticSource{err: errors.New("network down")}
	uc := NewCatalogUC(src)
	ctx := context.Background()

	if got := uc.Products(ctx); len(got) != 0 {
		t.Fatalf("expected empty catalog, got %+v", got)
	}
	// the failed fetch still counts as the session's one population
	if got := uc.Products(ctx); got == nil || len(got) != 0 {
		t.Fatalf("expected cached empty list, got %+v", got)
	}
	if src.calls != 1 {
		t.Fatalf("source fetched %d times after failure, want 1", src.calls)
	}

	if _, ok := uc.ByID(ctx, "p1"); ok {
		t.Fatal("lookup against empty catalog must miss")
	}
}

func TestCatalogByID(t *testing.T) {
	src := &staticSource{products: []domain.Product{
		{ID: "bolen-keju", Name: "Bolen Keju", Price: 15000},
		{ID: "es-campur", Name: "Es Campur", Price: 11000},
	}}
	uc := NewCatalogUC(src)
	ctx := context.Background()

	p, ok := uc.ByID(ctx, "es-campur")
	if !ok || p.Name != "Es Campur" {
		t.Fatalf("ByID = %+v, %v", p, ok)
	}
	if _, ok := uc.ByID(ctx, "nope"); ok {
		t.Fatal("expected miss for unknown id")
	}
}

func TestCatalogInvalidateRefetches(t *testing.T) {
	src := &staticSource{products: []domain.Product{{ID: "p1", Name: "P1"}}}
	uc := NewCatalogUC(src)
	ctx := context.Background()

	uc.Products(ctx)
	src.products = append(src.products, domain.Product{ID: "p2", Name: "P2"})
	uc.Invalidate()

	if got := uc.Products(ctx); len(got) != 2 {
		t.Fatalf("expected refetched catalog of 2, got %d", len(got))
	}
	if src.calls != 2 {
		t.Fatalf("source fetched %d times, want 2", src.calls)
	}
}
