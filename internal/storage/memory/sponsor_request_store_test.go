package memory

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/storage"
)

func testRequest(campaignID string, sponsor domain.Address, requestedAt int64) *domain.SponsorRequest {
	return &domain.SponsorRequest{
		CampaignID:   campaignID,
		Sponsor:      sponsor,
		PendingFunds: big.NewInt(150),
		RequestedAt:  requestedAt,
	}
}

func TestSponsorRequestStore_InsertAndGet(t *testing.T) {
	store := NewSponsorRequestStore()
	ctx := context.Background()

	sponsor := domain.AddressFromSeed("sponsor")
	if err := store.Insert(ctx, testRequest("camp-1", sponsor, 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.Get(ctx, "camp-1", sponsor)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.PendingFunds.Cmp(big.NewInt(150)) != 0 {
		t.Errorf("PendingFunds mismatch: got %s, want 150", got.PendingFunds)
	}

	// Same sponsor on another campaign is a distinct key.
	if err := store.Insert(ctx, testRequest("camp-2", sponsor, 1001)); err != nil {
		t.Errorf("Insert on second campaign failed: %v", err)
	}
}

func TestSponsorRequestStore_DuplicateKey(t *testing.T) {
	store := NewSponsorRequestStore()
	ctx := context.Background()

	sponsor := domain.AddressFromSeed("sponsor")
	r := testRequest("camp-1", sponsor, 1000)
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.Insert(ctx, r); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestSponsorRequestStore_Delete(t *testing.T) {
	store := NewSponsorRequestStore()
	ctx := context.Background()

	sponsor := domain.AddressFromSeed("sponsor")
	if err := store.Insert(ctx, testRequest("camp-1", sponsor, 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Delete(ctx, "camp-1", sponsor); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "camp-1", sponsor); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "camp-1", sponsor); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on double delete, got %v", err)
	}
}

func TestSponsorRequestStore_ListByCampaign(t *testing.T) {
	store := NewSponsorRequestStore()
	ctx := context.Background()

	first := domain.AddressFromSeed("sponsor-1")
	second := domain.AddressFromSeed("sponsor-2")

	if err := store.Insert(ctx, testRequest("camp-1", second, 2000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, testRequest("camp-1", first, 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, testRequest("camp-2", first, 500)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.ListByCampaign(ctx, "camp-1")
	if err != nil {
		t.Fatalf("ListByCampaign failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 requests, got %d", len(got))
	}
	// Ordered by request time ascending.
	if got[0].Sponsor != first || got[1].Sponsor != second {
		t.Errorf("Unexpected order: %s, %s", got[0].Sponsor, got[1].Sponsor)
	}
}

func TestSponsorRequestStore_InvalidInput(t *testing.T) {
	store := NewSponsorRequestStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, testRequest("", domain.AddressFromSeed("s"), 1)); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty campaign ID, got %v", err)
	}
	if err := store.Insert(ctx, testRequest("camp-1", domain.ZeroAddress, 1)); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero sponsor, got %v", err)
	}
}
