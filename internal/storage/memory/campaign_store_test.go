package memory

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/storage"
)

func testCampaign(id string, host domain.Address, deadline, createdAt int64) *domain.Campaign {
	return &domain.Campaign{
		CampaignID:     id,
		Host:           host,
		Deadline:       deadline,
		SlotsAvailable: 3,
		SlotPrice:      big.NewInt(100),
		TotalRaised:    big.NewInt(0),
		CreatedAt:      createdAt,
	}
}

func TestCampaignStore_InsertAndGet(t *testing.T) {
	store := NewCampaignStore()
	ctx := context.Background()

	host := domain.AddressFromSeed("host")
	c := testCampaign("camp-1", host, 2000, 1000)
	if err := store.Insert(ctx, c); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "camp-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Host != host {
		t.Errorf("Host mismatch: got %s, want %s", got.Host, host)
	}
	if got.SlotPrice.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("SlotPrice mismatch: got %s, want 100", got.SlotPrice)
	}
}

func TestCampaignStore_DuplicateKey(t *testing.T) {
	store := NewCampaignStore()
	ctx := context.Background()

	c := testCampaign("camp-1", domain.AddressFromSeed("host"), 2000, 1000)
	if err := store.Insert(ctx, c); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.Insert(ctx, c); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestCampaignStore_Update(t *testing.T) {
	store := NewCampaignStore()
	ctx := context.Background()

	host := domain.AddressFromSeed("host")
	if err := store.Insert(ctx, testCampaign("camp-1", host, 2000, 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	updated := testCampaign("camp-1", host, 0, 1000)
	updated.SlotsAvailable = 0
	updated.TotalRaised = big.NewInt(500)
	if err := store.Update(ctx, updated); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := store.GetByID(ctx, "camp-1")
	if got.Deadline != 0 || got.SlotsAvailable != 0 {
		t.Errorf("Expected terminal state, got deadline=%d slots=%d", got.Deadline, got.SlotsAvailable)
	}
	if got.TotalRaised.Cmp(big.NewInt(500)) != 0 {
		t.Errorf("Expected raised 500, got %s", got.TotalRaised)
	}

	if err := store.Update(ctx, testCampaign("missing", host, 1, 1)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCampaignStore_ListByHost(t *testing.T) {
	store := NewCampaignStore()
	ctx := context.Background()

	hostA := domain.AddressFromSeed("host-a")
	hostB := domain.AddressFromSeed("host-b")

	if err := store.Insert(ctx, testCampaign("camp-2", hostA, 2000, 2000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, testCampaign("camp-1", hostA, 2000, 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, testCampaign("camp-3", hostB, 2000, 1500)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.ListByHost(ctx, hostA)
	if err != nil {
		t.Fatalf("ListByHost failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 campaigns, got %d", len(got))
	}
	// Ordered by creation time ascending.
	if got[0].CampaignID != "camp-1" || got[1].CampaignID != "camp-2" {
		t.Errorf("Unexpected order: %s, %s", got[0].CampaignID, got[1].CampaignID)
	}
}

func TestCampaignStore_ListActive(t *testing.T) {
	store := NewCampaignStore()
	ctx := context.Background()

	host := domain.AddressFromSeed("host")
	if err := store.Insert(ctx, testCampaign("camp-live", host, 3000, 1)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, testCampaign("camp-expired", host, 1000, 2)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	terminal := testCampaign("camp-terminal", host, 0, 3)
	terminal.SlotsAvailable = 0
	if err := store.Insert(ctx, terminal); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.ListActive(ctx, 2000)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(got) != 1 || got[0].CampaignID != "camp-live" {
		t.Errorf("Expected only camp-live, got %d entries", len(got))
	}
}
