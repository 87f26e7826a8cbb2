package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/merohisab/retail_backend/models"
	"github.com/merohisab/retail_backend/utils"
)

func batch(id int, day int, qty string) models.StockBatch {
	return models.StockBatch{
		ID:           id,
		ItemId:       1,
		BatchNumber:  "B",
		UniqueUuId:   "uuid-" + string(rune('a'+id)),
		Qty:          dec(qty),
		Date:         time.Date(2024, 7, day, 0, 0, 0, 0, time.UTC),
		PurchaseRate: dec("80"),
	}
}

func TestPlanFIFO_OldestFirst(t *testing.T) {
	batches := []models.StockBatch{
		batch(3, 20, "10"),
		batch(1, 10, "4"),
		batch(2, 15, "6"),
	}
	allocations, err := PlanFIFO(batches, 1, dec("8"))
	if err != nil {
		t.Fatalf("PlanFIFO: %v", err)
	}
	if len(allocations) != 2 {
		t.Fatalf("got %d allocations, want 2", len(allocations))
	}
	if allocations[0].BatchId != 1 || !allocations[0].Qty.Equal(dec("4")) {
		t.Fatalf("first allocation = batch %d qty %s, want batch 1 qty 4", allocations[0].BatchId, allocations[0].Qty)
	}
	if allocations[1].BatchId != 2 || !allocations[1].Qty.Equal(dec("4")) {
		t.Fatalf("second allocation = batch %d qty %s, want batch 2 qty 4", allocations[1].BatchId, allocations[1].Qty)
	}
}

func TestPlanFIFO_DateTieBrokenById(t *testing.T) {
	batches := []models.StockBatch{
		batch(9, 10, "5"),
		batch(2, 10, "5"),
	}
	allocations, err := PlanFIFO(batches, 1, dec("5"))
	if err != nil {
		t.Fatalf("PlanFIFO: %v", err)
	}
	if allocations[0].BatchId != 2 {
		t.Fatalf("tie should go to lower id: got batch %d", allocations[0].BatchId)
	}
}

func TestPlanFIFO_AllocatedSumEqualsRequested(t *testing.T) {
	batches := []models.StockBatch{
		batch(1, 1, "3.5"),
		batch(2, 2, "2.25"),
		batch(3, 3, "10"),
	}
	required := dec("7.75")
	allocations, err := PlanFIFO(batches, 1, required)
	if err != nil {
		t.Fatalf("PlanFIFO: %v", err)
	}
	sum := decimal.Zero
	for _, a := range allocations {
		sum = sum.Add(a.Qty)
		if !a.Qty.IsPositive() {
			t.Fatalf("allocation with non-positive qty %s", a.Qty)
		}
	}
	if !sum.Equal(required) {
		t.Fatalf("allocated %s, want %s", sum, required)
	}
}

func TestPlanFIFO_InsufficientStock(t *testing.T) {
	batches := []models.StockBatch{
		batch(1, 1, "2"),
		batch(2, 2, "3"),
	}
	_, err := PlanFIFO(batches, 7, dec("6"))
	var stockErr *utils.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.ItemId != 7 {
		t.Fatalf("ItemId = %d, want 7", stockErr.ItemId)
	}
	if !stockErr.Available.Equal(dec("5")) || !stockErr.Required.Equal(dec("6")) {
		t.Fatalf("available/required = %s/%s, want 5/6", stockErr.Available, stockErr.Required)
	}
}

func TestPlanFIFO_RejectsNonPositiveQty(t *testing.T) {
	for _, qty := range []string{"0", "-1"} {
		_, err := PlanFIFO([]models.StockBatch{batch(1, 1, "10")}, 1, dec(qty))
		var ve *utils.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("qty %s: expected ValidationError, got %v", qty, err)
		}
	}
}

func TestPlanFIFO_DoesNotMutateInput(t *testing.T) {
	batches := []models.StockBatch{
		batch(2, 15, "6"),
		batch(1, 10, "4"),
	}
	if _, err := PlanFIFO(batches, 1, dec("5")); err != nil {
		t.Fatalf("PlanFIFO: %v", err)
	}
	if batches[0].ID != 2 || batches[1].ID != 1 {
		t.Fatal("PlanFIFO reordered the caller's slice")
	}
	if !batches[0].Qty.Equal(dec("6")) || !batches[1].Qty.Equal(dec("4")) {
		t.Fatal("PlanFIFO mutated batch quantities")
	}
}

func TestPlanFIFO_SkipsEmptyBatches(t *testing.T) {
	batches := []models.StockBatch{
		batch(1, 1, "0"),
		batch(2, 2, "5"),
	}
	allocations, err := PlanFIFO(batches, 1, dec("5"))
	if err != nil {
		t.Fatalf("PlanFIFO: %v", err)
	}
	if len(allocations) != 1 || allocations[0].BatchId != 2 {
		t.Fatalf("zero-qty batch should be skipped: %+v", allocations)
	}
}

func TestBatchQtySum(t *testing.T) {
	batches := []models.StockBatch{
		batch(1, 1, "1.5"),
		batch(2, 2, "2.5"),
	}
	if got := models.BatchQtySum(batches); !got.Equal(dec("4")) {
		t.Fatalf("BatchQtySum = %s, want 4", got)
	}
}

func TestPlanRestore_RoundTrip(t *testing.T) {
	original := []models.StockBatch{
		batch(1, 1, "4"),
		batch(2, 2, "6"),
	}
	allocations, err := PlanFIFO(original, 1, dec("7"))
	if err != nil {
		t.Fatalf("PlanFIFO: %v", err)
	}

	// after applying: batch 1 fully consumed and pruned, batch 2 down to 3
	applied := []models.StockBatch{batch(2, 2, "6")}
	applied[0].Qty = dec("3")

	restored := planRestore(1, applied, allocations)
	if got := models.BatchQtySum(restored); !got.Equal(dec("10")) {
		t.Fatalf("restored stock = %s, want the original 10", got)
	}
	if len(restored) != 2 {
		t.Fatalf("got %d batches after restore, want 2", len(restored))
	}
	var recreated *models.StockBatch
	for i := range restored {
		if restored[i].ID == 0 {
			recreated = &restored[i]
		}
	}
	if recreated == nil {
		t.Fatal("pruned batch was not recreated")
	}
	if recreated.UniqueUuId != original[0].UniqueUuId ||
		!recreated.Date.Equal(original[0].Date) ||
		!recreated.PurchaseRate.Equal(original[0].PurchaseRate) ||
		!recreated.Qty.Equal(dec("4")) {
		t.Fatalf("recreated batch lost its identity: %+v", recreated)
	}
}

func TestPlanRestore_AddsToSurvivingBatch(t *testing.T) {
	surviving := []models.StockBatch{batch(2, 2, "3")}
	allocations := []BatchAllocation{{
		BatchId:    2,
		UniqueUuId: surviving[0].UniqueUuId,
		Qty:        dec("3"),
	}}
	restored := planRestore(1, surviving, allocations)
	if len(restored) != 1 || !restored[0].Qty.Equal(dec("6")) {
		t.Fatalf("restore should add onto the surviving batch: %+v", restored)
	}
	if !surviving[0].Qty.Equal(dec("3")) {
		t.Fatal("planRestore mutated the caller's slice")
	}
}

// An edit restores the old lines' stock before allocating the new ones, so
// the new lines may consume the very lots the old lines held. After restore
// plus reallocation the item's stock reflects the new line set only.
func TestPlanRestore_ThenReallocate(t *testing.T) {
	original := []models.StockBatch{
		batch(1, 1, "4"),
		batch(2, 2, "6"),
	}
	allocations, err := PlanFIFO(original, 1, dec("7"))
	if err != nil {
		t.Fatalf("PlanFIFO: %v", err)
	}
	applied := []models.StockBatch{batch(2, 2, "6")}
	applied[0].Qty = dec("3")

	restored := planRestore(1, applied, allocations)
	reallocated, err := PlanFIFO(restored, 1, dec("5"))
	if err != nil {
		t.Fatalf("reallocation after restore: %v", err)
	}
	// the recreated oldest lot is consumed first again
	if reallocated[0].UniqueUuId != original[0].UniqueUuId || !reallocated[0].Qty.Equal(dec("4")) {
		t.Fatalf("first reallocation = %+v, want the restored oldest batch in full", reallocated[0])
	}
	sum := decimal.Zero
	for _, a := range reallocated {
		sum = sum.Add(a.Qty)
	}
	if remaining := models.BatchQtySum(restored).Sub(sum); !remaining.Equal(dec("5")) {
		t.Fatalf("stock after edit = %s, want 5 (10 on hand, new lines take 5)", remaining)
	}
}
