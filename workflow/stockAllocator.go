package workflow

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/merohisab/retail_backend/models"
	"github.com/merohisab/retail_backend/utils"
)

// BatchAllocation is one batch's contribution to satisfying a requested
// quantity. BatchDate and PurchaseRate are carried along so a reversal can
// recreate the batch after it has been pruned at zero.
type BatchAllocation struct {
	BatchId      int             `json:"batch_id"`
	BatchNumber  string          `json:"batch_number"`
	UniqueUuId   string          `json:"unique_uu_id"`
	Qty          decimal.Decimal `json:"qty"`
	BatchDate    time.Time       `json:"batch_date"`
	PurchaseRate decimal.Decimal `json:"purchase_rate"`
}

// PlanFIFO decides which batches satisfy a requested quantity, oldest date
// first (id ascending breaks date ties). Pure: it never touches storage, so
// the allocation order is testable without a database. The batch slice is not
// mutated.
func PlanFIFO(batches []models.StockBatch, itemId int, required decimal.Decimal) ([]BatchAllocation, error) {
	if !required.IsPositive() {
		return nil, utils.NewValidationError("quantity", "must be positive")
	}
	available := models.BatchQtySum(batches)
	if available.LessThan(required) {
		return nil, &utils.InsufficientStockError{ItemId: itemId, Available: available, Required: required}
	}

	ordered := make([]models.StockBatch, len(batches))
	copy(ordered, batches)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].ID < ordered[j].ID
	})

	var allocations []BatchAllocation
	remaining := required
	for _, batch := range ordered {
		if !remaining.IsPositive() {
			break
		}
		if !batch.Qty.IsPositive() {
			continue
		}
		take := decimal.Min(batch.Qty, remaining)
		allocations = append(allocations, BatchAllocation{
			BatchId:      batch.ID,
			BatchNumber:  batch.BatchNumber,
			UniqueUuId:   batch.UniqueUuId,
			Qty:          take,
			BatchDate:    batch.Date,
			PurchaseRate: batch.PurchaseRate,
		})
		remaining = remaining.Sub(take)
	}
	return allocations, nil
}

// lockBatches reads an item's batches under FOR UPDATE so two concurrent
// postings cannot both consume the same lot. Must run inside the posting
// transaction.
func lockBatches(tx *gorm.DB, itemId int) ([]models.StockBatch, error) {
	var batches []models.StockBatch
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("item_id = ?", itemId).
		Order("date, id").
		Find(&batches).Error
	if err != nil {
		return nil, utils.WrapStorageError(err)
	}
	return batches, nil
}

// AllocateFIFO consumes stock for one item oldest-batch-first, decrements the
// chosen batches, prunes any batch that reaches zero, and recomputes the
// item's aggregate stock from the surviving batches. The recompute (rather
// than a decrement) self-heals any drift between Item.Stock and its batches.
func AllocateFIFO(tx *gorm.DB, fy models.FiscalYearContext, itemId int, required decimal.Decimal) ([]BatchAllocation, error) {
	if _, err := models.FetchModel[models.Item](tx, fy.CompanyId, itemId); err != nil {
		return nil, err
	}
	batches, err := lockBatches(tx, itemId)
	if err != nil {
		return nil, err
	}
	allocations, err := PlanFIFO(batches, itemId, required)
	if err != nil {
		return nil, err
	}
	if err := applyAllocations(tx, itemId, batches, allocations); err != nil {
		return nil, err
	}
	return allocations, nil
}

// AllocateBatch consumes stock from one caller-chosen batch, addressed by
// uuid when given (batch numbers are reusable), else by batch number.
func AllocateBatch(tx *gorm.DB, fy models.FiscalYearContext, itemId int, batchNumber string, uniqueUuId string, required decimal.Decimal) ([]BatchAllocation, error) {
	if !required.IsPositive() {
		return nil, utils.NewValidationError("quantity", "must be positive")
	}
	if _, err := models.FetchModel[models.Item](tx, fy.CompanyId, itemId); err != nil {
		return nil, err
	}
	batches, err := lockBatches(tx, itemId)
	if err != nil {
		return nil, err
	}

	var chosen *models.StockBatch
	for i := range batches {
		if uniqueUuId != "" {
			if batches[i].UniqueUuId == uniqueUuId {
				chosen = &batches[i]
				break
			}
			continue
		}
		if batches[i].BatchNumber == batchNumber {
			chosen = &batches[i]
			break
		}
	}
	if chosen == nil {
		return nil, utils.NewNotFoundError("stock batch", batchNumber)
	}
	if chosen.Qty.LessThan(required) {
		return nil, &utils.InsufficientStockError{ItemId: itemId, Available: chosen.Qty, Required: required}
	}

	allocations := []BatchAllocation{{
		BatchId:      chosen.ID,
		BatchNumber:  chosen.BatchNumber,
		UniqueUuId:   chosen.UniqueUuId,
		Qty:          required,
		BatchDate:    chosen.Date,
		PurchaseRate: chosen.PurchaseRate,
	}}
	if err := applyAllocations(tx, itemId, batches, allocations); err != nil {
		return nil, err
	}
	return allocations, nil
}

func applyAllocations(tx *gorm.DB, itemId int, batches []models.StockBatch, allocations []BatchAllocation) error {
	byId := make(map[int]*models.StockBatch, len(batches))
	for i := range batches {
		byId[batches[i].ID] = &batches[i]
	}
	for _, allocation := range allocations {
		batch := byId[allocation.BatchId]
		batch.Qty = batch.Qty.Sub(allocation.Qty)
		if batch.Qty.IsZero() {
			if err := tx.Delete(&models.StockBatch{}, batch.ID).Error; err != nil {
				return utils.WrapStorageError(err)
			}
			continue
		}
		if err := tx.Model(&models.StockBatch{}).Where("id = ?", batch.ID).
			Update("qty", batch.Qty).Error; err != nil {
			return utils.WrapStorageError(err)
		}
	}
	return recomputeItemStock(tx, itemId, batches)
}

func recomputeItemStock(tx *gorm.DB, itemId int, batches []models.StockBatch) error {
	stock := models.BatchQtySum(batches)
	err := tx.Model(&models.Item{}).Where("id = ?", itemId).
		Update("stock", stock).Error
	if err != nil {
		return utils.WrapStorageError(err)
	}
	return nil
}

// planRestore computes the batch set after previously applied allocations are
// put back: quantity returns to the surviving batch (matched by uuid, since
// batch numbers are reusable) and pruned batches are recreated from the
// allocation's recorded date and rate. Pure; recreated batches carry ID 0
// until persisted. The caller's slice is not mutated.
func planRestore(itemId int, batches []models.StockBatch, allocations []BatchAllocation) []models.StockBatch {
	restored := make([]models.StockBatch, len(batches))
	copy(restored, batches)
	byUuid := make(map[string]int, len(restored))
	for i := range restored {
		byUuid[restored[i].UniqueUuId] = i
	}
	for _, allocation := range allocations {
		if i, ok := byUuid[allocation.UniqueUuId]; ok {
			restored[i].Qty = restored[i].Qty.Add(allocation.Qty)
			continue
		}
		restored = append(restored, models.StockBatch{
			ItemId:       itemId,
			BatchNumber:  allocation.BatchNumber,
			UniqueUuId:   allocation.UniqueUuId,
			Qty:          allocation.Qty,
			Date:         allocation.BatchDate,
			PurchaseRate: allocation.PurchaseRate,
		})
		byUuid[allocation.UniqueUuId] = len(restored) - 1
	}
	return restored
}

// RestoreAllocations reverses previously applied allocations for one item,
// persisting the plan from planRestore. Used by the edit flow before
// re-allocating against the new lines.
func RestoreAllocations(tx *gorm.DB, fy models.FiscalYearContext, itemId int, allocations []BatchAllocation) error {
	if _, err := models.FetchModel[models.Item](tx, fy.CompanyId, itemId); err != nil {
		return err
	}
	batches, err := lockBatches(tx, itemId)
	if err != nil {
		return err
	}
	restored := planRestore(itemId, batches, allocations)

	for i := range restored {
		if restored[i].ID == 0 {
			if err := tx.Create(&restored[i]).Error; err != nil {
				return utils.WrapStorageError(err)
			}
			continue
		}
		if !restored[i].Qty.Equal(batches[i].Qty) {
			if err := tx.Model(&models.StockBatch{}).Where("id = ?", restored[i].ID).
				Update("qty", restored[i].Qty).Error; err != nil {
				return utils.WrapStorageError(err)
			}
		}
	}
	return recomputeItemStock(tx, itemId, restored)
}
