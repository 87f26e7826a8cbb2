package workflow

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/merohisab/retail_backend/config"
	"github.com/merohisab/retail_backend/models"
	"github.com/merohisab/retail_backend/utils"
)

// EditSalesBill replaces a posted sales bill's contents while keeping its
// identity: the bill number and document id survive, everything else is
// recomputed from the new input. The sequence is strict:
//
//  1. restore every recorded batch allocation (recreating pruned batches
//     from the allocation's stored date and rate),
//  2. remove the superseded ledger legs and line rows,
//  3. re-post against the restored stock, exactly as a fresh posting would.
//
// Restoring before re-allocating matters: the new lines may want the very
// lots the old lines consumed. All inside one transaction under the posting
// lock, so a failure at any step leaves the original bill fully intact.
func EditSalesBill(ctx context.Context, db *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, id int, input *models.NewSalesBill) (*models.SalesBill, error) {
	ctx, span := tracer.Start(ctx, "EditSalesBill")
	defer span.End()

	if err := fy.Validate(); err != nil {
		return nil, err
	}
	var bill *models.SalesBill
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, fy.CompanyId, fy.FiscalYearId); err != nil {
			return utils.WrapStorageError(err)
		}
		defer ReleasePostingLock(tx, fy.CompanyId, fy.FiscalYearId)

		edited, err := editSalesBill(tx, logger, fy, id, input)
		if err != nil {
			return err
		}
		bill = edited
		return nil
	})
	if err != nil {
		config.LogError(logger, "editWorkflow.go", "EditSalesBill", "Transaction", input, err)
		return nil, utils.WrapStorageError(err)
	}
	span.SetAttributes(attribute.String("bill_number", bill.BillNumber))
	return bill, nil
}

func editSalesBill(tx *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, id int, input *models.NewSalesBill) (*models.SalesBill, error) {
	existing, err := models.FetchModel[models.SalesBill](tx, fy.CompanyId, id, "Details", "Details.Allocations")
	if err != nil {
		return nil, err
	}
	if existing.FiscalYearId != fy.FiscalYearId {
		return nil, utils.NewNotFoundError("sales bill", id)
	}
	if existing.Status == models.VoucherStatusCanceled {
		return nil, utils.NewValidationError("status", "canceled bills cannot be edited")
	}
	if err := models.ValidateVoucherDate(tx, fy, input.Date); err != nil {
		return nil, err
	}
	account, err := models.GetAccount(tx, fy, input.AccountId)
	if err != nil {
		return nil, err
	}

	if err := restoreBillAllocations(tx, fy, existing); err != nil {
		return nil, err
	}
	affected, err := removeSupersededLegs(tx, fy, existing)
	if err != nil {
		return nil, err
	}
	if err := removeBillDetails(tx, existing); err != nil {
		return nil, err
	}

	details := make([]models.SalesBillDetail, 0, len(input.Items))
	lines := make([]utils.VoucherLine, 0, len(input.Items))
	for _, line := range input.Items {
		item, err := models.GetItem(tx, fy, line.Item)
		if err != nil {
			return nil, err
		}
		if !line.Quantity.IsPositive() {
			return nil, utils.NewValidationError("quantity", "must be positive")
		}
		if line.Price.IsNegative() {
			return nil, utils.NewValidationError("price", "must not be negative")
		}
		amount := line.Quantity.Mul(line.Price)
		details = append(details, models.SalesBillDetail{
			SalesBillId: existing.ID,
			ItemId:      item.ID,
			Qty:         line.Quantity,
			Price:       line.Price,
			Unit:        line.Unit,
			Amount:      amount,
		})
		lines = append(lines, utils.VoucherLine{
			Amount:  amount,
			Vatable: item.VatStatus == models.VatStatusVatable,
		})
	}

	isVatExempt := input.IsVatExempt
	if isVatExempt == "" {
		isVatExempt = utils.VatExemptNone
	}
	totals := utils.CalculateVoucherTotals(lines, input.VatPercentage, input.DiscountPercentage, isVatExempt, input.RoundOffAmount)

	// old legs are gone, so the fold already excludes this bill's previous exposure
	if input.PaymentMode == models.PaymentModeCredit {
		if err := CheckCreditLimit(tx, logger, fy, account.ID, totals.TotalAmount); err != nil {
			return nil, err
		}
	}

	for i := range details {
		line := input.Items[i]
		var allocations []BatchAllocation
		if line.BatchNumber != "" || line.UniqueUuId != "" {
			allocations, err = AllocateBatch(tx, fy, details[i].ItemId, line.BatchNumber, line.UniqueUuId, details[i].Qty)
		} else {
			allocations, err = AllocateFIFO(tx, fy, details[i].ItemId, details[i].Qty)
		}
		if err != nil {
			return nil, err
		}
		for _, allocation := range allocations {
			details[i].Allocations = append(details[i].Allocations, models.SalesBillDetailAllocation{
				BatchNumber:  allocation.BatchNumber,
				UniqueUuId:   allocation.UniqueUuId,
				Qty:          allocation.Qty,
				BatchDate:    allocation.BatchDate,
				PurchaseRate: allocation.PurchaseRate,
			})
		}
	}

	updates := map[string]interface{}{
		"account_id":          account.ID,
		"date":                input.Date,
		"payment_mode":        input.PaymentMode,
		"sub_total":           totals.SubTotal,
		"discount_percentage": input.DiscountPercentage,
		"discount_amount":     totals.DiscountAmount,
		"taxable_amount":      totals.TaxableAmount,
		"non_vat_sales":       totals.NonVatSales,
		"vat_percentage":      input.VatPercentage,
		"vat_amount":          totals.VatAmount,
		"is_vat_exempt":       isVatExempt,
		"round_off_amount":    totals.RoundOffAmount,
		"total_amount":        totals.TotalAmount,
	}
	if err := tx.Model(&models.SalesBill{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
		return nil, utils.WrapStorageError(err)
	}
	for i := range details {
		if err := tx.Create(&details[i]).Error; err != nil {
			return nil, utils.WrapStorageError(err)
		}
	}

	bill, err := models.FetchModel[models.SalesBill](tx, fy.CompanyId, existing.ID, "Details", "Details.Allocations")
	if err != nil {
		return nil, err
	}
	legs, err := salesLegs(tx, fy, bill, account)
	if err != nil {
		return nil, err
	}
	for i := range legs {
		if err := appendLeg(tx, logger, fy, &legs[i]); err != nil {
			return nil, err
		}
		bill.TransactionIds = append(bill.TransactionIds, legs[i].ID)
		affected = append(affected, legs[i].AccountId)
	}
	if err := UpdateClosingBalances(tx, logger, fy, utils.MergeIntSlices(affected, nil)); err != nil {
		return nil, err
	}
	return bill, nil
}

// restoreBillAllocations puts back every quantity the bill's lines took out
// of stock, grouped per item so each item's aggregate is recomputed once.
func restoreBillAllocations(tx *gorm.DB, fy models.FiscalYearContext, bill *models.SalesBill) error {
	perItem := make(map[int][]BatchAllocation)
	for _, detail := range bill.Details {
		for _, allocation := range detail.Allocations {
			perItem[detail.ItemId] = append(perItem[detail.ItemId], BatchAllocation{
				BatchNumber:  allocation.BatchNumber,
				UniqueUuId:   allocation.UniqueUuId,
				Qty:          allocation.Qty,
				BatchDate:    allocation.BatchDate,
				PurchaseRate: allocation.PurchaseRate,
			})
		}
	}
	for itemId, allocations := range perItem {
		if err := RestoreAllocations(tx, fy, itemId, allocations); err != nil {
			return err
		}
	}
	return nil
}

// removeSupersededLegs deletes the bill's current ledger legs. This is the
// single sanctioned bypass of the ledger's delete guard, hence SkipHooks.
// Returns the affected account ids so closing balances can be refreshed even
// for accounts the new legs no longer touch.
func removeSupersededLegs(tx *gorm.DB, fy models.FiscalYearContext, bill *models.SalesBill) ([]int, error) {
	var legs []models.Transaction
	err := tx.Where("company_id = ? AND ref_type = ? AND ref_id = ?", fy.CompanyId, models.VoucherTypeSales, bill.ID).
		Find(&legs).Error
	if err != nil {
		return nil, utils.WrapStorageError(err)
	}
	accountIds := make([]int, 0, len(legs))
	for _, leg := range legs {
		accountIds = append(accountIds, leg.AccountId)
	}
	err = tx.Session(&gorm.Session{SkipHooks: true}).
		Where("company_id = ? AND ref_type = ? AND ref_id = ?", fy.CompanyId, models.VoucherTypeSales, bill.ID).
		Delete(&models.Transaction{}).Error
	if err != nil {
		return nil, utils.WrapStorageError(err)
	}
	return accountIds, nil
}

func removeBillDetails(tx *gorm.DB, bill *models.SalesBill) error {
	detailIds := make([]int, 0, len(bill.Details))
	for _, detail := range bill.Details {
		detailIds = append(detailIds, detail.ID)
	}
	if len(detailIds) == 0 {
		return nil
	}
	if err := tx.Where("detail_id IN ?", detailIds).Delete(&models.SalesBillDetailAllocation{}).Error; err != nil {
		return utils.WrapStorageError(err)
	}
	if err := tx.Where("sales_bill_id = ?", bill.ID).Delete(&models.SalesBillDetail{}).Error; err != nil {
		return utils.WrapStorageError(err)
	}
	return nil
}
