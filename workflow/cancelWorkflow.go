package workflow

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/merohisab/retail_backend/config"
	"github.com/merohisab/retail_backend/models"
	"github.com/merohisab/retail_backend/utils"
)

// CancelVoucher voids a posted voucher of any type: the document row and
// every ledger leg referencing it flip to canceled/inactive in one
// transaction. Nothing is deleted and the bill number is not reused.
//
// Stock consumed by a sales bill is NOT restored on cancel: the goods left
// the shelf regardless of the paperwork's status, and a reactivate would
// otherwise re-consume lots that may no longer exist. Physical returns are a
// sales-return voucher, not a cancellation.
func CancelVoucher(ctx context.Context, db *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, voucherType models.VoucherType, id int) error {
	return setVoucherStatus(ctx, db, logger, fy, voucherType, id, models.VoucherStatusCanceled)
}

// ReactivateVoucher undoes a cancellation, flipping the document and its
// legs back to active. Symmetric with CancelVoucher: no stock movement.
func ReactivateVoucher(ctx context.Context, db *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, voucherType models.VoucherType, id int) error {
	return setVoucherStatus(ctx, db, logger, fy, voucherType, id, models.VoucherStatusActive)
}

func setVoucherStatus(ctx context.Context, db *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, voucherType models.VoucherType, id int, status models.VoucherStatus) error {
	ctx, span := tracer.Start(ctx, "SetVoucherStatus")
	defer span.End()

	if err := fy.Validate(); err != nil {
		return err
	}
	if !voucherType.Valid() {
		return utils.NewValidationError("voucher_type", "unknown voucher type")
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, fy.CompanyId, fy.FiscalYearId); err != nil {
			return utils.WrapStorageError(err)
		}
		defer ReleasePostingLock(tx, fy.CompanyId, fy.FiscalYearId)

		if err := flipDocumentStatus(tx, fy, voucherType, id, status); err != nil {
			return err
		}

		var legs []models.Transaction
		err := tx.Where("company_id = ? AND ref_type = ? AND ref_id = ?", fy.CompanyId, voucherType, id).
			Find(&legs).Error
		if err != nil {
			return utils.WrapStorageError(err)
		}
		accountIds := make([]int, 0, len(legs))
		for _, leg := range legs {
			// per-row update so the ledger immutability hook sees exactly
			// the permitted status fields change
			err := tx.Model(&models.Transaction{ID: leg.ID}).
				Updates(statusFlipValues(status)).Error
			if err != nil {
				return utils.WrapStorageError(err)
			}
			accountIds = append(accountIds, leg.AccountId)
		}
		return UpdateClosingBalances(tx, logger, fy, utils.MergeIntSlices(accountIds, nil))
	})
	if err != nil {
		config.LogError(logger, "cancelWorkflow.go", "SetVoucherStatus", string(status), id, err)
		return utils.WrapStorageError(err)
	}
	return nil
}

// statusFlipValues is the exact column set a cancel or reactivate is allowed
// to touch, on documents and ledger legs alike. is_active always tracks the
// status so the two flags cannot drift apart.
func statusFlipValues(status models.VoucherStatus) map[string]interface{} {
	return map[string]interface{}{
		"status":    status,
		"is_active": status == models.VoucherStatusActive,
	}
}

// documentModelFor maps a voucher type to its parent document table. Sales
// and purchase return codes exist in the ledger and numbering layers but
// have no document tables yet, so they are rejected here.
func documentModelFor(voucherType models.VoucherType) (interface{}, error) {
	switch voucherType {
	case models.VoucherTypeSales:
		return &models.SalesBill{}, nil
	case models.VoucherTypePurchase:
		return &models.PurchaseBill{}, nil
	case models.VoucherTypeJournal:
		return &models.JournalVoucher{}, nil
	case models.VoucherTypeDebitNote:
		return &models.DebitNote{}, nil
	case models.VoucherTypeCreditNote:
		return &models.CreditNote{}, nil
	case models.VoucherTypePayment:
		return &models.PaymentVoucher{}, nil
	case models.VoucherTypeReceipt:
		return &models.ReceiptVoucher{}, nil
	default:
		return nil, utils.NewValidationError("voucher_type", "no document table for voucher type")
	}
}

// flipDocumentStatus updates the parent document row for the voucher type,
// failing with not-found when the document does not exist in this company
// and fiscal year.
func flipDocumentStatus(tx *gorm.DB, fy models.FiscalYearContext, voucherType models.VoucherType, id int, status models.VoucherStatus) error {
	model, err := documentModelFor(voucherType)
	if err != nil {
		return err
	}

	result := tx.Model(model).
		Where("company_id = ? AND fiscal_year_id = ? AND id = ?", fy.CompanyId, fy.FiscalYearId, id).
		Updates(statusFlipValues(status))
	if result.Error != nil {
		return utils.WrapStorageError(result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(model).
			Where("company_id = ? AND fiscal_year_id = ? AND id = ?", fy.CompanyId, fy.FiscalYearId, id).
			Count(&count).Error; err != nil {
			return utils.WrapStorageError(err)
		}
		if count == 0 {
			return utils.NewNotFoundError(string(voucherType), id)
		}
		// already in the requested state; idempotent
	}
	return nil
}
