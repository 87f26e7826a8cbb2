package workflow

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/merohisab/retail_backend/config"
	"github.com/merohisab/retail_backend/models"
	"github.com/merohisab/retail_backend/utils"
)

// PostJournalVoucher posts a free-form journal: one DR or CR leg per detail
// line. Rejected unless the debit and credit totals are exactly equal, by
// decimal comparison, never float.
func PostJournalVoucher(ctx context.Context, db *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, input *models.NewJournalVoucher) (*models.JournalVoucher, error) {
	ctx, span := tracer.Start(ctx, "PostJournalVoucher")
	defer span.End()

	if err := fy.Validate(); err != nil {
		return nil, err
	}
	var voucher *models.JournalVoucher
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, fy.CompanyId, fy.FiscalYearId); err != nil {
			return utils.WrapStorageError(err)
		}
		defer ReleasePostingLock(tx, fy.CompanyId, fy.FiscalYearId)

		posted, err := postJournalVoucher(tx, logger, fy, input)
		if err != nil {
			return err
		}
		voucher = posted
		return nil
	})
	if err != nil {
		config.LogError(logger, "journalWorkflow.go", "PostJournalVoucher", "Transaction", input, err)
		return nil, utils.WrapStorageError(err)
	}
	span.SetAttributes(attribute.String("bill_number", voucher.BillNumber))
	return voucher, nil
}

func postJournalVoucher(tx *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, input *models.NewJournalVoucher) (*models.JournalVoucher, error) {
	if err := models.ValidateVoucherDate(tx, fy, input.Date); err != nil {
		return nil, err
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	details := make([]models.JournalVoucherDetail, 0, len(input.Details))
	for _, line := range input.Details {
		if _, err := models.GetAccount(tx, fy, line.AccountId); err != nil {
			return nil, err
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return nil, utils.NewValidationError("details", "debit and credit must not be negative")
		}
		if line.Debit.IsZero() == line.Credit.IsZero() {
			return nil, utils.NewValidationError("details", "each line must carry either a debit or a credit")
		}
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
		details = append(details, models.JournalVoucherDetail{
			AccountId:   line.AccountId,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}
	if !totalDebit.Equal(totalCredit) {
		return nil, utils.NewValidationError("details", "debit and credit totals must balance")
	}

	billNumber, err := NextBillNumber(tx, logger, fy, models.VoucherTypeJournal)
	if err != nil {
		return nil, err
	}

	voucher := models.JournalVoucher{
		CompanyId:    fy.CompanyId,
		FiscalYearId: fy.FiscalYearId,
		BillNumber:   billNumber,
		Date:         input.Date,
		Narration:    input.Narration,
		TotalDebit:   totalDebit,
		TotalCredit:  totalCredit,
		Status:       models.VoucherStatusActive,
		IsActive:     utils.NewTrue(),
		Details:      details,
	}
	if err := tx.Create(&voucher).Error; err != nil {
		return nil, utils.WrapStorageError(err)
	}

	accountIds := make([]int, 0, len(voucher.Details))
	for _, detail := range voucher.Details {
		leg := models.Transaction{
			AccountId:  detail.AccountId,
			Type:       models.VoucherTypeJournal,
			RefType:    models.VoucherTypeJournal,
			RefId:      voucher.ID,
			BillNumber: voucher.BillNumber,
			Date:       voucher.Date,
		}
		if !detail.Debit.IsZero() {
			leg.Role = models.RoleDebitLeg
			leg.Debit = detail.Debit
		} else {
			leg.Role = models.RoleCreditLeg
			leg.Credit = detail.Credit
		}
		if err := appendLeg(tx, logger, fy, &leg); err != nil {
			return nil, err
		}
		voucher.TransactionIds = append(voucher.TransactionIds, leg.ID)
		accountIds = append(accountIds, detail.AccountId)
	}
	if err := UpdateClosingBalances(tx, logger, fy, utils.MergeIntSlices(accountIds, nil)); err != nil {
		return nil, err
	}
	return &voucher, nil
}
