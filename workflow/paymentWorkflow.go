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

// PostPaymentVoucher posts money going out to a party: the party is debited
// (their payable shrinks) and the source account carries a payment-source
// leg. The pair is deliberately not debit==credit balanced; the source leg's
// role makes its sign explicit to the balance fold.
func PostPaymentVoucher(ctx context.Context, db *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, input *models.NewPaymentVoucher) (*models.PaymentVoucher, error) {
	ctx, span := tracer.Start(ctx, "PostPaymentVoucher")
	defer span.End()

	if err := fy.Validate(); err != nil {
		return nil, err
	}
	var voucher *models.PaymentVoucher
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, fy.CompanyId, fy.FiscalYearId); err != nil {
			return utils.WrapStorageError(err)
		}
		defer ReleasePostingLock(tx, fy.CompanyId, fy.FiscalYearId)

		posted, err := postPaymentVoucher(tx, logger, fy, input)
		if err != nil {
			return err
		}
		voucher = posted
		return nil
	})
	if err != nil {
		config.LogError(logger, "paymentWorkflow.go", "PostPaymentVoucher", "Transaction", input, err)
		return nil, utils.WrapStorageError(err)
	}
	span.SetAttributes(attribute.String("bill_number", voucher.BillNumber))
	return voucher, nil
}

func postPaymentVoucher(tx *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, input *models.NewPaymentVoucher) (*models.PaymentVoucher, error) {
	if err := models.ValidateVoucherDate(tx, fy, input.Date); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, utils.NewValidationError("amount", "must be positive")
	}
	party, err := models.GetAccount(tx, fy, input.AccountId)
	if err != nil {
		return nil, err
	}
	source, err := models.GetAccount(tx, fy, input.SourceAccountId)
	if err != nil {
		return nil, err
	}
	if party.ID == source.ID {
		return nil, utils.NewValidationError("sourceAccountId", "source must differ from the party account")
	}

	billNumber, err := NextBillNumber(tx, logger, fy, models.VoucherTypePayment)
	if err != nil {
		return nil, err
	}

	voucher := models.PaymentVoucher{
		CompanyId:       fy.CompanyId,
		FiscalYearId:    fy.FiscalYearId,
		AccountId:       party.ID,
		SourceAccountId: source.ID,
		BillNumber:      billNumber,
		Date:            input.Date,
		Amount:          input.Amount,
		Narration:       input.Narration,
		Status:          models.VoucherStatusActive,
		IsActive:        utils.NewTrue(),
	}
	if err := tx.Create(&voucher).Error; err != nil {
		return nil, utils.WrapStorageError(err)
	}

	partyLeg := models.Transaction{
		AccountId:  party.ID,
		Role:       models.RolePrimary,
		Debit:      voucher.Amount,
		Type:       models.VoucherTypePayment,
		RefType:    models.VoucherTypePayment,
		RefId:      voucher.ID,
		BillNumber: voucher.BillNumber,
		Date:       voucher.Date,
	}
	sourceLeg := models.Transaction{
		AccountId:  source.ID,
		Role:       models.RolePaymentSource,
		Debit:      voucher.Amount,
		Type:       models.VoucherTypePayment,
		RefType:    models.VoucherTypePayment,
		RefId:      voucher.ID,
		BillNumber: voucher.BillNumber,
		Date:       voucher.Date,
	}
	for _, leg := range []*models.Transaction{&partyLeg, &sourceLeg} {
		if err := appendLeg(tx, logger, fy, leg); err != nil {
			return nil, err
		}
		voucher.TransactionIds = append(voucher.TransactionIds, leg.ID)
	}
	if err := UpdateClosingBalances(tx, logger, fy, []int{party.ID, source.ID}); err != nil {
		return nil, err
	}
	return &voucher, nil
}

// PostReceiptVoucher posts money coming in from a party: the party is
// credited (their receivable shrinks) and the target account carries a
// receipt-target leg whose role contributes positively.
func PostReceiptVoucher(ctx context.Context, db *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, input *models.NewReceiptVoucher) (*models.ReceiptVoucher, error) {
	ctx, span := tracer.Start(ctx, "PostReceiptVoucher")
	defer span.End()

	if err := fy.Validate(); err != nil {
		return nil, err
	}
	var voucher *models.ReceiptVoucher
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, fy.CompanyId, fy.FiscalYearId); err != nil {
			return utils.WrapStorageError(err)
		}
		defer ReleasePostingLock(tx, fy.CompanyId, fy.FiscalYearId)

		posted, err := postReceiptVoucher(tx, logger, fy, input)
		if err != nil {
			return err
		}
		voucher = posted
		return nil
	})
	if err != nil {
		config.LogError(logger, "paymentWorkflow.go", "PostReceiptVoucher", "Transaction", input, err)
		return nil, utils.WrapStorageError(err)
	}
	span.SetAttributes(attribute.String("bill_number", voucher.BillNumber))
	return voucher, nil
}

func postReceiptVoucher(tx *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, input *models.NewReceiptVoucher) (*models.ReceiptVoucher, error) {
	if err := models.ValidateVoucherDate(tx, fy, input.Date); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, utils.NewValidationError("amount", "must be positive")
	}
	party, err := models.GetAccount(tx, fy, input.AccountId)
	if err != nil {
		return nil, err
	}
	target, err := models.GetAccount(tx, fy, input.TargetAccountId)
	if err != nil {
		return nil, err
	}
	if party.ID == target.ID {
		return nil, utils.NewValidationError("targetAccountId", "target must differ from the party account")
	}

	billNumber, err := NextBillNumber(tx, logger, fy, models.VoucherTypeReceipt)
	if err != nil {
		return nil, err
	}

	voucher := models.ReceiptVoucher{
		CompanyId:       fy.CompanyId,
		FiscalYearId:    fy.FiscalYearId,
		AccountId:       party.ID,
		TargetAccountId: target.ID,
		BillNumber:      billNumber,
		Date:            input.Date,
		Amount:          input.Amount,
		Narration:       input.Narration,
		Status:          models.VoucherStatusActive,
		IsActive:        utils.NewTrue(),
	}
	if err := tx.Create(&voucher).Error; err != nil {
		return nil, utils.WrapStorageError(err)
	}

	partyLeg := models.Transaction{
		AccountId:  party.ID,
		Role:       models.RolePrimary,
		Credit:     voucher.Amount,
		Type:       models.VoucherTypeReceipt,
		RefType:    models.VoucherTypeReceipt,
		RefId:      voucher.ID,
		BillNumber: voucher.BillNumber,
		Date:       voucher.Date,
	}
	targetLeg := models.Transaction{
		AccountId:  target.ID,
		Role:       models.RoleReceiptTarget,
		Credit:     voucher.Amount,
		Type:       models.VoucherTypeReceipt,
		RefType:    models.VoucherTypeReceipt,
		RefId:      voucher.ID,
		BillNumber: voucher.BillNumber,
		Date:       voucher.Date,
	}
	for _, leg := range []*models.Transaction{&partyLeg, &targetLeg} {
		if err := appendLeg(tx, logger, fy, leg); err != nil {
			return nil, err
		}
		voucher.TransactionIds = append(voucher.TransactionIds, leg.ID)
	}
	if err := UpdateClosingBalances(tx, logger, fy, []int{party.ID, target.ID}); err != nil {
		return nil, err
	}
	return &voucher, nil
}
