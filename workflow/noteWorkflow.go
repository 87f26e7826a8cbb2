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

// PostDebitNote debits the party and credits the contra account for the note
// amount. No stock movement.
func PostDebitNote(ctx context.Context, db *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, input *models.NewNote) (*models.DebitNote, error) {
	ctx, span := tracer.Start(ctx, "PostDebitNote")
	defer span.End()

	if err := fy.Validate(); err != nil {
		return nil, err
	}
	var note *models.DebitNote
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, fy.CompanyId, fy.FiscalYearId); err != nil {
			return utils.WrapStorageError(err)
		}
		defer ReleasePostingLock(tx, fy.CompanyId, fy.FiscalYearId)

		party, contra, err := resolveNoteAccounts(tx, fy, input)
		if err != nil {
			return err
		}
		billNumber, err := NextBillNumber(tx, logger, fy, models.VoucherTypeDebitNote)
		if err != nil {
			return err
		}
		note = &models.DebitNote{
			CompanyId:       fy.CompanyId,
			FiscalYearId:    fy.FiscalYearId,
			AccountId:       party.ID,
			ContraAccountId: contra.ID,
			BillNumber:      billNumber,
			Date:            input.Date,
			Amount:          input.Amount,
			Narration:       input.Narration,
			Status:          models.VoucherStatusActive,
			IsActive:        utils.NewTrue(),
		}
		if err := tx.Create(note).Error; err != nil {
			return utils.WrapStorageError(err)
		}
		ids, err := postNoteLegs(tx, logger, fy, models.VoucherTypeDebitNote, note.ID, billNumber, input, party.ID, contra.ID)
		if err != nil {
			return err
		}
		note.TransactionIds = ids
		return nil
	})
	if err != nil {
		config.LogError(logger, "noteWorkflow.go", "PostDebitNote", "Transaction", input, err)
		return nil, utils.WrapStorageError(err)
	}
	span.SetAttributes(attribute.String("bill_number", note.BillNumber))
	return note, nil
}

// PostCreditNote is the mirror image: the party is credited, the contra
// account debited.
func PostCreditNote(ctx context.Context, db *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, input *models.NewNote) (*models.CreditNote, error) {
	ctx, span := tracer.Start(ctx, "PostCreditNote")
	defer span.End()

	if err := fy.Validate(); err != nil {
		return nil, err
	}
	var note *models.CreditNote
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, fy.CompanyId, fy.FiscalYearId); err != nil {
			return utils.WrapStorageError(err)
		}
		defer ReleasePostingLock(tx, fy.CompanyId, fy.FiscalYearId)

		party, contra, err := resolveNoteAccounts(tx, fy, input)
		if err != nil {
			return err
		}
		billNumber, err := NextBillNumber(tx, logger, fy, models.VoucherTypeCreditNote)
		if err != nil {
			return err
		}
		note = &models.CreditNote{
			CompanyId:       fy.CompanyId,
			FiscalYearId:    fy.FiscalYearId,
			AccountId:       party.ID,
			ContraAccountId: contra.ID,
			BillNumber:      billNumber,
			Date:            input.Date,
			Amount:          input.Amount,
			Narration:       input.Narration,
			Status:          models.VoucherStatusActive,
			IsActive:        utils.NewTrue(),
		}
		if err := tx.Create(note).Error; err != nil {
			return utils.WrapStorageError(err)
		}
		ids, err := postNoteLegs(tx, logger, fy, models.VoucherTypeCreditNote, note.ID, billNumber, input, contra.ID, party.ID)
		if err != nil {
			return err
		}
		note.TransactionIds = ids
		return nil
	})
	if err != nil {
		config.LogError(logger, "noteWorkflow.go", "PostCreditNote", "Transaction", input, err)
		return nil, utils.WrapStorageError(err)
	}
	span.SetAttributes(attribute.String("bill_number", note.BillNumber))
	return note, nil
}

func resolveNoteAccounts(tx *gorm.DB, fy models.FiscalYearContext, input *models.NewNote) (*models.Account, *models.Account, error) {
	if err := models.ValidateVoucherDate(tx, fy, input.Date); err != nil {
		return nil, nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, nil, utils.NewValidationError("amount", "must be positive")
	}
	party, err := models.GetAccount(tx, fy, input.AccountId)
	if err != nil {
		return nil, nil, err
	}
	contra, err := models.GetAccount(tx, fy, input.ContraAccountId)
	if err != nil {
		return nil, nil, err
	}
	if party.ID == contra.ID {
		return nil, nil, utils.NewValidationError("contraAccountId", "contra must differ from the party account")
	}
	return party, contra, nil
}

// postNoteLegs writes the balanced debit/credit pair of a note. Which account
// is debited decides the note's direction; the caller passes them in order.
func postNoteLegs(tx *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, voucherType models.VoucherType, refId int, billNumber string, input *models.NewNote, debitAccountId int, creditAccountId int) ([]int, error) {
	debitLeg := models.Transaction{
		AccountId:  debitAccountId,
		Role:       models.RolePrimary,
		Debit:      input.Amount,
		Type:       voucherType,
		RefType:    voucherType,
		RefId:      refId,
		BillNumber: billNumber,
		Date:       input.Date,
	}
	creditLeg := models.Transaction{
		AccountId:  creditAccountId,
		Role:       models.RolePrimary,
		Credit:     input.Amount,
		Type:       voucherType,
		RefType:    voucherType,
		RefId:      refId,
		BillNumber: billNumber,
		Date:       input.Date,
	}
	ids := make([]int, 0, 2)
	for _, leg := range []*models.Transaction{&debitLeg, &creditLeg} {
		if err := appendLeg(tx, logger, fy, leg); err != nil {
			return nil, err
		}
		ids = append(ids, leg.ID)
	}
	if err := UpdateClosingBalances(tx, logger, fy, []int{debitAccountId, creditAccountId}); err != nil {
		return nil, err
	}
	return ids, nil
}
