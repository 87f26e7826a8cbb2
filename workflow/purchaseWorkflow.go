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

// PostPurchaseBill posts a purchase voucher atomically: totals, the document
// row, one new stock batch per line, the bill number, and the ledger legs
// (supplier or cash credit, Purchases / VAT / Rounded Off debits).
func PostPurchaseBill(ctx context.Context, db *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, input *models.NewPurchaseBill) (*models.PurchaseBill, error) {
	ctx, span := tracer.Start(ctx, "PostPurchaseBill")
	defer span.End()

	if err := fy.Validate(); err != nil {
		return nil, err
	}
	var bill *models.PurchaseBill
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx, fy.CompanyId, fy.FiscalYearId); err != nil {
			return utils.WrapStorageError(err)
		}
		defer ReleasePostingLock(tx, fy.CompanyId, fy.FiscalYearId)

		posted, err := postPurchaseBill(tx, logger, fy, input)
		if err != nil {
			return err
		}
		bill = posted
		return nil
	})
	if err != nil {
		config.LogError(logger, "purchaseWorkflow.go", "PostPurchaseBill", "Transaction", input, err)
		return nil, utils.WrapStorageError(err)
	}
	span.SetAttributes(attribute.String("bill_number", bill.BillNumber))
	return bill, nil
}

func postPurchaseBill(tx *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, input *models.NewPurchaseBill) (*models.PurchaseBill, error) {
	if err := models.ValidateVoucherDate(tx, fy, input.Date); err != nil {
		return nil, err
	}
	account, err := models.GetAccount(tx, fy, input.AccountId)
	if err != nil {
		return nil, err
	}

	details := make([]models.PurchaseBillDetail, 0, len(input.Items))
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
		details = append(details, models.PurchaseBillDetail{
			ItemId:      item.ID,
			Qty:         line.Quantity,
			Price:       line.Price,
			Unit:        line.Unit,
			Amount:      amount,
			BatchNumber: line.BatchNumber,
			ExpiryDate:  line.ExpiryDate,
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

	billNumber, err := NextBillNumber(tx, logger, fy, models.VoucherTypePurchase)
	if err != nil {
		return nil, err
	}

	bill := models.PurchaseBill{
		CompanyId:          fy.CompanyId,
		FiscalYearId:       fy.FiscalYearId,
		AccountId:          account.ID,
		BillNumber:         billNumber,
		SupplierBillNumber: input.SupplierBillNumber,
		Date:               input.Date,
		PaymentMode:        input.PaymentMode,
		SubTotal:           totals.SubTotal,
		DiscountPercentage: input.DiscountPercentage,
		DiscountAmount:     totals.DiscountAmount,
		TaxableAmount:      totals.TaxableAmount,
		NonVatPurchase:     totals.NonVatSales,
		VatPercentage:      input.VatPercentage,
		VatAmount:          totals.VatAmount,
		IsVatExempt:        isVatExempt,
		RoundOffAmount:     totals.RoundOffAmount,
		TotalAmount:        totals.TotalAmount,
		Status:             models.VoucherStatusActive,
		IsActive:           utils.NewTrue(),
		Details:            details,
	}
	if err := tx.Create(&bill).Error; err != nil {
		return nil, utils.WrapStorageError(err)
	}

	// every purchase line opens a dated batch the FIFO allocator can consume
	for i := range bill.Details {
		batch := models.StockBatch{
			ItemId:       bill.Details[i].ItemId,
			BatchNumber:  bill.Details[i].BatchNumber,
			Qty:          bill.Details[i].Qty,
			Date:         bill.Date,
			PurchaseRate: bill.Details[i].Price,
			ExpiryDate:   bill.Details[i].ExpiryDate,
		}
		if err := tx.Create(&batch).Error; err != nil {
			return nil, utils.WrapStorageError(err)
		}
		if err := tx.Model(&models.PurchaseBillDetail{}).Where("id = ?", bill.Details[i].ID).
			Update("batch_uu_id", batch.UniqueUuId).Error; err != nil {
			return nil, utils.WrapStorageError(err)
		}
		bill.Details[i].BatchUuId = batch.UniqueUuId

		// relative update so the same item on two lines accumulates correctly
		if err := tx.Model(&models.Item{}).Where("id = ?", bill.Details[i].ItemId).
			Update("stock", gorm.Expr("stock + ?", batch.Qty)).Error; err != nil {
			return nil, utils.WrapStorageError(err)
		}
	}

	legs, err := purchaseLegs(tx, fy, &bill, account)
	if err != nil {
		return nil, err
	}
	accountIds := make([]int, 0, len(legs))
	for i := range legs {
		if err := appendLeg(tx, logger, fy, &legs[i]); err != nil {
			return nil, err
		}
		bill.TransactionIds = append(bill.TransactionIds, legs[i].ID)
		accountIds = append(accountIds, legs[i].AccountId)
	}
	if err := UpdateClosingBalances(tx, logger, fy, accountIds); err != nil {
		return nil, err
	}
	return &bill, nil
}

// purchaseLegs mirrors salesLegs with the debit and credit sides swapped:
// the supplier (or Cash in Hand, for cash purchases) is credited the total,
// Purchases and VAT are debited.
func purchaseLegs(tx *gorm.DB, fy models.FiscalYearContext, bill *models.PurchaseBill, party *models.Account) ([]models.Transaction, error) {
	creditAccountId := party.ID
	if bill.PaymentMode == models.PaymentModeCash {
		cashAccount, err := models.GetControlAccount(tx, fy, models.ControlAccountCashInHand)
		if err != nil {
			return nil, utils.WrapStorageError(err)
		}
		if cashAccount != nil {
			creditAccountId = cashAccount.ID
		}
	}

	base := models.Transaction{
		Type:        models.VoucherTypePurchase,
		RefType:     models.VoucherTypePurchase,
		RefId:       bill.ID,
		BillNumber:  bill.BillNumber,
		PaymentMode: bill.PaymentMode,
		Date:        bill.Date,
		Role:        models.RolePrimary,
	}

	legs := make([]models.Transaction, 0, 4)

	creditLeg := base
	creditLeg.AccountId = creditAccountId
	creditLeg.Credit = bill.TotalAmount
	legs = append(legs, creditLeg)

	purchaseAmount := bill.TaxableAmount.Add(bill.NonVatPurchase)
	if !purchaseAmount.IsZero() {
		purchasesAccount, err := models.GetControlAccount(tx, fy, models.ControlAccountPurchases)
		if err != nil {
			return nil, utils.WrapStorageError(err)
		}
		if purchasesAccount != nil {
			purchasesLeg := base
			purchasesLeg.AccountId = purchasesAccount.ID
			purchasesLeg.Debit = purchaseAmount
			legs = append(legs, purchasesLeg)
		}
	}

	if !bill.VatAmount.IsZero() {
		vatAccount, err := models.GetControlAccount(tx, fy, models.ControlAccountVat)
		if err != nil {
			return nil, utils.WrapStorageError(err)
		}
		if vatAccount != nil {
			vatLeg := base
			vatLeg.AccountId = vatAccount.ID
			vatLeg.Debit = bill.VatAmount
			legs = append(legs, vatLeg)
		}
	}

	if !bill.RoundOffAmount.IsZero() {
		roundedAccount, err := models.GetControlAccount(tx, fy, models.ControlAccountRoundedOff)
		if err != nil {
			return nil, utils.WrapStorageError(err)
		}
		if roundedAccount != nil {
			roundLeg := base
			roundLeg.AccountId = roundedAccount.ID
			if bill.RoundOffAmount.IsPositive() {
				roundLeg.Debit = bill.RoundOffAmount
			} else {
				roundLeg.Credit = bill.RoundOffAmount.Abs()
			}
			legs = append(legs, roundLeg)
		}
	}
	return legs, nil
}

func GetPurchaseBill(tx *gorm.DB, fy models.FiscalYearContext, id int) (*models.PurchaseBill, error) {
	bill, err := models.FetchModel[models.PurchaseBill](tx, fy.CompanyId, id, "Details")
	if err != nil {
		return nil, err
	}
	if bill.FiscalYearId != fy.FiscalYearId {
		return nil, utils.NewNotFoundError("purchase bill", id)
	}
	var legs []models.Transaction
	err = tx.Where("company_id = ? AND ref_type = ? AND ref_id = ?", fy.CompanyId, models.VoucherTypePurchase, id).
		Order("id").Find(&legs).Error
	if err != nil {
		return nil, utils.WrapStorageError(err)
	}
	for _, leg := range legs {
		bill.TransactionIds = append(bill.TransactionIds, leg.ID)
	}
	return bill, nil
}
