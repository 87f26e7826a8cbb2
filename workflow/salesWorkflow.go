package workflow

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/merohisab/retail_backend/config"
	"github.com/merohisab/retail_backend/models"
	"github.com/merohisab/retail_backend/utils"
)

var tracer = otel.Tracer("retail-backend")

// appendLeg writes one ledger entry, stamping its running-balance snapshot
// from the account's balance as of just before this entry. The snapshot is
// display-only; the fold never reads it back.
func appendLeg(tx *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, leg *models.Transaction) error {
	leg.CompanyId = fy.CompanyId
	leg.FiscalYearId = fy.FiscalYearId
	leg.Status = models.VoucherStatusActive
	leg.IsActive = utils.NewTrue()

	prior, err := ComputeBalance(tx, logger, fy, leg.AccountId, nil)
	if err != nil {
		return err
	}
	contribution, ok := leg.Contribution()
	if !ok {
		return utils.NewValidationError("role", "unknown transaction role")
	}
	leg.Balance = prior.Amount.Add(contribution)

	if err := tx.Create(leg).Error; err != nil {
		return utils.WrapStorageError(err)
	}
	return nil
}

// PostSalesBill posts a sales voucher atomically: totals, credit guard,
// FIFO stock consumption, bill number reservation, document row, and the
// ledger legs (customer or cash debit, Sales / VAT / Rounded Off credits).
// Everything happens in one transaction under the per-company posting lock;
// any failure leaves no trace, including the reserved bill number gap aside.
func PostSalesBill(ctx context.Context, db *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, input *models.NewSalesBill) (*models.SalesBill, error) {
	ctx, span := tracer.Start(ctx, "PostSalesBill")
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

		posted, err := postSalesBill(tx, logger, fy, input)
		if err != nil {
			return err
		}
		bill = posted
		return nil
	})
	if err != nil {
		config.LogError(logger, "salesWorkflow.go", "PostSalesBill", "Transaction", input, err)
		return nil, utils.WrapStorageError(err)
	}
	span.SetAttributes(attribute.String("bill_number", bill.BillNumber))
	return bill, nil
}

func postSalesBill(tx *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, input *models.NewSalesBill) (*models.SalesBill, error) {
	if err := models.ValidateVoucherDate(tx, fy, input.Date); err != nil {
		return nil, err
	}
	account, err := models.GetAccount(tx, fy, input.AccountId)
	if err != nil {
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
			ItemId: item.ID,
			Qty:    line.Quantity,
			Price:  line.Price,
			Unit:   line.Unit,
			Amount: amount,
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

	if input.PaymentMode == models.PaymentModeCredit {
		if err := CheckCreditLimit(tx, logger, fy, account.ID, totals.TotalAmount); err != nil {
			return nil, err
		}
	}

	// consume stock before writing anything that references the allocations
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

	billNumber, err := NextBillNumber(tx, logger, fy, models.VoucherTypeSales)
	if err != nil {
		return nil, err
	}

	bill := models.SalesBill{
		CompanyId:          fy.CompanyId,
		FiscalYearId:       fy.FiscalYearId,
		AccountId:          account.ID,
		BillNumber:         billNumber,
		Date:               input.Date,
		PaymentMode:        input.PaymentMode,
		SubTotal:           totals.SubTotal,
		DiscountPercentage: input.DiscountPercentage,
		DiscountAmount:     totals.DiscountAmount,
		TaxableAmount:      totals.TaxableAmount,
		NonVatSales:        totals.NonVatSales,
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

	legs, err := salesLegs(tx, fy, &bill, account)
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

// salesLegs builds the ledger side of a sales bill. Cash sales debit the
// "Cash in Hand" control account when the company has one, credit sales debit
// the customer. Control legs for Sales, VAT and Rounded Off are skipped when
// the company lacks the control account or the amount is zero.
func salesLegs(tx *gorm.DB, fy models.FiscalYearContext, bill *models.SalesBill, party *models.Account) ([]models.Transaction, error) {
	debitAccountId := party.ID
	if bill.PaymentMode == models.PaymentModeCash {
		cashAccount, err := models.GetControlAccount(tx, fy, models.ControlAccountCashInHand)
		if err != nil {
			return nil, utils.WrapStorageError(err)
		}
		if cashAccount != nil {
			debitAccountId = cashAccount.ID
		}
	}

	base := models.Transaction{
		Type:        models.VoucherTypeSales,
		RefType:     models.VoucherTypeSales,
		RefId:       bill.ID,
		BillNumber:  bill.BillNumber,
		PaymentMode: bill.PaymentMode,
		Date:        bill.Date,
		Role:        models.RolePrimary,
	}

	legs := make([]models.Transaction, 0, 4)

	debitLeg := base
	debitLeg.AccountId = debitAccountId
	debitLeg.Debit = bill.TotalAmount
	legs = append(legs, debitLeg)

	salesAmount := bill.TaxableAmount.Add(bill.NonVatSales)
	if !salesAmount.IsZero() {
		salesAccount, err := models.GetControlAccount(tx, fy, models.ControlAccountSales)
		if err != nil {
			return nil, utils.WrapStorageError(err)
		}
		if salesAccount != nil {
			salesLeg := base
			salesLeg.AccountId = salesAccount.ID
			salesLeg.Credit = salesAmount
			legs = append(legs, salesLeg)
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
			vatLeg.Credit = bill.VatAmount
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
				roundLeg.Credit = bill.RoundOffAmount
			} else {
				roundLeg.Debit = bill.RoundOffAmount.Abs()
			}
			legs = append(legs, roundLeg)
		}
	}
	return legs, nil
}

// GetSalesBill loads a sales bill with its lines, allocations and legs.
func GetSalesBill(tx *gorm.DB, fy models.FiscalYearContext, id int) (*models.SalesBill, error) {
	bill, err := models.FetchModel[models.SalesBill](tx, fy.CompanyId, id, "Details", "Details.Allocations")
	if err != nil {
		return nil, err
	}
	if bill.FiscalYearId != fy.FiscalYearId {
		return nil, utils.NewNotFoundError("sales bill", id)
	}
	var legs []models.Transaction
	err = tx.Where("company_id = ? AND ref_type = ? AND ref_id = ?", fy.CompanyId, models.VoucherTypeSales, id).
		Order("id").Find(&legs).Error
	if err != nil {
		return nil, utils.WrapStorageError(err)
	}
	for _, leg := range legs {
		bill.TransactionIds = append(bill.TransactionIds, leg.ID)
	}
	return bill, nil
}
