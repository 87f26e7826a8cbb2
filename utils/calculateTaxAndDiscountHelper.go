package utils

import (
	"github.com/shopspring/decimal"
)

// Voucher-level VAT exemption modes as they arrive on the wire.
const (
	VatExemptNone = "false" // VAT applies to vatable lines
	VatExemptOnly = "true"  // vatable lines stay taxable-classified but VAT is not charged
	VatExemptAll  = "all"   // every line is treated as non-VAT sales
)

type VoucherLine struct {
	Amount  decimal.Decimal
	Vatable bool
}

type VoucherTotals struct {
	SubTotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxableAmount  decimal.Decimal
	NonVatSales    decimal.Decimal
	VatAmount      decimal.Decimal
	RoundOffAmount decimal.Decimal
	TotalAmount    decimal.Decimal
}

var decimalOneHundred = decimal.NewFromInt(100)

// CalculateVoucherTotals derives the money fields of a tax-bearing voucher.
//
// Lines are partitioned into taxable/non-taxable by item VAT status, the
// discount percentage is applied proportionally to each partition, and VAT is
// charged on the discounted taxable amount only when not exempt. Round-off is
// either the manually supplied amount or the difference to the nearest integer.
func CalculateVoucherTotals(lines []VoucherLine, vatPercentage, discountPercentage decimal.Decimal, isVatExempt string, manualRoundOff *decimal.Decimal) VoucherTotals {
	var totals VoucherTotals

	taxableGross := decimal.Zero
	nonVatGross := decimal.Zero
	for _, line := range lines {
		totals.SubTotal = totals.SubTotal.Add(line.Amount)
		if line.Vatable && isVatExempt != VatExemptAll {
			taxableGross = taxableGross.Add(line.Amount)
		} else {
			nonVatGross = nonVatGross.Add(line.Amount)
		}
	}

	totals.DiscountAmount = CalculateDiscountAmount(totals.SubTotal, discountPercentage, "P")
	totals.TaxableAmount = taxableGross.Sub(CalculateDiscountAmount(taxableGross, discountPercentage, "P"))
	totals.NonVatSales = nonVatGross.Sub(CalculateDiscountAmount(nonVatGross, discountPercentage, "P"))

	if isVatExempt == VatExemptNone && vatPercentage.IsPositive() {
		totals.VatAmount = totals.TaxableAmount.Mul(vatPercentage).DivRound(decimalOneHundred, 4)
	}

	total := totals.TaxableAmount.Add(totals.NonVatSales).Add(totals.VatAmount)
	if manualRoundOff != nil {
		totals.RoundOffAmount = *manualRoundOff
		totals.TotalAmount = total.Add(totals.RoundOffAmount)
	} else {
		rounded := total.Round(0)
		totals.RoundOffAmount = rounded.Sub(total)
		totals.TotalAmount = rounded
	}

	return totals
}

func CalculateDiscountAmount(subTotal decimal.Decimal, discount decimal.Decimal, discountType string) decimal.Decimal {

	var discountAmount decimal.Decimal

	if discount.GreaterThan(decimal.NewFromFloat(0.0)) {
		if discountType == "P" {
			discountAmount = subTotal.Mul(discount).DivRound(decimalOneHundred, 4)
		} else {
			discountAmount = discount
		}
	} else {
		discountAmount = decimal.NewFromFloat(0.0)
	}

	return discountAmount
}
