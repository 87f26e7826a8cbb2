package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// 10 units at 100 with 13% VAT: subtotal 1000, VAT 130, total 1130.
func TestCalculateVoucherTotals_StandardVat(t *testing.T) {
	lines := []VoucherLine{{Amount: dec("1000"), Vatable: true}}
	totals := CalculateVoucherTotals(lines, dec("13"), decimal.Zero, VatExemptNone, nil)

	if !totals.SubTotal.Equal(dec("1000")) {
		t.Fatalf("SubTotal = %s, want 1000", totals.SubTotal)
	}
	if !totals.VatAmount.Equal(dec("130")) {
		t.Fatalf("VatAmount = %s, want 130", totals.VatAmount)
	}
	if !totals.TotalAmount.Equal(dec("1130")) {
		t.Fatalf("TotalAmount = %s, want 1130", totals.TotalAmount)
	}
	if !totals.RoundOffAmount.IsZero() {
		t.Fatalf("RoundOffAmount = %s, want 0", totals.RoundOffAmount)
	}
}

func TestCalculateVoucherTotals_MixedLinesPartition(t *testing.T) {
	lines := []VoucherLine{
		{Amount: dec("600"), Vatable: true},
		{Amount: dec("400"), Vatable: false},
	}
	totals := CalculateVoucherTotals(lines, dec("13"), decimal.Zero, VatExemptNone, nil)

	if !totals.TaxableAmount.Equal(dec("600")) {
		t.Fatalf("TaxableAmount = %s, want 600", totals.TaxableAmount)
	}
	if !totals.NonVatSales.Equal(dec("400")) {
		t.Fatalf("NonVatSales = %s, want 400", totals.NonVatSales)
	}
	if !totals.VatAmount.Equal(dec("78")) {
		t.Fatalf("VatAmount = %s, want 78 (13%% of 600 only)", totals.VatAmount)
	}
	if !totals.TotalAmount.Equal(dec("1078")) {
		t.Fatalf("TotalAmount = %s, want 1078", totals.TotalAmount)
	}
}

func TestCalculateVoucherTotals_ProportionalDiscount(t *testing.T) {
	lines := []VoucherLine{
		{Amount: dec("600"), Vatable: true},
		{Amount: dec("400"), Vatable: false},
	}
	totals := CalculateVoucherTotals(lines, dec("13"), dec("10"), VatExemptNone, nil)

	if !totals.DiscountAmount.Equal(dec("100")) {
		t.Fatalf("DiscountAmount = %s, want 100", totals.DiscountAmount)
	}
	if !totals.TaxableAmount.Equal(dec("540")) {
		t.Fatalf("TaxableAmount = %s, want 540", totals.TaxableAmount)
	}
	if !totals.NonVatSales.Equal(dec("360")) {
		t.Fatalf("NonVatSales = %s, want 360", totals.NonVatSales)
	}
	if !totals.VatAmount.Equal(dec("70.2")) {
		t.Fatalf("VatAmount = %s, want 70.2", totals.VatAmount)
	}
	// 540 + 360 + 70.2 = 970.2, auto round-off to 970
	if !totals.RoundOffAmount.Equal(dec("-0.2")) {
		t.Fatalf("RoundOffAmount = %s, want -0.2", totals.RoundOffAmount)
	}
	if !totals.TotalAmount.Equal(dec("970")) {
		t.Fatalf("TotalAmount = %s, want 970", totals.TotalAmount)
	}
}

func TestCalculateVoucherTotals_ExemptOnlySkipsVatKeepsPartition(t *testing.T) {
	lines := []VoucherLine{{Amount: dec("1000"), Vatable: true}}
	totals := CalculateVoucherTotals(lines, dec("13"), decimal.Zero, VatExemptOnly, nil)

	if !totals.VatAmount.IsZero() {
		t.Fatalf("VatAmount = %s, want 0 when exempt", totals.VatAmount)
	}
	if !totals.TaxableAmount.Equal(dec("1000")) {
		t.Fatalf("TaxableAmount = %s, want 1000 (classification unchanged)", totals.TaxableAmount)
	}
	if !totals.TotalAmount.Equal(dec("1000")) {
		t.Fatalf("TotalAmount = %s, want 1000", totals.TotalAmount)
	}
}

func TestCalculateVoucherTotals_ExemptAllReclassifies(t *testing.T) {
	lines := []VoucherLine{{Amount: dec("1000"), Vatable: true}}
	totals := CalculateVoucherTotals(lines, dec("13"), decimal.Zero, VatExemptAll, nil)

	if !totals.TaxableAmount.IsZero() {
		t.Fatalf("TaxableAmount = %s, want 0 under exempt-all", totals.TaxableAmount)
	}
	if !totals.NonVatSales.Equal(dec("1000")) {
		t.Fatalf("NonVatSales = %s, want 1000", totals.NonVatSales)
	}
	if !totals.VatAmount.IsZero() {
		t.Fatalf("VatAmount = %s, want 0", totals.VatAmount)
	}
}

func TestCalculateVoucherTotals_ManualRoundOff(t *testing.T) {
	lines := []VoucherLine{{Amount: dec("999.4"), Vatable: false}}
	manual := dec("0.6")
	totals := CalculateVoucherTotals(lines, decimal.Zero, decimal.Zero, VatExemptNone, &manual)

	if !totals.RoundOffAmount.Equal(dec("0.6")) {
		t.Fatalf("RoundOffAmount = %s, want 0.6", totals.RoundOffAmount)
	}
	if !totals.TotalAmount.Equal(dec("1000")) {
		t.Fatalf("TotalAmount = %s, want 1000", totals.TotalAmount)
	}
}

func TestCalculateVoucherTotals_AutoRoundOffUp(t *testing.T) {
	lines := []VoucherLine{{Amount: dec("999.5"), Vatable: false}}
	totals := CalculateVoucherTotals(lines, decimal.Zero, decimal.Zero, VatExemptNone, nil)

	if !totals.TotalAmount.Equal(totals.TotalAmount.Round(0)) {
		t.Fatalf("TotalAmount %s is not integral", totals.TotalAmount)
	}
	reconstructed := totals.TaxableAmount.Add(totals.NonVatSales).Add(totals.VatAmount).Add(totals.RoundOffAmount)
	if !reconstructed.Equal(totals.TotalAmount) {
		t.Fatalf("components %s do not sum to total %s", reconstructed, totals.TotalAmount)
	}
}

func TestCalculateDiscountAmount(t *testing.T) {
	if got := CalculateDiscountAmount(dec("1000"), dec("10"), "P"); !got.Equal(dec("100")) {
		t.Fatalf("percentage discount = %s, want 100", got)
	}
	if got := CalculateDiscountAmount(dec("1000"), dec("50"), "F"); !got.Equal(dec("50")) {
		t.Fatalf("flat discount = %s, want 50", got)
	}
	if got := CalculateDiscountAmount(dec("1000"), decimal.Zero, "P"); !got.IsZero() {
		t.Fatalf("zero discount = %s, want 0", got)
	}
}
