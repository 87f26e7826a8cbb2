package models

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

func TestTransactionContribution(t *testing.T) {
	cases := []struct {
		role   TransactionRole
		debit  string
		credit string
		want   string
	}{
		{RolePrimary, "1130", "0", "1130"},
		{RolePrimary, "0", "130", "-130"},
		{RolePrimary, "100", "40", "60"},
		{RolePaymentSource, "500", "0", "-500"},
		{RoleReceiptTarget, "0", "200", "200"},
		{RoleDebitLeg, "75", "0", "75"},
		{RoleCreditLeg, "0", "75", "-75"},
	}
	for _, tc := range cases {
		entry := Transaction{Role: tc.role, Debit: dec(tc.debit), Credit: dec(tc.credit)}
		got, ok := entry.Contribution()
		if !ok {
			t.Fatalf("role %s: unexpectedly not ok", tc.role)
		}
		if !got.Equal(dec(tc.want)) {
			t.Fatalf("role %s debit=%s credit=%s: contribution = %s, want %s",
				tc.role, tc.debit, tc.credit, got, tc.want)
		}
	}
}

func TestTransactionContribution_UnknownRole(t *testing.T) {
	entry := Transaction{Role: TransactionRole("??"), Debit: dec("100")}
	got, ok := entry.Contribution()
	if ok {
		t.Fatal("unknown role should report ok=false")
	}
	if !got.IsZero() {
		t.Fatalf("unknown role contribution = %s, want 0", got)
	}
}

func TestTransactionDocument(t *testing.T) {
	entry := Transaction{RefType: VoucherTypeSales, RefId: 42}
	ref := entry.Document()
	if ref.Type != VoucherTypeSales || ref.Id != 42 {
		t.Fatalf("Document() = %+v, want {SA 42}", ref)
	}
}

func TestVoucherTypeValid(t *testing.T) {
	for _, v := range []VoucherType{
		VoucherTypeSales, VoucherTypePurchase, VoucherTypeSalesReturn,
		VoucherTypePurchaseReturn, VoucherTypePayment, VoucherTypeReceipt,
		VoucherTypeJournal, VoucherTypeDebitNote, VoucherTypeCreditNote,
	} {
		if !v.Valid() {
			t.Fatalf("%s should be valid", v)
		}
	}
	if VoucherType("ZZ").Valid() {
		t.Fatal("ZZ should not be valid")
	}
	if VoucherType("").Valid() {
		t.Fatal("empty voucher type should not be valid")
	}
}
