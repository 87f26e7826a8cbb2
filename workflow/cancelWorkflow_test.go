package workflow

import (
	"errors"
	"reflect"
	"testing"

	"github.com/merohisab/retail_backend/models"
	"github.com/merohisab/retail_backend/utils"
)

func TestStatusFlipValues(t *testing.T) {
	canceled := statusFlipValues(models.VoucherStatusCanceled)
	if canceled["status"] != models.VoucherStatusCanceled || canceled["is_active"] != false {
		t.Fatalf("cancel flip = %+v, want status canceled / is_active false", canceled)
	}
	reactivated := statusFlipValues(models.VoucherStatusActive)
	if reactivated["status"] != models.VoucherStatusActive || reactivated["is_active"] != true {
		t.Fatalf("reactivate flip = %+v, want status active / is_active true", reactivated)
	}
	// nothing beyond the two flags: the ledger immutability hook rejects
	// any other column
	for _, values := range []map[string]interface{}{canceled, reactivated} {
		if len(values) != 2 {
			t.Fatalf("flip touches extra columns: %+v", values)
		}
	}
}

func TestDocumentModelFor(t *testing.T) {
	cases := []struct {
		voucherType models.VoucherType
		want        interface{}
	}{
		{models.VoucherTypeSales, &models.SalesBill{}},
		{models.VoucherTypePurchase, &models.PurchaseBill{}},
		{models.VoucherTypeJournal, &models.JournalVoucher{}},
		{models.VoucherTypeDebitNote, &models.DebitNote{}},
		{models.VoucherTypeCreditNote, &models.CreditNote{}},
		{models.VoucherTypePayment, &models.PaymentVoucher{}},
		{models.VoucherTypeReceipt, &models.ReceiptVoucher{}},
	}
	for _, tc := range cases {
		got, err := documentModelFor(tc.voucherType)
		if err != nil {
			t.Fatalf("%s: %v", tc.voucherType, err)
		}
		if reflect.TypeOf(got) != reflect.TypeOf(tc.want) {
			t.Fatalf("%s mapped to %T, want %T", tc.voucherType, got, tc.want)
		}
	}
}

// Return codes live in the ledger and numbering layers only; a flip against
// them has no document row to touch and must say so.
func TestDocumentModelFor_RejectsDocumentlessTypes(t *testing.T) {
	for _, voucherType := range []models.VoucherType{
		models.VoucherTypeSalesReturn,
		models.VoucherTypePurchaseReturn,
		models.VoucherType("XX"),
	} {
		_, err := documentModelFor(voucherType)
		var ve *utils.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected ValidationError, got %v", voucherType, err)
		}
	}
}
