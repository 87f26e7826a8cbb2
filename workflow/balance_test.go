package workflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/merohisab/retail_backend/models"
	"github.com/merohisab/retail_backend/utils"
)

// DB-free: FoldEntries is pure, so the balance semantics are tested without
// MySQL. Loader ordering and locking need an integration environment.

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func activeEntry(id int, role models.TransactionRole, debit, credit string) models.Transaction {
	return models.Transaction{
		ID:       id,
		Role:     role,
		Debit:    dec(debit),
		Credit:   dec(credit),
		Status:   models.VoucherStatusActive,
		IsActive: utils.NewTrue(),
		Date:     time.Date(2024, 7, 16, 0, 0, 0, 0, time.UTC),
	}
}

func TestFoldEntries_RoleContributions(t *testing.T) {
	entries := []models.Transaction{
		activeEntry(1, models.RolePrimary, "1130", "0"),       // +1130
		activeEntry(2, models.RolePrimary, "0", "130"),        // -130
		activeEntry(3, models.RolePaymentSource, "500", "0"),  // -500
		activeEntry(4, models.RoleReceiptTarget, "0", "200"),  // +200
		activeEntry(5, models.RoleDebitLeg, "50", "0"),        // +50
		activeEntry(6, models.RoleCreditLeg, "0", "75"),       // -75
	}
	got := FoldEntries(nil, dec("100"), entries)
	want := dec("775") // 100 + 1130 - 130 - 500 + 200 + 50 - 75
	if !got.Equal(want) {
		t.Fatalf("FoldEntries = %s, want %s", got, want)
	}
}

func TestFoldEntries_Deterministic(t *testing.T) {
	entries := []models.Transaction{
		activeEntry(1, models.RolePrimary, "10", "0"),
		activeEntry(2, models.RolePrimary, "0", "4"),
		activeEntry(3, models.RoleDebitLeg, "7", "0"),
	}
	first := FoldEntries(nil, decimal.Zero, entries)
	for i := 0; i < 50; i++ {
		if got := FoldEntries(nil, decimal.Zero, entries); !got.Equal(first) {
			t.Fatalf("fold not deterministic: run %d got %s, want %s", i, got, first)
		}
	}
}

func TestFoldEntries_DeduplicatesById(t *testing.T) {
	entry := activeEntry(42, models.RolePrimary, "100", "0")
	got := FoldEntries(nil, decimal.Zero, []models.Transaction{entry, entry, entry})
	if !got.Equal(dec("100")) {
		t.Fatalf("duplicate ids double-counted: got %s, want 100", got)
	}
}

func TestFoldEntries_SkipsCanceledAndInactive(t *testing.T) {
	canceled := activeEntry(1, models.RolePrimary, "999", "0")
	canceled.Status = models.VoucherStatusCanceled
	inactive := activeEntry(2, models.RolePrimary, "999", "0")
	inactive.IsActive = utils.NewFalse()
	live := activeEntry(3, models.RolePrimary, "25", "0")

	got := FoldEntries(nil, decimal.Zero, []models.Transaction{canceled, inactive, live})
	if !got.Equal(dec("25")) {
		t.Fatalf("canceled/inactive entries contributed: got %s, want 25", got)
	}
}

func TestFoldEntries_SkipsUnknownRole(t *testing.T) {
	unknown := activeEntry(1, models.TransactionRole("XX"), "500", "0")
	live := activeEntry(2, models.RolePrimary, "30", "0")
	got := FoldEntries(nil, decimal.Zero, []models.Transaction{unknown, live})
	if !got.Equal(dec("30")) {
		t.Fatalf("unknown-role entry contributed: got %s, want 30", got)
	}
}

func TestFoldEntries_CreditOpening(t *testing.T) {
	got := FoldEntries(nil, dec("-400"), []models.Transaction{
		activeEntry(1, models.RolePrimary, "150", "0"),
	})
	if !got.Equal(dec("-250")) {
		t.Fatalf("got %s, want -250", got)
	}
	result := newBalanceResult(7, got)
	if result.Sign != models.BalanceSignCredit {
		t.Fatalf("sign = %s, want Cr", result.Sign)
	}
}

func TestNewBalanceResult_ZeroIsDebit(t *testing.T) {
	result := newBalanceResult(1, decimal.Zero)
	if result.Sign != models.BalanceSignDebit {
		t.Fatalf("zero balance sign = %s, want Dr", result.Sign)
	}
}
