package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestVisibleInFiscalYear(t *testing.T) {
	account := Account{
		OriginalFiscalYearId: 2,
		FiscalYears: []AccountFiscalYear{
			{FiscalYearId: 2},
			{FiscalYearId: 3},
		},
	}

	if !account.VisibleInFiscalYear(2) {
		t.Fatal("account must be visible in its original fiscal year")
	}
	if !account.VisibleInFiscalYear(3) {
		t.Fatal("migrated-forward account must be visible in the later year")
	}
	if account.VisibleInFiscalYear(1) {
		t.Fatal("account must not be visible before its original fiscal year")
	}
	if account.VisibleInFiscalYear(4) {
		t.Fatal("account without a membership row must not be visible in a later year")
	}
}

func TestSignedOpeningBalance(t *testing.T) {
	dr := Account{OpeningBalance: dec("500"), OpeningBalanceSign: BalanceSignDebit}
	if got := dr.SignedOpeningBalance(); !got.Equal(dec("500")) {
		t.Fatalf("Dr opening = %s, want 500", got)
	}
	cr := Account{OpeningBalance: dec("500"), OpeningBalanceSign: BalanceSignCredit}
	if got := cr.SignedOpeningBalance(); !got.Equal(dec("-500")) {
		t.Fatalf("Cr opening = %s, want -500", got)
	}
}

func TestOpeningBalanceFor(t *testing.T) {
	account := Account{
		OpeningBalance:       dec("100"),
		OpeningBalanceSign:   BalanceSignCredit,
		OriginalFiscalYearId: 1,
		FiscalYears: []AccountFiscalYear{
			{FiscalYearId: 2, OpeningBalance: dec("250")},
		},
	}

	// per-fiscal-year row wins when present
	if got := account.OpeningBalanceFor(2); !got.Equal(dec("250")) {
		t.Fatalf("fy 2 opening = %s, want 250", got)
	}
	// original year without a row falls back to the signed initial balance
	if got := account.OpeningBalanceFor(1); !got.Equal(dec("-100")) {
		t.Fatalf("fy 1 opening = %s, want -100", got)
	}
	// unrelated year seeds zero
	if got := account.OpeningBalanceFor(9); !got.Equal(decimal.Zero) {
		t.Fatalf("fy 9 opening = %s, want 0", got)
	}
}
