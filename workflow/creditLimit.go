package workflow

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/merohisab/retail_backend/models"
	"github.com/merohisab/retail_backend/utils"
)

// ExceedsCreditLimit applies the credit policy to already computed numbers.
// A limit <= 0 means unlimited. Negative (Cr) balances free up headroom, so
// the check is simply current + additional > limit.
func ExceedsCreditLimit(limit decimal.Decimal, current decimal.Decimal, additional decimal.Decimal) bool {
	if !limit.IsPositive() {
		return false
	}
	return current.Add(additional).GreaterThan(limit)
}

// primaryEntries keeps only primary-role legs. The guard measures a party's
// exposure by the legs on its own statement line; payment-source,
// receipt-target and journal legs are bookings against other balances and
// must not move the ceiling.
func primaryEntries(entries []models.Transaction) []models.Transaction {
	kept := make([]models.Transaction, 0, len(entries))
	for _, entry := range entries {
		if entry.Role == models.RolePrimary {
			kept = append(kept, entry)
		}
	}
	return kept
}

// CheckCreditLimit guards credit-mode postings: it folds the party's current
// primary-leg exposure inside the posting transaction (so a concurrent
// posting cannot slip past the limit) and rejects when the new exposure would
// exceed it.
func CheckCreditLimit(tx *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, accountId int, additional decimal.Decimal) error {
	account, err := models.GetAccount(tx, fy, accountId)
	if err != nil {
		return err
	}
	if !account.CreditLimit.IsPositive() {
		return nil
	}
	entries, err := loadEntries(tx, fy, accountId, nil)
	if err != nil {
		return err
	}
	current := FoldEntries(logger, account.OpeningBalanceFor(fy.FiscalYearId), primaryEntries(entries))
	if ExceedsCreditLimit(account.CreditLimit, current, additional) {
		return &utils.CreditLimitExceededError{
			AccountId: accountId,
			Available: account.CreditLimit.Sub(current),
			Required:  additional,
		}
	}
	return nil
}
