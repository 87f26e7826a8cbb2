package workflow

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/merohisab/retail_backend/config"
	"github.com/merohisab/retail_backend/models"
	"github.com/merohisab/retail_backend/utils"
)

// BalanceResult is a computed account balance with its conventional sign
// label (Dr when the signed amount is >= 0, Cr otherwise).
type BalanceResult struct {
	AccountId int             `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Sign      models.BalanceSign
}

func newBalanceResult(accountId int, amount decimal.Decimal) BalanceResult {
	sign := models.BalanceSignDebit
	if amount.IsNegative() {
		sign = models.BalanceSignCredit
	}
	return BalanceResult{AccountId: accountId, Amount: amount, Sign: sign}
}

// FoldEntries replays ledger entries over an opening balance. It is the
// single source of truth for every balance in the engine; the denormalized
// Transaction.Balance column is a display snapshot and never read here.
//
// The caller supplies entries already ordered (date, created_at, id) — the
// ordering the loaders below use. Canceled and inactive entries contribute
// zero. Entries are deduplicated by id so an accidental double-load cannot
// double-count. Entries with an unknown role are skipped with a warning
// rather than aborting the whole statement.
func FoldEntries(logger *logrus.Logger, opening decimal.Decimal, entries []models.Transaction) decimal.Decimal {
	balance := opening
	seen := make(map[int]bool, len(entries))
	for i := range entries {
		entry := &entries[i]
		if entry.ID > 0 {
			if seen[entry.ID] {
				continue
			}
			seen[entry.ID] = true
		}
		if entry.Status == models.VoucherStatusCanceled || (entry.IsActive != nil && !*entry.IsActive) {
			continue
		}
		contribution, ok := entry.Contribution()
		if !ok {
			if logger != nil {
				logger.WithFields(logrus.Fields{
					"transaction_id": entry.ID,
					"role":           entry.Role,
				}).Warn("skipping ledger entry with unknown role")
			}
			continue
		}
		balance = balance.Add(contribution)
	}
	return balance
}

func loadEntries(tx *gorm.DB, fy models.FiscalYearContext, accountId int, asOf *string) ([]models.Transaction, error) {
	dbCtx := tx.Where("company_id = ? AND fiscal_year_id = ? AND account_id = ?",
		fy.CompanyId, fy.FiscalYearId, accountId)
	if asOf != nil {
		// strictly before the cutoff date: an as-of balance is the balance
		// the account opened the day with
		dbCtx = dbCtx.Where("date < ?", *asOf)
	}
	var entries []models.Transaction
	if err := dbCtx.Order("date, created_at, id").Find(&entries).Error; err != nil {
		return nil, utils.WrapStorageError(err)
	}
	return entries, nil
}

// ComputeBalance folds an account's full fiscal-year history over its opening
// balance. With asOf ("2006-01-02"), entries dated on or after the cutoff are
// excluded.
func ComputeBalance(tx *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, accountId int, asOf *string) (BalanceResult, error) {
	account, err := models.GetAccount(tx, fy, accountId)
	if err != nil {
		return BalanceResult{}, err
	}
	entries, err := loadEntries(tx, fy, accountId, asOf)
	if err != nil {
		return BalanceResult{}, err
	}
	amount := FoldEntries(logger, account.OpeningBalanceFor(fy.FiscalYearId), entries)
	return newBalanceResult(accountId, amount), nil
}

// ComputeClosingBalance is ComputeBalance over the whole fiscal year, cached
// in redis until the next posting against the account invalidates it.
func ComputeClosingBalance(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, accountId int) (BalanceResult, error) {
	if cached, ok := utils.GetCachedClosingBalance(fy.CompanyId, fy.FiscalYearId, accountId); ok {
		if amount, err := decimal.NewFromString(cached); err == nil {
			return newBalanceResult(accountId, amount), nil
		}
	}

	var result BalanceResult
	err := utils.WithBalanceRebuildLock(ctx, fy.CompanyId, fy.FiscalYearId, accountId, func() error {
		computed, err := ComputeBalance(tx, logger, fy, accountId, nil)
		if err != nil {
			return err
		}
		result = computed
		if err := utils.SetCachedClosingBalance(fy.CompanyId, fy.FiscalYearId, accountId, computed.Amount.String()); err != nil {
			config.LogError(logger, "balance.go", "ComputeClosingBalance", "SetCachedClosingBalance", accountId, err)
		}
		return nil
	})
	if err != nil {
		return BalanceResult{}, err
	}
	return result, nil
}

// UpdateClosingBalances recomputes and persists the per-fiscal-year closing
// balance rows for the given accounts and drops their cache entries. Called
// inside posting transactions after legs are written.
func UpdateClosingBalances(tx *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, accountIds []int) error {
	for _, accountId := range accountIds {
		result, err := ComputeBalance(tx, logger, fy, accountId, nil)
		if err != nil {
			return err
		}
		err = tx.Model(&models.AccountFiscalYear{}).
			Where("account_id = ? AND fiscal_year_id = ?", accountId, fy.FiscalYearId).
			Update("closing_balance", result.Amount).Error
		if err != nil {
			return utils.WrapStorageError(err)
		}
	}
	if err := utils.InvalidateClosingBalances(fy.CompanyId, fy.FiscalYearId, accountIds); err != nil {
		config.LogError(logger, "balance.go", "UpdateClosingBalances", "InvalidateClosingBalances", accountIds, err)
	}
	return nil
}
