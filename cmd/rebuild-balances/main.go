package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/merohisab/retail_backend/config"
	"github.com/merohisab/retail_backend/models"
	"github.com/merohisab/retail_backend/workflow"
)

// Recomputes closing balances and running-balance snapshots from the ledger
// fold for one fiscal year. Safe to run any time: the fold is the source of
// truth and this tool only rewrites the derived columns.
func main() {
	companyID := flag.String("company-id", "", "Company to rebuild (required).")
	fiscalYearID := flag.Int("fiscal-year-id", 0, "Fiscal year to rebuild (required).")
	accountID := flag.Int("account-id", 0, "Optional: rebuild only one account.")
	flag.Parse()

	if strings.TrimSpace(*companyID) == "" || *fiscalYearID <= 0 {
		fmt.Fprintln(os.Stderr, "usage: rebuild-balances -company-id <id> -fiscal-year-id <id> [-account-id <id>]")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	logger := config.GetLogger()
	fy := models.FiscalYearContext{CompanyId: strings.TrimSpace(*companyID), FiscalYearId: *fiscalYearID}

	var accountIds []int
	accQuery := db.Model(&models.Account{}).Where("company_id = ?", fy.CompanyId)
	if *accountID > 0 {
		accQuery = accQuery.Where("id = ?", *accountID)
	}
	if err := accQuery.Pluck("id", &accountIds).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to list accounts: %v\n", err)
		os.Exit(1)
	}
	if len(accountIds) == 0 {
		fmt.Fprintln(os.Stderr, "no accounts found to rebuild")
		return
	}

	rebuilt := 0
	for _, id := range accountIds {
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := rewriteRunningBalances(tx, fy, id, logger); err != nil {
				return err
			}
			return workflow.UpdateClosingBalances(tx, logger, fy, []int{id})
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "account %d: %v\n", id, err)
			continue
		}
		rebuilt++
	}
	fmt.Printf("rebuilt balances for %d/%d accounts (company %s, fiscal year %d)\n",
		rebuilt, len(accountIds), fy.CompanyId, fy.FiscalYearId)
}

// rewriteRunningBalances replays the account's history in fold order and
// rewrites each entry's denormalized balance snapshot. Raw updates on
// purpose: the snapshot is outside the ledger's immutable business fields,
// and the hook would reject a model-level update.
func rewriteRunningBalances(tx *gorm.DB, fy models.FiscalYearContext, accountId int, logger *logrus.Logger) error {
	account, err := models.GetAccount(tx, fy, accountId)
	if err != nil {
		return err
	}
	var entries []models.Transaction
	err = tx.Where("company_id = ? AND fiscal_year_id = ? AND account_id = ?",
		fy.CompanyId, fy.FiscalYearId, accountId).
		Order("date, created_at, id").
		Find(&entries).Error
	if err != nil {
		return err
	}

	balance := account.OpeningBalanceFor(fy.FiscalYearId)
	for i := range entries {
		entry := &entries[i]
		if entry.Status != models.VoucherStatusCanceled && (entry.IsActive == nil || *entry.IsActive) {
			contribution, ok := entry.Contribution()
			if !ok {
				logger.Warnf("skipping transaction %d with unknown role %q", entry.ID, entry.Role)
				continue
			}
			balance = balance.Add(contribution)
		}
		err := tx.Exec("UPDATE transactions SET balance = ? WHERE id = ?", balance, entry.ID).Error
		if err != nil {
			return err
		}
	}
	return nil
}
