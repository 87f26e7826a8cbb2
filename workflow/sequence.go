package workflow

import (
	"errors"
	"fmt"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/merohisab/retail_backend/config"
	"github.com/merohisab/retail_backend/models"
	"github.com/merohisab/retail_backend/utils"
)

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// The reservation deliberately avoids LAST_INSERT_ID(): on the fresh-insert
// path of an upsert MySQL overwrites the session value with any generated
// auto-increment id at end of statement, so a LAST_INSERT_ID(expr) read-back
// is only safe on tables with no auto-increment column at all. Instead the
// upsert increments under its own row lock and the value is read back with a
// locking SELECT on the same connection, which is immune to what else the
// session has inserted.
const reserveCounterSQL = `
	INSERT INTO bill_counters (company_id, fiscal_year_id, voucher_type, current_bill_number, created_at, updated_at)
	VALUES (?, ?, ?, 1, NOW(), NOW())
	ON DUPLICATE KEY UPDATE
		current_bill_number = current_bill_number + 1,
		updated_at = NOW()
`

const readCounterSQL = `
	SELECT current_bill_number FROM bill_counters
	WHERE company_id = ? AND fiscal_year_id = ? AND voucher_type = ?
	FOR UPDATE
`

// NextBillNumber reserves the next integer of the (company, fiscal year,
// voucher type) sequence and returns it formatted with the fiscal year's
// prefix. The upsert increments atomically (initializing to 1 on first use)
// and the row stays locked until the posting transaction ends, so two
// concurrent callers can never observe the same value. Because the increment
// runs inside the posting transaction, a rollback releases it with everything
// else: concurrent posters queue on the counter row lock, which keeps the
// sequence gap-free as well as collision-free.
//
// A first-insert race (two callers both seeing no row) surfaces as a 1062
// duplicate-key error; it is retried once, at which point the row exists and
// the upsert path wins.
func NextBillNumber(tx *gorm.DB, logger *logrus.Logger, fy models.FiscalYearContext, voucherType models.VoucherType) (string, error) {
	if !voucherType.Valid() {
		return "", utils.NewValidationError("voucher_type", "unknown voucher type")
	}
	prefix, err := models.BillPrefixFor(tx, fy, voucherType)
	if err != nil {
		return "", utils.WrapStorageError(err)
	}

	number, err := reserveBillNumber(tx, fy, voucherType)
	if isDuplicateKeyErr(err) {
		config.LogError(logger, "sequence.go", "NextBillNumber", "RetryAfterFirstInsertRace", voucherType, err)
		number, err = reserveBillNumber(tx, fy, voucherType)
	}
	if err != nil {
		if isDuplicateKeyErr(err) {
			return "", &utils.SequenceConflictError{VoucherType: string(voucherType)}
		}
		return "", utils.WrapStorageError(err)
	}

	return FormatBillNumber(prefix, number), nil
}

func reserveBillNumber(tx *gorm.DB, fy models.FiscalYearContext, voucherType models.VoucherType) (int, error) {
	err := tx.Exec(reserveCounterSQL, fy.CompanyId, fy.FiscalYearId, voucherType).Error
	if err != nil {
		return 0, err
	}
	var number int
	err = tx.Raw(readCounterSQL, fy.CompanyId, fy.FiscalYearId, voucherType).Scan(&number).Error
	if err != nil {
		return 0, err
	}
	return number, nil
}

// FormatBillNumber renders prefix plus a zero-padded seven digit counter,
// e.g. SA0000042.
func FormatBillNumber(prefix string, number int) string {
	return fmt.Sprintf("%s%07d", prefix, number)
}

// PeekNextBillNumber previews the number the next posting would get, without
// reserving it. Display only; the value is stale the moment it is read.
func PeekNextBillNumber(tx *gorm.DB, fy models.FiscalYearContext, voucherType models.VoucherType) (string, error) {
	if !voucherType.Valid() {
		return "", utils.NewValidationError("voucher_type", "unknown voucher type")
	}
	prefix, err := models.BillPrefixFor(tx, fy, voucherType)
	if err != nil {
		return "", utils.WrapStorageError(err)
	}
	var counter models.BillCounter
	current := 0
	err = tx.Where("company_id = ? AND fiscal_year_id = ? AND voucher_type = ?",
		fy.CompanyId, fy.FiscalYearId, voucherType).First(&counter).Error
	if err == nil {
		current = counter.CurrentBillNumber
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", utils.WrapStorageError(err)
	}
	return FormatBillNumber(prefix, current+1), nil
}
