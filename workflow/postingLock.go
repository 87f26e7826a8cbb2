package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquirePostingLock serializes voucher posting per (company, fiscal year)
// across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same *gorm.DB that will do the posting transaction.
func AcquirePostingLock(tx *gorm.DB, companyId string, fiscalYearId int) error {
	lockName := fmt.Sprintf("posting:%s:%d", companyId, fiscalYearId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for company_id=%s fiscal_year_id=%d", companyId, fiscalYearId)
	}
	return nil
}

func ReleasePostingLock(tx *gorm.DB, companyId string, fiscalYearId int) {
	lockName := fmt.Sprintf("posting:%s:%d", companyId, fiscalYearId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
