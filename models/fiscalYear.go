package models

import (
	"errors"
	"time"

	"github.com/merohisab/retail_backend/utils"
	"gorm.io/gorm"
)

type FiscalYear struct {
	ID           int                    `gorm:"primary_key" json:"id"`
	CompanyId    string                 `gorm:"index;not null" json:"company_id"`
	Name         string                 `gorm:"size:100;not null" json:"name" binding:"required"`
	StartDate    time.Time              `gorm:"not null" json:"start_date"`
	EndDate      time.Time              `gorm:"not null" json:"end_date"`
	IsActive     *bool                  `gorm:"not null;default:true" json:"is_active"`
	BillPrefixes []FiscalYearBillPrefix `gorm:"foreignKey:FiscalYearId" json:"bill_prefixes"`
	CreatedAt    time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
}

// FiscalYearBillPrefix configures the human-facing bill-number prefix per
// voucher type, e.g. SA -> "SA" so sales bills read SA0000042.
type FiscalYearBillPrefix struct {
	FiscalYearId int         `gorm:"primaryKey;autoIncrement:false" json:"fiscal_year_id"`
	VoucherType  VoucherType `gorm:"primaryKey;autoIncrement:false;size:4" json:"voucher_type"`
	Prefix       string      `gorm:"size:10" json:"prefix"`
}

// Contains reports whether a business date falls inside the fiscal year.
func (fy *FiscalYear) Contains(date time.Time) bool {
	return !date.Before(fy.StartDate) && !date.After(fy.EndDate)
}

func GetFiscalYear(tx *gorm.DB, companyId string, id int) (*FiscalYear, error) {
	return FetchModel[FiscalYear](tx, companyId, id, "BillPrefixes")
}

// BillPrefixFor resolves the configured prefix for a voucher type, falling
// back to the voucher type code itself when nothing is configured.
func BillPrefixFor(tx *gorm.DB, fy FiscalYearContext, voucherType VoucherType) (string, error) {
	var prefix FiscalYearBillPrefix
	err := tx.Where("fiscal_year_id = ? AND voucher_type = ?", fy.FiscalYearId, voucherType).
		First(&prefix).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return string(voucherType), nil
		}
		return "", err
	}
	if prefix.Prefix == "" {
		return string(voucherType), nil
	}
	return prefix.Prefix, nil
}

// ValidateVoucherDate rejects business dates outside the fiscal year's range
// before anything is written.
func ValidateVoucherDate(tx *gorm.DB, fy FiscalYearContext, date time.Time) error {
	fiscalYear, err := GetFiscalYear(tx, fy.CompanyId, fy.FiscalYearId)
	if err != nil {
		return err
	}
	if !fiscalYear.Contains(date) {
		return utils.NewValidationError("date", "outside fiscal year range")
	}
	return nil
}
