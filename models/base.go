package models

import (
	"errors"
	"fmt"

	"github.com/merohisab/retail_backend/utils"
	"gorm.io/gorm"
)

// FiscalYearContext scopes every core call to one company and one fiscal
// year. It is always passed explicitly by the caller; there is no
// session-carried fiscal-year state anywhere in this codebase.
type FiscalYearContext struct {
	CompanyId    string `json:"company_id"`
	FiscalYearId int    `json:"fiscal_year_id"`
}

func (fy FiscalYearContext) Validate() error {
	if fy.CompanyId == "" {
		return utils.NewValidationError("company_id", "required")
	}
	if fy.FiscalYearId <= 0 {
		return utils.NewValidationError("fiscal_year_id", "required")
	}
	return nil
}

// FetchModel loads one record by id scoped to the company, translating gorm's
// not-found into the shared taxonomy.
func FetchModel[T any](tx *gorm.DB, companyId string, id int, preloads ...string) (*T, error) {
	var result T
	dbCtx := tx.Where("company_id = ? AND id = ?", companyId, id)
	for _, preload := range preloads {
		dbCtx = dbCtx.Preload(preload)
	}
	if err := dbCtx.First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError(fmt.Sprintf("%T", result), id)
		}
		return nil, err
	}
	return &result, nil
}

// ValidateUnique checks field uniqueness within a company. id = 0 for create.
func ValidateUnique[T any](tx *gorm.DB, companyId string, field string, value string, id int) error {
	var model T
	var count int64
	dbCtx := tx.Model(&model).Where("company_id = ? AND "+field+" = ?", companyId, value)
	if id > 0 {
		dbCtx = dbCtx.Where("id != ?", id)
	}
	if err := dbCtx.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return utils.NewValidationError(field, "already exists")
	}
	return nil
}
