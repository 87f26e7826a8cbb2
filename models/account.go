package models

import (
	"errors"
	"time"

	"github.com/merohisab/retail_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Account is one node of the chart of accounts. Its ledger history lives in
// Transaction rows; the posting engine only ever appends to that history.
type Account struct {
	ID        int    `gorm:"primary_key" json:"id"`
	CompanyId string `gorm:"index;not null" json:"company_id"`
	Name      string `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Phone     string `gorm:"size:20" json:"phone"`
	// UniqueNumber is a generated 4-digit code assigned once at creation,
	// retried until collision-free within the company.
	UniqueNumber string `gorm:"index;size:4" json:"unique_number"`
	// CreditLimit <= 0 means unlimited.
	CreditLimit decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit_limit"`
	// Initial opening balance, tied to the fiscal year the account was
	// created in. Dr is positive, Cr is negative, throughout the engine.
	OpeningBalance       decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"opening_balance"`
	OpeningBalanceSign   BalanceSign         `gorm:"type:enum('Dr','Cr');default:'Dr'" json:"opening_balance_sign"`
	OriginalFiscalYearId int                 `gorm:"index;not null" json:"original_fiscal_year_id"`
	IsActive             *bool               `gorm:"not null;default:true" json:"is_active"`
	FiscalYears          []AccountFiscalYear `gorm:"foreignKey:AccountId" json:"fiscal_years"`
	Groups               []CompanyGroup      `gorm:"many2many:account_group_members;" json:"groups"`
	CreatedAt            time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

// AccountFiscalYear carries an account's membership in a fiscal year plus the
// per-fiscal-year opening/closing balances. A row for a later fiscal year
// than the account's original one means the account was migrated forward.
type AccountFiscalYear struct {
	AccountId      int             `gorm:"primaryKey;autoIncrement:false" json:"account_id"`
	FiscalYearId   int             `gorm:"primaryKey;autoIncrement:false" json:"fiscal_year_id"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_balance"`
	ClosingBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"closing_balance"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// CompanyGroup classifies an account's accounting role ("Sundry Debtors",
// "Cash in Hand", ...).
type CompanyGroup struct {
	ID        int    `gorm:"primary_key" json:"id"`
	CompanyId string `gorm:"index;not null" json:"company_id"`
	Name      string `gorm:"size:100;not null" json:"name"`
}

type NewAccount struct {
	Name               string          `json:"name" binding:"required"`
	Phone              string          `json:"phone"`
	CreditLimit        decimal.Decimal `json:"credit_limit"`
	OpeningBalance     decimal.Decimal `json:"opening_balance"`
	OpeningBalanceSign BalanceSign     `json:"opening_balance_sign"`
	GroupIds           []int           `json:"group_ids"`
}

func (input *NewAccount) validate(tx *gorm.DB, fy FiscalYearContext, id int) error {
	// name unique within (company, fiscal year); account names are company
	// scoped and fiscal-year membership is derived, so company scope is the
	// effective constraint here.
	if err := ValidateUnique[Account](tx, fy.CompanyId, "name", input.Name, id); err != nil {
		return err
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.NewValidationError("phone", err.Error())
		}
	}
	if input.OpeningBalanceSign != "" &&
		input.OpeningBalanceSign != BalanceSignDebit && input.OpeningBalanceSign != BalanceSignCredit {
		return utils.NewValidationError("opening_balance_sign", "must be Dr or Cr")
	}
	return nil
}

func CreateAccount(tx *gorm.DB, fy FiscalYearContext, input *NewAccount) (*Account, error) {
	if err := fy.Validate(); err != nil {
		return nil, err
	}
	if err := input.validate(tx, fy, 0); err != nil {
		return nil, err
	}

	uniqueNumber, err := generateUniqueNumber(tx, fy.CompanyId)
	if err != nil {
		return nil, err
	}

	sign := input.OpeningBalanceSign
	if sign == "" {
		sign = BalanceSignDebit
	}

	account := Account{
		CompanyId:            fy.CompanyId,
		Name:                 input.Name,
		Phone:                input.Phone,
		UniqueNumber:         uniqueNumber,
		CreditLimit:          input.CreditLimit,
		OpeningBalance:       input.OpeningBalance,
		OpeningBalanceSign:   sign,
		OriginalFiscalYearId: fy.FiscalYearId,
		IsActive:             utils.NewTrue(),
		FiscalYears: []AccountFiscalYear{
			{FiscalYearId: fy.FiscalYearId, OpeningBalance: signedAmount(input.OpeningBalance, sign)},
		},
	}
	if err := tx.Create(&account).Error; err != nil {
		return nil, err
	}
	if len(input.GroupIds) > 0 {
		var groups []CompanyGroup
		if err := tx.Where("company_id = ? AND id IN ?", fy.CompanyId, input.GroupIds).Find(&groups).Error; err != nil {
			return nil, err
		}
		if err := tx.Model(&account).Association("Groups").Append(&groups); err != nil {
			return nil, err
		}
	}
	return &account, nil
}

// generateUniqueNumber draws random 4-digit codes until one is free.
func generateUniqueNumber(tx *gorm.DB, companyId string) (string, error) {
	for attempt := 0; attempt < 25; attempt++ {
		candidate := utils.RandomDigits(4)
		var count int64
		if err := tx.Model(&Account{}).
			Where("company_id = ? AND unique_number = ?", companyId, candidate).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
	return "", errors.New("could not generate a free account number")
}

func signedAmount(amount decimal.Decimal, sign BalanceSign) decimal.Decimal {
	if sign == BalanceSignCredit {
		return amount.Neg()
	}
	return amount
}

// SignedOpeningBalance returns the account's initial opening balance with Dr
// positive and Cr negative.
func (a *Account) SignedOpeningBalance() decimal.Decimal {
	return signedAmount(a.OpeningBalance, a.OpeningBalanceSign)
}

// VisibleInFiscalYear implements the fiscal-year migration rule: an account
// belongs to fiscal year F if it was created in F, or if it was created in an
// earlier fiscal year and migrated forward (has a membership row for F).
func (a *Account) VisibleInFiscalYear(fiscalYearId int) bool {
	if a.OriginalFiscalYearId == fiscalYearId {
		return true
	}
	if a.OriginalFiscalYearId > fiscalYearId {
		return false
	}
	for _, afy := range a.FiscalYears {
		if afy.FiscalYearId == fiscalYearId {
			return true
		}
	}
	return false
}

// OpeningBalanceFor seeds the balance fold: the per-fiscal-year opening row
// when one exists, else the signed initial opening balance for the account's
// original fiscal year.
func (a *Account) OpeningBalanceFor(fiscalYearId int) decimal.Decimal {
	for _, afy := range a.FiscalYears {
		if afy.FiscalYearId == fiscalYearId {
			return afy.OpeningBalance
		}
	}
	if a.OriginalFiscalYearId == fiscalYearId {
		return a.SignedOpeningBalance()
	}
	return decimal.Zero
}

// GetAccount loads an account with its fiscal-year rows and enforces the
// migration visibility rule for the requested fiscal year.
func GetAccount(tx *gorm.DB, fy FiscalYearContext, id int) (*Account, error) {
	account, err := FetchModel[Account](tx, fy.CompanyId, id, "FiscalYears")
	if err != nil {
		return nil, err
	}
	if !account.VisibleInFiscalYear(fy.FiscalYearId) {
		return nil, utils.NewNotFoundError("account", id)
	}
	return account, nil
}

// GetControlAccount resolves a control account by its exact conventional name
// ("Sales", "VAT", "Rounded Off", "Cash in Hand"). Returns (nil, nil) when
// the company has no such account; callers skip the corresponding leg.
func GetControlAccount(tx *gorm.DB, fy FiscalYearContext, name string) (*Account, error) {
	var account Account
	err := tx.Where("company_id = ? AND name = ? AND is_active = 1", fy.CompanyId, name).
		Preload("FiscalYears").
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !account.VisibleInFiscalYear(fy.FiscalYearId) {
		return nil, nil
	}
	return &account, nil
}
