package models

import "time"

// BillCounter holds the last issued bill-number integer per (company, fiscal
// year, voucher type). The scope columns ARE the primary key: a surrogate
// auto-increment id would clobber the session's last-insert id on the upsert's
// fresh-insert path and corrupt the read-back. Rows are only ever mutated
// through the atomic upsert in workflow.NextBillNumber; application-level
// read-modify-write is how duplicate bill numbers happen, so there is
// deliberately no helper for it.
type BillCounter struct {
	CompanyId         string      `gorm:"primaryKey;size:64" json:"company_id"`
	FiscalYearId      int         `gorm:"primaryKey" json:"fiscal_year_id"`
	VoucherType       VoucherType `gorm:"primaryKey;size:4" json:"voucher_type"`
	CurrentBillNumber int         `gorm:"not null;default:0" json:"current_bill_number"`
	CreatedAt         time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}
