package models

// VoucherType tags every voucher document and every ledger entry with the
// business transaction it belongs to. The two-letter codes are what gets
// stored and what bill-number prefixes default to.
type VoucherType string

const (
	VoucherTypeSales          VoucherType = "SA"
	VoucherTypePurchase       VoucherType = "PU"
	VoucherTypeSalesReturn    VoucherType = "SR"
	VoucherTypePurchaseReturn VoucherType = "PR"
	VoucherTypePayment        VoucherType = "PY"
	VoucherTypeReceipt        VoucherType = "RC"
	VoucherTypeJournal        VoucherType = "JV"
	VoucherTypeDebitNote      VoucherType = "DN"
	VoucherTypeCreditNote     VoucherType = "CN"
)

func (v VoucherType) Valid() bool {
	switch v {
	case VoucherTypeSales, VoucherTypePurchase, VoucherTypeSalesReturn,
		VoucherTypePurchaseReturn, VoucherTypePayment, VoucherTypeReceipt,
		VoucherTypeJournal, VoucherTypeDebitNote, VoucherTypeCreditNote:
		return true
	}
	return false
}

// TransactionRole records which position an account occupies on a ledger
// entry. The role decides the sign of the entry's balance contribution.
type TransactionRole string

const (
	RolePrimary       TransactionRole = "P"
	RolePaymentSource TransactionRole = "PS"
	RoleReceiptTarget TransactionRole = "RT"
	RoleDebitLeg      TransactionRole = "DR"
	RoleCreditLeg     TransactionRole = "CR"
)

type VoucherStatus string

const (
	VoucherStatusActive   VoucherStatus = "active"
	VoucherStatusCanceled VoucherStatus = "canceled"
)

type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "cash"
	PaymentModeCredit PaymentMode = "credit"
)

type VatStatus string

const (
	VatStatusVatable    VatStatus = "vatable"
	VatStatusNonVatable VatStatus = "nonvatable"
)

type BalanceSign string

const (
	BalanceSignDebit  BalanceSign = "Dr"
	BalanceSignCredit BalanceSign = "Cr"
)

// Control accounts looked up by exact name within a company. These names are
// a configuration contract, not ids; a company missing one simply skips the
// corresponding automatic leg.
const (
	ControlAccountSales      = "Sales"
	ControlAccountPurchases  = "Purchases"
	ControlAccountVat        = "VAT"
	ControlAccountRoundedOff = "Rounded Off"
	ControlAccountCashInHand = "Cash in Hand"
)
