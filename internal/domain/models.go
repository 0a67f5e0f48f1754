package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Customer struct {
	ID        snowflake.ID `json:"id"`
	Name      string       `json:"name"`
	Phone     string       `json:"phone,omitempty"`
	Note      string       `json:"note,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type CustomerCreateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Note  string `json:"note"`
}

type CustomerBalance struct {
	Customer Customer        `json:"customer"`
	Balance  decimal.Decimal `json:"balance"`
	Label    Label           `json:"label"`
}

type CustomerDetailResponse struct {
	Customer Customer        `json:"customer"`
	Balance  decimal.Decimal `json:"balance"`
	Label    Label           `json:"label"`
	Entries  []LedgerEntry   `json:"entries"`
}

type LedgerKind string

const (
	KindDebt    LedgerKind = "DEBT"
	KindPayment LedgerKind = "PAYMENT"
)

func (k LedgerKind) Valid() bool {
	return k == KindDebt || k == KindPayment
}

type LedgerEntry struct {
	ID          snowflake.ID    `json:"id"`
	CustomerID  snowflake.ID    `json:"customer_id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        LedgerKind      `json:"kind"`
	CreatedAt   time.Time       `json:"created_at"`
}

// LedgerEntryCreateRequest carries raw operator input; date and amount are
// validated by the service.
type LedgerEntryCreateRequest struct {
	CustomerID  snowflake.ID `json:"customer_id"`
	Date        string       `json:"date"`
	Description string       `json:"description"`
	Amount      string       `json:"amount"`
	Kind        LedgerKind   `json:"kind"`
}

// LedgerTotals sums debt and payment entries. Net follows the balance sign
// convention: positive means customers owe the business.
type LedgerTotals struct {
	Debt    decimal.Decimal `json:"total_debt"`
	Payment decimal.Decimal `json:"total_payment"`
	Net     decimal.Decimal `json:"net"`
}

type CashKind string

const (
	KindRevenue CashKind = "REVENUE"
	KindExpense CashKind = "EXPENSE"
)

func (k CashKind) Valid() bool {
	return k == KindRevenue || k == KindExpense
}

type CashEntry struct {
	ID          snowflake.ID    `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        CashKind        `json:"kind"`
	CreatedAt   time.Time       `json:"created_at"`
}

type CashEntryCreateRequest struct {
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Amount      string   `json:"amount"`
	Kind        CashKind `json:"kind"`
}

type CashSummary struct {
	Period  string          `json:"period"`
	Revenue decimal.Decimal `json:"revenue"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
	Label   Label           `json:"label"`
}

// DateRange is a half-open [From, To) filter over calendar dates. A nil bound
// is unbounded on that side.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) Contains(day time.Time) bool {
	if r.From != nil && day.Before(*r.From) {
		return false
	}
	if r.To != nil && !day.Before(*r.To) {
		return false
	}
	return true
}

// DayRange covers exactly one calendar date.
func DayRange(day time.Time) DateRange {
	from := day
	to := day.AddDate(0, 0, 1)
	return DateRange{From: &from, To: &to}
}

// MonthRange covers [first day of month, first day of next month).
func MonthRange(year int, month time.Month) DateRange {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	nextYear, nextMonth := year, month+1
	if month == time.December {
		nextYear, nextMonth = year+1, time.January
	}
	to := time.Date(nextYear, nextMonth, 1, 0, 0, 0, 0, time.UTC)
	return DateRange{From: &from, To: &to}
}

type Label string

const (
	LabelDebtor   Label = "DEBTOR"
	LabelCreditor Label = "CREDITOR"
	LabelBalanced Label = "BALANCED"
	LabelProfit   Label = "PROFIT"
	LabelLoss     Label = "LOSS"
)

// BalanceLabel maps a signed balance onto its statement label.
func BalanceLabel(balance decimal.Decimal) Label {
	switch balance.Sign() {
	case 1:
		return LabelDebtor
	case -1:
		return LabelCreditor
	default:
		return LabelBalanced
	}
}

// NetLabel treats a zero net as profit.
func NetLabel(net decimal.Decimal) Label {
	if net.IsNegative() {
		return LabelLoss
	}
	return LabelProfit
}

type ReportType string

const (
	ReportDebt ReportType = "debt"
	ReportCash ReportType = "cash"
)

type SectionKind string

const (
	SectionCustomer    SectionKind = "customer"
	SectionGrandTotal  SectionKind = "grand_total"
	SectionCashSummary SectionKind = "cash_summary"
	SectionCashDetail  SectionKind = "cash_detail"
)

type ReportFigure struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type ReportRow struct {
	Date        time.Time       `json:"date"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// ReportSection is one block of a report. Amount is always absolute; Label
// carries the sign.
type ReportSection struct {
	Kind    SectionKind     `json:"kind"`
	Title   string          `json:"title"`
	Phone   string          `json:"phone,omitempty"`
	Label   Label           `json:"label,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
	Figures []ReportFigure  `json:"figures,omitempty"`
	Rows    []ReportRow     `json:"rows,omitempty"`
}

type Report struct {
	Type        ReportType      `json:"type"`
	Title       string          `json:"title"`
	Period      string          `json:"period"`
	GeneratedAt time.Time       `json:"generated_at"`
	Sections    []ReportSection `json:"sections"`
}

const (
	FigureRevenue = "revenue"
	FigureExpense = "expense"
	FigureNet     = "net"
	FigureDebt    = "debt"
	FigurePayment = "payment"
	PeriodAll     = "all"
)
