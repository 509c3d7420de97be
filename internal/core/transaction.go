package core

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Detail is the type-specific part of a transaction. Exactly one of
// IncomeDetail, ExpenseDetail or TransferDetail.
type Detail interface {
	Type() TransactionType
	isDetail()
}

type IncomeDetail struct {
	CategoryID string
}

type ExpenseDetail struct {
	CategoryID string
}

// TransferDetail describes one side of a transfer. The outgoing side carries
// the fee; the incoming side always has a zero fee.
type TransferDetail struct {
	CounterpartyAccountID string // empty once the counterparty account is deleted
	Fee                   Money
	Direction             Direction
	GroupID               string
}

func (IncomeDetail) Type() TransactionType   { return TypeIncome }
func (ExpenseDetail) Type() TransactionType  { return TypeExpense }
func (TransferDetail) Type() TransactionType { return TypeTransfer }

func (IncomeDetail) isDetail()   {}
func (ExpenseDetail) isDetail()  {}
func (TransferDetail) isDetail() {}

// Transaction is one ledger row.
type Transaction struct {
	ID        string
	OwnerID   string
	Note      string
	Amount    Money
	Date      Date
	Time      TimeOfDay
	AccountID string
	Detail    Detail
	Seq       int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t Transaction) Type() TransactionType {
	if t.Detail == nil {
		return ""
	}
	return t.Detail.Type()
}

// CategoryID returns the referenced category, or "" for transfers.
func (t Transaction) CategoryID() string {
	switch d := t.Detail.(type) {
	case IncomeDetail:
		return d.CategoryID
	case ExpenseDetail:
		return d.CategoryID
	}
	return ""
}

func (t Transaction) Fee() Money {
	if d, ok := t.Detail.(TransferDetail); ok {
		return d.Fee
	}
	return Zero
}

// Effect is the signed change this row applies to its account balance.
func (t Transaction) Effect() Money {
	switch d := t.Detail.(type) {
	case IncomeDetail:
		return t.Amount
	case ExpenseDetail:
		return t.Amount.Neg()
	case TransferDetail:
		if d.Direction == DirectionIn {
			return t.Amount
		}
		return t.Amount.Add(d.Fee).Neg()
	}
	return Zero
}

// TransactionInput is the raw user payload for creating or replacing a
// transaction. Numeric and temporal fields arrive as strings and are parsed
// by Parse.
type TransactionInput struct {
	Type                TransactionType
	Amount              string
	TransferFee         string
	Note                string
	Date                string
	Time                string
	AccountID           string
	CategoryID          string
	TransferToAccountID string
}

// TransactionDraft is a syntactically valid TransactionInput. References are
// not yet resolved against the store.
type TransactionDraft struct {
	Type                TransactionType
	Amount              Money
	Fee                 Money
	Note                string
	Date                Date
	Time                TimeOfDay
	AccountID           string
	CategoryID          string
	TransferToAccountID string
}

// Parse validates in in a fixed field order and reports the first failure.
func (in TransactionInput) Parse() (TransactionDraft, error) {
	var d TransactionDraft

	if !in.Type.IsValid() {
		return d, Validation("type", "type must be one of income, expense, transfer")
	}
	d.Type = in.Type

	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return d, Validation("amount", err.Error())
	}
	d.Amount = amount

	if in.Type == TypeTransfer {
		if strings.TrimSpace(in.TransferFee) == "" {
			return d, Validation("transferFee", "transferFee is required for transfers")
		}
		fee, err := ParseFee(in.TransferFee)
		if err != nil {
			return d, Validation("transferFee", err.Error())
		}
		d.Fee = fee
	}

	note := strings.TrimSpace(in.Note)
	if utf8.RuneCountInString(note) > MaxNoteLen {
		return d, Validation("note", fmt.Sprintf("note must be at most %d characters", MaxNoteLen))
	}
	d.Note = note

	date, err := ParseDate(in.Date)
	if err != nil {
		return d, Validation("date", err.Error())
	}
	d.Date = date

	tod, err := ParseTimeOfDay(in.Time)
	if err != nil {
		return d, Validation("time", err.Error())
	}
	d.Time = tod

	d.AccountID = strings.TrimSpace(in.AccountID)
	if d.AccountID == "" {
		return d, Validation("accountID", "accountID is required")
	}

	if in.Type == TypeTransfer {
		d.TransferToAccountID = strings.TrimSpace(in.TransferToAccountID)
		if d.TransferToAccountID == "" {
			return d, Validation("transferToAccountID", "transferToAccountID is required for transfers")
		}
		if d.TransferToAccountID == d.AccountID {
			return d, Validation("transferToAccountID", "cannot transfer to the same account")
		}
		return d, nil
	}

	d.CategoryID = strings.TrimSpace(in.CategoryID)
	if d.CategoryID == "" {
		return d, Validation("categoryID", "categoryID is required")
	}
	return d, nil
}

// NewTransaction builds a non-transfer row from a draft.
func NewTransaction(id, owner string, d TransactionDraft) (Transaction, error) {
	var detail Detail
	switch d.Type {
	case TypeIncome:
		detail = IncomeDetail{CategoryID: d.CategoryID}
	case TypeExpense:
		detail = ExpenseDetail{CategoryID: d.CategoryID}
	default:
		return Transaction{}, Validation("type", "use NewTransfer for transfers")
	}
	return Transaction{
		ID:        id,
		OwnerID:   owner,
		Note:      d.Note,
		Amount:    d.Amount,
		Date:      d.Date,
		Time:      d.Time,
		AccountID: d.AccountID,
		Detail:    detail,
	}, nil
}

// NewTransfer builds the outgoing and incoming rows of a transfer. Both rows
// share groupID.
func NewTransfer(outID, inID, groupID, owner string, d TransactionDraft) (out, in Transaction, err error) {
	if d.Type != TypeTransfer {
		return out, in, Validation("type", "not a transfer")
	}
	if d.AccountID == d.TransferToAccountID {
		return out, in, Validation("transferToAccountID", "cannot transfer to the same account")
	}
	out = Transaction{
		ID:        outID,
		OwnerID:   owner,
		Note:      d.Note,
		Amount:    d.Amount,
		Date:      d.Date,
		Time:      d.Time,
		AccountID: d.AccountID,
		Detail: TransferDetail{
			CounterpartyAccountID: d.TransferToAccountID,
			Fee:                   d.Fee,
			Direction:             DirectionOut,
			GroupID:               groupID,
		},
	}
	in = Transaction{
		ID:        inID,
		OwnerID:   owner,
		Note:      d.Note,
		Amount:    d.Amount,
		Date:      d.Date,
		Time:      d.Time,
		AccountID: d.TransferToAccountID,
		Detail: TransferDetail{
			CounterpartyAccountID: d.AccountID,
			Fee:                   Zero,
			Direction:             DirectionIn,
			GroupID:               groupID,
		},
	}
	return out, in, nil
}
