package http

import (
	"time"

	"conti/internal/core"
)

// JSON views of the ledger types. Money always leaves as a 2-decimal string.

type accountDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Balance     string `json:"balance"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type categoryDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type transactionDTO struct {
	ID                  string `json:"id"`
	Type                string `json:"type"`
	Note                string `json:"note"`
	Amount              string `json:"amount"`
	Date                string `json:"date"`
	Time                string `json:"time"`
	AccountID           string `json:"accountID"`
	CategoryID          string `json:"categoryID,omitempty"`
	TransferFee         string `json:"transferFee"`
	TransferToAccountID string `json:"transferToAccountID,omitempty"`
	Direction           string `json:"direction,omitempty"`
	GroupID             string `json:"groupID,omitempty"`
	Effect              string `json:"effect"`
	CreatedAt           string `json:"createdAt"`
	UpdatedAt           string `json:"updatedAt"`
}

type daySummaryDTO struct {
	Date         string           `json:"date"`
	TotalIncome  string           `json:"totalIncome"`
	TotalExpense string           `json:"totalExpense"`
	Total        string           `json:"total"`
	Details      []transactionDTO `json:"details"`
}

type categorySummaryDTO struct {
	CategoryID string `json:"categoryID"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	Type       string `json:"type"`
	Total      string `json:"total"`
	Count      int    `json:"count"`
}

type categoryReportDTO struct {
	Type         string               `json:"type,omitempty"`
	TotalIncome  string               `json:"totalIncome"`
	TotalExpense string               `json:"totalExpense"`
	Categories   []categorySummaryDTO `json:"categories"`
}

type countDTO struct {
	Count int `json:"count"`
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toAccountDTO(a core.Account) accountDTO {
	return accountDTO{
		ID:          a.ID,
		Name:        a.Name,
		Type:        string(a.Type),
		Description: a.Description,
		Balance:     a.Balance.String(),
		CreatedAt:   timestamp(a.CreatedAt),
		UpdatedAt:   timestamp(a.UpdatedAt),
	}
}

func toCategoryDTO(c core.Category) categoryDTO {
	return categoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Type:        string(c.Type),
		Icon:        c.Icon,
		Description: c.Description,
		CreatedAt:   timestamp(c.CreatedAt),
		UpdatedAt:   timestamp(c.UpdatedAt),
	}
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	dto := transactionDTO{
		ID:          t.ID,
		Type:        string(t.Type()),
		Note:        t.Note,
		Amount:      t.Amount.String(),
		Date:        t.Date.String(),
		Time:        t.Time.String(),
		AccountID:   t.AccountID,
		CategoryID:  t.CategoryID(),
		TransferFee: t.Fee().String(),
		Effect:      t.Effect().String(),
		CreatedAt:   timestamp(t.CreatedAt),
		UpdatedAt:   timestamp(t.UpdatedAt),
	}
	if d, ok := t.Detail.(core.TransferDetail); ok {
		dto.TransferToAccountID = d.CounterpartyAccountID
		dto.Direction = string(d.Direction)
		dto.GroupID = d.GroupID
	}
	return dto
}

func toDaySummaryDTOs(days []core.DaySummary) []daySummaryDTO {
	out := make([]daySummaryDTO, 0, len(days))
	for _, d := range days {
		details := make([]transactionDTO, 0, len(d.Details))
		for _, t := range d.Details {
			details = append(details, toTransactionDTO(t))
		}
		out = append(out, daySummaryDTO{
			Date:         d.Date.String(),
			TotalIncome:  d.TotalIncome.String(),
			TotalExpense: d.TotalExpense.String(),
			Total:        d.Total.String(),
			Details:      details,
		})
	}
	return out
}

func toCategoryReportDTO(r core.CategoryReport) categoryReportDTO {
	cats := make([]categorySummaryDTO, 0, len(r.Categories))
	for _, c := range r.Categories {
		cats = append(cats, categorySummaryDTO{
			CategoryID: c.CategoryID,
			Name:       c.Name,
			Icon:       c.Icon,
			Type:       string(c.Type),
			Total:      c.Total.String(),
			Count:      c.Count,
		})
	}
	return categoryReportDTO{
		Type:         string(r.Type),
		TotalIncome:  r.TotalIncome.String(),
		TotalExpense: r.TotalExpense.String(),
		Categories:   cats,
	}
}
