package http

import (
	"net/http"

	"conti/internal/core"
	"conti/internal/services"
)

func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, error) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		return nil, err
	}
	return p, nil
}

// Accounts

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request, owner string) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.ledger.Accounts.Create(r.Context(), owner, core.AccountInput{
		Name:        p.Get("name"),
		Type:        core.AccountType(p.Get("type")),
		Description: p.Get("description"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, "/api/accounts/"+a.ID, toAccountDTO(a))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request, owner string) {
	accounts, err := s.ledger.Accounts.List(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]accountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountDTO(a))
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request, owner string) {
	a, err := s.ledger.Accounts.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toAccountDTO(a))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request, owner string) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch := core.AccountPatch{
		Name:        p.GetPtr("name"),
		Description: p.GetPtr("description"),
	}
	if v := p.GetPtr("type"); v != nil {
		t := core.AccountType(*v)
		patch.Type = &t
	}
	a, err := s.ledger.Accounts.Update(r.Context(), owner, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toAccountDTO(a))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, owner string) {
	if err := s.ledger.Accounts.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Categories

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, owner string) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.ledger.Categories.Create(r.Context(), owner, core.CategoryInput{
		Name:        p.Get("name"),
		Type:        core.CategoryType(p.Get("type")),
		Icon:        p.Get("icon"),
		Description: p.Get("description"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, "/api/categories/"+c.ID, toCategoryDTO(c))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, owner string) {
	typ := core.CategoryType(sanitizeInput(r.URL.Query().Get("type")))
	categories, err := s.ledger.Categories.List(r.Context(), owner, typ)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]categoryDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryDTO(c))
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request, owner string) {
	c, err := s.ledger.Categories.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toCategoryDTO(c))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request, owner string) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch := core.CategoryPatch{
		Name:        p.GetPtr("name"),
		Icon:        p.GetPtr("icon"),
		Description: p.GetPtr("description"),
	}
	if v := p.GetPtr("type"); v != nil {
		t := core.CategoryType(*v)
		patch.Type = &t
	}
	c, err := s.ledger.Categories.Update(r.Context(), owner, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toCategoryDTO(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, owner string) {
	if err := s.ledger.Categories.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transactions

func transactionInput(p *RequestBodyParser) core.TransactionInput {
	return core.TransactionInput{
		Type:                core.TransactionType(p.Get("type")),
		Amount:              p.Get("amount"),
		TransferFee:         p.Get("transferFee"),
		Note:                p.Get("note"),
		Date:                p.Get("date"),
		Time:                p.Get("time"),
		AccountID:           p.Get("accountID"),
		CategoryID:          p.Get("categoryID"),
		TransferToAccountID: p.Get("transferToAccountID"),
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.ledger.Transactions.Create(r.Context(), owner, transactionInput(p))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, "/api/transactions/"+t.ID, toTransactionDTO(t))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	t, err := s.ledger.Transactions.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toTransactionDTO(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.ledger.Transactions.Update(r.Context(), owner, r.PathValue("id"), transactionInput(p))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toTransactionDTO(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	if err := s.ledger.Transactions.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Aggregates

func transactionQuery(r *http.Request) (services.TransactionQuery, error) {
	q := r.URL.Query()
	page, err := queryInt(q, "page")
	if err != nil {
		return services.TransactionQuery{}, err
	}
	size, err := queryInt(q, "pageSize")
	if err != nil {
		return services.TransactionQuery{}, err
	}
	return services.TransactionQuery{
		AccountID:  r.PathValue("id"),
		CategoryID: r.PathValue("categoryId"),
		DateStart:  sanitizeInput(q.Get("dateStart")),
		DateEnd:    sanitizeInput(q.Get("dateEnd")),
		Page:       page,
		PageSize:   size,
	}, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, owner string) {
	tq, err := transactionQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := s.ledger.Aggregation.ListTransactions(r.Context(), owner, tq)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Page(toDaySummaryDTOs(page.Items), page.HasMore, page.CurrentPage).Write(w)
}

func (s *Server) handleListTransactionsByCategory(w http.ResponseWriter, r *http.Request, owner string) {
	tq, err := transactionQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := s.ledger.Aggregation.ListTransactionsByCategory(r.Context(), owner, tq)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Page(toDaySummaryDTOs(page.Items), page.HasMore, page.CurrentPage).Write(w)
}

func (s *Server) handleCountTransactions(w http.ResponseWriter, r *http.Request, owner string) {
	tq, err := transactionQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := s.ledger.Aggregation.CountTransactions(r.Context(), owner, tq)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, countDTO{Count: n})
}

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request, owner string) {
	q := r.URL.Query()
	report, err := s.ledger.Aggregation.SummarizeCategories(r.Context(), owner, services.CategorySummaryQuery{
		Type:      core.CategoryType(sanitizeInput(q.Get("type"))),
		AccountID: r.PathValue("id"),
		DateStart: sanitizeInput(q.Get("dateStart")),
		DateEnd:   sanitizeInput(q.Get("dateEnd")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toCategoryReportDTO(report))
}
