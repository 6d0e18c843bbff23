package http

import (
	"encoding/base64"
	"net/http"
	"strings"

	"carteira/internal/core"
	"carteira/internal/log"
)

type transactionsResponse struct {
	Transactions []core.Record `json:"transactions"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	user, err := ParseUser(r)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	txs, err := s.ledger.List(r.Context(), user)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionsResponse{Transactions: records(txs)})
}

// handleCreateTransactions takes one record or an array. An array is
// stored atomically and keeps its order at the top of the list.
func (s *Server) handleCreateTransactions(w http.ResponseWriter, r *http.Request) {
	user, err := ParseUser(r)
	if err != nil {
		writeError(w, r, log.OpAdd, err)
		return
	}
	rs, batch, err := decodeRecords(w, r)
	if err != nil {
		writeError(w, r, log.OpAdd, err)
		return
	}
	for i := range rs {
		rs[i].Description = sanitizeInput(rs[i].Description)
	}

	if !batch {
		tx, err := s.ledger.Add(r.Context(), user, rs[0])
		if err != nil {
			writeError(w, r, log.OpAdd, err)
			return
		}
		writeJSON(w, http.StatusCreated, tx.Record())
		return
	}

	txs, err := s.ledger.AddMany(r.Context(), user, rs)
	if err != nil {
		writeError(w, r, log.OpAddMany, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionsResponse{Transactions: records(txs)})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	user, err := ParseUser(r)
	if err != nil {
		writeError(w, r, log.OpRemove, err)
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, r, log.OpRemove, badRequest("missing transaction id"))
		return
	}
	if err := s.ledger.Remove(r.Context(), user, id); err != nil {
		writeError(w, r, log.OpRemove, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	user, err := ParseUser(r)
	if err != nil {
		writeError(w, r, log.OpClear, err)
		return
	}
	if err := s.ledger.Clear(r.Context(), user); err != nil {
		writeError(w, r, log.OpClear, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type smartRequest struct {
	Text string `json:"text"`
	// Audio is a base64 WAV recording; it wins over Text when both are set.
	Audio string `json:"audio,omitempty"`
}

// handleSmartTransactions has the advisor read free text or speech into
// transactions and stores them as one batch.
func (s *Server) handleSmartTransactions(w http.ResponseWriter, r *http.Request) {
	user, err := ParseUser(r)
	if err != nil {
		writeError(w, r, log.OpExtract, err)
		return
	}
	if s.advisor == nil {
		writeError(w, r, log.OpExtract, errAdvisorDisabled)
		return
	}
	var req smartRequest
	if err := decodeJSON(w, r, maxMediaBody, &req); err != nil {
		writeError(w, r, log.OpExtract, err)
		return
	}
	var audio []byte
	if req.Audio != "" {
		audio, err = base64.StdEncoding.DecodeString(req.Audio)
		if err != nil {
			writeError(w, r, log.OpExtract, badRequest("audio is not valid base64"))
			return
		}
	}

	rs, err := s.advisor.Extract(r.Context(), sanitizeInput(req.Text), audio)
	if err != nil {
		writeError(w, r, log.OpExtract, err)
		return
	}
	txs, err := s.ledger.AddMany(r.Context(), user, rs)
	if err != nil {
		writeError(w, r, log.OpAddMany, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionsResponse{Transactions: records(txs)})
}

type categorizeRequest struct {
	Description string `json:"description"`
	Amount      any    `json:"amount"`
}

type categorizeResponse struct {
	Category    string `json:"category"`
	ExpenseType string `json:"expenseType"`
}

// handleCategorize suggests a category and expense type. Without an
// advisor every description lands in the fallback category.
func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	var req categorizeRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		writeError(w, r, log.OpCategory, err)
		return
	}
	category := core.CategoryOther
	if s.advisor != nil {
		category = s.advisor.Categorize(r.Context(), sanitizeInput(req.Description), core.AmountOf(req.Amount))
	}
	writeJSON(w, http.StatusOK, categorizeResponse{
		Category:    string(category),
		ExpenseType: string(core.SuggestExpenseType(category)),
	})
}
