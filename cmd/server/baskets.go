package main

import (
	"net/http"
	"strings"

	"github.com/chandanbounteous/goldscanner/internal/repository"
)

type goldRateRequest struct {
	Rate float64 `json:"rate"`
}

type goldRateResponse struct {
	Date           string  `json:"date"`
	Rate24kPerTola float64 `json:"rate_24k_per_tola"`
}

func (s *server) handleGetGoldRate(w http.ResponseWriter, r *http.Request) {
	day, err := dateParam(r, "date")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rate, err := s.rates.Rate(r.Context(), day)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goldRateResponse{Date: day.Format(repository.DateLayout), Rate24kPerTola: rate})
}

func (s *server) handlePutGoldRate(w http.ResponseWriter, r *http.Request) {
	day, err := dateParam(r, "date")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req goldRateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.rates.SetRate(r.Context(), day, req.Rate); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goldRateResponse{Date: day.Format(repository.DateLayout), Rate24kPerTola: req.Rate})
}

type customerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (s *server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.writeError(w, r, badRequest("name is required"))
		return
	}

	c, err := s.customers.Create(r.Context(), repository.Customer{
		Name:    name,
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *server) handleSearchCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.customers.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

type createBasketRequest struct {
	CustomerID int64 `json:"customer_id"`
}

func (s *server) handleCreateBasket(w http.ResponseWriter, r *http.Request) {
	var req createBasketRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.CustomerID <= 0 {
		s.writeError(w, r, badRequest("customer_id is required"))
		return
	}

	b, err := s.baskets.Create(r.Context(), req.CustomerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.baskets.Detail(r.Context(), b.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *server) handleGetBasket(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.baskets.Detail(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type addBasketArticleRequest struct {
	ArticleCode string `json:"article_code"`
}

func (s *server) handleAddBasketArticle(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req addBasketArticleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.baskets.AddArticle(r.Context(), id, strings.TrimSpace(req.ArticleCode))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type adjustmentsRequest struct {
	OldGoldItemCost float64 `json:"old_gold_item_cost"`
	ExtraDiscount   float64 `json:"extra_discount"`
}

func (s *server) handleSetBasketAdjustments(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req adjustmentsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.baskets.SetAdjustments(r.Context(), id, req.OldGoldItemCost, req.ExtraDiscount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *server) handleCloseBasket(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.baskets.Close(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *server) handleBasketText(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.baskets.Detail(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.receipts.Write(w, d); err != nil {
		s.log.Error().Err(err).Int64("basket_id", id).Msg("write basket text failed")
	}
}
