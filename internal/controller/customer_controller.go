package controller

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/customer-sync/internal/model"
	"github.com/unclebandit/customer-sync/internal/repository"
	"github.com/unclebandit/customer-sync/internal/service"
)

// CustomerController maps list UI events onto the sync manager.
type CustomerController struct {
	Sync  *service.SyncManager
	Cache repository.CustomerRepositoryInterface
}

type loadResponse struct {
	Outcome  string `json:"outcome"`
	Page     int    `json:"page"`
	Received int    `json:"received"`
	Dropped  int    `json:"dropped"`
	Error    string `json:"error,omitempty"`
}

func (c *CustomerController) window() map[string]interface{} {
	st := c.Sync.Snapshot()
	return map[string]interface{}{
		"data": st.Items,
		"pagination": map[string]int{
			"page":        st.CurrentPage,
			"page_size":   st.PageSize,
			"total_count": st.TotalCount,
		},
		"search":     st.SearchQuery,
		"loading":    st.Loading,
		"refreshing": st.Refreshing,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func toLoadResponse(res service.LoadResult) loadResponse {
	out := loadResponse{
		Outcome:  string(res.Outcome),
		Page:     res.Page,
		Received: res.Received,
		Dropped:  res.Dropped,
	}
	if res.Err != nil {
		out.Error = string(res.Kind())
	}
	return out
}

// ListCustomers returns the current customer window
func (c *CustomerController) ListCustomers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.window())
}

func (c *CustomerController) Search(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	c.Sync.OnSearchChange(body.Query)
	writeJSON(w, http.StatusAccepted, map[string]string{"search": body.Query})
}

// LoadMore is the scroll-to-end trigger
func (c *CustomerController) LoadMore(w http.ResponseWriter, r *http.Request) {
	res := c.Sync.OnReachEnd(r.Context())

	out := c.window()
	out["result"] = toLoadResponse(res)
	writeJSON(w, http.StatusOK, out)
}

// Refresh is the pull-to-refresh trigger
func (c *CustomerController) Refresh(w http.ResponseWriter, r *http.Request) {
	res := c.Sync.OnPullToRefresh(r.Context())

	out := c.window()
	out["result"] = toLoadResponse(res)
	writeJSON(w, http.StatusOK, out)
}

func (c *CustomerController) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid customer id", http.StatusBadRequest)
		return
	}

	customer, err := c.Cache.GetByID(r.Context(), id)
	if err != nil {
		log.Println("⚠️ Failed to read cached customer:", err)
		http.Error(w, "failed to read customer", http.StatusInternalServerError)
		return
	}
	if customer == nil {
		http.Error(w, "customer not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Data *model.Customer `json:"data"`
	}{customer})
}
