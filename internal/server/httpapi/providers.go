package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/qubicboard/internal/models"
	"github.com/dmitrijs2005/qubicboard/internal/qubic"
)

// Provider sections degrade per section: a failed upstream call renders as
// an "error" string inside a 200 response so the rest of the page can still
// be built from whatever data arrived.

type qubicSection struct {
	Data  map[string]any `json:"data,omitempty"`
	Error string         `json:"error,omitempty"`
}

type qubicOverviewResponse struct {
	Status         qubicSection          `json:"status"`
	Tick           qubicSection          `json:"tick"`
	Balance        *qubicSection         `json:"balance,omitempty"`
	StatusSummary  []qubic.Metric        `json:"status_summary,omitempty"`
	BalanceSummary []qubic.Metric        `json:"balance_summary,omitempty"`
	CurrentTick    *int64                `json:"current_tick,omitempty"`
	CurrentPrice   *float64              `json:"current_price,omitempty"`
	TickHistory    []models.HistoryPoint `json:"tick_history"`
	PriceHistory   []models.HistoryPoint `json:"price_history"`
}

func (h *Handlers) QubicOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := IdentityFromContext(ctx)

	resp := qubicOverviewResponse{}

	status, err := h.qubic.Status(ctx)
	if err != nil {
		resp.Status.Error = err.Error()
	} else {
		resp.Status.Data = status
		resp.StatusSummary = qubic.StatusSummary(status)
	}

	tickInfo, err := h.qubic.TickInfo(ctx)
	if err != nil {
		resp.Tick.Error = err.Error()
	} else {
		resp.Tick.Data = tickInfo
	}

	if tick, ok := qubic.PickTick(status, tickInfo); ok {
		resp.CurrentTick = &tick
	}
	if price, ok := qubic.PickPrice(status); ok {
		resp.CurrentPrice = &price
	}

	state, updateErr := h.sessions.Update(ctx, identity, func(state *models.UserState) error {
		qubic.UpdateMarketHistory(state, status, tickInfo, timeNow(), h.cfg.MaxHistoryPoints)
		return nil
	})
	if updateErr != nil {
		writeError(w, http.StatusInternalServerError, updateErr)
		return
	}
	resp.TickHistory = state.QubicTickHistory
	resp.PriceHistory = state.QubicPriceHistory

	if state.QubicIdentity != "" {
		section := &qubicSection{}
		balance, err := h.qubic.Balance(ctx, state.QubicIdentity)
		if err != nil {
			section.Error = err.Error()
		} else {
			section.Data = balance
			resp.BalanceSummary = qubic.BalanceSummary(balance)
		}
		resp.Balance = section
	}

	writeJSON(w, http.StatusOK, resp)
}

type qubicIdentityRequest struct {
	Identity string `json:"identity"`
}

func (h *Handlers) SetQubicIdentity(w http.ResponseWriter, r *http.Request) {
	var req qubicIdentityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	identity := IdentityFromContext(r.Context())
	state, err := h.sessions.UpdateQubicIdentity(r.Context(), identity, strings.TrimSpace(req.Identity))
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"qubic_identity": state.QubicIdentity})
}

const defaultCoinIDs = "qubic-network,bitcoin,ethereum"

func (h *Handlers) MarketPrices(w http.ResponseWriter, r *http.Request) {
	ids := r.URL.Query().Get("ids")
	if ids == "" {
		ids = defaultCoinIDs
	}
	vs := r.URL.Query().Get("vs")
	if vs == "" {
		vs = "usd"
	}

	prices, err := h.market.SimplePrice(r.Context(), strings.Split(ids, ","), vs)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prices": prices})
}

func (h *Handlers) MarketCoins(w http.ResponseWriter, r *http.Request) {
	vs := r.URL.Query().Get("vs")
	if vs == "" {
		vs = "usd"
	}
	perPage := queryInt(r, "per_page", 50)
	page := queryInt(r, "page", 1)

	coins, err := h.market.Markets(r.Context(), vs, perPage, page)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"coins": coins})
}

func (h *Handlers) MarketChart(w http.ResponseWriter, r *http.Request) {
	coinID := r.URL.Query().Get("id")
	if coinID == "" {
		coinID = "qubic-network"
	}
	vs := r.URL.Query().Get("vs")
	if vs == "" {
		vs = "usd"
	}
	days := queryInt(r, "days", 7)

	chart, err := h.market.MarketChart(r.Context(), coinID, vs, days)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chart": chart})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
