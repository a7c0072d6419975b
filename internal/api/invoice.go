package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/merchant-coupons/internal/domain/invoice"
)

// listInvoices handles GET /api/v1/merchants/{merchantID}/invoices?status=
func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "merchantID")
	status := invoice.Status(r.URL.Query().Get("status"))

	invoices, err := h.coupons.ListInvoices(r.Context(), merchantID, status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for i := range invoices {
		encodeInvoice(&e, &invoices[i])
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}
