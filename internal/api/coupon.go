package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/merchant-coupons/internal/domain/coupon"
)

// createCouponRequest is the accepted request body for coupon creation.
// Unknown fields are ignored at this boundary.
type createCouponRequest struct {
	Name          string          `json:"name"`
	Code          string          `json:"code"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	Active        bool            `json:"active"`
}

// listCoupons handles GET /api/v1/merchants/{merchantID}/coupons?status=
func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "merchantID")
	filter := coupon.ParseStatusFilter(r.URL.Query().Get("status"))

	coupons, err := h.coupons.List(r.Context(), merchantID, filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for i := range coupons {
		encodeCoupon(&e, &coupons[i], h.coupons.UsageCount(r.Context(), coupons[i].ID))
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

// getCoupon handles GET /api/v1/merchants/{merchantID}/coupons/{couponID}
func (h *Handler) getCoupon(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "merchantID")
	couponID := chi.URLParam(r, "couponID")

	c, err := h.coupons.Get(r.Context(), merchantID, couponID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeCoupon(&e, c, h.coupons.UsageCount(r.Context(), c.ID))
	writeJSON(w, http.StatusOK, &e)
}

// createCoupon handles POST /api/v1/merchants/{merchantID}/coupons
func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "merchantID")

	var req createCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody, nil)
		return
	}

	c, err := h.coupons.Create(r.Context(), merchantID, coupon.CreateInput{
		Name:          req.Name,
		Code:          req.Code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		Active:        req.Active,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// A freshly created coupon cannot be referenced by invoices yet.
	var e jx.Encoder
	encodeCoupon(&e, c, 0)
	writeJSON(w, http.StatusCreated, &e)
}

// activateCoupon handles PATCH /api/v1/merchants/{merchantID}/coupons/{couponID}/activate
func (h *Handler) activateCoupon(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "merchantID")
	couponID := chi.URLParam(r, "couponID")

	c, err := h.coupons.Activate(r.Context(), merchantID, couponID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeCoupon(&e, c, h.coupons.UsageCount(r.Context(), c.ID))
	writeJSON(w, http.StatusOK, &e)
}

// deactivateCoupon handles PATCH /api/v1/merchants/{merchantID}/coupons/{couponID}/deactivate
func (h *Handler) deactivateCoupon(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "merchantID")
	couponID := chi.URLParam(r, "couponID")

	c, err := h.coupons.Deactivate(r.Context(), merchantID, couponID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeCoupon(&e, c, h.coupons.UsageCount(r.Context(), c.ID))
	writeJSON(w, http.StatusOK, &e)
}
