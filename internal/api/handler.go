// Package api exposes the coupon lifecycle service over a JSON HTTP API.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/merchant-coupons/internal/domain/coupon"
)

// Handler holds the HTTP handlers for the merchant coupon API, delegating
// all business decisions to the coupon lifecycle service.
type Handler struct {
	coupons *coupon.Service
}

// NewHandler constructs a Handler backed by the given lifecycle service.
func NewHandler(coupons *coupon.Service) *Handler {
	return &Handler{coupons: coupons}
}

// Routes returns the chi router for the v1 API.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/api/v1/merchants/{merchantID}", func(r chi.Router) {
		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", h.listCoupons)
			r.Post("/", h.createCoupon)
			r.Get("/{couponID}", h.getCoupon)
			r.Patch("/{couponID}/activate", h.activateCoupon)
			r.Patch("/{couponID}/deactivate", h.deactivateCoupon)
		})
		r.Get("/invoices", h.listInvoices)
	})

	return r
}
