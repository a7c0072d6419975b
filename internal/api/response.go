package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/merchant-coupons/internal/domain/coupon"
	"github.com/xenking/merchant-coupons/internal/domain/invoice"
	"github.com/xenking/merchant-coupons/internal/domain/merchant"
)

// User-facing error messages for the documented failure paths.
const (
	msgMerchantNotFound    = "Merchant not found"
	msgCouponNotFound      = "Coupon not found"
	msgActiveLimitExceeded = "Merchant cannot have more than 5 active coupons."
	msgDeactivationBlocked = "Coupon cannot be deactivated while it has pending invoices."
	msgValidationFailed    = "Validation failed"
	msgInternalError       = "internal server error"
	msgInvalidBody         = "invalid request body"
)

func encodeCoupon(e *jx.Encoder, c *coupon.Coupon, usageCount int) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("name")
	e.Str(c.Name)
	e.FieldStart("code")
	e.Str(c.Code)
	e.FieldStart("discount_type")
	e.Str(string(c.DiscountType))
	// decimal.String always renders plain notation, never exponential.
	e.FieldStart("discount_value")
	e.RawStr(c.DiscountValue.String())
	e.FieldStart("active")
	e.Bool(c.Active)
	e.FieldStart("usage_count")
	e.Int(usageCount)
	e.ObjEnd()
}

func encodeInvoice(e *jx.Encoder, inv *invoice.Invoice) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(inv.ID)
	e.FieldStart("merchant_id")
	e.Str(inv.MerchantID)
	e.FieldStart("customer_id")
	e.Str(inv.CustomerID)
	e.FieldStart("coupon_id")
	if inv.CouponID == "" {
		e.Null()
	} else {
		e.Str(inv.CouponID)
	}
	e.FieldStart("status")
	e.Str(string(inv.Status))
	e.ObjEnd()
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string, details []string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
	if len(details) > 0 {
		e.FieldStart("errors")
		e.ArrStart()
		for _, d := range details {
			e.Str(d)
		}
		e.ArrEnd()
	}
	e.ObjEnd()
	writeJSON(w, status, &e)
}

// writeServiceError maps the domain error taxonomy to HTTP responses. All
// documented error kinds produce typed 4xx responses; anything else is an
// unanticipated fault, logged and masked as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, merchant.ErrNotFound):
		writeError(w, http.StatusNotFound, msgMerchantNotFound, nil)
	case errors.Is(err, coupon.ErrNotFound):
		writeError(w, http.StatusNotFound, msgCouponNotFound, nil)
	case errors.Is(err, coupon.ErrActiveLimitExceeded):
		writeError(w, http.StatusUnprocessableEntity, msgActiveLimitExceeded, nil)
	case errors.Is(err, coupon.ErrDeactivationBlocked):
		writeError(w, http.StatusUnprocessableEntity, msgDeactivationBlocked, nil)
	default:
		var verr *coupon.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusUnprocessableEntity, msgValidationFailed, verr.Messages)
			return
		}
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternalError, nil)
	}
}
