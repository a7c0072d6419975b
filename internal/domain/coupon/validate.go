package coupon

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CreateInput holds the caller-supplied attributes for a new coupon.
type CreateInput struct {
	Name          string
	Code          string
	DiscountType  string
	DiscountValue decimal.Decimal
	Active        bool
}

// Validation messages, ActiveRecord full-message style. MsgCodeTaken is
// appended by the service when storage reports a duplicate code.
const (
	MsgNameBlank        = "Name can't be blank"
	MsgCodeBlank        = "Code can't be blank"
	MsgBadDiscountType  = "Discount type is not included in the list"
	MsgBadDiscountValue = "Discount value must be greater than 0"
	MsgCodeTaken        = "Code has already been taken"
)

// Validate checks the static field rules and returns a ValidationError
// listing every violation, or nil when the input is valid. Code uniqueness
// is not checked here; it is enforced by the storage layer's unique index
// so that concurrent duplicate creates cannot both succeed.
func Validate(in CreateInput) *ValidationError {
	var msgs []string

	if strings.TrimSpace(in.Name) == "" {
		msgs = append(msgs, MsgNameBlank)
	}
	if strings.TrimSpace(in.Code) == "" {
		msgs = append(msgs, MsgCodeBlank)
	}
	switch DiscountType(in.DiscountType) {
	case PercentOff, DollarOff:
	default:
		msgs = append(msgs, MsgBadDiscountType)
	}
	if !in.DiscountValue.IsPositive() {
		msgs = append(msgs, MsgBadDiscountValue)
	}

	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	return nil
}
