package coupon

// MaxActivePerMerchant is the cap on simultaneously active coupons owned by
// one merchant.
const MaxActivePerMerchant = 5

// WithinActiveLimit reports whether a coupon may transition into the active
// state given how many OTHER coupons of the merchant are currently active.
// The coupon being transitioned is excluded from the count, which makes
// re-activating an already-active coupon trivially allowed.
//
// The count must be taken at the moment of the attempted transition, under
// the same lock as the status write; this function only encodes the rule.
func WithinActiveLimit(activeOthers int) bool {
	return activeOthers < MaxActivePerMerchant
}

// CanDeactivate reports whether a coupon may transition into the inactive
// state. A coupon referenced by at least one pending invoice must stay
// active; shipped, packaged and returned invoices do not block.
func CanDeactivate(hasPendingInvoices bool) bool {
	return !hasPendingInvoices
}
