package dto

// StatusChangeRequest is the body of POST /api/orders/:id/status.
type StatusChangeRequest struct {
	Status string `json:"status" binding:"required"`
	Actor  string `json:"actor" binding:"required"`
	Reason string `json:"reason"`
}

// StatusChangeResponse reports an applied transition.
type StatusChangeResponse struct {
	Previous string `json:"previous"`
	Status   string `json:"status"`
}

// CancelRequest is the body of POST /api/orders/cancel. Order may be a root or
// part id, or an order number.
type CancelRequest struct {
	Order  string `json:"order" binding:"required"`
	Email  string `json:"email" binding:"required"`
	Reason string `json:"reason"`
}

// CancelResponse reports the outcome of a customer cancellation.
type CancelResponse struct {
	Status             string `json:"status"`
	CommissionReversed bool   `json:"commission_reversed"`
}

// StatusResponse is the canonical status view of an order.
type StatusResponse struct {
	Status            string   `json:"status"`
	SubStatuses       []string `json:"sub_statuses,omitempty"`
	CustomerMayCancel bool     `json:"customer_may_cancel"`
	AdminMayChange    bool     `json:"admin_may_change"`
}

// PartResponse describes one fulfillment part created by a split.
type PartResponse struct {
	ID               string  `json:"id"`
	Family           string  `json:"family"`
	VendorID         *string `json:"vendor_id,omitempty"`
	Number           string  `json:"number"`
	Status           string  `json:"status"`
	TotalAmount      string  `json:"total_amount"`
	CommissionAmount string  `json:"commission_amount"`
}

// SplitResponse lists the parts an order was decomposed into.
type SplitResponse struct {
	Parts []PartResponse `json:"parts"`
}

// ErrorResponse carries a machine-readable rejection. Allowed lists the legal
// next statuses when a transition was refused.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Allowed []string `json:"allowed,omitempty"`
}
