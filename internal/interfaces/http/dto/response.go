package dto

// CheckoutResponse wraps the hosted payment link.
type CheckoutResponse struct {
	Status string       `json:"status"`
	Data   CheckoutData `json:"data"`
}

type CheckoutData struct {
	Link  string `json:"link"`
	TxRef string `json:"tx_ref"`
}

// InviteResponse reports an issued invite.
type InviteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

// InvitePreviewResponse is what the join screen renders before accepting.
type InvitePreviewResponse struct {
	Success bool   `json:"success"`
	Email   string `json:"email"`
	TeamID  string `json:"team_id"`
	Role    string `json:"role"`
}

// InviteAcceptedResponse reports an established membership.
type InviteAcceptedResponse struct {
	Success bool   `json:"success"`
	TeamID  string `json:"team_id"`
	Role    string `json:"role"`
}

// SuccessResponse is a bare success acknowledgement.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
