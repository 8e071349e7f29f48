package dto

// CheckoutRequest initiates a hosted checkout session.
type CheckoutRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	PlanID   string  `json:"plan_id" validate:"required"`
	UserID   string  `json:"user_id" validate:"required"`
	Interval string  `json:"interval" validate:"required,oneof=monthly yearly"`
	Name     string  `json:"name"`
}

// SendInviteRequest issues a team invite to an email address.
type SendInviteRequest struct {
	Email         string `json:"email" validate:"required,email"`
	TeamID        string `json:"team_id" validate:"required"`
	Role          string `json:"role"`
	IsAdminToggle bool   `json:"is_admin_toggle"`
}

// AcceptInviteRequest resolves an invite token. Action "prepare" previews
// the invite; "accept" (the default) joins the team.
type AcceptInviteRequest struct {
	Token  string `json:"token" validate:"required,uuid"`
	Action string `json:"action" validate:"omitempty,oneof=prepare accept"`
}

// StoreTokensRequest records OAuth tokens from a provider callback.
type StoreTokensRequest struct {
	Provider     string `json:"provider" validate:"required"`
	UserID       string `json:"user_id" validate:"required"`
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in" validate:"gte=0"`
}
