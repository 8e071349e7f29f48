package billing

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Webhook event types delivered by the provider. Only charge.completed
// triggers the confirmation pipeline; everything else is acknowledged and
// dropped so the provider stops redelivering it.
const EventChargeCompleted = "charge.completed"

// WebhookEvent is the raw envelope delivered to the webhook endpoint. It is
// untrusted input: nothing in it may drive an authorization decision until
// the transaction has been re-verified against the provider's own API.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

// WebhookData carries the provider's claims about the charge. The id and
// tx_ref are the only fields the pipeline uses; status and amount here are
// informational at best and attacker-influenceable at worst.
type WebhookData struct {
	ID     TransactionRef `json:"id"`
	TxRef  string         `json:"tx_ref"`
	Status string         `json:"status"`
	Amount float64        `json:"amount"`
	Meta   Meta           `json:"meta"`
}

// TransactionRef is a provider transaction id. Flutterwave sends it as a
// JSON number on some events and a string on others; both decode to the
// same opaque value.
type TransactionRef string

func (r *TransactionRef) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = TransactionRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("transaction id: %w", err)
	}
	*r = TransactionRef(n.String())
	return nil
}

func (r TransactionRef) String() string { return string(r) }

// Meta is the merchant metadata round-tripped through the provider at
// checkout time. For commits it must come from the verified transaction,
// never from the webhook body.
type Meta struct {
	UserID   string `json:"user_id"`
	PlanID   string `json:"plan_id"`
	Interval string `json:"interval"`
}

// TransactionID returns the provider-assigned transaction id as a string.
func (d WebhookData) TransactionID() string {
	return d.ID.String()
}
