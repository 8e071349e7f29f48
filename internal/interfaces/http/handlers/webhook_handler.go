package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	webhookApp "github.com/orinx/billing/internal/application/webhook"
	domainErrors "github.com/orinx/billing/internal/domain/errors"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives provider webhook deliveries. Responses are plain
// text: the provider retries on 5xx, and everything the pipeline resolves on
// purpose answers 2xx/4xx.
type WebhookHandler struct {
	processor *webhookApp.Processor
}

func NewWebhookHandler(processor *webhookApp.Processor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// Handle handles POST /webhook.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeText(w, http.StatusBadRequest, "Malformed event")
		return
	}

	outcome, err := h.processor.Process(r.Context(), r.Header.Get("verif-hash"), body)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	switch outcome {
	case webhookApp.OutcomeIgnored:
		writeText(w, http.StatusOK, "Ignored")
	case webhookApp.OutcomeNotSuccessful:
		writeText(w, http.StatusOK, "Not successful")
	case webhookApp.OutcomeAlreadyProcessed:
		writeText(w, http.StatusOK, "Already processed")
	default:
		writeText(w, http.StatusOK, "OK")
	}
}

func (h *WebhookHandler) writeFailure(w http.ResponseWriter, err error) {
	var validationErr *domainErrors.ValidationError
	switch {
	case errors.Is(err, domainErrors.ErrUnauthorizedSignature):
		writeText(w, http.StatusUnauthorized, "Unauthorized signature")
	case errors.Is(err, domainErrors.ErrMalformedEvent):
		writeText(w, http.StatusBadRequest, "Malformed event")
	case errors.Is(err, domainErrors.ErrProviderUnavailable),
		errors.Is(err, domainErrors.ErrProviderTimeout),
		errors.Is(err, domainErrors.ErrTokenFetchFailed):
		// Provider outage is checked before verification failure: a 5xx
		// invites the provider to redeliver once the outage clears, a 400
		// would bury the payment for good.
		log.Error().Err(err).Msg("provider unreachable during webhook verification")
		writeText(w, http.StatusInternalServerError, "Internal error")
	case errors.Is(err, domainErrors.ErrVerificationFailed):
		writeText(w, http.StatusBadRequest, "Verification failed")
	case errors.As(err, &validationErr):
		writeText(w, http.StatusBadRequest, validationErr.Error())
	default:
		// Storage or provider infrastructure fault; 500 invites the
		// provider to redeliver once we are healthy again.
		log.Error().Err(err).Msg("webhook processing failed")
		writeText(w, http.StatusInternalServerError, "Internal error")
	}
}
