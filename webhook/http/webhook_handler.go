package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-github/v75/github"
	"github.com/rs/zerolog/log"
)

const WebhookPath = "/webhook/git"

// PushHandler applies a validated push to the read replica.
type PushHandler interface {
	HandlePushEvent(evt *github.PushEvent) error
}

type WebhookHandler struct {
	webhookSecret []byte
	sync          PushHandler
}

func NewWebhookHandler(secret string, sync PushHandler) (*WebhookHandler, error) {
	if secret == "" {
		return nil, errors.New("webhook secret is not set")
	}

	return &WebhookHandler{
		webhookSecret: []byte(secret),
		sync:          sync,
	}, nil
}

func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post(WebhookPath, h.HandleGitWebhook)
}

// Router returns a chi router serving only the webhook route.
func (h *WebhookHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func (h *WebhookHandler) HandleGitWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := github.ValidatePayload(r, h.webhookSecret)
	if err != nil {
		log.Warn().Err(err).Msg("Rejected webhook payload")
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(r), payload)
	if err != nil {
		http.Error(w, "Invalid event", http.StatusBadRequest)
		return
	}

	switch evt := event.(type) {
	case *github.PushEvent:
		err = h.sync.HandlePushEvent(evt)
	case *github.PingEvent:
		log.Info().Int64("hookID", evt.GetHookID()).Msg("Received webhook ping")
	default:
		log.Debug().Str("event", github.WebHookType(r)).Msg("Ignoring webhook event")
	}
	if err != nil {
		log.Error().Err(err).Str("deliveryID", github.DeliveryID(r)).Msg("Failed to handle push event")
		http.Error(w, "Error handling event", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
