package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"flightpath/internal/activity"
	"flightpath/internal/engine"
)

// registerWebhook mounts the GitHub delivery endpoint as a plain chi route.
// It needs the raw request bytes for signature verification and answers in
// the terse shape delivery retries expect, so it stays outside the huma API.
func registerWebhook(r chi.Router, basePath string, e engine.Engine) {
	verifier := e.Verifier()
	ingestor := e.Ingestor()
	r.Post(path.Join(basePath, "webhooks/github"), func(w http.ResponseWriter, req *http.Request) {
		raw := bodyBytes(req.Context())
		if !verifier.Verify(raw, req.Header.Get("X-Hub-Signature-256")) {
			respondWebhook(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
			return
		}
		event := req.Header.Get("X-GitHub-Event")
		switch event {
		case activity.WebhookEventPush, activity.WebhookEventPullRequest, activity.WebhookEventIssues:
		default:
			respondWebhook(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
		res, err := ingestor.Ingest(req.Context(), event, raw)
		if err != nil {
			if errors.Is(err, activity.ErrInvalidPayload) {
				respondWebhook(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
				return
			}
			log.Printf("webhook: processing %s delivery failed: %v", event, err)
			respondWebhook(w, http.StatusInternalServerError, map[string]string{"error": "processing failed"})
			return
		}
		if !res.Tracked {
			respondWebhook(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
		respondWebhook(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func respondWebhook(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
