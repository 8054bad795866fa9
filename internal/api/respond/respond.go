// Package respond writes the JSON envelopes shared by every endpoint,
// including the access-guard middleware and the not-found handler.
package respond

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/dmarrec/authflow-be/internal/apperr"
	"github.com/dmarrec/authflow-be/internal/models"
	"github.com/rs/zerolog/log"
)

// exposeInternals controls whether failure envelopes carry the raw error and
// a stack trace. It is enabled everywhere except production deployments.
var exposeInternals = true

// Init sets the exposure policy from the deployment environment.
func Init(appEnv string) {
	exposeInternals = appEnv != "production"
}

type successEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	Data    *data  `json:"data,omitempty"`
}

type data struct {
	User *models.User `json:"user"`
}

type failureEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// Success writes the success envelope; token and user are optional.
func Success(w http.ResponseWriter, statusCode int, message, token string, user *models.User) {
	env := successEnvelope{
		Status:  "success",
		Message: message,
		Token:   token,
	}
	if user != nil {
		env.Data = &data{User: user}
	}
	writeJSON(w, statusCode, env)
}

// Error translates any error into the failure envelope, defaulting
// unclassified errors to 500/"error". Outside production the raw error and a
// stack trace are included for debugging.
func Error(w http.ResponseWriter, err error) {
	opErr := apperr.From(err)

	env := failureEnvelope{
		Status:  opErr.Status(),
		Message: opErr.Message,
	}
	if exposeInternals {
		env.Error = err.Error()
		env.Stack = string(debug.Stack())
	}
	writeJSON(w, opErr.StatusCode, env)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
