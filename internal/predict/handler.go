package predict

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"wecare-alerts/internal/alert"
	"wecare-alerts/internal/auth"
	"wecare-alerts/internal/profile"
	"wecare-alerts/internal/vitals"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	svc    Service
	logger *zap.Logger
}

func NewHandler(svc Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// PredictRequest is the reading as posted by the sensor gateway.
type PredictRequest struct {
	PatientID   string  `json:"patientId"`
	Temperature float64 `json:"temperature"`
	SpO2        float64 `json:"spo2"`
	HeartRate   int     `json:"heartRate"`
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Wecare Alerts Server"))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	credential, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, auth.ErrMissingCredential.Error())
		return
	}

	var req PredictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.Process(r.Context(), credential, vitals.Reading{
		PatientID:   req.PatientID,
		Temperature: req.Temperature,
		SpO2:        req.SpO2,
		HeartRate:   req.HeartRate,
	})
	if err != nil {
		status, detail := errorStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Predict failed",
				zap.String("patient_id", req.PatientID),
				zap.Int("status", status),
				zap.Error(err),
			)
		}
		writeError(w, status, detail)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// errorStatus maps a pipeline error to an HTTP status and client-facing detail.
func errorStatus(err error) (int, string) {
	var validationErr *vitals.ValidationError
	var lookupErr *alert.LookupError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Error()
	case errors.Is(err, auth.ErrMissingCredential), errors.Is(err, auth.ErrMalformedCredential):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, profile.ErrUnauthorized):
		return http.StatusUnauthorized, profile.ErrUnauthorized.Error()
	case errors.Is(err, profile.ErrNotFound):
		return http.StatusNotFound, profile.ErrNotFound.Error()
	case errors.As(err, &lookupErr):
		return http.StatusBadGateway, "profile service unavailable"
	default:
		return http.StatusInternalServerError, "failed to process reading"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.Root)
	r.Get("/healthz", h.Health)
	r.With(auth.Middleware).Post("/predict", h.Predict)
}
