package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	svc "github.com/motlowcreek/vbsreg/internal/services"
)

const formStartCookie = "form_started"

type submitResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Data      *svc.Result       `json:"data,omitempty"`
	ErrorKind string            `json:"errorKind,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// RegisterStart stamps the form render time in a cookie so the submit handler
// can measure elapsed fill time server-side. The client also reports its own
// submissionTime, but only this cookie is trusted.
func RegisterStart(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     formStartCookie,
		Value:    strconv.FormatInt(time.Now().Unix(), 10),
		Path:     "/",
		MaxAge:   int((30 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// RegisterSubmit handles POST /api/register.
func RegisterSubmit(rg *svc.Registrar, minSubmitSeconds int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub svc.Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			writeJSON(w, http.StatusBadRequest, submitResponse{
				Success: false, Message: "invalid JSON payload",
			})
			return
		}

		// Implausibly fast fill, measured against the /start cookie. No
		// check when the cookie is absent (non-browser callers).
		if tooFast(r, minSubmitSeconds) {
			softReject(w)
			return
		}

		res, regErr := rg.Submit(r.Context(), &sub)
		if regErr != nil {
			if regErr.Kind == svc.KindBotDetected {
				softReject(w)
				return
			}
			writeJSON(w, statusFor(regErr.Kind), submitResponse{
				Success:   false,
				Message:   regErr.Message,
				ErrorKind: regErr.Kind,
				Fields:    regErr.Fields,
			})
			return
		}

		writeJSON(w, http.StatusOK, submitResponse{
			Success: true,
			Message: "Registration completed successfully!",
			Data:    res,
		})
	}
}

// ValidateEmail is the live per-field check the form calls while the user
// types; this is where the strict TLD and fake-domain heuristics live.
func ValidateEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"valid": false, "message": "invalid JSON payload"})
		return
	}
	msg := svc.CheckEmailStrict(body.Email)
	writeJSON(w, http.StatusOK, map[string]any{"valid": msg == "", "message": msg})
}

// softReject answers bot-flagged submissions with a generic failure that
// reveals nothing about which heuristic fired.
func softReject(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, submitResponse{
		Success: false,
		Message: "Registration could not be processed. Please try again later.",
	})
}

func tooFast(r *http.Request, minSeconds int) bool {
	if minSeconds <= 0 {
		return false
	}
	c, err := r.Cookie(formStartCookie)
	if err != nil {
		return false
	}
	start, err := strconv.ParseInt(c.Value, 10, 64)
	if err != nil || start <= 0 {
		return false
	}
	return time.Since(time.Unix(start, 0)) < time.Duration(minSeconds)*time.Second
}

func statusFor(kind string) int {
	switch kind {
	case svc.KindValidation, svc.KindMissingRequired:
		return http.StatusBadRequest
	case svc.KindDuplicate, svc.KindAlreadyRegistered:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
