package handlers

import (
	"net/http"

	"github.com/sidrstudio/atlas/internal/api/dto"
	"github.com/sidrstudio/atlas/internal/api/middleware"
	"github.com/sidrstudio/atlas/internal/auth"
	"github.com/sidrstudio/atlas/internal/database/models"
)

type AuthHandler struct {
	service    *auth.Service
	google     *auth.GoogleAuthenticator
	cookieName string
}

func NewAuthHandler(service *auth.Service, google *auth.GoogleAuthenticator, cookieName string) *AuthHandler {
	return &AuthHandler{service: service, google: google, cookieName: cookieName}
}

// signUpPayload is the created user with the OTP handle appended, matching
// what the dashboard expects from sign-up.
type signUpPayload struct {
	models.User
	OtpToken string `json:"otpToken"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	result, err := h.service.SignUp(r.Context(), auth.SignUpInput{
		Email: req.Email,
		Name:  req.Name,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, signUpPayload{
		User:     result.User,
		OtpToken: result.OtpToken,
	})
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	otpToken, err := h.service.SignIn(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.SignInResponse{OtpToken: otpToken})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	sessionToken, err := h.service.VerifyOTP(r.Context(), auth.VerifyOTPInput{
		OtpToken:  req.OtpToken,
		OTP:       req.OTP,
		UserAgent: r.UserAgent(),
		IPAddress: r.RemoteAddr,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, sessionToken)
	writeData(w, http.StatusOK, nil)
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.ResendOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	if err := h.service.ResendOTP(r.Context(), req.OtpToken); err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}

// Logout clears the cookie and deletes the session row. A request without
// a session cookie is still a success.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var sessionToken string
	if cookie, err := r.Cookie(h.cookieName); err == nil {
		sessionToken = cookie.Value
	}

	if err := h.service.Logout(r.Context(), sessionToken); err != nil {
		writeError(w, err)
		return
	}

	h.clearSessionCookie(w)
	writeData(w, http.StatusOK, nil)
}

func (h *AuthHandler) Impersonate(w http.ResponseWriter, r *http.Request) {
	var req dto.ImpersonateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Request body is not valid JSON")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	callerToken := middleware.GetSessionToken(r.Context())
	sessionToken, err := h.service.Impersonate(r.Context(), callerToken, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, sessionToken)
	writeData(w, http.StatusOK, nil)
}

func (h *AuthHandler) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	url, err := h.google.AuthURL()
	if err != nil {
		writeError(w, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	sessionToken, err := h.google.Callback(r.Context(), code, state)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, sessionToken)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
