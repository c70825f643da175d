package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-mfa/pkg/tokengenerator"
)

const minPasswordLength = 6

type Handle struct {
	authService    *AuthService
	tokenGenerator tokengenerator.TokenGenerator
}

func NewHandle(authService *AuthService, tokenGenerator tokengenerator.TokenGenerator) Handle {
	return Handle{
		authService:    authService,
		tokenGenerator: tokenGenerator,
	}
}

// Routes mounts the auth API
func Routes(h Handle) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/mfa/enable", h.EnrollTotp)
	r.Post("/mfa/totp/verify", h.VerifyTotp)
	r.Post("/mfa/email/send", h.SendEmailOtp)
	r.Post("/mfa/email/verify", h.VerifyEmailOtp)
	r.Get("/profile", h.GetProfile)
	return r
}

type (
	registerRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	verifyTotpRequest struct {
		TempToken string `json:"temp_token"`
		TotpCode  string `json:"totp_code"`
	}

	sendEmailOtpRequest struct {
		Email string `json:"email"`
	}

	verifyEmailOtpRequest struct {
		Email     string `json:"email"`
		Otp       string `json:"otp"`
		TempToken string `json:"temp_token"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}

	messageResponse struct {
		Message string `json:"message"`
	}
)

func (h Handle) Register(w http.ResponseWriter, r *http.Request) {
	var data registerRequest
	if err := render.DecodeJSON(r.Body, &data); err != nil || data.Email == "" || data.Password == "" {
		badRequest(w, r, "Email and password required")
		return
	}
	if len(data.Password) < minPasswordLength {
		badRequest(w, r, "Password must be at least 6 characters")
		return
	}

	result, err := h.authService.Register(r.Context(), data.Email, data.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

func (h Handle) Login(w http.ResponseWriter, r *http.Request) {
	var data loginRequest
	if err := render.DecodeJSON(r.Body, &data); err != nil || data.Email == "" || data.Password == "" {
		badRequest(w, r, "Email and password required")
		return
	}

	result, err := h.authService.Login(r.Context(), data.Email, data.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// EnrollTotp requires a verified final token; the core trusts this layer to
// have checked it and does not re-verify.
func (h Handle) EnrollTotp(w http.ResponseWriter, r *http.Request) {
	claims, err := h.bearerClaims(r)
	if err != nil {
		respondError(w, r, ErrInvalidToken)
		return
	}

	userID, err := claims.SubjectID()
	if err != nil {
		respondError(w, r, ErrInvalidToken)
		return
	}

	enrollment, err := h.authService.EnrollTotp(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, enrollment)
}

func (h Handle) VerifyTotp(w http.ResponseWriter, r *http.Request) {
	var data verifyTotpRequest
	if err := render.DecodeJSON(r.Body, &data); err != nil || data.TempToken == "" || data.TotpCode == "" {
		badRequest(w, r, "temp_token and totp_code required")
		return
	}

	result, err := h.authService.VerifyTotp(r.Context(), data.TempToken, data.TotpCode)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

func (h Handle) SendEmailOtp(w http.ResponseWriter, r *http.Request) {
	var data sendEmailOtpRequest
	if err := render.DecodeJSON(r.Body, &data); err != nil || data.Email == "" {
		badRequest(w, r, "Email required")
		return
	}

	if err := h.authService.SendEmailOtp(r.Context(), data.Email); err != nil {
		respondError(w, r, err)
		return
	}

	// Generic acknowledgment; the code travels out of band only
	render.JSON(w, r, messageResponse{Message: "OTP sent"})
}

func (h Handle) VerifyEmailOtp(w http.ResponseWriter, r *http.Request) {
	var data verifyEmailOtpRequest
	if err := render.DecodeJSON(r.Body, &data); err != nil || data.Otp == "" || data.TempToken == "" {
		badRequest(w, r, "otp and temp_token required")
		return
	}

	result, err := h.authService.VerifyEmailOtp(r.Context(), data.Email, data.Otp, data.TempToken)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

func (h Handle) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, err := h.bearerClaims(r)
	if err != nil {
		respondError(w, r, ErrInvalidToken)
		return
	}

	userID, err := claims.SubjectID()
	if err != nil {
		respondError(w, r, ErrInvalidToken)
		return
	}

	profile, err := h.authService.GetProfile(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, profile)
}

// bearerClaims verifies the Authorization bearer token and returns its claims
func (h Handle) bearerClaims(r *http.Request) (*tokengenerator.Claims, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, tokengenerator.ErrInvalidToken
	}
	return h.tokenGenerator.ParseToken(strings.TrimPrefix(header, "Bearer "))
}

func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, errorResponse{Error: message})
}

// respondError translates the error taxonomy into HTTP status codes. Only the
// sentinel's own message crosses the boundary; wrapped detail stays in logs.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var kind error
	switch {
	case errors.Is(err, ErrAlreadyExists):
		status, kind = http.StatusBadRequest, ErrAlreadyExists
	case errors.Is(err, ErrMfaNotEnabled):
		status, kind = http.StatusBadRequest, ErrMfaNotEnabled
	case errors.Is(err, ErrInvalidCredentials):
		status, kind = http.StatusUnauthorized, ErrInvalidCredentials
	case errors.Is(err, ErrInvalidToken), errors.Is(err, tokengenerator.ErrInvalidToken):
		status, kind = http.StatusUnauthorized, ErrInvalidToken
	case errors.Is(err, ErrInvalidCode):
		status, kind = http.StatusUnauthorized, ErrInvalidCode
	case errors.Is(err, ErrUserNotFound):
		status, kind = http.StatusNotFound, ErrUserNotFound
	case errors.Is(err, ErrStoreUnavailable):
		slog.Error("Store fault handling request", "path", r.URL.Path, "err", err)
		status, kind = http.StatusServiceUnavailable, ErrStoreUnavailable
	default:
		slog.Error("Unexpected error handling request", "path", r.URL.Path, "err", err)
		status, kind = http.StatusInternalServerError, ErrInternal
	}

	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: kind.Error()})
}
