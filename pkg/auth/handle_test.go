package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-mfa/pkg/tokengenerator"
)

func newTestServer(t *testing.T) (*httptest.Server, *captureNotifier) {
	t.Helper()

	service, notifier := newTestService(t)
	generator := tokengenerator.NewJwtTokenGenerator("test-secret", "simple-mfa")
	handle := NewHandle(service, generator)

	server := httptest.NewServer(Routes(handle))
	t.Cleanup(server.Close)
	return server, notifier
}

func postJSON(t *testing.T, url string, body map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestHandle_RegisterAndLogin(t *testing.T) {
	server, _ := newTestServer(t)

	resp, body := postJSON(t, server.URL+"/register", map[string]string{
		"email":    "u@d.com",
		"password": "secret1",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["user_id"])

	// Short passwords are rejected before the core is consulted
	resp, _ = postJSON(t, server.URL+"/register", map[string]string{
		"email":    "short@d.com",
		"password": "abc",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Duplicate email
	resp, body = postJSON(t, server.URL+"/register", map[string]string{
		"email":    "u@d.com",
		"password": "secret2",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "user already exists", body["error"])

	resp, body = postJSON(t, server.URL+"/login", map[string]string{
		"email":    "u@d.com",
		"password": "secret1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, body = postJSON(t, server.URL+"/login", map[string]string{
		"email":    "u@d.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid credentials", body["error"])
}

func TestHandle_MfaFlow(t *testing.T) {
	server, notifier := newTestServer(t)

	_, body := postJSON(t, server.URL+"/register", map[string]string{
		"email":    "u@d.com",
		"password": "secret1",
	})
	require.NotEmpty(t, body["user_id"])

	_, body = postJSON(t, server.URL+"/login", map[string]string{
		"email":    "u@d.com",
		"password": "secret1",
	})
	accessToken, _ := body["token"].(string)
	require.NotEmpty(t, accessToken)

	// Enroll TOTP using the final token
	req, err := http.NewRequest(http.MethodPost, server.URL+"/mfa/enable", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var enrollment map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&enrollment))
	secret, _ := enrollment["secret"].(string)
	require.NotEmpty(t, secret)
	assert.NotEmpty(t, enrollment["qr_png_base64"])

	// Login now requires a second factor
	_, body = postJSON(t, server.URL+"/login", map[string]string{
		"email":    "u@d.com",
		"password": "secret1",
	})
	assert.Equal(t, true, body["mfa_required"])
	tempToken, _ := body["temp_token"].(string)
	require.NotEmpty(t, tempToken)

	// TOTP path
	code, err := totp.GenerateCode(secret, time.Now().UTC())
	require.NoError(t, err)

	resp2, body := postJSON(t, server.URL+"/mfa/totp/verify", map[string]string{
		"temp_token": tempToken,
		"totp_code":  code,
	})
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.NotEmpty(t, body["token"])

	// Email OTP path
	_, body = postJSON(t, server.URL+"/login", map[string]string{
		"email":    "u@d.com",
		"password": "secret1",
	})
	tempToken, _ = body["temp_token"].(string)
	require.NotEmpty(t, tempToken)

	resp2, body = postJSON(t, server.URL+"/mfa/email/send", map[string]string{
		"email": "u@d.com",
	})
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, "OTP sent", body["message"])

	otpCode := extractCode(t, notifier.last().Body)
	resp2, body = postJSON(t, server.URL+"/mfa/email/verify", map[string]string{
		"email":      "u@d.com",
		"otp":        otpCode,
		"temp_token": tempToken,
	})
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.NotEmpty(t, body["token"])
}

func TestHandle_Profile(t *testing.T) {
	server, _ := newTestServer(t)

	_, _ = postJSON(t, server.URL+"/register", map[string]string{
		"email":    "u@d.com",
		"password": "secret1",
	})
	_, body := postJSON(t, server.URL+"/login", map[string]string{
		"email":    "u@d.com",
		"password": "secret1",
	})
	accessToken, _ := body["token"].(string)
	require.NotEmpty(t, accessToken)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/profile", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var profile map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	assert.Equal(t, "u@d.com", profile["email"])
	assert.Equal(t, false, profile["mfa_enabled"])

	// Missing and malformed bearer tokens are rejected alike
	req, err = http.NewRequest(http.MethodGet, server.URL+"/profile", nil)
	require.NoError(t, err)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
