package accounts_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	httpapi "github.com/karwaan/bazaar/internal/accounts/http"
	"github.com/karwaan/bazaar/internal/accounts/identity"
	"github.com/karwaan/bazaar/internal/accounts/service"
	"github.com/karwaan/bazaar/internal/accounts/store/drivers/sqlite"
	"github.com/karwaan/bazaar/pkg/authx"
	"github.com/karwaan/bazaar/pkg/cryptox"
	"github.com/karwaan/bazaar/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const (
	testSecret        = "e2e-shared-hmac-secret"
	testIssuer        = "bazaar-identity"
	testInternalToken = "e2e-internal-token"
)

// setupServer boots the full HTTP stack against an in-memory database.
func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	os.Setenv("BAZAAR_MASTER_KEY", "e2e-master-key")
	cryptox.ResetMasterKeyForTesting()
	t.Cleanup(func() {
		os.Unsetenv("BAZAAR_MASTER_KEY")
		cryptox.ResetMasterKeyForTesting()
	})

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	logger := slogx.New(slogx.Config{
		Service: "accounts-service",
		Version: "e2e",
		Env:     "test",
		Level:   "error",
		Format:  "text",
	})

	accountService := &service.AccountService{
		Store:    st,
		Identity: identity.NewNoop(logger),
	}
	verificationService := &service.VerificationService{
		Store:    st,
		Accounts: accountService,
		Issuer:   testIssuer,
	}
	policyService := &service.PolicyService{
		Accounts:     accountService,
		Verification: verificationService,
	}

	router := httpapi.NewRouter(
		authx.NewHS256([]byte(testSecret), testIssuer),
		"e2e",
		st,
		logger,
	)
	router.PolicyService = policyService
	router.InternalToken = testInternalToken
	router.ApplyRoutes()

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

// mintToken signs a bearer token the way the identity provider would.
func mintToken(t *testing.T, subject, role string) string {
	t.Helper()

	claims := authx.NewClaims(subject, role, subject+"@example.com", testIssuer, time.Hour, time.Now())
	token, err := authx.SignHS256([]byte(testSecret), claims)
	require.NoError(t, err)
	return token
}

type apiResponse struct {
	Status  int
	Success bool
	Error   string
	Data    json.RawMessage
}

// call performs a JSON API request and decodes the response envelope.
func call(t *testing.T, ts *httptest.Server, method, path, token string, body any) apiResponse {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := apiResponse{Status: resp.StatusCode}

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) == 0 {
		return out
	}

	var envelope struct {
		Success bool            `json:"success"`
		Error   string          `json:"error"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		out.Success = envelope.Success
		out.Error = envelope.Error
		out.Data = envelope.Data
	}
	return out
}

// decodeData unmarshals the data portion of a successful response.
func decodeData(t *testing.T, resp apiResponse, target any) {
	t.Helper()
	require.NotEmpty(t, resp.Data, "response has no data")
	require.NoError(t, json.Unmarshal(resp.Data, target))
}

type accountBody struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	Status        string `json:"status"`
	EmailVerified bool   `json:"email_verified"`
	BanReason     string `json:"ban_reason"`
	LoginCount    int64  `json:"login_count"`
	Version       int64  `json:"version"`
}

// createAccount backfills an account through the admin endpoint.
func createAccount(t *testing.T, ts *httptest.Server, adminToken, id, email string) accountBody {
	t.Helper()

	resp := call(t, ts, http.MethodPost, "/v1/admin/accounts", adminToken, map[string]any{
		"id":    id,
		"email": email,
		"name":  "E2E User",
	})
	require.Equal(t, http.StatusCreated, resp.Status)

	var acct accountBody
	decodeData(t, resp, &acct)
	return acct
}
