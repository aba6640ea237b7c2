package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/smartforge-lab/smartforge/internal/api/middleware"
	"github.com/smartforge-lab/smartforge/internal/chain"
	"github.com/smartforge-lab/smartforge/internal/compiler"
	"github.com/smartforge-lab/smartforge/internal/config"
	"github.com/smartforge-lab/smartforge/internal/models"
	"github.com/smartforge-lab/smartforge/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	testWalletA = "0x1111111111111111111111111111111111111111"
	testWalletB = "0x2222222222222222222222222222222222222222"
)

func setupTestServer(t *testing.T) (*APIServer, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "Failed to connect to in-memory database")
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Subscription{},
		&models.Job{},
	))

	solc := compiler.NewCompiler()
	projects := services.NewProjectService(db)
	jobs := services.NewJobService(db)
	svc := Services{
		Users:         services.NewUserService(db),
		Projects:      projects,
		Subscriptions: services.NewSubscriptionService(db),
		Jobs:          jobs,
		Deploy:        services.NewDeployService(projects, jobs, solc, chain.NewDeployer("")),
		Verification:  services.NewVerificationService(projects, jobs, chain.NewExplorerClient(""), solc.FullVersion()),
	}

	cfg := &config.Config{
		PaymentNetworkName:      "Base",
		PaymentRecipientAddress: "0x9999999999999999999999999999999999999999",
	}

	// The bearer token doubles as the wallet address in tests
	authConfig := middleware.AuthConfig{
		Users: svc.Users,
		TokenValidator: func(token string) (*middleware.AuthenticatedUser, error) {
			return &middleware.AuthenticatedUser{
				WalletAddress: token,
				PrivyUserID:   "did:privy:" + token,
			}, nil
		},
	}

	payments := chain.NewPaymentVerifier("http://127.0.0.1:1", "0x0", "0x0")
	return NewAPIServer(cfg, svc, solc, payments, authConfig), db
}

func doRequest(t *testing.T, server *APIServer, method, path, wallet string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if wallet != "" {
		req.Header.Set("Authorization", "Bearer "+wallet)
	}

	resp, err := server.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doRequest(t, server, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestAPIRequiresBearerToken(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doRequest(t, server, http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "Bearer")
}

func TestCompileRequiresSourceCode(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doRequest(t, server, http.MethodPost, "/api/compile", testWalletA, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "sourceCode is required", body["error"])
}

func TestCompileInternalFailureIsNotBadRequest(t *testing.T) {
	server, _ := setupTestServer(t)
	// A solc release that cannot be loaded fails before any source is parsed
	server.compiler = compiler.NewCompilerWithVersion("9.9.9")

	resp := doRequest(t, server, http.MethodPost, "/api/compile", testWalletA, map[string]string{
		"sourceCode": "contract Anything {}",
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
}

func TestCreateProject(t *testing.T) {
	server, _ := setupTestServer(t)

	t.Run("creates project from template", func(t *testing.T) {
		resp := doRequest(t, server, http.MethodPost, "/api/projects", testWalletA, map[string]string{
			"name":     "My Token",
			"template": "ERC20",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "My Token", body["name"])
		assert.Equal(t, "draft", body["deployment_status"])
		assert.NotEmpty(t, body["source_code"])
	})

	t.Run("free plan rejects a second project", func(t *testing.T) {
		resp := doRequest(t, server, http.MethodPost, "/api/projects", testWalletA, map[string]string{
			"name":     "Another Token",
			"template": "ERC20",
		})
		require.Equal(t, http.StatusForbidden, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Contains(t, body["error"], "upgrade")
	})

	t.Run("rejects unknown template", func(t *testing.T) {
		resp := doRequest(t, server, http.MethodPost, "/api/projects", testWalletB, map[string]string{
			"name":     "Bad",
			"template": "ERC1155",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("requires a name", func(t *testing.T) {
		resp := doRequest(t, server, http.MethodPost, "/api/projects", testWalletB, map[string]string{
			"template": "ERC20",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestProjectOwnershipScoping(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doRequest(t, server, http.MethodPost, "/api/projects", testWalletA, map[string]string{
		"name":     "Private Project",
		"template": "Custom",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	projectID := int(body["id"].(float64))

	t.Run("owner can read", func(t *testing.T) {
		resp := doRequest(t, server, http.MethodGet, fmt.Sprintf("/api/projects/%d", projectID), testWalletA, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("another wallet gets 404", func(t *testing.T) {
		resp := doRequest(t, server, http.MethodGet, fmt.Sprintf("/api/projects/%d", projectID), testWalletB, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid id is a bad request", func(t *testing.T) {
		resp := doRequest(t, server, http.MethodGet, "/api/projects/not-a-number", testWalletA, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestUpdateProjectSourceCode(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doRequest(t, server, http.MethodPost, "/api/projects", testWalletA, map[string]string{
		"name":     "Editable",
		"template": "Custom",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	projectID := int(decodeBody(t, resp)["id"].(float64))

	resp = doRequest(t, server, http.MethodPut, fmt.Sprintf("/api/projects/%d", projectID), testWalletA, map[string]string{
		"sourceCode": "contract Edited {}",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "contract Edited {}", body["source_code"])
}

func TestVerifyRequiresDeployedProject(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doRequest(t, server, http.MethodPost, "/api/projects", testWalletA, map[string]string{
		"name":     "Unverifiable",
		"template": "ERC20",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	projectID := int(decodeBody(t, resp)["id"].(float64))

	resp = doRequest(t, server, http.MethodPost, fmt.Sprintf("/api/projects/%d/verify", projectID), testWalletA, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "must be deployed")
}

func TestDeployRejectsInvalidNetwork(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doRequest(t, server, http.MethodPost, "/api/projects", testWalletA, map[string]string{
		"name":     "Undeployable",
		"template": "ERC20",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	projectID := int(decodeBody(t, resp)["id"].(float64))

	resp = doRequest(t, server, http.MethodPost, fmt.Sprintf("/api/projects/%d/deploy", projectID), testWalletA, map[string]any{
		"networkConfig": map[string]any{"name": "Base"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetJobNotFound(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doRequest(t, server, http.MethodGet, "/api/jobs/no-such-job", testWalletA, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPaymentIntent(t *testing.T) {
	server, _ := setupTestServer(t)

	t.Run("standard plan intent", func(t *testing.T) {
		resp := doRequest(t, server, http.MethodPost, "/api/subscriptions/payment-intent", testWalletA, map[string]string{
			"plan": "standard",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "10", body["amount"])
		assert.Equal(t, "USDC", body["currency"])
		assert.Equal(t, "Base", body["network"])
		assert.Equal(t, "0x9999999999999999999999999999999999999999", body["recipientAddress"])
	})

	t.Run("free plan cannot be purchased", func(t *testing.T) {
		resp := doRequest(t, server, http.MethodPost, "/api/subscriptions/payment-intent", testWalletA, map[string]string{
			"plan": "free",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCurrentSubscriptionNotFound(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doRequest(t, server, http.MethodGet, "/api/subscriptions/current", testWalletA, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVerifyPaymentScoping(t *testing.T) {
	server, db := setupTestServer(t)

	// Wallet A opens a payment intent
	resp := doRequest(t, server, http.MethodPost, "/api/subscriptions/payment-intent", testWalletA, map[string]string{
		"plan": "standard",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var subscription models.Subscription
	require.NoError(t, db.First(&subscription).Error)

	// Wallet B cannot settle it
	resp = doRequest(t, server, http.MethodPost, "/api/subscriptions/verify-payment", testWalletB, map[string]any{
		"subscriptionId": subscription.ID,
		"txHash":         "0xdeadbeef",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
