package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/douglasshinzato/price-tagger/internal/domain"
	"github.com/douglasshinzato/price-tagger/internal/identity"
	"github.com/douglasshinzato/price-tagger/internal/service/lifecycle"
	"github.com/douglasshinzato/price-tagger/internal/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	server        *Server
	employeeToken string
	adminToken    string
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()

	orders := memory.NewOrderRepository()
	directory := memory.NewEmployeeRepository()
	outbox := memory.NewOutboxRepository()

	hash, err := identity.HashPassword("senha123")
	require.NoError(t, err)

	directory.Put(domain.Employee{
		ID:           "emp-1",
		Name:         "Maria Souza",
		Email:        "maria@store.test",
		Role:         domain.RoleEmployee,
		PasswordHash: hash,
	})
	directory.Put(domain.Employee{
		ID:           "emp-2",
		Name:         "João Lima",
		Email:        "joao@store.test",
		Role:         domain.RoleEmployee,
		PasswordHash: hash,
	})
	directory.Put(domain.Employee{
		ID:           "adm-1",
		Name:         "Carla Dias",
		Email:        "carla@store.test",
		Role:         domain.RoleAdmin,
		PasswordHash: hash,
	})

	tokens, err := identity.NewTokenManager(identity.TokenConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "price-tagger",
		Audience: "price-tagger-api",
		TTL:      time.Hour,
	})
	require.NoError(t, err)

	ident := identity.NewService(directory, tokens, nil)
	svc := lifecycle.NewService(orders, directory, nil, lifecycle.WithOutbox(outbox))
	env := &testEnv{server: NewServer(svc, ident, nil)}

	env.employeeToken = signInFor(t, env.server, "maria@store.test")
	env.adminToken = signInFor(t, env.server, "carla@store.test")

	return env
}

func signInFor(t *testing.T, s *Server, email string) string {
	t.Helper()

	w := doJSON(t, s, http.MethodPost, "/api/v1/auth/signin", "", map[string]any{
		"email": email, "password": "senha123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp signInResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	return resp.Token
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func createOrderFor(t *testing.T, env *testEnv, token string) orderResp {
	t.Helper()

	w := doJSON(t, env.server, http.MethodPost, "/api/v1/orders", token, map[string]any{
		"product_name":   "Arroz Tipo 1 5kg",
		"current_price":  24.90,
		"label_quantity": 3,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var order orderResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	return order
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	env := setupServer(t)

	w := doJSON(t, env.server, http.MethodPost, "/api/v1/auth/signin", "", map[string]any{
		"email": "maria@store.test", "password": "errada",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignOut(t *testing.T) {
	env := setupServer(t)

	w := doJSON(t, env.server, http.MethodPost, "/api/v1/auth/signout", env.employeeToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestOrdersRequireAuth(t *testing.T) {
	env := setupServer(t)

	w := doJSON(t, env.server, http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, env.server, http.MethodGet, "/api/v1/orders", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	env := setupServer(t)

	order := createOrderFor(t, env, env.employeeToken)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "Maria Souza", order.EmployeeName)

	// Owner updates the pending order.
	w := doJSON(t, env.server, http.MethodPut, "/api/v1/orders/"+order.ID, env.employeeToken, map[string]any{
		"product_name":       "Arroz Tipo 1 5kg",
		"current_price":      100,
		"needs_price_update": true,
		"label_quantity":     5,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Admin completes it; the shelf price gets computed.
	w = doJSON(t, env.server, http.MethodPost, "/api/v1/orders/"+order.ID+"/complete", env.adminToken, map[string]any{
		"observations": "etiqueta trocada",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var completed orderResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &completed))
	assert.Equal(t, "completed", completed.Status)
	require.NotNil(t, completed.NewPrice)
	assert.Equal(t, float64(116), *completed.NewPrice)
	assert.NotNil(t, completed.CompletedAt)
	assert.Equal(t, "etiqueta trocada", completed.Observations)
}

func TestCreateOrder_Validation(t *testing.T) {
	env := setupServer(t)

	w := doJSON(t, env.server, http.MethodPost, "/api/v1/orders", env.employeeToken, map[string]any{
		"product_name":   "",
		"current_price":  0,
		"label_quantity": 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompleteOrder_EmployeeForbidden(t *testing.T) {
	env := setupServer(t)
	order := createOrderFor(t, env, env.employeeToken)

	w := doJSON(t, env.server, http.MethodPost, "/api/v1/orders/"+order.ID+"/complete", env.employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCancelOrder_Conflicts(t *testing.T) {
	env := setupServer(t)
	order := createOrderFor(t, env, env.employeeToken)

	w := doJSON(t, env.server, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", env.employeeToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// Cancelling twice conflicts with the terminal state.
	w = doJSON(t, env.server, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", env.employeeToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetOrder_NotFoundAndForbidden(t *testing.T) {
	env := setupServer(t)
	order := createOrderFor(t, env, env.employeeToken)

	w := doJSON(t, env.server, http.MethodGet, "/api/v1/orders/does-not-exist", env.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Another employee cannot read someone else's order; admins can.
	otherToken := signInFor(t, env.server, "joao@store.test")
	w = doJSON(t, env.server, http.MethodGet, "/api/v1/orders/"+order.ID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, env.server, http.MethodGet, "/api/v1/orders/"+order.ID, env.adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListOrders_Visibility(t *testing.T) {
	env := setupServer(t)
	createOrderFor(t, env, env.employeeToken)
	order := createOrderFor(t, env, env.employeeToken)

	w := doJSON(t, env.server, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", env.employeeToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, env.server, http.MethodGet, "/api/v1/orders", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []orderResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	w = doJSON(t, env.server, http.MethodGet, "/api/v1/orders?status=cancelled", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cancelled []orderResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cancelled))
	assert.Len(t, cancelled, 1)

	w = doJSON(t, env.server, http.MethodGet, "/api/v1/orders?status=bogus", env.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPricingEndpoints(t *testing.T) {
	env := setupServer(t)

	w := doJSON(t, env.server, http.MethodPost, "/api/v1/pricing/adjust", env.employeeToken, map[string]any{
		"current_price": 100,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var adj adjustResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &adj))
	assert.InDelta(t, 96.5, adj.Discounted, 0.001)
	assert.InDelta(t, 115.8, adj.Marked, 0.001)
	assert.Equal(t, float64(116), adj.FinalPrice)

	w = doJSON(t, env.server, http.MethodPost, "/api/v1/pricing/quote", env.employeeToken, map[string]any{
		"base_price": 100, "items": 7,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var quote quoteResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
	assert.Equal(t, float64(125), quote.InstallmentPrice)
	assert.InDelta(t, 106.25, quote.CashPrice, 0.001)
	assert.Equal(t, float64(100), quote.DebitPrice)
	assert.Equal(t, 3, quote.Labels)

	w = doJSON(t, env.server, http.MethodPost, "/api/v1/pricing/adjust", env.employeeToken, map[string]any{
		"current_price": -5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
