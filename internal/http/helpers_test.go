package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"smartdeals/internal/config"
	"smartdeals/internal/http/handlers"
	"smartdeals/internal/metrics"
	"smartdeals/internal/repos"
)

const (
	alice    = "alice@example.com"
	bob      = "bob@example.com"
	carol    = "carol@example.com"
	password = "Passw0rd!"
)

func testConfig() config.Config {
	return config.Config{
		DBDriver:    repos.DriverSQLite,
		DBDSN:       ":memory:",
		CORSOrigins: "*",
		TokenTTL:    time.Hour,
		ServiceName: "smartdeals-test",
		Env:         "test",
	}
}

func newTestApp(t *testing.T, cfg config.Config) (*fiber.App, *handlers.Deps) {
	t.Helper()
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	deps := handlers.NewDeps(db, cfg, zaptest.NewLogger(t), metrics.New())
	deps.Auth.Cost = bcrypt.MinCost
	return handlers.NewApp(deps), deps
}

type apiResp struct {
	Status int
	Body   []byte
}

func (r apiResp) object(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &m), string(r.Body))
	return m
}

func (r apiResp) list(t *testing.T) []map[string]any {
	t.Helper()
	var l []map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &l), string(r.Body))
	return l
}

func (r apiResp) message(t *testing.T) string {
	t.Helper()
	msg, _ := r.object(t)["message"].(string)
	return msg
}

// call sends body as JSON when it is not nil and authenticates with token
// when it is not empty.
func call(t *testing.T, app *fiber.App, method, path, token string, body any) apiResp {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(b)
		}
		rd = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return apiResp{Status: resp.StatusCode, Body: readAll(t, resp)}
}

func readAll(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return b
}

// signIn registers email and returns a bearer token for it.
func signIn(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	r := call(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "name": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, r.Status, string(r.Body))

	r = call(t, app, http.MethodPost, "/auth/token", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, r.Status, string(r.Body))
	tok, _ := r.object(t)["token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func createProduct(t *testing.T, app *fiber.App, token, seller, title string) string {
	t.Helper()
	r := call(t, app, http.MethodPost, "/products", token, map[string]any{
		"email": seller, "title": title, "category": "books", "price_min": 5, "price_max": 20,
	})
	require.Equal(t, http.StatusCreated, r.Status, string(r.Body))
	id, _ := r.object(t)["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func placeBid(t *testing.T, app *fiber.App, token, buyer, productID string, price float64) string {
	t.Helper()
	r := call(t, app, http.MethodPost, "/bids", token, map[string]any{
		"product": productID, "buyer_email": buyer, "buyer_name": buyer, "bid_price": price,
	})
	require.Equal(t, http.StatusCreated, r.Status, string(r.Body))
	id, _ := r.object(t)["id"].(string)
	require.NotEmpty(t, id)
	return id
}
