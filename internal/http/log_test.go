package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"smartdeals/internal/http/handlers"
	applog "smartdeals/internal/log"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	t.Cleanup(zap.ReplaceGlobals(zap.New(core)))
	return logs
}

func TestAccessLogCarriesPrincipalAndRequestID(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	tok := signIn(t, app, alice)
	logs := observeLogs(t)

	r := call(t, app, http.MethodGet, "/bids", tok, nil)
	require.Equal(t, http.StatusOK, r.Status)

	entries := logs.FilterMessage("http.request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, alice, fields["principal"])
	require.NotEmpty(t, fields["req_id"])
	require.EqualValues(t, http.StatusOK, fields["status"])
}

func TestDeniedRequestsAreLogged(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	aliceTok := signIn(t, app, alice)
	bobTok := signIn(t, app, bob)
	pid := createProduct(t, app, aliceTok, alice, "Hamlet")
	logs := observeLogs(t)

	r := call(t, app, http.MethodDelete, "/products/"+pid, bobTok, nil)
	require.Equal(t, http.StatusForbidden, r.Status)
	denied := logs.FilterMessage("access.denied").All()
	require.Len(t, denied, 1)
	require.Equal(t, zapcore.WarnLevel, denied[0].Level)
	require.Equal(t, bob, denied[0].ContextMap()["principal"])

	r = call(t, app, http.MethodPost, "/products", "", nil)
	require.Equal(t, http.StatusUnauthorized, r.Status)
	require.Len(t, logs.FilterMessage("auth.denied").All(), 1)

	access := logs.FilterMessage("http.request").All()
	require.Len(t, access, 2)
	require.EqualValues(t, http.StatusForbidden, access[0].ContextMap()["status"])
	require.EqualValues(t, http.StatusUnauthorized, access[1].ContextMap()["status"])
}

func TestAuditOnStateChange(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	tok := signIn(t, app, alice)
	logs := observeLogs(t)

	createProduct(t, app, tok, alice, "Odyssey")
	audits := logs.FilterMessage("product.create").All()
	require.Len(t, audits, 1)
	require.Equal(t, true, audits[0].ContextMap()["audit"])
}

func TestErrorHandlerHidesInternals(t *testing.T) {
	logs := observeLogs(t)
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	app.Use(applog.AccessLog())
	app.Get("/err", func(c *fiber.Ctx) error {
		return errors.New("db timeout: secret trace")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "stack: secret")
	})

	for _, path := range []string{"/err", "/boom"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		r := apiResp{Status: resp.StatusCode}
		r.Body = readAll(t, resp)
		require.Equal(t, "Something went wrong. Please try again.", r.message(t))
		require.NotContains(t, string(r.Body), "secret")
	}

	errs := logs.FilterMessage("server.error").All()
	require.Len(t, errs, 2)
	require.Equal(t, zapcore.ErrorLevel, errs[0].Level)
}
