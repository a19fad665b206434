package serverutils

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/", handler)
	return app
}

func decodeErrorBody(t *testing.T, app *fiber.App) (int, ErrorBody) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	var body ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestErrorHandlerEmitsErrorField(t *testing.T) {
	app := errorApp(func(ctx *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "passage not found")
	})

	status, body := decodeErrorBody(t, app)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "passage not found", body.Error)
	assert.Empty(t, body.Details)
}

func TestErrorHandlerDefaultsToInternalError(t *testing.T) {
	app := errorApp(func(ctx *fiber.Ctx) error {
		return errors.New("db gone")
	})

	status, body := decodeErrorBody(t, app)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "db gone", body.Error)
}

func TestErrorHandlerPutsValidationFailuresInDetails(t *testing.T) {
	type payload struct {
		Name string `validate:"required"`
	}
	app := errorApp(func(ctx *fiber.Ctx) error {
		return ValidateRequest(payload{})
	})

	status, body := decodeErrorBody(t, app)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "validation failed", body.Error)
	assert.Contains(t, body.Details, "Name failed on required")
}

func TestErrorBodyOmitsEmptyDetails(t *testing.T) {
	raw, err := json.Marshal(ErrorBody{Error: "boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"boom"}`, string(raw))
}
