package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genuka/go-auth-service/server"
	"github.com/genuka/go-auth-service/signature"
	"github.com/genuka/go-auth-service/webhook"
)

func webhookRequest(body []byte, hmacHex string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/auth/webhook", bytes.NewReader(body))
	if hmacHex != "" {
		r.Header.Set(server.WebhookSignatureHeader, hmacHex)
	}
	return r
}

func signBody(body []byte) string {
	return signature.New(testWebhookSecret).SignRaw(body)
}

func TestWebhookDispatchesExactlyOnce(t *testing.T) {
	f := newFixture(t, nil)

	var calls atomic.Int32
	f.events.Register(webhook.EventOrderCreated, func(_ context.Context, companyID string, data json.RawMessage) error {
		calls.Add(1)
		require.Equal(t, "T1", companyID)
		return nil
	})

	body := []byte(`{"type":"order.created","company_id":"T1","data":{"id":"ord_1"}}`)
	resp := do(f, webhookRequest(body, signBody(body)))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(1), calls.Load())
}

func TestWebhookBadSignatureInvokesNothing(t *testing.T) {
	f := newFixture(t, nil)

	var calls atomic.Int32
	f.events.Register(webhook.EventOrderCreated, func(context.Context, string, json.RawMessage) error {
		calls.Add(1)
		return nil
	})

	body := []byte(`{"type":"order.created","company_id":"T1","data":{}}`)
	tampered := signature.New("some-other-secret").SignRaw(body)
	resp := do(f, webhookRequest(body, tampered))

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int32(0), calls.Load())
}

func TestWebhookMissingSignatureHeader(t *testing.T) {
	f := newFixture(t, nil)
	body := []byte(`{"type":"order.created","company_id":"T1","data":{}}`)
	resp := do(f, webhookRequest(body, ""))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebhookUnknownEventIsAccepted(t *testing.T) {
	f := newFixture(t, nil)

	body := []byte(`{"type":"inventory.rebalanced","company_id":"T1","data":{}}`)
	resp := do(f, webhookRequest(body, signBody(body)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, decodeBody(t, resp)["success"])
}

func TestWebhookMalformedBody(t *testing.T) {
	f := newFixture(t, nil)

	body := []byte(`this is not json`)
	resp := do(f, webhookRequest(body, signBody(body)))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebhookOversizedBody(t *testing.T) {
	f := newFixture(t, nil)

	var calls atomic.Int32
	f.events.Register(webhook.EventOrderCreated, func(context.Context, string, json.RawMessage) error {
		calls.Add(1)
		return nil
	})

	// Correctly signed but over the read cap: the response must say "too
	// large", not reject the delivery as a forgery.
	body := bytes.Repeat([]byte("x"), 1<<20+1)
	resp := do(f, webhookRequest(body, signBody(body)))

	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	require.Equal(t, int32(0), calls.Load())
}

func TestWebhookHandlerFailureIs500(t *testing.T) {
	f := newFixture(t, nil)

	f.events.Register(webhook.EventPaymentFailed, func(context.Context, string, json.RawMessage) error {
		return errors.New("downstream unavailable")
	})

	body := []byte(`{"type":"payment.failed","company_id":"T1","data":{}}`)
	resp := do(f, webhookRequest(body, signBody(body)))
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestWebhookCompanyLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.repo.Upsert(context.Background(), storedCompany()))

	body := []byte(`{"type":"company.updated","company_id":"comp_42","data":{"name":"Acme v2"}}`)
	resp := do(f, webhookRequest(body, signBody(body)))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	company, err := f.repo.FindByID(context.Background(), testCompanyID)
	require.NoError(t, err)
	require.Equal(t, "Acme v2", company.Name)

	body = []byte(`{"type":"company.deleted","company_id":"comp_42","data":{}}`)
	resp = do(f, webhookRequest(body, signBody(body)))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = f.repo.FindByID(context.Background(), testCompanyID)
	require.Error(t, err)
}
