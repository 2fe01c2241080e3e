package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"wallet_core/internal/wallet"
	"wallet_core/models"
	"wallet_core/pkg/middleware"
	"wallet_core/pkg/oracle"
	"wallet_core/pkg/service"
)

const token = "session-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logrus.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.MinCost)
	require.NoError(t, err)
	pin, err := service.NewPINVerifier(string(hash))
	require.NoError(t, err)
	keys, err := wallet.FromHex("0000000000000000000000000000000000000000000000000000000000000001")
	require.NoError(t, err)

	acc := service.NewAccount()
	_, err = acc.Seed(map[models.Currency]int64{models.BTC: 125000, models.ETH: 45_000_000, models.USDT: 25000})
	require.NoError(t, err)

	fees := service.FeeSchedule{}
	engine := service.NewEngine(acc.Ledger, acc.Store, fees, pin)
	ws := service.NewWalletService(acc.Ledger, oracle.DefaultPrices(), keys, fees)
	h := NewHandler(service.NewService(engine, ws), Config{AllowOrigins: []string{"*"}, SessionToken: token})
	return h.InitRoute()
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func txFrom(t *testing.T, env envelope) models.Transaction {
	t.Helper()
	var tx models.Transaction
	require.NoError(t, json.Unmarshal(env.Data, &tx))
	return tx
}

func TestHealthIsPublic(t *testing.T) {
	r := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/wallet/balance", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSendConfirmSettle(t *testing.T) {
	r := newRouter(t)

	code, env := do(t, r, http.MethodPost, "/api/wallet/send", models.SendInput{Recipient: "John Doe", Amount: "150", Currency: "USDT"})
	require.Equal(t, http.StatusCreated, code)
	tx := txFrom(t, env)
	assert.Equal(t, models.StatusPending, tx.Status)
	path := "/api/wallet/transactions/" + tx.ID.String()

	code, env = do(t, r, http.MethodPost, path+"/settle", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "not_confirmed", env.Code)

	code, env = do(t, r, http.MethodPost, path+"/confirm", models.ConfirmationProof{Method: "pin", Secret: "0000"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "confirmation_rejected", env.Code)

	code, _ = do(t, r, http.MethodPost, path+"/confirm", models.ConfirmationProof{Method: "pin", Secret: "1234"})
	require.Equal(t, http.StatusOK, code)
	code, env = do(t, r, http.MethodPost, path+"/settle", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.StatusCompleted, txFrom(t, env).Status)

	code, env = do(t, r, http.MethodGet, "/api/wallet/balance", nil)
	require.Equal(t, http.StatusOK, code)
	var balances []models.BalanceView
	require.NoError(t, json.Unmarshal(env.Data, &balances))
	require.Len(t, balances, 3)
	assert.Equal(t, "100.00", balances[2].Display)

	code, env = do(t, r, http.MethodPost, path+"/fail", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "invalid_transition", env.Code)
}

func TestValidationErrors(t *testing.T) {
	r := newRouter(t)

	tests := []struct {
		name     string
		body     interface{}
		wantCode int
		wantErr  string
	}{
		{"insufficient funds", models.SendInput{Recipient: "Jane Smith", Amount: "300", Currency: "USDT"}, http.StatusUnprocessableEntity, "insufficient_funds"},
		{"negative amount", models.SendInput{Recipient: "Jane Smith", Amount: "-1", Currency: "USDT"}, http.StatusUnprocessableEntity, "non_positive_amount"},
		{"unknown currency", models.SendInput{Recipient: "Jane Smith", Amount: "1", Currency: "DOGE"}, http.StatusUnprocessableEntity, "currency_mismatch"},
		{"blank recipient", models.SendInput{Recipient: "  ", Amount: "1", Currency: "USDT"}, http.StatusUnprocessableEntity, "empty_recipient"},
		{"recipient too long", models.SendInput{Recipient: strings.Repeat("J", 300), Amount: "1", Currency: "USDT"}, http.StatusUnprocessableEntity, "recipient_too_long"},
		{"missing fields", map[string]string{"recipient": "Jane"}, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, r, http.MethodPost, "/api/wallet/send", tt.body)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantErr, env.Code)
		})
	}

	code, env := do(t, r, http.MethodGet, "/api/wallet/transactions", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "[]", string(env.Data))
}

func TestCaptureDuplicate(t *testing.T) {
	r := newRouter(t)
	in := models.CaptureInput{
		Channel: "nfc",
		Payload: `{"merchantId":"merchant_123","merchantName":"Coffee Shop","amount":"15.50","currency":"USDT","transactionId":"tx_42"}`,
	}

	code, env := do(t, r, http.MethodPost, "/api/wallet/capture", in)
	require.Equal(t, http.StatusCreated, code)
	tx := txFrom(t, env)
	assert.Equal(t, "Coffee Shop", tx.Counterparty)
	assert.Equal(t, int64(1550), tx.Amount)

	code, env = do(t, r, http.MethodPost, "/api/wallet/capture", in)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "duplicate_intent", env.Code)

	code, env = do(t, r, http.MethodPost, "/api/wallet/capture", models.CaptureInput{Channel: "qr", Payload: "hello"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "malformed_payload", env.Code)
}

func TestTransactionLookup(t *testing.T) {
	r := newRouter(t)

	code, _ := do(t, r, http.MethodGet, "/api/wallet/transactions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := do(t, r, http.MethodGet, "/api/wallet/transactions/7c9e6679-7425-40de-944b-e07fc1f90ae7", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "transaction_not_found", env.Code)

	code, env = do(t, r, http.MethodPost, "/api/wallet/deposit", models.DepositInput{From: "Alice Smith", Amount: "0.0005", Currency: "BTC"})
	require.Equal(t, http.StatusCreated, code)
	in := txFrom(t, env)

	code, env = do(t, r, http.MethodGet, "/api/wallet/transactions?filter=received&q=alice", nil)
	require.Equal(t, http.StatusOK, code)
	var views []models.TransactionView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, in.ID, views[0].ID)
	assert.Equal(t, "0.00050000", views[0].AmountDisplay)

	code, _ = do(t, r, http.MethodGet, "/api/wallet/transactions?filter=sent", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestWalletViews(t *testing.T) {
	r := newRouter(t)

	code, env := do(t, r, http.MethodGet, "/api/wallet/portfolio", nil)
	require.Equal(t, http.StatusOK, code)
	var p struct {
		TotalUSD string `json:"total_usd"`
		Complete bool   `json:"complete"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.True(t, p.Complete)

	code, env = do(t, r, http.MethodGet, "/api/wallet/receive/eth", nil)
	require.Equal(t, http.StatusOK, code)
	var info models.ReceiveInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", info.Address)

	code, _ = do(t, r, http.MethodGet, "/api/wallet/quick-amounts/doge", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, env = do(t, r, http.MethodPost, "/api/wallet/send/summary", models.SendInput{Recipient: "John Doe", Amount: "150", Currency: "USDT"})
	require.Equal(t, http.StatusOK, code)
	var s models.SendSummary
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.Equal(t, "150.00", s.Total)
}

func TestFailReason(t *testing.T) {
	r := newRouter(t)

	fail := func(body string, chunked bool) (int, envelope) {
		code, env := do(t, r, http.MethodPost, "/api/wallet/send", models.SendInput{Recipient: "John Doe", Amount: "10", Currency: "USDT"})
		require.Equal(t, http.StatusCreated, code)
		path := "/api/wallet/transactions/" + txFrom(t, env).ID.String() + "/fail"

		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.SessionHeader, token)
		if chunked {
			req.ContentLength = -1
			req.TransferEncoding = []string{"chunked"}
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		var out envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return w.Code, out
	}

	code, env := fail(`{"reason":"changed my mind"}`, true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "changed my mind", txFrom(t, env).FailureReason)

	code, env = fail(`{"reason":"wrong amount"}`, false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "wrong amount", txFrom(t, env).FailureReason)

	code, env = fail("", false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "cancelled by user", txFrom(t, env).FailureReason)

	code, _ = fail(`{"reason":`, true)
	assert.Equal(t, http.StatusBadRequest, code)
}
