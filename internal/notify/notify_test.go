package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockfinder/internal/sell"
	"stockfinder/internal/sizing"
	"stockfinder/internal/state"
)

func sampleReport(t *testing.T) Report {
	t.Helper()
	d, err := state.ParseDate("2024-06-03")
	require.NoError(t, err)
	return Report{
		Date: d,
		Buys: []sizing.BuyPlan{{
			Symbol: "AAPL", InvestmentAmount: decimal.NewFromInt(3000), CurrentPrice: 150,
			TargetShares: 20, CurrentShares: 10, SharesToBuy: 10,
		}},
		Sells: []sizing.SellPlan{{
			Symbol: "EGAN", Reason: sell.AVSL, Shares: 12, Price: 81,
			Amount: decimal.NewFromInt(972), ProfitLoss: -228, ProfitLossRate: -0.19,
		}},
	}
}

func TestMoney(t *testing.T) {
	cases := map[string]string{
		"0":           "0.00",
		"12.5":        "12.50",
		"999.999":     "1,000.00",
		"1234567.891": "1,234,567.89",
		"-1234.5":     "-1,234.50",
		"-0.001":      "0.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, Money(decimal.RequireFromString(in)), in)
	}
}

func TestFormat(t *testing.T) {
	text := Format(sampleReport(t))
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2024-06-03", lines[0])
	assert.Equal(t, "BUY AAPL 10 shares @ 150.00 (invest 3,000.00, 10 -> 20 shares)", lines[1])
	assert.Equal(t, "SELL EGAN 12 shares @ 81.00 [AVSL] (amount 972.00, P/L -228.00, -19.00%)", lines[2])

	assert.Equal(t, "", Format(Report{}))
}

func TestTelegramPostsMessage(t *testing.T) {
	var got map[string]string
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram(TelegramConfig{BotToken: "TOKEN", ChatID: "42", BaseURL: srv.URL})
	require.NoError(t, tg.Send(context.Background(), "hello"))
	assert.Equal(t, "/botTOKEN/sendMessage", path)
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
}

func TestTelegramRejectionIsDeliveryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewTelegram(TelegramConfig{BotToken: "bad", ChatID: "1", BaseURL: srv.URL}).Send(context.Background(), "x")
	assert.ErrorIs(t, err, ErrDelivery)
}

func TestTelegramNetworkErrorIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewTelegram(TelegramConfig{BotToken: "t", ChatID: "1", BaseURL: url}).Send(context.Background(), "x")
	assert.NoError(t, err)
}

func TestWriterAndRecorder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Writer{W: &buf}.Send(context.Background(), "line"))
	assert.Equal(t, "line\n", buf.String())

	rec := &Recorder{}
	require.NoError(t, rec.Send(context.Background(), "a"))
	assert.Equal(t, []string{"a"}, rec.Messages)
}
