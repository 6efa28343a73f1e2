package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"PairTrader/internal/model"

	"github.com/shopspring/decimal"
)

func newTestBinance(t *testing.T, h http.HandlerFunc) *Binance {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	b := NewBinance(srv.URL, "key", "secret", "")
	b.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return b
}

func TestSign(t *testing.T) {
	// Example from the Binance API documentation.
	secret := "NhqPtmdSJYdKjVHjA7PZj4Mge3R5YNiP1e3UZjInClVN65XAbvqqM6A7H5fATj0j"
	query := "symbol=LTCBTC&side=BUY&type=LIMIT&timeInForce=GTC&quantity=1&price=0.1&recvWindow=5000&timestamp=1499827319559"
	want := "c8db56825ae71d6d79447849e617115f4a920fa2acdcab2b053c4b2838bd6b71"
	if got := Sign(secret, query); got != want {
		t.Errorf("Sign = %s, want %s", got, want)
	}
}

func TestRecentTradePrice(t *testing.T) {
	b := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/trades" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "1" || r.URL.Query().Get("symbol") != "BTCUSDT" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[{"id":1,"price":"43210.50","qty":"0.01","time":1700000000000}]`))
	})
	price, err := b.RecentTradePrice(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("RecentTradePrice: %v", err)
	}
	if price != 43210.50 {
		t.Errorf("price = %v", price)
	}
}

func TestCandles(t *testing.T) {
	b := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("interval") != "1m" || r.URL.Query().Get("limit") != "2" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[
			[1700000060000,"2","3","1","2.5","10",1700000119999,"25",5,"1","2","0"],
			[1700000000000,"1","2","0.5","1.5","20",1700000059999,"30",5,"1","2","0"]
		]`))
	})
	bars, err := b.Candles(context.Background(), "BTCUSDT", "1m", 2)
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("len = %d", len(bars))
	}
	if bars[0].Close != 1.5 || bars[1].Close != 2.5 {
		t.Errorf("bars not in chronological order: %+v", bars)
	}
	if bars[1].Volume != 10 || bars[1].High != 3 {
		t.Errorf("unexpected bar: %+v", bars[1])
	}
}

func TestBalanceIsSigned(t *testing.T) {
	b := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-MBX-APIKEY") != "key" {
			t.Errorf("missing api key header")
		}
		raw := r.URL.RawQuery
		i := strings.LastIndex(raw, "&signature=")
		if i < 0 {
			t.Fatalf("signature not last: %s", raw)
		}
		if got, want := raw[i+len("&signature="):], Sign("secret", raw[:i]); got != want {
			t.Errorf("signature = %s, want %s", got, want)
		}
		if r.URL.Query().Get("timestamp") != "1700000000000" {
			t.Errorf("timestamp = %s", r.URL.Query().Get("timestamp"))
		}
		w.Write([]byte(`{"balances":[{"asset":"BTC","free":"0.5","locked":"0"},{"asset":"USDT","free":"120.25","locked":"1"}]}`))
	})
	bal, err := b.Balance(context.Background(), "USDT")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !bal.Equal(decimal.RequireFromString("120.25")) {
		t.Errorf("balance = %s", bal)
	}
	bal, err = b.Balance(context.Background(), "ETH")
	if err != nil || !bal.IsZero() {
		t.Errorf("unknown asset: %s, %v", bal, err)
	}
}

func TestSignedCallWithoutCredentials(t *testing.T) {
	b := NewBinance("http://127.0.0.1:1", "", "", "")
	if _, err := b.Balance(context.Background(), "USDT"); err == nil {
		t.Fatal("expected credentials error")
	}
}

func TestSymbolConstraints(t *testing.T) {
	b := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbols":[{"symbol":"BTCUSDT","filters":[
			{"filterType":"PRICE_FILTER","minPrice":"0.01","tickSize":"0.01"},
			{"filterType":"LOT_SIZE","minQty":"0.00001000","maxQty":"9000","stepSize":"0.00001000"}]}]}`))
	})
	lot, err := b.SymbolConstraints(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("SymbolConstraints: %v", err)
	}
	want := decimal.RequireFromString("0.00001")
	if !lot.StepSize.Equal(want) || !lot.MinQty.Equal(want) {
		t.Errorf("lot = %+v", lot)
	}
	if _, err := b.SymbolConstraints(context.Background(), "ETHUSDT"); err == nil {
		t.Error("expected error for unknown symbol")
	}
}

func TestSubmitMarketOrder(t *testing.T) {
	b := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v3/order" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		for k, v := range map[string]string{"side": "BUY", "type": "MARKET", "quantity": "0.00332", "newClientOrderId": "cid-1"} {
			if q.Get(k) != v {
				t.Errorf("%s = %q, want %q", k, q.Get(k), v)
			}
		}
		w.Write([]byte(`{"symbol":"BTCUSDT","orderId":28,"clientOrderId":"cid-1","status":"FILLED","executedQty":"0.00332","cummulativeQuoteQty":"99.6"}`))
	})
	conf, err := b.SubmitMarketOrder(context.Background(), OrderRequest{
		Symbol:        "BTCUSDT",
		Side:          model.SideBuy,
		Quantity:      decimal.RequireFromString("0.00332"),
		ClientOrderID: "cid-1",
	})
	if err != nil {
		t.Fatalf("SubmitMarketOrder: %v", err)
	}
	if conf.OrderID != "28" || conf.Status != "FILLED" || !conf.QuoteQty.Equal(decimal.RequireFromString("99.6")) {
		t.Errorf("confirmation = %+v", conf)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"insufficient", 400, `{"code":-2010,"msg":"Account has insufficient balance for requested action."}`, ErrInsufficientBalance},
		{"lot size", 400, `{"code":-1013,"msg":"Filter failure: LOT_SIZE"}`, ErrBelowMinQty},
		{"server", 503, `Service Unavailable`, ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := b.SubmitMarketOrder(context.Background(), OrderRequest{Symbol: "BTCUSDT", Side: model.SideSell, Quantity: decimal.NewFromInt(1)})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOtherRejectionIsAPIError(t *testing.T) {
	b := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})
	_, err := b.RecentTradePrice(context.Background(), "NOPE")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != -1121 {
		t.Fatalf("err = %v", err)
	}
	if errors.Is(err, ErrInsufficientBalance) || errors.Is(err, ErrNetwork) {
		t.Errorf("generic rejection matched a sentinel: %v", err)
	}
}

func TestTransportErrorIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	u, _ := url.Parse(srv.URL)
	srv.Close()
	b := NewBinance("http://"+u.Host, "", "", "")
	if _, err := b.RecentTradePrice(context.Background(), "BTCUSDT"); !errors.Is(err, ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
}
