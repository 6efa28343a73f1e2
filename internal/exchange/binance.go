package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"PairTrader/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the Binance spot REST endpoint.
const DefaultBaseURL = "https://api.binance.com"

// Binance implements Client against the Binance spot REST API.
type Binance struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	RecvWindow time.Duration
	Client     *http.Client

	now func() time.Time
}

// NewBinance creates a REST client with optional proxy support. Empty
// credentials restrict it to public market data.
func NewBinance(baseURL, apiKey, apiSecret, proxyURL string) *Binance {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Binance{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		APISecret:  apiSecret,
		RecvWindow: 5 * time.Second,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		now: time.Now,
	}
}

func (b *Binance) Name() string { return "binance" }

type binanceTrade struct {
	Price string `json:"price"`
	Qty   string `json:"qty"`
	Time  int64  `json:"time"`
}

func (b *Binance) RecentTradePrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{"symbol": {symbol}, "limit": {"1"}}
	var trades []binanceTrade
	if err := b.call(ctx, http.MethodGet, "/api/v3/trades", params, false, &trades); err != nil {
		return 0, fmt.Errorf("recent trade: %w", err)
	}
	if len(trades) == 0 {
		return 0, fmt.Errorf("recent trade: empty response for %s", symbol)
	}
	last := trades[len(trades)-1]
	price, err := strconv.ParseFloat(last.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("recent trade: parse price %q: %w", last.Price, err)
	}
	return price, nil
}

func (b *Binance) Candles(ctx context.Context, symbol, interval string, limit int) ([]model.OHLCV, error) {
	params := url.Values{
		"symbol":   {symbol},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}
	var rows [][]any
	if err := b.call(ctx, http.MethodGet, "/api/v3/klines", params, false, &rows); err != nil {
		return nil, fmt.Errorf("klines: %w", err)
	}
	bars := make([]model.OHLCV, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("klines: row %d has %d fields", i, len(row))
		}
		bar := model.OHLCV{Time: time.UnixMilli(toInt64(row[0]))}
		var err error
		for j, dst := range []*float64{&bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume} {
			if *dst, err = toF64(row[j+1]); err != nil {
				return nil, fmt.Errorf("klines: row %d field %d: %w", i, j+1, err)
			}
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

type binanceAccount struct {
	Balances []struct {
		Asset  string          `json:"asset"`
		Free   decimal.Decimal `json:"free"`
		Locked decimal.Decimal `json:"locked"`
	} `json:"balances"`
}

// Balance returns the free balance of asset; unknown assets are zero.
func (b *Binance) Balance(ctx context.Context, asset string) (decimal.Decimal, error) {
	var acct binanceAccount
	if err := b.call(ctx, http.MethodGet, "/api/v3/account", url.Values{}, true, &acct); err != nil {
		return decimal.Zero, fmt.Errorf("account: %w", err)
	}
	for _, bal := range acct.Balances {
		if bal.Asset == asset {
			return bal.Free, nil
		}
	}
	return decimal.Zero, nil
}

type binanceExchangeInfo struct {
	Symbols []struct {
		Symbol  string `json:"symbol"`
		Filters []struct {
			FilterType string          `json:"filterType"`
			StepSize   decimal.Decimal `json:"stepSize"`
			MinQty     decimal.Decimal `json:"minQty"`
		} `json:"filters"`
	} `json:"symbols"`
}

func (b *Binance) SymbolConstraints(ctx context.Context, symbol string) (model.LotConstraint, error) {
	var info binanceExchangeInfo
	if err := b.call(ctx, http.MethodGet, "/api/v3/exchangeInfo", url.Values{"symbol": {symbol}}, false, &info); err != nil {
		return model.LotConstraint{}, fmt.Errorf("exchange info: %w", err)
	}
	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}
		for _, f := range s.Filters {
			if f.FilterType == "LOT_SIZE" {
				return model.LotConstraint{StepSize: f.StepSize, MinQty: f.MinQty}, nil
			}
		}
		return model.LotConstraint{}, fmt.Errorf("exchange info: %s has no LOT_SIZE filter", symbol)
	}
	return model.LotConstraint{}, fmt.Errorf("exchange info: symbol %s not found", symbol)
}

type binanceOrder struct {
	Symbol        string          `json:"symbol"`
	OrderID       int64           `json:"orderId"`
	ClientOrderID string          `json:"clientOrderId"`
	Status        string          `json:"status"`
	ExecutedQty   decimal.Decimal `json:"executedQty"`
	QuoteQty      decimal.Decimal `json:"cummulativeQuoteQty"`
}

func (b *Binance) SubmitMarketOrder(ctx context.Context, req OrderRequest) (*model.OrderConfirmation, error) {
	params := url.Values{
		"symbol":           {req.Symbol},
		"side":             {string(req.Side)},
		"type":             {"MARKET"},
		"quantity":         {req.Quantity.String()},
		"newOrderRespType": {"RESULT"},
	}
	if req.ClientOrderID != "" {
		params.Set("newClientOrderId", req.ClientOrderID)
	}
	var out binanceOrder
	if err := b.call(ctx, http.MethodPost, "/api/v3/order", params, true, &out); err != nil {
		return nil, fmt.Errorf("market %s %s: %w", req.Side, req.Quantity, err)
	}
	return &model.OrderConfirmation{
		OrderID:       strconv.FormatInt(out.OrderID, 10),
		ClientOrderID: out.ClientOrderID,
		Status:        out.Status,
		ExecutedQty:   out.ExecutedQty,
		QuoteQty:      out.QuoteQty,
	}, nil
}

// call performs one request and decodes a 200 response into out.
func (b *Binance) call(ctx context.Context, method, path string, params url.Values, signed bool, out any) error {
	query := params.Encode()
	if signed {
		if b.APIKey == "" || b.APISecret == "" {
			return fmt.Errorf("%s requires API credentials", path)
		}
		params.Set("timestamp", strconv.FormatInt(b.now().UnixMilli(), 10))
		if b.RecvWindow > 0 {
			params.Set("recvWindow", strconv.FormatInt(b.RecvWindow.Milliseconds(), 10))
		}
		// The signature must be the last parameter of the exact string it signs.
		query = params.Encode()
		query += "&signature=" + Sign(b.APISecret, query)
	}
	endpoint := b.BaseURL + path + "?" + query
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return err
	}
	if b.APIKey != "" {
		req.Header.Set("X-MBX-APIKEY", b.APIKey)
	}
	resp, err := b.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d, body: %s", ErrNetwork, resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Code, apiErr.Msg = payload.Code, payload.Msg
		} else {
			apiErr.Msg = string(body)
		}
		return apiErr
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of query under secret.
func Sign(secret, query string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

func toF64(v any) (float64, error) {
	switch t := v.(type) {
	case string:
		return strconv.ParseFloat(t, 64)
	case float64:
		return t, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	default:
		return 0
	}
}
