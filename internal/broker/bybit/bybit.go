package bybit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"dynamic-dca-bot/internal/api"
	"dynamic-dca-bot/internal/candle"
	"dynamic-dca-bot/internal/interfaces"
	"dynamic-dca-bot/internal/types"
)

const (
	DefaultBaseURL    = "https://api.bybit.com"
	DefaultRecvWindow = 5 * time.Second

	klinePath       = "/v5/market/kline"
	orderCreatePath = "/v5/order/create"

	// CodeHTTP marks failures below the Bybit envelope: transport errors, non-2xx statuses, undecodable bodies.
	CodeHTTP = "HTTP"
	CodeAuth = "AUTH"
)

type Params struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	RecvWindow time.Duration
	Retry      *api.RetryConfig
}

type Bybit struct {
	p      Params
	client *api.Client
	now    func() time.Time
	newID  func() string
}

var _ interfaces.Broker = (*Bybit)(nil)

// New builds a Bybit v5 REST adapter. opts configure the underlying HTTP client.
func New(p Params, opts ...api.ClientOption) *Bybit {
	if p.BaseURL == "" {
		p.BaseURL = DefaultBaseURL
	}
	if p.RecvWindow <= 0 {
		p.RecvWindow = DefaultRecvWindow
	}

	opts = append([]api.ClientOption{api.WithBaseURL(p.BaseURL), api.WithLogging(true)}, opts...)
	return &Bybit{
		p:      p,
		client: api.NewClient(opts...),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// envelope is the common v5 response wrapper
type envelope struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
	Time    int64           `json:"time"`
}

type klineResult struct {
	Category string     `json:"category"`
	Symbol   string     `json:"symbol"`
	List     [][]string `json:"list"`
}

type orderResult struct {
	OrderID     string `json:"orderId"`
	OrderLinkID string `json:"orderLinkId"`
}

// FetchCandles reads public kline data. Bybit lists bars newest first; the returned series is oldest first.
func (b *Bybit) FetchCandles(ctx context.Context, q types.CandleQuery) (candle.Series, error) {
	const op = "fetch_candles"

	query := url.Values{}
	query.Set("category", q.Category)
	query.Set("symbol", q.Symbol)
	query.Set("interval", q.Interval)
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}

	req := api.NewRequest(http.MethodGet, klinePath).WithContext(ctx).WithQuery(query)
	resp, err := b.client.DoWithRetry(req, b.p.Retry)
	if err != nil {
		return candle.Series{}, httpError(op, err)
	}

	var res klineResult
	if err := decode(op, resp, &res); err != nil {
		return candle.Series{}, err
	}

	series, err := candle.FromRows(res.List)
	if err != nil {
		return candle.Series{}, fmt.Errorf("parsing %s %s klines: %w", q.Symbol, q.Interval, err)
	}
	return series, nil
}

type createOrderBody struct {
	Category    string `json:"category"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	OrderType   string `json:"orderType"`
	Qty         string `json:"qty"`
	MarketUnit  string `json:"marketUnit,omitempty"`
	OrderLinkID string `json:"orderLinkId"`
}

// SubmitOrder places a market order. For spot the quantity is expressed in the quote coin.
// The request is sent once: a retried create could double the purchase.
func (b *Bybit) SubmitOrder(ctx context.Context, req types.OrderReq) (types.OrderResult, error) {
	const op = "submit_order"

	if b.p.APIKey == "" || b.p.APISecret == "" {
		return types.OrderResult{}, &types.AdapterError{Op: op, Code: CodeAuth, Message: "missing API key/secret"}
	}

	clientID := req.ClientID
	if clientID == "" {
		clientID = b.newID()
	}

	body := createOrderBody{
		Category:    req.Category,
		Symbol:      req.Symbol,
		Side:        req.Side,
		OrderType:   req.OrderType,
		Qty:         req.QuoteAmount.String(),
		OrderLinkID: clientID,
	}
	if req.Category == "spot" {
		body.MarketUnit = "quoteCoin"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return types.OrderResult{}, &types.AdapterError{Op: op, Code: CodeHTTP, Message: "encoding order", Err: err}
	}

	httpReq := api.NewRequest(http.MethodPost, orderCreatePath).
		WithContext(ctx).
		WithBody(json.RawMessage(payload))
	for k, v := range b.authHeaders(payload) {
		httpReq.WithHeader(k, v)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return types.OrderResult{}, httpError(op, err)
	}

	var res orderResult
	env, err := decodeEnvelope(op, resp, &res)
	if err != nil {
		return types.OrderResult{}, err
	}

	linkID := res.OrderLinkID
	if linkID == "" {
		linkID = clientID
	}
	return types.OrderResult{
		Code:     strconv.Itoa(env.RetCode),
		Message:  env.RetMsg,
		OrderID:  res.OrderID,
		ClientID: linkID,
	}, nil
}

func (b *Bybit) authHeaders(payload []byte) map[string]string {
	ts := strconv.FormatInt(b.now().UnixMilli(), 10)
	recv := strconv.FormatInt(b.p.RecvWindow.Milliseconds(), 10)
	return map[string]string{
		"X-BAPI-API-KEY":     b.p.APIKey,
		"X-BAPI-TIMESTAMP":   ts,
		"X-BAPI-RECV-WINDOW": recv,
		"X-BAPI-SIGN":        Sign(b.p.APISecret, ts, b.p.APIKey, recv, string(payload)),
		"X-BAPI-SIGN-TYPE":   "2",
	}
}

func decode(op string, resp *api.Response, v any) error {
	_, err := decodeEnvelope(op, resp, v)
	return err
}

func decodeEnvelope(op string, resp *api.Response, v any) (envelope, error) {
	var env envelope
	if err := resp.ParseJSON(&env); err != nil {
		return env, &types.AdapterError{Op: op, Code: CodeHTTP, Message: "decoding response", Err: err}
	}
	if env.RetCode != 0 {
		return env, &types.AdapterError{Op: op, Code: strconv.Itoa(env.RetCode), Message: env.RetMsg}
	}
	if len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, v); err != nil {
			return env, &types.AdapterError{Op: op, Code: CodeHTTP, Message: "decoding result", Err: err}
		}
	}
	return env, nil
}

func httpError(op string, err error) error {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		return &types.AdapterError{Op: op, Code: CodeHTTP, Message: http.StatusText(statusErr.StatusCode), Err: err}
	}
	return &types.AdapterError{Op: op, Code: CodeHTTP, Err: err}
}
