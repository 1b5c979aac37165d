package zerodha

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"dynamic-dca-bot/internal/candle"
	"dynamic-dca-bot/internal/interfaces"
	"dynamic-dca-bot/internal/types"
)

const (
	CodeHTTP    = "HTTP"
	CodeAuth    = "AUTH"
	CodeQtyZero = "QTY_ZERO"
	CodeNoPrice = "NO_PRICE"

	// Kite limits order tags to 20 characters
	maxTagLen = 20

	// NSE cash session, used to size intraday lookback windows
	tradingSession = 6*time.Hour + 15*time.Minute
)

type Params struct {
	APIKey          string
	AccessToken     string
	Exchange        string
	InstrumentToken int
	Product         string
	Timeout         time.Duration
}

type Zerodha struct {
	p   Params
	kc  KiteAPI
	now func() time.Time
}

var _ interfaces.Broker = (*Zerodha)(nil)

// NewZerodha builds a Kite Connect adapter authenticated with a pre-generated access token.
func NewZerodha(p Params) *Zerodha {
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	if p.Timeout > 0 {
		kc.SetHTTPClient(&http.Client{Timeout: p.Timeout})
	}
	return NewWithClient(p, kc)
}

// NewWithClient builds the adapter over an existing Kite client.
func NewWithClient(p Params, kc KiteAPI) *Zerodha {
	if p.Exchange == "" {
		p.Exchange = "NSE"
	}
	if p.Product == "" {
		p.Product = kiteconnect.ProductCNC
	}
	return &Zerodha{p: p, kc: kc, now: time.Now}
}

// FetchCandles loads enough history to cover q.Limit bars and keeps the newest q.Limit of them.
func (z *Zerodha) FetchCandles(ctx context.Context, q types.CandleQuery) (candle.Series, error) {
	const op = "fetch_candles"

	if z.p.InstrumentToken == 0 {
		return candle.Series{}, &types.AdapterError{Op: op, Code: CodeAuth, Message: "zerodha.instrument_token not configured"}
	}

	interval, bar, err := kiteInterval(q.Interval)
	if err != nil {
		return candle.Series{}, &types.AdapterError{Op: op, Code: "INTERVAL", Message: err.Error()}
	}
	if err := ctx.Err(); err != nil {
		return candle.Series{}, err
	}

	to := z.now()
	from := to.Add(-lookback(bar, q.Limit))
	data, err := z.kc.GetHistoricalData(z.p.InstrumentToken, interval, from, to, false, false)
	if err != nil {
		return candle.Series{}, kiteError(op, err)
	}

	if q.Limit > 0 && len(data) > q.Limit {
		data = data[len(data)-q.Limit:]
	}
	if len(data) == 0 {
		return candle.Series{}, &types.MalformedDataError{Index: -1, Reason: "no bars returned"}
	}

	cs := make([]candle.Candle, len(data))
	for i, d := range data {
		cs[i] = candle.Candle{
			Timestamp: d.Date.Time.UTC(),
			Open:      d.Open,
			High:      d.High,
			Low:       d.Low,
			Close:     d.Close,
			Volume:    float64(d.Volume),
		}
	}

	series, err := candle.FromCandles(cs)
	if err != nil {
		return candle.Series{}, fmt.Errorf("parsing %s %s bars: %w", q.Symbol, interval, err)
	}
	return series, nil
}

// SubmitOrder places a regular MARKET BUY. Kite sizes equity orders in shares, so the quote amount
// is converted with the reference price and rounded down.
func (z *Zerodha) SubmitOrder(ctx context.Context, req types.OrderReq) (types.OrderResult, error) {
	const op = "submit_order"

	if z.p.APIKey == "" || z.p.AccessToken == "" {
		return types.OrderResult{}, &types.AdapterError{Op: op, Code: CodeAuth, Message: "missing API key/access token"}
	}

	qty, err := shareQuantity(req.QuoteAmount, req.RefPrice)
	if err != nil {
		return types.OrderResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.OrderResult{}, err
	}

	resp, err := z.kc.PlaceOrder(kiteconnect.VarietyRegular, kiteconnect.OrderParams{
		Exchange:        z.p.Exchange,
		Tradingsymbol:   req.Symbol,
		Validity:        kiteconnect.ValidityDay,
		Product:         z.p.Product,
		OrderType:       kiteconnect.OrderTypeMarket,
		TransactionType: kiteconnect.TransactionTypeBuy,
		Quantity:        qty,
		Tag:             orderTag(req.ClientID),
	})
	if err != nil {
		return types.OrderResult{}, kiteError(op, err)
	}

	return types.OrderResult{
		Code:     "0",
		Message:  fmt.Sprintf("placed %d shares", qty),
		OrderID:  resp.OrderID,
		ClientID: req.ClientID,
	}, nil
}

func shareQuantity(quote decimal.Decimal, refPrice float64) (int, error) {
	const op = "submit_order"
	if refPrice <= 0 {
		return 0, &types.AdapterError{Op: op, Code: CodeNoPrice, Message: "reference price required to size the order"}
	}
	qty := quote.Div(decimal.NewFromFloat(refPrice)).Floor().IntPart()
	if qty < 1 {
		return 0, &types.AdapterError{
			Op:      op,
			Code:    CodeQtyZero,
			Message: fmt.Sprintf("quote amount %s buys no shares at %.2f", quote.String(), refPrice),
		}
	}
	return int(qty), nil
}

// kiteInterval maps exchange-neutral interval codes to Kite's names and bar lengths.
func kiteInterval(code string) (string, time.Duration, error) {
	switch strings.ToUpper(code) {
	case "1":
		return "minute", time.Minute, nil
	case "3", "5", "10", "15", "30", "60":
		n, _ := strconv.Atoi(code)
		return code + "minute", time.Duration(n) * time.Minute, nil
	case "D", "DAY":
		return "day", 24 * time.Hour, nil
	}
	return "", 0, fmt.Errorf("interval %q not supported by Kite historical data", code)
}

// lookback returns a calendar window wide enough to contain limit bars across weekends and holidays.
func lookback(bar time.Duration, limit int) time.Duration {
	if limit <= 0 {
		limit = 1
	}
	const day = 24 * time.Hour
	if bar >= day {
		return time.Duration(limit*7/5+7) * day
	}
	sessions := (time.Duration(limit)*bar + tradingSession - 1) / tradingSession
	return time.Duration(int64(sessions)*7/5+3) * day
}

func orderTag(clientID string) string {
	tag := strings.ReplaceAll(clientID, "-", "")
	if len(tag) > maxTagLen {
		tag = tag[:maxTagLen]
	}
	return tag
}

func kiteError(op string, err error) error {
	var ke kiteconnect.Error
	if errors.As(err, &ke) {
		return &types.AdapterError{Op: op, Code: strconv.Itoa(ke.Code), Message: ke.ErrorType + ": " + ke.Message, Err: err}
	}
	return &types.AdapterError{Op: op, Code: CodeHTTP, Err: err}
}
