package twse

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"SignalWatch/internal/domain"
	"SignalWatch/internal/domain/models"
	drepo "SignalWatch/internal/domain/repository"
	xhttp "SignalWatch/pkg/http"
	applogger "SignalWatch/pkg/logger"

	"github.com/shopspring/decimal"
)

const DefaultQuoteURL = "https://mis.twse.com.tw/stock/api/getStockInfo.jsp"

// Symbol maps an app ticker to the exchange channel used in ex_ch and the code
// echoed back in msgArray[].c.
type Symbol struct {
	App     string
	Channel string
	Code    string
}

// Client polls the TWSE MIS quote endpoint.
type Client struct {
	url     string
	symbols []Symbol
	byCode  map[string]string
	client  *xhttp.Client
	logger  *applogger.Logger
	now     func() time.Time
}

func NewClient(l *applogger.Logger, url string, timeout time.Duration, symbols []Symbol) *Client {
	if url == "" {
		url = DefaultQuoteURL
	}
	byCode := make(map[string]string, len(symbols))
	for _, s := range symbols {
		byCode[s.Code] = s.App
	}
	return &Client{
		url:     url,
		symbols: append([]Symbol(nil), symbols...),
		byCode:  byCode,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		logger:  l,
		now:     time.Now,
	}
}

type quoteItem struct {
	Code      string `json:"c"`
	Price     string `json:"z"`
	PrevClose string `json:"y"`
}

type quoteResponse struct {
	MsgArray []quoteItem `json:"msgArray"`
	RtCode   string      `json:"rtcode"`
	RtMsg    string      `json:"rtmessage"`
}

// FetchQuotes returns tickers for the symbols that carried a usable price. Items with
// a missing price ("-" before the first trade) or a non-positive previous close are
// skipped. An empty msgArray yields an empty map and no error.
func (c *Client) FetchQuotes(ctx context.Context) (models.MarketData, error) {
	channels := make([]string, len(c.symbols))
	for i, s := range c.symbols {
		channels[i] = s.Channel
	}

	var resp quoteResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.url,
		QueryParams: map[string][]string{
			"ex_ch": {strings.Join(channels, "|")},
			"_":     {strconv.FormatInt(c.now().UnixMilli(), 10)},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: twse quotes: %v", domain.ErrUpstreamFetch, err)
	}

	out := make(models.MarketData, len(resp.MsgArray))
	if len(resp.MsgArray) == 0 {
		c.logger.Warn("twse returned no quotes", applogger.String("rtcode", resp.RtCode), applogger.String("rtmessage", resp.RtMsg))
		return out, nil
	}

	for _, item := range resp.MsgArray {
		sym, ok := c.byCode[item.Code]
		if !ok {
			continue
		}
		t, ok := Ticker(item.Price, item.PrevClose)
		if !ok {
			c.logger.Debug("twse quote skipped", applogger.String("symbol", sym), applogger.String("z", item.Price), applogger.String("y", item.PrevClose))
			continue
		}
		out[sym] = t
	}
	return out, nil
}

// Ticker derives change and change% from the last price and previous close.
func Ticker(price, prevClose string) (models.TickerData, bool) {
	p, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil {
		return models.TickerData{}, false
	}
	prev, err := decimal.NewFromString(strings.TrimSpace(prevClose))
	if err != nil || !prev.IsPositive() {
		return models.TickerData{}, false
	}

	change := p.Sub(prev)
	pct := change.Div(prev).Mul(decimal.NewFromInt(100)).Round(4)
	return models.TickerData{
		Price:         p.InexactFloat64(),
		Change:        change.InexactFloat64(),
		ChangePercent: pct.InexactFloat64(),
	}, true
}

var _ drepo.QuoteSource = (*Client)(nil)
