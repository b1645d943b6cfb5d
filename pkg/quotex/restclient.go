package quotex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"streakwatch/internal/quotex/memorystore"
)

type RESTClient struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Login exchanges the account credentials for a session token used by later calls.
func (c *RESTClient) Login(ctx context.Context, email, password string) error {
	const op = "login"
	if email == "" || password == "" {
		return newFetchError(op, KindAuth, errors.New("missing credentials"))
	}

	var result LoginResponse
	body := loginRequest{Email: email, Password: password}
	if err := c.do(ctx, op, http.MethodPost, "/api/v1/login", nil, body, &result); err != nil {
		return err
	}
	if result.Token == "" {
		return newFetchError(op, KindAuth, errors.New("empty token"))
	}

	c.mu.Lock()
	c.token = result.Token
	c.mu.Unlock()
	return nil
}

// GetInstruments fetches the instrument catalog with payouts.
// Entries without a symbol or with a non-numeric payout are skipped.
func (c *RESTClient) GetInstruments(ctx context.Context) ([]Instrument, error) {
	var result InstrumentListResponse
	if err := c.do(ctx, "get instruments", http.MethodGet, "/api/v1/instruments", nil, nil, &result); err != nil {
		return nil, err
	}

	instruments := make([]Instrument, 0, len(result.List))
	for _, item := range result.List {
		if item.Symbol == "" {
			continue
		}
		payout, ok := parsePayout(item.Payout)
		if !ok {
			continue
		}
		instruments = append(instruments, Instrument{Symbol: item.Symbol, Payout: payout})
	}
	return instruments, nil
}

// GetAssetCodes fetches the plain asset code listing, in provider order.
func (c *RESTClient) GetAssetCodes(ctx context.Context) ([]string, error) {
	var result AssetListResponse
	if err := c.do(ctx, "get asset codes", http.MethodGet, "/api/v1/assets", nil, nil, &result); err != nil {
		return nil, err
	}
	return result.Codes, nil
}

// GetCandles fetches recent closed candles for an asset keyed by open time.
func (c *RESTClient) GetCandles(ctx context.Context, asset string, period int) (map[int64]memorystore.CandleRecord, error) {
	const op = "get candles"

	query := url.Values{}
	query.Set("asset", asset)
	query.Set("period", strconv.Itoa(period))

	var result CandlesResponse
	if err := c.do(ctx, op, http.MethodGet, "/api/v1/candles", query, nil, &result); err != nil {
		return nil, err
	}

	candles, err := ParseCandleMap(result.Candles)
	if err != nil {
		return nil, newFetchError(op, KindParse, err)
	}
	return candles, nil
}

// do sends a request, checks the HTTP status and the envelope retCode, and decodes
// the envelope result into out. Numbers are kept as json.Number.
func (c *RESTClient) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return newFetchError(op, KindParse, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(buf)
	}

	// Construct the request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return newFetchError(op, KindNetwork, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	// Execute the HTTP request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newFetchError(op, KindNetwork, fmt.Errorf("making request: %w", err))
	}
	defer resp.Body.Close()

	// Check HTTP status code
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return newFetchError(op, KindAuth, statusErr)
		case http.StatusNotFound, http.StatusNotImplemented:
			return newFetchError(op, KindUnsupported, statusErr)
		default:
			return newFetchError(op, KindNetwork, statusErr)
		}
	}

	var rawResp Response
	if err := decodeJSON(resp.Body, &rawResp); err != nil {
		return newFetchError(op, KindParse, fmt.Errorf("decode response: %w", err))
	}
	if rawResp.RetCode != 0 {
		kind := KindNetwork
		if rawResp.RetCode == http.StatusUnauthorized {
			kind = KindAuth
		}
		return newFetchError(op, kind, fmt.Errorf("retCode %d: %s", rawResp.RetCode, rawResp.RetMsg))
	}

	if out == nil {
		return nil
	}
	if err := decodeJSON(bytes.NewReader(rawResp.Result), out); err != nil {
		return newFetchError(op, KindParse, fmt.Errorf("decode result: %w", err))
	}
	return nil
}

func decodeJSON(r io.Reader, out any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec.Decode(out)
}
