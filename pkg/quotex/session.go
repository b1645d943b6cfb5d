package quotex

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"streakwatch/internal/quotex/memorystore"
	"streakwatch/internal/quotex/stream"

	"go.uber.org/zap"
)

// SessionConfig holds what a Session needs to talk to the provider.
type SessionConfig struct {
	Email    string
	Password string
	BaseURL  string
	Timeout  time.Duration
	WSURL    string // empty disables streaming
	Period   int    // candle duration in seconds used for REST fetches
}

// Session is the market-data collaborator: REST for login, catalog and candle
// snapshots, plus an optional candle stream that feeds an in-memory store.
type Session struct {
	cfg    SessionConfig
	rest   *RESTClient
	ws     *WSClient
	store  *memorystore.MemoryCandleStore
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	streaming map[string]int // asset → streamed period
	listening bool
}

func NewSession(cfg SessionConfig, logger *zap.Logger) *Session {
	s := &Session{
		cfg:       cfg,
		rest:      NewRESTClient(cfg.BaseURL, cfg.Timeout),
		store:     memorystore.NewCandleStore(memorystore.DefaultCandleCapacity),
		logger:    logger,
		now:       time.Now,
		streaming: make(map[string]int),
	}

	if cfg.WSURL != "" {
		s.ws = NewWSClient(cfg.WSURL, logger)
		s.ws.SetMessageHandler(stream.MakeMessageHandler(logger, s.store))
		s.ws.SetHeader(s.authHeader)
	}
	return s
}

// Connect logs in to the provider.
func (s *Session) Connect(ctx context.Context) error {
	return s.rest.Login(ctx, s.cfg.Email, s.cfg.Password)
}

func (s *Session) Instruments(ctx context.Context) ([]Instrument, error) {
	return s.rest.GetInstruments(ctx)
}

func (s *Session) AssetCodes(ctx context.Context) ([]string, error) {
	return s.rest.GetAssetCodes(ctx)
}

// StartStream subscribes to the asset's candle topic, opening the connection and
// starting the listener on first use. The listener lives until ctx is cancelled.
func (s *Session) StartStream(ctx context.Context, asset string, period int) error {
	const op = "start stream"
	if s.ws == nil {
		return newFetchError(op, KindUnsupported, errors.New("no stream endpoint configured"))
	}
	if _, err := ParsePeriod(period); err != nil {
		return newFetchError(op, KindUnsupported, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.listening {
		if err := s.ws.Connect(ctx); err != nil {
			return newFetchError(op, KindNetwork, err)
		}
		go s.ws.Listen(ctx)
		s.listening = true
	}

	if err := s.ws.Subscribe(CandleTopic(period, asset)); err != nil {
		return newFetchError(op, KindNetwork, err)
	}
	s.streaming[asset] = period
	return nil
}

// LatestCandles returns the closed candles known for an asset. Streamed candles are
// served from memory while they are fresh; otherwise a REST snapshot is fetched.
func (s *Session) LatestCandles(ctx context.Context, asset string) (map[int64]memorystore.CandleRecord, error) {
	s.mu.Lock()
	period, ok := s.streaming[asset]
	s.mu.Unlock()

	if ok {
		if closed := s.closedCandles(asset, period); len(closed) > 0 {
			return closed, nil
		}
	}
	return s.rest.GetCandles(ctx, asset, s.cfg.Period)
}

// closedCandles drops the candle still forming at the current time. It returns nil
// when the newest closed candle is older than two periods, so a silent or
// reconnecting stream does not shadow the REST snapshot.
func (s *Session) closedCandles(asset string, period int) map[int64]memorystore.CandleRecord {
	candles := s.store.GetByAsset(asset)
	now := s.now().Unix()

	var newest int64
	for ts := range candles {
		if ts+int64(period) > now {
			delete(candles, ts)
			continue
		}
		if ts > newest {
			newest = ts
		}
	}
	if len(candles) == 0 {
		return nil
	}
	if newest < now-2*int64(period) {
		s.logger.Debug("streamed candles stale, using REST",
			zap.String("asset", asset), zap.Int64("newest", newest), zap.Int64("now", now))
		return nil
	}
	return candles
}

// StoredCandles reports how many streamed candles are held in memory.
func (s *Session) StoredCandles() int {
	return s.store.CountAll()
}

// Close shuts the stream down, if one was opened.
func (s *Session) Close() error {
	if s.ws == nil {
		return nil
	}
	return s.ws.Close()
}

func (s *Session) authHeader() http.Header {
	s.rest.mu.RLock()
	defer s.rest.mu.RUnlock()
	if s.rest.token == "" {
		return nil
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+s.rest.token)
	return h
}
