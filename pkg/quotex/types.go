package quotex

import (
	"encoding/json"

	"streakwatch/internal/quotex/memorystore"

	"github.com/shopspring/decimal"
)

// Response represents the envelope wrapped around every REST payload.
type Response struct {
	RetCode int             `json:"retCode"` // 0 means success; non-zero indicates an error code
	RetMsg  string          `json:"retMsg"`  // Human-readable message describing the result or error
	Result  json.RawMessage `json:"result"`  // Endpoint payload, decoded later per endpoint
	Time    int64           `json:"time"`    // Server timestamp (in milliseconds since epoch)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type InstrumentListResponse struct {
	List []struct {
		Symbol string          `json:"symbol"` // e.g., "EURUSD"
		Payout json.RawMessage `json:"payout"` // number or numeric string, may be absent
		// ... extra
	} `json:"list"`
}

type AssetListResponse struct {
	Codes []string `json:"codes"`
}

type CandlesResponse struct {
	Asset   string                              `json:"asset"`
	Period  int                                 `json:"period"`
	Candles map[string]memorystore.CandleRecord `json:"candles"` // keyed by the decimal timestamp
}

// Instrument is a tradable asset and its payout weight.
type Instrument struct {
	Symbol string
	Payout decimal.Decimal
}
