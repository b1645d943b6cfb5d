package quotex

import (
	"errors"
	"fmt"
	"testing"
)

// go test -v --run TestFetchErrorMatching
func TestFetchErrorMatching(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("tick: %w", newFetchError("get candles", KindNetwork, cause))

	if !errors.Is(err, ErrNetwork) {
		t.Error("expected ErrNetwork to match")
	}
	if errors.Is(err, ErrParse) {
		t.Error("ErrParse must not match a network failure")
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
	if KindOf(err) != KindNetwork {
		t.Errorf("KindOf = %s", KindOf(err))
	}
	if KindOf(cause) != KindUnknown {
		t.Errorf("foreign error kind = %s", KindOf(cause))
	}
	if got := newFetchError("login", KindAuth, nil).Error(); got != "login: auth failure" {
		t.Errorf("Error() = %q", got)
	}
}

// go test -v --run TestParsePeriod
func TestParsePeriod(t *testing.T) {
	meta, err := ParsePeriod(60)
	if err != nil || meta.Label != "1m" || meta.Duration().Seconds() != 60 {
		t.Fatalf("ParsePeriod(60) = %+v, %v", meta, err)
	}
	if _, err := ParsePeriod(7); err == nil {
		t.Error("7s is not a provider period")
	}
	if got := CandleTopic(60, "EURUSD"); got != "candles.60.EURUSD" {
		t.Errorf("CandleTopic = %s", got)
	}
}
