package snapshot

import (
	"context"
	"sort"

	"streakwatch/pkg/quotex"

	"go.uber.org/zap"
)

// DefaultWatchSize is how many instruments a session monitors.
const DefaultWatchSize = 3

// InstrumentSource is the part of the market-data session used for selection.
type InstrumentSource interface {
	Instruments(ctx context.Context) ([]quotex.Instrument, error)
	AssetCodes(ctx context.Context) ([]string, error)
}

// SelectWatchList picks up to size assets, best payout first. When the catalog
// cannot be fetched or ranked it falls back to the first codes of the plain asset
// listing in provider order. An empty result means nothing can be monitored.
func SelectWatchList(ctx context.Context, source InstrumentSource, size int, logger *zap.Logger) []string {
	if size <= 0 {
		size = DefaultWatchSize
	}

	instruments, err := source.Instruments(ctx)
	if err != nil {
		logger.Warn("failed to load instrument catalog", zap.String("kind", string(quotex.KindOf(err))), zap.Error(err))
	} else if ranked := RankByPayout(instruments, size); len(ranked) > 0 {
		logger.Info("selected instruments by payout",
			zap.Int("catalog", len(instruments)), zap.Strings("assets", ranked))
		return ranked
	}

	codes, err := source.AssetCodes(ctx)
	if err != nil {
		logger.Warn("failed to load asset codes", zap.String("kind", string(quotex.KindOf(err))), zap.Error(err))
		return nil
	}

	var out []string
	for _, code := range codes {
		if code == "" {
			continue
		}
		out = append(out, code)
		if len(out) == size {
			break
		}
	}
	if len(out) > 0 {
		logger.Info("selected instruments from asset listing", zap.Strings("assets", out))
	}
	return out
}

// RankByPayout returns the symbols of the top size instruments by payout,
// descending. Ties keep catalog order.
func RankByPayout(instruments []quotex.Instrument, size int) []string {
	ranked := make([]quotex.Instrument, 0, len(instruments))
	for _, inst := range instruments {
		if inst.Symbol != "" {
			ranked = append(ranked, inst)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Payout.GreaterThan(ranked[j].Payout)
	})

	if len(ranked) > size {
		ranked = ranked[:size]
	}
	out := make([]string, 0, len(ranked))
	for _, inst := range ranked {
		out = append(out, inst.Symbol)
	}
	return out
}
