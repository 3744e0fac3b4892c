package dataprocessing

import (
	"sort"

	"polyseg/internal/segmentation"
)

// maxExcessExamples caps the number of example wallets retained
const maxExcessExamples = 10

// PanelStats accumulates quality statistics over daily panels: how
// often the implied probability goes negative and how often it is
// undefined (flat book). Stats from independent markets merge through
// an order-independent reduction.
type PanelStats struct {
	Panels              int
	Rows                int
	NegativeP           int
	UndefinedP          int
	NegativeBySegment   map[segmentation.Segment]int
	MarketsWithNegative map[string]struct{}
}

// NewPanelStats returns an empty accumulator
func NewPanelStats() PanelStats {
	return PanelStats{
		NegativeBySegment:   make(map[segmentation.Segment]int),
		MarketsWithNegative: make(map[string]struct{}),
	}
}

// Observe folds one daily panel into the accumulator
func (s *PanelStats) Observe(rows []segmentation.PanelRow) {
	if len(rows) == 0 {
		return
	}
	s.Panels++
	hadNegative := false
	for _, row := range rows {
		s.Rows++
		switch {
		case !row.P.Valid:
			s.UndefinedP++
		case row.P.Float64 < 0:
			s.NegativeP++
			hadNegative = true
		}
	}
	if hadNegative {
		// A daily panel holds exactly one (market, segment) pair, so
		// the first row identifies the whole panel.
		first := rows[0]
		s.NegativeBySegment[first.Segment]++
		s.MarketsWithNegative[first.MarketID] = struct{}{}
	}
}

// Merge folds another accumulator into this one. The operation is
// commutative so per-market stats can be reduced in any order.
func (s *PanelStats) Merge(other PanelStats) {
	s.Panels += other.Panels
	s.Rows += other.Rows
	s.NegativeP += other.NegativeP
	s.UndefinedP += other.UndefinedP
	for segment, count := range other.NegativeBySegment {
		s.NegativeBySegment[segment] += count
	}
	for market := range other.MarketsWithNegative {
		s.MarketsWithNegative[market] = struct{}{}
	}
}

// WalletPosition records one wallet whose cumulative sells exceed its
// cumulative buys within a market.
type WalletPosition struct {
	MarketID string
	Wallet   string
	Buys     float64
	Sells    float64
	Excess   float64
}

// WalletStats accumulates per-wallet position checks across markets
type WalletStats struct {
	Markets       int
	Wallets       int
	ExcessSellers int
	ExcessVolume  float64
	Examples      []WalletPosition
}

// AnalyzeWalletPositions checks whether any wallet in a market sold
// more than it bought, which indicates positions opened outside the
// observed window. Trades without a wallet identifier are ignored.
func AnalyzeWalletPositions(trades []segmentation.Trade) WalletStats {
	stats := WalletStats{}
	if len(trades) == 0 {
		return stats
	}
	stats.Markets = 1

	type position struct{ buys, sells float64 }
	positions := make(map[string]*position)
	for _, trade := range trades {
		if trade.Wallet == "" {
			continue
		}
		pos, ok := positions[trade.Wallet]
		if !ok {
			pos = &position{}
			positions[trade.Wallet] = pos
		}
		if trade.Side == segmentation.SideBuy {
			pos.buys += trade.Size
		} else {
			pos.sells += trade.Size
		}
	}

	wallets := make([]string, 0, len(positions))
	for wallet := range positions {
		wallets = append(wallets, wallet)
	}
	sort.Strings(wallets)

	marketID := trades[0].MarketID
	stats.Wallets = len(wallets)
	for _, wallet := range wallets {
		pos := positions[wallet]
		if pos.sells <= pos.buys {
			continue
		}
		excess := pos.sells - pos.buys
		stats.ExcessSellers++
		stats.ExcessVolume += excess
		if len(stats.Examples) < maxExcessExamples {
			stats.Examples = append(stats.Examples, WalletPosition{
				MarketID: marketID,
				Wallet:   wallet,
				Buys:     pos.buys,
				Sells:    pos.sells,
				Excess:   excess,
			})
		}
	}
	return stats
}

// Merge folds another accumulator into this one, keeping at most
// maxExcessExamples examples.
func (s *WalletStats) Merge(other WalletStats) {
	s.Markets += other.Markets
	s.Wallets += other.Wallets
	s.ExcessSellers += other.ExcessSellers
	s.ExcessVolume += other.ExcessVolume
	for _, example := range other.Examples {
		if len(s.Examples) >= maxExcessExamples {
			break
		}
		s.Examples = append(s.Examples, example)
	}
}
