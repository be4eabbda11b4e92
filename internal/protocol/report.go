package protocol

import "hearthstead.gg/internal/sim/econ"

// TickReportFromRecord renders a tick record as the wire/report message.
func TickReportFromRecord(rec econ.TickRecord) TickReportMsg {
	return TickReportMsg{
		Type:             TypeTickReport,
		ProtocolVersion:  Version,
		Tick:             rec.Tick,
		Morale:           rec.Morale.TownMorale,
		MoraleLabel:      rec.Morale.Label,
		MoraleMultiplier: rec.Morale.ProductionMultiplier,
		Stock:            rec.Stock.Map(),
		Capacity:         rec.Capacity,
		Alive:            rec.Alive,
		Working:          rec.Working,
		AvgHappiness:     rec.AvgHappiness,
		Produced:         rec.Produced.Map(),
		Consumed:         rec.Consumed,
		Shortfall:        rec.Shortfall,
		Deaths:           rec.Deaths,
		Overflow:         rec.Overflow,
		Overage:          rec.Overage,
		Digest:           rec.Digest,
	}
}

// SummaryFromRun renders a finished run's summary message.
func SummaryFromRun(sum econ.Summary) SummaryMsg {
	return SummaryMsg{
		Type:            TypeSummary,
		ProtocolVersion: Version,
		State:           sum.State,
		Ticks:           sum.Ticks,
		Survivors:       sum.Survivors,
		Deaths:          sum.Deaths,
		Stock:           sum.FinalStock,
	}
}
