package index

func artifact(title, priorsJSON string) string {
	return "# " + title + "\n\n## Context\n\nNarrative.\n\n## Priors (Machine)\n\nLast updated: 2026-02-13 12:00 UTC\n\n```json\n" +
		priorsJSON + "\n```\n"
}

var (
	forecastDoc = artifact("Forecast", `[
  {"id": "target.orders", "type": "target", "statement": "Orders target for 90 days is 100", "confidence": 0.6, "value": 100, "unit": "orders", "last_updated": "2026-02-13T12:00:00Z", "evidence": ["Market sizing"]},
  {"id": "constraint.cac", "type": "constraint", "statement": "CAC must be <=EUR 15", "confidence": 0.7, "value": 15, "unit": "EUR", "operator": "lte", "last_updated": "2026-02-13T12:00:00Z", "evidence": ["Contribution analysis"]}
]`)

	offerDoc = artifact("Offer", `[
  {"id": "assumption.booking_flow", "type": "assumption", "statement": "Booking flow converts at 5%", "confidence": 0.5, "last_updated": "2026-02-13T12:00:00Z", "evidence": ["Benchmark"]}
]`)

	channelsDoc = artifact("Channels", `[
  {"id": "target.orders", "type": "target", "statement": "Paid channel orders target is 40", "confidence": 0.4, "value": 40, "unit": "orders", "last_updated": "2026-02-13T12:00:00Z", "evidence": ["Channel plan"]}
]`)
)

func fixtureReader() MapReader {
	return MapReader{
		"/biz/forecast.md": forecastDoc,
		"/biz/offer.md":    offerDoc,
		"/biz/channels.md": channelsDoc,
	}
}
