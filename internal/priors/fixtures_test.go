package priors

const forecastArtifact = "---\n" +
	"Type: Startup-Baseline-Seed\n" +
	"Status: Draft\n" +
	"Business: ACME\n" +
	"Artifact-Scope: forecast\n" +
	"Created: 2026-02-13\n" +
	"---\n" +
	"\n" +
	"# ACME Forecast Seed\n" +
	"\n" +
	"## Business Context\n" +
	"\n" +
	"Forecast narrative content.\n" +
	"\n" +
	"## Priors (Machine)\n" +
	"\n" +
	"Last updated: 2026-02-13 12:00 UTC\n" +
	"\n" +
	"```json\n" +
	"[\n" +
	"  {\n" +
	"    \"id\": \"target.orders\",\n" +
	"    \"type\": \"target\",\n" +
	"    \"statement\": \"Orders target for 90 days is 100\",\n" +
	"    \"confidence\": 0.6,\n" +
	"    \"value\": 100,\n" +
	"    \"unit\": \"orders\",\n" +
	"    \"last_updated\": \"2026-02-13T12:00:00Z\",\n" +
	"    \"evidence\": [\"Market sizing\"]\n" +
	"  },\n" +
	"  {\n" +
	"    \"id\": \"constraint.cac\",\n" +
	"    \"type\": \"constraint\",\n" +
	"    \"statement\": \"CAC must be <=EUR 15\",\n" +
	"    \"confidence\": 0.7,\n" +
	"    \"value\": 15,\n" +
	"    \"unit\": \"EUR\",\n" +
	"    \"operator\": \"lte\",\n" +
	"    \"last_updated\": \"2026-02-13T12:00:00Z\",\n" +
	"    \"evidence\": [\"Contribution analysis\"]\n" +
	"  }\n" +
	"]\n" +
	"```\n" +
	"\n" +
	"## Other Context\n" +
	"\n" +
	"More narrative.\n"

const emptyArrayArtifact = "# Empty\n\n## Priors (Machine)\n\nLast updated: 2026-02-13 12:00 UTC\n\n```json\n[]\n```\n"
