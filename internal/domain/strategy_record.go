package domain

// StrategyRecord is a stored strategy document. The document body is
// kept verbatim (YAML or JSON) and re-validated on load, so the
// configuration boundary stays the single source of parsing truth.
// Corresponds to the strategies table.
type StrategyRecord struct {
	Name        string
	Description string
	Format      string // "yaml" or "json"
	Document    string
	CreatedAtMs int64
}
