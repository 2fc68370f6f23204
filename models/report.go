package models

// SavingsUnavailable is reported as SavingsPercent when the raw estimate is zero.
const SavingsUnavailable = -1.0

// TokenReport is the advisory before/after estimate of one invocation. Never persisted
// as pipeline state; recomputed per run.
type TokenReport struct {
	RawTokens      int      `json:"raw_tokens" yaml:"raw_tokens"`
	FilteredTokens int      `json:"filtered_tokens" yaml:"filtered_tokens"`
	SavingsPercent float64  `json:"savings_percent" yaml:"savings_percent"`
	RawBytes       int      `json:"raw_bytes" yaml:"raw_bytes"`
	FilteredBytes  int      `json:"filtered_bytes" yaml:"filtered_bytes"`
	Language       string   `json:"language,omitempty" yaml:"language,omitempty"`
	TopTerms       []string `json:"top_terms,omitempty" yaml:"top_terms,omitempty"`
}

// HasSavings reports whether SavingsPercent carries a real value.
func (r TokenReport) HasSavings() bool {
	return r.RawTokens > 0
}
