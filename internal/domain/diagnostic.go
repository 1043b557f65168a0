package domain

// Pipeline stages that emit diagnostics
const (
	StageExtract    = "extract"
	StageNormalize  = "normalize"
	StageMatch      = "match"
	StageDeals      = "deals"
	StageComparison = "comparison"
)

// Diagnostic levels
const (
	LevelInfo = "info"
	LevelWarn = "warn"
)

// Diagnostic codes
const (
	CodeMissingName        = "missing_name"
	CodeInvalidPrice       = "invalid_price"
	CodeUnderweight        = "underweight"
	CodeGroupNotComparable = "group_not_comparable"
	CodeGroupUnpriced      = "group_unpriced"
	CodeOverlappingMatch   = "overlapping_match"
	CodePlatformFailed     = "platform_failed"
)

// Diagnostic is a structured event describing a non-fatal decision a stage made,
// such as dropping a record or excluding a group
type Diagnostic struct {
	Stage    string   `json:"stage"`
	Level    string   `json:"level"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Platform Platform `json:"platform,omitempty"`
	Subject  string   `json:"subject,omitempty"`
}

// CountByCode tallies diagnostics per code
func CountByCode(diags []Diagnostic) map[string]int {
	counts := make(map[string]int)
	for _, d := range diags {
		counts[d.Code]++
	}
	return counts
}
