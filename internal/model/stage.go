package model

// Pipeline stage identifiers, in execution order. StageCache is the
// synthetic stage reported when a prior resolution is reused.
const (
	StageCache    = "cache"
	StageInternet = "Internet"
	StageGoogle   = "googlesearch"
	StageOpenAI   = "OpenAI"
)

// Per-stage outcome statuses.
const (
	StageSuccess       = "success"
	StageLowConfidence = "low-confidence"
	StageNoResults     = "no-results"
	StageSkipped       = "skipped"
)

// StageStatus records the outcome of one pipeline stage for a single
// resolution run. The sequence of StageStatus values is the audit
// trail persisted on the Part.
type StageStatus struct {
	Name           string   `json:"name"`
	Status         string   `json:"status"`
	Provider       string   `json:"provider,omitempty"`
	Confidence     *float64 `json:"confidence,omitempty"`
	URLsConsidered int      `json:"urls_considered"`
	Message        string   `json:"message,omitempty"`
}

// Candidate is an ephemeral scored manufacturer guess produced by one
// stage. Only the winning candidate survives onto the Part.
type Candidate struct {
	Manufacturer string
	AliasUsed    string
	Confidence   float64
	SourceURL    string
	DebugLog     string
	Stage        string
}
