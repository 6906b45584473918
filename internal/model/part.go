package model

import "time"

// PartRequest is a single resolution request: a part number plus an
// optional operator-supplied manufacturer hint. The hint is untrusted;
// it biases matching and feeds the agreement score but never asserts
// the manufacturer on its own.
type PartRequest struct {
	PartNumber       string `json:"part_number"`
	ManufacturerHint string `json:"manufacturer_hint,omitempty"`
}

// Part is the persisted resolution record for a part number. A part
// number may accumulate multiple rows across uploads; lookups take the
// most recent one. Manufacturer fields are nil when the part is
// unresolved.
type Part struct {
	ID                    string        `json:"id"`
	PartNumber            string        `json:"part_number"`
	ManufacturerID        *string       `json:"manufacturer_id,omitempty"`
	ManufacturerName      *string       `json:"manufacturer_name,omitempty"`
	AliasUsed             *string       `json:"alias_used,omitempty"`
	SubmittedManufacturer *string       `json:"submitted_manufacturer,omitempty"`
	MatchStatus           *string       `json:"match_status,omitempty"`
	MatchConfidence       *float64      `json:"match_confidence,omitempty"`
	Confidence            *float64      `json:"confidence,omitempty"`
	SourceURL             *string       `json:"source_url,omitempty"`
	DebugLog              *string       `json:"debug_log,omitempty"`
	SearchStage           *string       `json:"search_stage,omitempty"`
	StageHistory          []StageStatus `json:"stage_history,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
}

// ResolutionResult is what a resolution run returns to the caller. It
// mirrors the persisted Part but carries only the fields a caller acts
// on.
type ResolutionResult struct {
	PartNumber            string        `json:"part_number"`
	ManufacturerName      *string       `json:"manufacturer_name"`
	AliasUsed             *string       `json:"alias_used,omitempty"`
	Confidence            *float64      `json:"confidence,omitempty"`
	SourceURL             *string       `json:"source_url,omitempty"`
	DebugLog              *string       `json:"debug_log,omitempty"`
	SearchStage           *string       `json:"search_stage,omitempty"`
	StageHistory          []StageStatus `json:"stage_history,omitempty"`
	SubmittedManufacturer *string       `json:"submitted_manufacturer,omitempty"`
	MatchStatus           *string       `json:"match_status,omitempty"`
	MatchConfidence       *float64      `json:"match_confidence,omitempty"`
}

// Match statuses recorded on a Part.
const (
	MatchStatusMatched  = "matched"
	MatchStatusMismatch = "mismatch"
	MatchStatusPending  = "pending"
)
