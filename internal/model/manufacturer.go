package model

import "time"

// Manufacturer is a canonical manufacturer entity. Rows are created
// lazily the first time a resolution lands on a new canonical name.
type Manufacturer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ManufacturerAlias is an alternate spelling or translation of a
// manufacturer name, remembered for future matching. Aliases are
// unique per manufacturer case-insensitively.
type ManufacturerAlias struct {
	ID             string    `json:"id"`
	ManufacturerID string    `json:"manufacturer_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
}
