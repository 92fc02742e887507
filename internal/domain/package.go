package domain

// Package is a purchasable service offering. Read-only for the console.
type Package struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"` // smallest currency unit
}

// RecordID implements Record
func (p Package) RecordID() string { return p.ID }
