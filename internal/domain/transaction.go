package domain

import "time"

// Transaction records a package purchase by a customer
type Transaction struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`
	PackageID  string `json:"packageId"`
	Date       string `json:"date"` // ISO-8601 timestamp
	Total      int64  `json:"total"`
}

// RecordID implements Record
func (t Transaction) RecordID() string { return t.ID }

// DateLayout is the timestamp layout written into Transaction.Date
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// NewTransaction builds the transaction for buying pkg on behalf of customer.
// The total is the package price at the moment of purchase.
func NewTransaction(id string, customer Customer, pkg Package, at time.Time) Transaction {
	return Transaction{
		ID:         id,
		CustomerID: customer.ID,
		PackageID:  pkg.ID,
		Date:       at.UTC().Format(DateLayout),
		Total:      pkg.Price,
	}
}

// Time parses Date. Zero time and false are returned for unparsable values.
func (t Transaction) Time() (time.Time, bool) {
	ts, err := time.Parse(time.RFC3339Nano, t.Date)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
