package domain

// Customer is a subscriber managed from the console
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// RecordID implements Record
func (c Customer) RecordID() string { return c.ID }

// Field names used by forms and validation error sets
const (
	FieldName  = "name"
	FieldPhone = "phone"
	FieldEmail = "email"
)

// CustomerFields lists the editable customer fields in display order
var CustomerFields = []string{FieldName, FieldEmail, FieldPhone}

// WithField returns a copy of c with the named field set to value.
// Unknown fields leave the copy unchanged.
func (c Customer) WithField(field, value string) Customer {
	switch field {
	case FieldName:
		c.Name = value
	case FieldPhone:
		c.Phone = value
	case FieldEmail:
		c.Email = value
	}
	return c
}

// Field returns the value of the named field
func (c Customer) Field(field string) string {
	switch field {
	case FieldName:
		return c.Name
	case FieldPhone:
		return c.Phone
	case FieldEmail:
		return c.Email
	default:
		return ""
	}
}

// CustomerStatus is derived from the transaction collection, never stored
type CustomerStatus string

const (
	StatusActive   CustomerStatus = "Active"
	StatusInactive CustomerStatus = "Inactive"
)

// StatusOf reports Active iff at least one transaction references customerID
func StatusOf(customerID string, transactions []Transaction) CustomerStatus {
	for _, trx := range transactions {
		if trx.CustomerID == customerID {
			return StatusActive
		}
	}
	return StatusInactive
}

// ActiveCustomerIDs returns the set of customer ids referenced by transactions
func ActiveCustomerIDs(transactions []Transaction) map[string]struct{} {
	ids := make(map[string]struct{}, len(transactions))
	for _, trx := range transactions {
		ids[trx.CustomerID] = struct{}{}
	}
	return ids
}
