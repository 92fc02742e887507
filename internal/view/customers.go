package view

import (
	"strings"

	"github.com/Dhoini/customer-console/internal/domain"
	"golang.org/x/text/collate"
)

// CustomerRow is a customer with its derived status
type CustomerRow struct {
	domain.Customer
	Status domain.CustomerStatus `json:"status"`
}

// CustomerSpec joins customers with the transaction collection
func CustomerSpec(transactions []domain.Transaction, opts Options) Spec[domain.Customer, CustomerRow] {
	active := domain.ActiveCustomerIDs(transactions)
	collator := collate.New(opts.Locale, collate.IgnoreCase)

	return Spec[domain.Customer, CustomerRow]{
		Join: func(c domain.Customer) CustomerRow {
			status := domain.StatusInactive
			if _, ok := active[c.ID]; ok {
				status = domain.StatusActive
			}
			return CustomerRow{Customer: c, Status: status}
		},
		SearchFields: func(r CustomerRow) []string {
			return []string{r.Name, r.Email, r.Phone}
		},
		Keep: func(r CustomerRow, state FilterState) bool {
			switch state.Status {
			case StatusActive:
				return r.Status == domain.StatusActive
			case StatusInactive:
				return r.Status == domain.StatusInactive
			default:
				return true
			}
		},
		Sorts: map[string]Compare[CustomerRow]{
			SortName: func(a, b CustomerRow) int {
				return collator.CompareString(a.Name, b.Name)
			},
			SortStatus: func(a, b CustomerRow) int {
				return strings.Compare(string(a.Status), string(b.Status))
			},
		},
	}
}

// CustomerRows derives the customer list page
func CustomerRows(customers []domain.Customer, transactions []domain.Transaction, state FilterState, opts Options) []CustomerRow {
	return Derive(customers, CustomerSpec(transactions, opts), state)
}
