package view

import (
	"cmp"
	"strings"

	"github.com/Dhoini/customer-console/internal/domain"
	"golang.org/x/text/collate"
)

// Labels for references that resolve to nothing
const (
	UnknownCustomer = "Unknown User"
	UnknownPackage  = "Unknown Pkg"
)

// TransactionRow is a transaction with the names it refers to
type TransactionRow struct {
	domain.Transaction
	CustomerName string `json:"customerName"`
	PackageName  string `json:"packageName"`
}

// TransactionSpec joins transactions with customers and packages
func TransactionSpec(customers []domain.Customer, packages []domain.Package, opts Options) Spec[domain.Transaction, TransactionRow] {
	customerNames := make(map[string]string, len(customers))
	for _, c := range customers {
		customerNames[c.ID] = c.Name
	}
	packageNames := make(map[string]string, len(packages))
	for _, p := range packages {
		packageNames[p.ID] = p.Name
	}
	collator := collate.New(opts.Locale, collate.IgnoreCase)

	return Spec[domain.Transaction, TransactionRow]{
		Join: func(t domain.Transaction) TransactionRow {
			row := TransactionRow{Transaction: t, CustomerName: UnknownCustomer, PackageName: UnknownPackage}
			if name, ok := customerNames[t.CustomerID]; ok {
				row.CustomerName = name
			}
			if name, ok := packageNames[t.PackageID]; ok {
				row.PackageName = name
			}
			return row
		},
		SearchFields: func(r TransactionRow) []string {
			return []string{r.CustomerName, r.PackageName}
		},
		Keep: func(r TransactionRow, state FilterState) bool {
			if state.DatePrefix != "" && !strings.HasPrefix(r.Date, state.DatePrefix) {
				return false
			}
			if state.PackageID != "" && r.PackageID != state.PackageID {
				return false
			}
			return true
		},
		Sorts: map[string]Compare[TransactionRow]{
			SortName: func(a, b TransactionRow) int {
				return collator.CompareString(a.CustomerName, b.CustomerName)
			},
			SortPackage: func(a, b TransactionRow) int {
				return collator.CompareString(a.PackageName, b.PackageName)
			},
			SortTotal: func(a, b TransactionRow) int {
				return cmp.Compare(a.Total, b.Total)
			},
			SortDate: compareDates,
		},
	}
}

// compareDates orders chronologically; unparsable dates sort first and
// compare as text among themselves
func compareDates(a, b TransactionRow) int {
	ta, okA := a.Time()
	tb, okB := b.Time()
	switch {
	case okA && okB:
		return ta.Compare(tb)
	case okA:
		return 1
	case okB:
		return -1
	default:
		return strings.Compare(a.Date, b.Date)
	}
}

// TransactionRows derives the transaction list page
func TransactionRows(transactions []domain.Transaction, customers []domain.Customer, packages []domain.Package, state FilterState, opts Options) []TransactionRow {
	return Derive(transactions, TransactionSpec(customers, packages, opts), state)
}
