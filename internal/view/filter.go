// Package view derives the rows shown by list pages from collection
// snapshots. Every function here is pure: the same snapshots and
// FilterState always give the same rows in the same order.
package view

import (
	"strings"

	"golang.org/x/text/language"
)

// Direction orders a sort
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// StatusFilter restricts customers by derived status
type StatusFilter string

const (
	StatusAll      StatusFilter = "all"
	StatusActive   StatusFilter = "active"
	StatusInactive StatusFilter = "inactive"
)

// Sort keys
const (
	SortNone    = ""
	SortName    = "name"
	SortStatus  = "status"
	SortPackage = "package"
	SortTotal   = "total"
	SortDate    = "date"
)

// FilterState is what a list page asks for
type FilterState struct {
	Search        string       `json:"search"`
	Status        StatusFilter `json:"status"`
	SortKey       string       `json:"sortKey"`
	SortDirection Direction    `json:"sortDirection"`
	DatePrefix    string       `json:"datePrefix,omitempty"` // e.g. "2024-05"
	PackageID     string       `json:"packageId,omitempty"`
	Page          int          `json:"page"`
	PageSize      int          `json:"pageSize"`
}

// DefaultCustomerFilter lists every customer in collection order
func DefaultCustomerFilter() FilterState {
	return FilterState{Status: StatusAll, SortDirection: Asc, Page: 1}
}

// DefaultTransactionFilter lists transactions newest first
func DefaultTransactionFilter() FilterState {
	return FilterState{Status: StatusAll, SortKey: SortDate, SortDirection: Desc, Page: 1}
}

// Options carries the presentation settings shared by every page
type Options struct {
	Locale language.Tag
}

// DefaultOptions sorts with English collation
func DefaultOptions() Options {
	return Options{Locale: language.English}
}

// ParseLocale returns the language tag for a BCP 47 string, English when
// the string does not parse
func ParseLocale(s string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return language.English
	}
	return tag
}
