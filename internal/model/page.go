package model

// RawCustomer is a customer record exactly as the API returned it.
type RawCustomer = map[string]any

// PageQuery describes one page request against the customer API.
type PageQuery struct {
	PageNo   int
	PageSize int
	Search   string
	SortBy   string
	FilterBy string
}

// PageResponse is the API envelope: { success, data: { customers, count } }
type PageResponse struct {
	Success bool      `json:"success"`
	Data    *PageData `json:"data"`
}

// Customers stays untyped so one malformed element cannot fail the whole page.
type PageData struct {
	Customers []any `json:"customers"`
	Count     int   `json:"count"`
}
