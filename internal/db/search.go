package db

// ListQuery is the input for a paginated, optionally sorted FT.SEARCH.
type ListQuery struct {
	IndexName    string
	Query        string
	SortBy       string // field name; empty = store order
	SortDesc     bool
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
