package dto

type RunFilters struct {
	Type  string
	Limit int
}
