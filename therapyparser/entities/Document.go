package entities

// Metadata describes where a generated dictionary comes from
type Metadata struct {
	TotalCount int    `json:"totalCount"`
	Source     string `json:"source"`
	Format     string `json:"format"`
}

// Document is the wrapped output: metadata first, then the records in source order
type Document struct {
	Metadata Metadata  `json:"metadata"`
	Records  []Therapy `json:"records"`
}
