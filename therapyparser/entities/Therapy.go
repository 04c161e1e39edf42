package entities

// Therapy is one entry of the therapies dictionary.
// ID is nil when the number column has no leading digits and is encoded as null.
type Therapy struct {
	ID                  *int   `json:"id"`
	Name                string `json:"name"`
	ShortDescription    string `json:"shortDescription"`
	Definition          string `json:"definition"`
	Rationale           string `json:"rationale"`
	WhatItTreats        string `json:"whatItTreats"`
	RecommendedAudience string `json:"recommendedAudience"`
	Contraindications   string `json:"contraindications"`
	SessionDescription  string `json:"sessionDescription"`
	ComplementaryWith   string `json:"complementaryWith"`
	SourceRow           int    `json:"-"` // 1-based row in the input file
}

// IDValue returns the id and whether it is present
func (t Therapy) IDValue() (int, bool) {
	if t.ID == nil {
		return 0, false
	}
	return *t.ID, true
}
