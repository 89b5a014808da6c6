package domain

// JobRecord is one parsed posting from the source table.
type JobRecord struct {
	Company        string `json:"company"`
	Role           string `json:"role"`
	Location       string `json:"location"`
	ApplicationRef string `json:"application"` // raw cell, may wrap a link
	AgeToken       string `json:"age"`          // "3d", "12h", "2mo"
	AgeInDays      int    `json:"ageInDays"`
}

// JobIdentity is the dedup key of a posting. Reposts with a new age or link
// keep the same identity.
type JobIdentity string
