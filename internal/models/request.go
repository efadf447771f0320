package models

// PageQuery bounds list endpoints. A zero limit selects the server default.
type PageQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

type ListingQuery struct {
	Document bool `form:"document"`
}
