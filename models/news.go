package models

// Article is a single news item attached to a holding.
type Article struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Publisher   string `json:"publisher"`
	PublishDate string `json:"publish_date"` // YYYY-MM-DD
	Summary     string `json:"summary"`
}

// NewsBundle groups the retained articles of one holding.
type NewsBundle struct {
	Ticker   string    `json:"ticker"` // display name of the holding
	Articles []Article `json:"articles"`
}
