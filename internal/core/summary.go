package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
}

// MonthAmount is an amount aggregated by short month label ("Jan").
type MonthAmount struct {
	Label  string `json:"month"`
	Amount Money  `json:"amount"`
}
