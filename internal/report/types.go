package report

import "time"

// Metrics summarizes the portfolio the report was generated from.
type Metrics struct {
	TotalValueUSDT    float64 `json:"totalValueUsdt"`
	HoldingsCount     int     `json:"holdingsCount"`
	PricedCount       int     `json:"pricedCount"`
	ConcentrationTop3 float64 `json:"concentrationTop3"`
	ConcentrationTop5 float64 `json:"concentrationTop5"`
}

// Report is one CEO AI portfolio review.
type Report struct {
	ID              string    `json:"id"`
	TS              time.Time `json:"ts"`
	Summary         string    `json:"summary"`
	Exposures       []string  `json:"exposures"`
	Risks           []string  `json:"risks"`
	Opportunities   []string  `json:"opportunities"`
	Recommendations []string  `json:"recommendations"`
	Watchlist       []string  `json:"watchlist"`
	Metrics         Metrics   `json:"metrics"`
}
