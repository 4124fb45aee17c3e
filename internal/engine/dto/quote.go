package dto

// Quote is one rendered catalog entry for the popular-quotes listing.
// Price is "N/A" and Change "0.0%" when the symbol was unavailable.
type Quote struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name"`
	Price       string `json:"price"`
	Change      string `json:"change"`
}

// SyncTask is the payload published to the catalog sync stream.
type SyncTask struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}
