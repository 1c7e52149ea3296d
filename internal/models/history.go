package models

// UnsoldWinnerID marks a history entry whose item found no buyer.
const UnsoldWinnerID = "UNSOLD"

// HistoryEntry records the outcome of one auctioned item. Entries are never modified once appended.
type HistoryEntry struct {
	Item        *Cricketer `json:"item"`
	WinningBid  int        `json:"winningBid"`
	WinnerID    string     `json:"winnerId"`
	SubPool     string     `json:"subPool"`
	SecondRound bool       `json:"secondRound"`
}

// Sold reports whether the entry represents a completed sale.
func (h HistoryEntry) Sold() bool {
	return h.WinnerID != UnsoldWinnerID
}
