package game

// NextIncrement returns the minimum raise allowed over the current bid.
func NextIncrement(bid int) int {
	switch {
	case bid < 100:
		return 5
	case bid < 200:
		return 10
	case bid < 500:
		return 20
	default:
		return 25
	}
}

// NextBid is the amount a BID action commits to when the standing bid is bid.
func NextBid(bid int) int {
	return bid + NextIncrement(bid)
}
