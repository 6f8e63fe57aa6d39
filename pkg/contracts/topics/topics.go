package topics

const (
	// Bets
	BetPlaced = "bet_placed"

	// Matches
	MatchResult = "match_result"

	// Settlement
	PoolSettled = "pool_settled"

	// DLQs
	MatchResultDLQ = "match_result_dlq"
)
