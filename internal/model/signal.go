package model

// Action is the outcome of a decision.
type Action string

const (
	ActionHold Action = "HOLD"
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Decision is the final output of the strategy engine for one cycle.
type Decision struct {
	Action    Action
	Reason    string
	EarlyExit bool // set when the fast-rise override produced the sell
}
