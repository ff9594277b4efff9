package models

// Decision is the outcome of evaluating an authorization: allowed, denied
// or still undecided (ask the user).
type Decision int8

const (
	DecisionUndecided Decision = iota
	DecisionAllow
	DecisionDeny
)

// DecisionOf converts an optional boolean into a Decision.
func DecisionOf(value bool, ok bool) Decision {
	if !ok {
		return DecisionUndecided
	}
	if value {
		return DecisionAllow
	}
	return DecisionDeny
}

// IsDecided reports whether d is allow or deny.
func (d Decision) IsDecided() bool {
	return d == DecisionAllow || d == DecisionDeny
}

// Bool returns the boolean form of a decided value.
func (d Decision) Bool() (value bool, ok bool) {
	switch d {
	case DecisionAllow:
		return true, true
	case DecisionDeny:
		return false, true
	}
	return false, false
}

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionDeny:
		return "deny"
	}
	return "undecided"
}
