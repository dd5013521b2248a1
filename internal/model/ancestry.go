package model

// Verdict is the outcome of one ancestry check.
type Verdict int

const (
	// NotDerived means the ancestor is definitely not in the chain.
	NotDerived Verdict = iota
	// Derived means the ancestor was found.
	Derived
	// Undetermined means the chain could not be computed.
	Undetermined
)

func (v Verdict) String() string {
	switch v {
	case Derived:
		return "derived"
	case NotDerived:
		return "not-derived"
	case Undetermined:
		return "undetermined"
	default:
		return "unknown"
	}
}

// AncestryResult holds the verdict for a single candidate class.
type AncestryResult struct {
	Class   ClassName
	Verdict Verdict
	Err     error // set when Verdict is Undetermined
}
