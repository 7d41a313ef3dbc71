package models

// DefaultListLimit is the bounded default applied when a caller supplies
// Offset without Limit, per the resolved paging Open Question (§9): "LIMIT
// -1 versus a bounded default... the spec chooses a bounded default
// (10000)." Store implementations should prefer the configured
// StorageConfig.DefaultListLimit, falling back to this constant when no
// configuration is wired (e.g. in unit tests).
const DefaultListLimit = 10000

// ListOptions bounds and filters a listing call, generalizing the
// teacher's ListOptions/JobListOptions pattern to every entity family.
type ListOptions struct {
	Status string
	Limit  int
	Offset int
}

// EffectiveLimit returns the limit to apply to a query, substituting the
// bounded default when Offset is set without an explicit Limit.
func (o ListOptions) EffectiveLimit(boundedDefault int) int {
	if o.Limit > 0 {
		return o.Limit
	}
	if o.Offset > 0 {
		if boundedDefault > 0 {
			return boundedDefault
		}
		return DefaultListLimit
	}
	return 0 // 0 means "no limit clause"
}
