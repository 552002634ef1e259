package resolver

import "strconv"

// The resolve functions below are the pure core of the compatibility
// backfill: given the primary column and a legacy metadata lookup, they
// decide the attribute value and whether it must be materialized into
// the column. Persistence and caching stay with the caller, so every
// accessor shares one null-check-then-backfill implementation.

// ResolveInt resolves an integer attribute. legacy returns the raw
// metadata value, or nil when no legacy row exists; def applies when
// both the column and the legacy row are absent. needsPersist is true
// whenever the column was unset.
func ResolveInt(column *int, legacy func() (*string, error), def int) (val int, needsPersist bool, err error) {
	if column != nil {
		return *column, false, nil
	}
	raw, err := legacy()
	if err != nil {
		return 0, false, err
	}
	if raw == nil {
		return def, true, nil
	}
	n, convErr := strconv.Atoi(*raw)
	if convErr != nil {
		// Unparseable legacy rows fall back to the default rather than
		// poisoning every read.
		return def, true, nil
	}
	return n, true, nil
}

// ResolveString resolves a string attribute with the same contract as
// ResolveInt.
func ResolveString(column *string, legacy func() (*string, error), def string) (val string, needsPersist bool, err error) {
	if column != nil {
		return *column, false, nil
	}
	raw, err := legacy()
	if err != nil {
		return "", false, err
	}
	if raw == nil {
		return def, true, nil
	}
	return *raw, true, nil
}
