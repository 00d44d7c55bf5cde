package headers

// Policy decides how values of a single header name are kept and serialized.
type Policy struct {
	// Multiple allows more than one value per name. Otherwise only the first one is
	// retained on read and emitted on write, and the values aren't split by commas.
	Multiple bool
	// MultiLine serializes every value on its own line. Otherwise values are joined
	// by commas into a single line.
	MultiLine bool
	// Split divides inbound values of a Multiple name by commas.
	Split bool
}

var (
	// Default is applied to every name without an explicit entry.
	Default = Policy{Multiple: true, MultiLine: true, Split: true}
	// Single keeps exactly one value on a single line.
	Single = Policy{}
	// Lines keeps every value on its own line and never splits them, for names whose
	// values may contain commas, like set-cookie.
	Lines = Policy{Multiple: true, MultiLine: true}
)

// Policies is an immutable name-to-policy lookup table. It is safe for concurrent use.
type Policies struct {
	table map[string]Policy
}

// DefaultPolicies returns the built-in table. Besides content-length and content-type,
// date-bearing and agent headers are single-valued, because their values legitimately
// contain commas. For the same reason set-cookie values are never split.
func DefaultPolicies() Policies {
	return NewPolicies(nil)
}

// NewPolicies returns the built-in table extended (or overridden) by the passed entries.
// Names are normalized.
func NewPolicies(overrides map[string]Policy) Policies {
	table := map[string]Policy{
		"content-length":      Single,
		"content-type":        Single,
		"date":                Single,
		"expires":             Single,
		"last-modified":       Single,
		"if-modified-since":   Single,
		"if-unmodified-since": Single,
		"user-agent":          Single,
		"server":              Single,
		"set-cookie":          Lines,
	}

	for name, policy := range overrides {
		table[NormalizeName(name)] = policy
	}

	return Policies{table: table}
}

// Lookup returns the policy of an already normalized name.
func (p Policies) Lookup(name string) Policy {
	if policy, found := p.table[name]; found {
		return policy
	}

	return Default
}
