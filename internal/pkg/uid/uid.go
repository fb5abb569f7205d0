// Package uid generates the identifiers used across the service.
//
//   - UUID (v7) for correlation and token IDs.
//   - Snowflake for numeric row IDs (audit entries, admins).
//   - Alnum for credential IDs whose leading characters are a public
//     resolution prefix, so they must be uniformly random.
package uid

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}

// NumberID generates numeric identifiers.
type NumberID interface {
	Generate() int64
}
