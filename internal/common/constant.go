package common

const (
	// KeyDerivationRounds is the number of extra hash rounds applied on top
	// of the first hash for each of the two password-derived secrets.
	KeyDerivationRounds = 2048

	// MinPasswordLength is the shortest password accepted on setup or change.
	MinPasswordLength = 8

	// RequestIDHeaderName carries the relay request id on HTTP responses.
	RequestIDHeaderName = "X-Request-Id"
)
