package ingest

// Authorize checks a presented shared token against the configured one.
// Either the header token or the query token may match. An empty expected
// token locks the gateway: every request fails.
func Authorize(headerToken, queryToken, expected string) error {
	if expected == "" {
		return ErrUnauthorized
	}
	if headerToken == expected || queryToken == expected {
		return nil
	}
	return ErrUnauthorized
}
