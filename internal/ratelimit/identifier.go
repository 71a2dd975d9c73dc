package ratelimit

const keyPrefix = "teetimes:ratelimit:"

// CreateIdentifier builds the counter key for a client address and path.
func CreateIdentifier(ip, path string) string {
	return keyPrefix + ip + ":" + path
}
