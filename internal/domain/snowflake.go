package domain

// ValidSnowflake checks the shape of a platform-issued identifier: a
// non-empty string of 15-21 digits. Shape only; authenticity is the
// platform's problem.
func ValidSnowflake(id string) bool {
	if len(id) < 15 || len(id) > 21 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}
