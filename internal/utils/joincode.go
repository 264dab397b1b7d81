package utils

import (
	"fmt"
	"math/rand"
)

// JoinCodeLength is the number of digits in a session join code.
const JoinCodeLength = 6

// GenerateCandidateCode draws a random 6-digit join code (100000-999999).
// Uniqueness among non-completed sessions is enforced by the caller's
// check-and-retry loop against the session store, not here, so the
// generator carries no shared state.
func GenerateCandidateCode() string {
	return fmt.Sprintf("%06d", 100000+rand.Intn(900000))
}

// IsValidJoinCode reports whether s has the shape of a join code.
func IsValidJoinCode(s string) bool {
	if len(s) != JoinCodeLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s[0] != '0'
}
