package services

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	inviteCodePrefix = "SBAR-"
	inviteCodeLength = 8

	// Excludes I, O, 0 and 1 so codes survive being spoken or handwritten.
	inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateInviteCode produces a code like SBAR-K7WNQ4XH. The 32^8 space makes
// collisions unlikely; the lifecycle manager still re-checks uniqueness
// against the store and regenerates on conflict.
func GenerateInviteCode() (string, error) {
	randomBytes := make([]byte, inviteCodeLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	b := make([]byte, inviteCodeLength)
	for i, rb := range randomBytes {
		// 256 is an exact multiple of 32, so the modulo stays uniform.
		b[i] = inviteCodeAlphabet[int(rb)%len(inviteCodeAlphabet)]
	}

	return inviteCodePrefix + string(b), nil
}

// NormalizeInviteCode prepares hand-typed input for lookup. Codes are
// generated upper-case but matched case-insensitively.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
