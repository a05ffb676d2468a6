package branchbus

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// branchCodeAlphabet leaves out characters that are easy to misread.
const branchCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// BranchCodeLength is the length of the code students type to join.
const BranchCodeLength = 6

func newInviteCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func newBranchCode() (string, error) {
	buf := make([]byte, BranchCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}

	for i, b := range buf {
		buf[i] = branchCodeAlphabet[int(b)%len(branchCodeAlphabet)]
	}

	return string(buf), nil
}

// suffixed returns the candidate itself for n == 0 and candidate-n otherwise.
func suffixed(candidate string, n int) string {
	if n == 0 {
		return candidate
	}
	return fmt.Sprintf("%s-%d", candidate, n)
}
