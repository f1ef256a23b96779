// Package ownership holds the predicates deciding whether an input may claim
// an output. The ledger treats both the locking condition and the unlocking
// proof as opaque bytes and only asks a Checker for a verdict.
package ownership

import (
	"crypto/subtle"

	"golang.org/x/crypto/blake2b"
)

// Checker decides whether unlockingProof satisfies lockingCondition.
type Checker interface {
	CheckOwnership(lockingCondition, unlockingProof []byte) bool
}

// CheckerFunc adapts an ordinary function to a Checker.
type CheckerFunc func(lockingCondition, unlockingProof []byte) bool

// CheckOwnership calls f.
func (f CheckerFunc) CheckOwnership(lockingCondition, unlockingProof []byte) bool {
	return f(lockingCondition, unlockingProof)
}

type anyoneCanSpend struct{}

// AnyoneCanSpend accepts every claim.
var AnyoneCanSpend Checker = anyoneCanSpend{}

func (anyoneCanSpend) CheckOwnership(_, _ []byte) bool {
	return true
}

// Condition tags understood by Standard.
const (
	// TagHashLock marks a condition of TagHashLock ‖ blake2b-256(secret).
	// The matching proof is the secret itself.
	TagHashLock byte = 0x01
)

const hashLockConditionLength = 1 + blake2b.Size256

// NewHashLockCondition returns the locking condition spendable by whoever
// reveals secret.
func NewHashLockCondition(secret []byte) []byte {
	digest := blake2b.Sum256(secret)
	return append([]byte{TagHashLock}, digest[:]...)
}

type standard struct{}

// Standard is the default predicate:
//   - an empty locking condition can be claimed by anyone;
//   - a hash lock condition requires the blake2b-256 preimage as proof;
//   - anything else is unspendable.
var Standard Checker = standard{}

func (standard) CheckOwnership(lockingCondition, unlockingProof []byte) bool {
	if len(lockingCondition) == 0 {
		return true
	}
	switch lockingCondition[0] {
	case TagHashLock:
		if len(lockingCondition) != hashLockConditionLength {
			return false
		}
		digest := blake2b.Sum256(unlockingProof)
		return subtle.ConstantTimeCompare(lockingCondition[1:], digest[:]) == 1
	default:
		return false
	}
}

// IsUnspendable returns whether no proof can ever satisfy lockingCondition
// under Standard.
func IsUnspendable(lockingCondition []byte) bool {
	if len(lockingCondition) == 0 {
		return false
	}
	return !(lockingCondition[0] == TagHashLock && len(lockingCondition) == hashLockConditionLength)
}
