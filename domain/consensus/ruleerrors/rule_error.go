package ruleerrors

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/consensushashing"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrInvalidProofOfWork indicates that the block hash is above the
	// target claimed by the block's own bits.
	ErrInvalidProofOfWork = newRuleError("ErrInvalidProofOfWork")

	// ErrBadMerkleRoot indicates the calculated merkle root does not match
	// the expected value.
	ErrBadMerkleRoot = newRuleError("ErrBadMerkleRoot")

	// ErrBadTimestamp indicates that the block timestamp is out of the
	// accepted bounds.
	ErrBadTimestamp = newRuleError("ErrBadTimestamp")

	// ErrMalformedTransaction indicates a structurally invalid transaction
	// or transaction list. The specific reasons below wrap it.
	ErrMalformedTransaction = newRuleError("ErrMalformedTransaction")

	// ErrDuplicateTransaction indicates a block contains an identical
	// transaction (or at least two transactions which hash to the same
	// value). A properly formed block must not contain duplicate
	// transactions.
	ErrDuplicateTransaction = newRuleError("ErrDuplicateTransaction")

	// ErrUnknownOutpoint indicates a transaction output referenced by an
	// input either does not exist or has already been spent.
	ErrUnknownOutpoint = newRuleError("ErrUnknownOutpoint")

	// ErrIntraBlockDoubleSpend indicates that two transactions of the same
	// block spend the same outpoint.
	ErrIntraBlockDoubleSpend = newRuleError("ErrIntraBlockDoubleSpend")

	// ErrOwnershipCheckFailed indicates that an unlocking proof does not
	// satisfy the locking condition of the output it claims.
	ErrOwnershipCheckFailed = newRuleError("ErrOwnershipCheckFailed")

	// ErrValueConservationViolation indicates that a transaction spends
	// more than its inputs provide.
	ErrValueConservationViolation = newRuleError("ErrValueConservationViolation")

	// ErrCoinbaseOverspend indicates that the coinbase pays more than the
	// subsidy plus the fees of the block.
	ErrCoinbaseOverspend = newRuleError("ErrCoinbaseOverspend")

	// ErrBadDifficultyTarget indicates specified bits do not align with
	// the expected value either because it doesn't match the calculated
	// value, or because it is out of the valid range.
	ErrBadDifficultyTarget = newRuleError("ErrBadDifficultyTarget")

	// ErrWrongPreviousHash indicates that the block does not extend the
	// current tip. The block may still be kept as a side branch.
	ErrWrongPreviousHash = newRuleError("ErrWrongPreviousHash")

	// ErrWrongHeight indicates that the block's height is not its parent's
	// height plus one.
	ErrWrongHeight = newRuleError("ErrWrongHeight")

	// ErrDuplicateBlock indicates a block with the same hash already
	// exists.
	ErrDuplicateBlock = newRuleError("ErrDuplicateBlock")

	// ErrInvalidAncestorBlock indicates that an ancestor of this block has
	// failed validation.
	ErrInvalidAncestorBlock = newRuleError("ErrInvalidAncestorBlock")

	// ErrImmatureSpend indicates a transaction is attempting to spend a
	// coinbase that has not yet reached the required maturity.
	ErrImmatureSpend = newRuleError("ErrImmatureSpend")

	// ErrGenesisOnInitializedLedger indicates that genesis initialization
	// was requested on a ledger that already has a tip.
	ErrGenesisOnInitializedLedger = newRuleError("ErrGenesisOnInitializedLedger")

	// ErrLedgerNotInitialized indicates that a block was submitted before
	// the genesis block was installed.
	ErrLedgerNotInitialized = newRuleError("ErrLedgerNotInitialized")
)

// Specific reasons reported under ErrMalformedTransaction.
var (
	// ErrNoTransactions indicates the block does not have a least one
	// transaction. A valid block must have at least the coinbase
	// transaction.
	ErrNoTransactions = newMalformedTransactionError("ErrNoTransactions")

	// ErrFirstTxNotCoinbase indicates the first transaction in a block
	// is not a coinbase transaction.
	ErrFirstTxNotCoinbase = newMalformedTransactionError("ErrFirstTxNotCoinbase")

	// ErrMultipleCoinbases indicates a block contains more than one
	// coinbase transaction.
	ErrMultipleCoinbases = newMalformedTransactionError("ErrMultipleCoinbases")

	// ErrBadCoinbaseTransaction indicates that the coinbase is malformed,
	// for example its height commitment does not match the block height.
	ErrBadCoinbaseTransaction = newMalformedTransactionError("ErrBadCoinbaseTransaction")

	// ErrNoTxInputs indicates a transaction does not have any inputs. A
	// valid transaction must have at least one input.
	ErrNoTxInputs = newMalformedTransactionError("ErrNoTxInputs")

	// ErrNoTxOutputs indicates a transaction does not have any outputs.
	ErrNoTxOutputs = newMalformedTransactionError("ErrNoTxOutputs")

	// ErrBadTxOutValue indicates an output value for a transaction is
	// invalid in some way such as being out of range.
	ErrBadTxOutValue = newMalformedTransactionError("ErrBadTxOutValue")

	// ErrDuplicateTxInputs indicates a transaction references the same
	// input more than once.
	ErrDuplicateTxInputs = newMalformedTransactionError("ErrDuplicateTxInputs")

	// ErrTxFieldTooLong indicates an unlocking proof, locking condition or
	// extension longer than the node can store.
	ErrTxFieldTooLong = newMalformedTransactionError("ErrTxFieldTooLong")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block or transaction failed due to one of the many validation
// rules. The caller can use type assertions to determine if a failure was
// specifically due to a rule violation.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

// Is makes errors.Is match a RuleError carrying details against the bare
// rule it reports.
func (e RuleError) Is(target error) bool {
	targetRuleError, ok := target.(RuleError)
	return ok && targetRuleError.inner == nil && targetRuleError.message == e.message
}

// Message returns the name of the rule that was violated.
func (e RuleError) Message() string {
	return e.message
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

func newMalformedTransactionError(message string) RuleError {
	return RuleError{message: message, inner: ErrMalformedTransaction}
}

// Reason returns the name of the outermost rule err violates, or false if
// err is not a rule violation.
func Reason(err error) (string, bool) {
	var ruleErr RuleError
	if !errors.As(err, &ruleErr) {
		return "", false
	}
	return ruleErr.message, true
}

// ErrMissingTxOut indicates a transaction output referenced by an input
// either does not exist or has already been spent.
type ErrMissingTxOut struct {
	MissingOutpoints []*externalapi.DomainOutpoint
}

func (e ErrMissingTxOut) Error() string {
	return fmt.Sprintf("missing the following outpoint: %v", e.MissingOutpoints)
}

// NewErrMissingTxOut Creates a new ErrMissingTxOut error wrapped in a RuleError
func NewErrMissingTxOut(missingOutpoints []*externalapi.DomainOutpoint) error {
	return errors.WithStack(RuleError{
		message: ErrUnknownOutpoint.message,
		inner:   ErrMissingTxOut{missingOutpoints},
	})
}

// ErrMissingParent indicates a block points to an unknown parent.
type ErrMissingParent struct {
	MissingParentHash *externalapi.DomainHash
}

func (e ErrMissingParent) Error() string {
	return fmt.Sprintf("missing parent %s", e.MissingParentHash)
}

// NewErrMissingParent creates a new ErrMissingParent error wrapped in a
// RuleError reported as ErrWrongPreviousHash
func NewErrMissingParent(missingParentHash *externalapi.DomainHash) error {
	return errors.WithStack(RuleError{
		message: ErrWrongPreviousHash.message,
		inner:   ErrMissingParent{missingParentHash},
	})
}

// InvalidTransaction is a struct containing an invalid transaction, and the error explaining why it's invalid.
type InvalidTransaction struct {
	Transaction *externalapi.DomainTransaction
	Error       error
}

func (invalid InvalidTransaction) String() string {
	return fmt.Sprintf("(%v: %s)", consensushashing.TransactionID(invalid.Transaction), invalid.Error)
}
