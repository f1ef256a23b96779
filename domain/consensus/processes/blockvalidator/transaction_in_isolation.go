package blockvalidator

import (
	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/ruleerrors"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/constants"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/transactionhelper"
)

// checkTransactionInIsolation performs the structural checks that need
// nothing but the transaction itself.
func checkTransactionInIsolation(tx *externalapi.DomainTransaction, isCoinbase bool) error {
	// A non-coinbase transaction must spend something, and every
	// transaction must create at least one output.
	if !isCoinbase && len(tx.Inputs) == 0 {
		return errors.WithStack(ruleerrors.ErrNoTxInputs)
	}
	if len(tx.Outputs) == 0 {
		return errors.WithStack(ruleerrors.ErrNoTxOutputs)
	}

	if name, length := transactionhelper.LongestField(tx); length > constants.MaxTransactionFieldLength {
		return errors.Wrapf(ruleerrors.ErrTxFieldTooLong, "%s is %d bytes long, above the "+
			"maximum of %d", name, length, constants.MaxTransactionFieldLength)
	}

	if _, ok := transactionhelper.TotalOutputValue(tx); !ok {
		return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "total value of all "+
			"transaction outputs overflows")
	}

	return checkDuplicateTransactionInputs(tx)
}

func checkDuplicateTransactionInputs(tx *externalapi.DomainTransaction) error {
	existingTxOut := make(map[externalapi.DomainOutpoint]struct{}, len(tx.Inputs))
	for _, txIn := range tx.Inputs {
		if _, exists := existingTxOut[txIn.PreviousOutpoint]; exists {
			return errors.Wrapf(ruleerrors.ErrDuplicateTxInputs, "transaction "+
				"contains duplicate inputs spending %s", txIn.PreviousOutpoint)
		}
		existingTxOut[txIn.PreviousOutpoint] = struct{}{}
	}
	return nil
}
