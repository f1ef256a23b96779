package blockvalidator

import (
	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/ruleerrors"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/consensushashing"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/transactionhelper"
	"github.com/sedlynet/sedlyd/infrastructure/db/database"
)

// bodyValidation is the per-block scratch state of the contextual
// transaction checks. Outputs created by an added transaction may be spent
// by a later one; every outpoint may be spent at most once.
type bodyValidation struct {
	*blockValidator
	height   uint64
	utxoView model.UTXOView

	spent         map[externalapi.DomainOutpoint]struct{}
	spentFromView []*externalapi.OutpointAndUTXOEntryPair
	created       map[externalapi.DomainOutpoint]*externalapi.UTXOEntry
	createdOrder  []externalapi.DomainOutpoint
	totalFees     uint64
}

// NewBodyValidation starts validating the transactions of a block at height
// against utxoView.
func (v *blockValidator) NewBodyValidation(height uint64, utxoView model.UTXOView) model.BodyValidation {
	return &bodyValidation{
		blockValidator: v,
		height:         height,
		utxoView:       utxoView,
		spent:          make(map[externalapi.DomainOutpoint]struct{}),
		created:        make(map[externalapi.DomainOutpoint]*externalapi.UTXOEntry),
	}
}

func (bv *bodyValidation) AddTransaction(tx *externalapi.DomainTransaction) (uint64, error) {
	// The structural checks come first since hashing needs bounded fields.
	err := checkTransactionInIsolation(tx, false)
	if err != nil {
		return 0, err
	}
	if transactionhelper.SpendsNullOutpoint(tx) {
		return 0, errors.Wrapf(ruleerrors.ErrMultipleCoinbases, "transaction %s spends the null outpoint",
			consensushashing.TransactionID(tx))
	}

	var inputSum uint64
	var fromView []*externalapi.OutpointAndUTXOEntryPair
	for _, input := range tx.Inputs {
		outpoint := input.PreviousOutpoint
		if _, ok := bv.spent[outpoint]; ok {
			return 0, errors.Wrapf(ruleerrors.ErrIntraBlockDoubleSpend, "outpoint %s is already "+
				"spent by another transaction in this block", outpoint)
		}

		entry, ok := bv.created[outpoint]
		if !ok {
			entry, err = bv.utxoView.GetUTXO(&outpoint)
			if database.IsNotFoundError(err) {
				return 0, ruleerrors.NewErrMissingTxOut([]*externalapi.DomainOutpoint{outpoint.Clone()})
			}
			if err != nil {
				return 0, err
			}
			fromView = append(fromView, &externalapi.OutpointAndUTXOEntryPair{
				Outpoint:  outpoint.Clone(),
				UTXOEntry: entry,
			})
		}

		err = bv.checkEntryMaturity(&outpoint, entry)
		if err != nil {
			return 0, err
		}

		if !bv.ownershipChecker.CheckOwnership(entry.LockingCondition, input.UnlockingProof) {
			return 0, errors.Wrapf(ruleerrors.ErrOwnershipCheckFailed, "unlocking proof of input "+
				"spending %s does not satisfy its locking condition", outpoint)
		}

		newInputSum := inputSum + entry.Value
		if newInputSum < inputSum {
			return 0, errors.Wrapf(ruleerrors.ErrBadTxOutValue, "total value of all "+
				"transaction inputs overflows")
		}
		inputSum = newInputSum
	}

	// Overflow was already ruled out by checkTransactionInIsolation
	outputSum, _ := transactionhelper.TotalOutputValue(tx)
	if inputSum < outputSum {
		return 0, errors.Wrapf(ruleerrors.ErrValueConservationViolation, "total value of all "+
			"transaction inputs is %d which is less than the amount spent of %d", inputSum, outputSum)
	}
	fee := inputSum - outputSum
	newTotalFees := bv.totalFees + fee
	if newTotalFees < bv.totalFees {
		return 0, errors.Wrapf(ruleerrors.ErrBadTxOutValue, "total fees overflow")
	}

	bv.commitTransaction(tx, fromView)
	bv.totalFees = newTotalFees
	return fee, nil
}

func (bv *bodyValidation) checkEntryMaturity(outpoint *externalapi.DomainOutpoint, entry *externalapi.UTXOEntry) error {
	if !entry.IsCoinbase {
		return nil
	}
	if bv.height < entry.CreationHeight+bv.blockCoinbaseMaturity {
		return errors.Wrapf(ruleerrors.ErrImmatureSpend, "tried to spend coinbase output %s "+
			"from height %d at height %d before required maturity of %d blocks",
			outpoint, entry.CreationHeight, bv.height, bv.blockCoinbaseMaturity)
	}
	return nil
}

func (bv *bodyValidation) commitTransaction(tx *externalapi.DomainTransaction,
	fromView []*externalapi.OutpointAndUTXOEntryPair) {

	for _, input := range tx.Inputs {
		bv.spent[input.PreviousOutpoint] = struct{}{}
		delete(bv.created, input.PreviousOutpoint)
	}
	bv.spentFromView = append(bv.spentFromView, fromView...)

	transactionID := consensushashing.TransactionID(tx)
	for i, output := range tx.Outputs {
		outpoint := externalapi.DomainOutpoint{TransactionID: *transactionID, Index: uint32(i)}
		bv.created[outpoint] = externalapi.NewUTXOEntry(output, bv.height, false)
		bv.createdOrder = append(bv.createdOrder, outpoint)
	}
}

func (bv *bodyValidation) TotalFees() uint64 {
	return bv.totalFees
}

func (bv *bodyValidation) Delta(coinbase *externalapi.DomainTransaction) *externalapi.UTXODelta {
	coinbaseID := consensushashing.TransactionID(coinbase)
	created := make([]*externalapi.OutpointAndUTXOEntryPair, 0, len(coinbase.Outputs)+len(bv.created))
	for i, output := range coinbase.Outputs {
		created = append(created, &externalapi.OutpointAndUTXOEntryPair{
			Outpoint:  externalapi.NewDomainOutpoint(coinbaseID, uint32(i)),
			UTXOEntry: externalapi.NewUTXOEntry(output, bv.height, true),
		})
	}
	for i := range bv.createdOrder {
		outpoint := bv.createdOrder[i]
		entry, ok := bv.created[outpoint]
		if !ok {
			continue
		}
		created = append(created, &externalapi.OutpointAndUTXOEntryPair{
			Outpoint:  outpoint.Clone(),
			UTXOEntry: entry.Clone(),
		})
	}

	spent := make([]*externalapi.OutpointAndUTXOEntryPair, len(bv.spentFromView))
	for i, pair := range bv.spentFromView {
		spent[i] = &externalapi.OutpointAndUTXOEntryPair{
			Outpoint:  pair.Outpoint.Clone(),
			UTXOEntry: pair.UTXOEntry.Clone(),
		}
	}
	return &externalapi.UTXODelta{Spent: spent, Created: created}
}
