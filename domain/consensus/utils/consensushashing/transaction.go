package consensushashing

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/hashes"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/serialization"
)

// TransactionID generates the Hash for the transaction.
func TransactionID(tx *externalapi.DomainTransaction) *externalapi.DomainTransactionID {
	writer := hashes.NewTransactionIDWriter()
	err := SerializeTransaction(writer, tx)
	if err != nil {
		// this writer never return errors (no allocations or possible failures) so errors can only come from validity checks,
		// and we assume we never construct malformed transactions.
		panic(errors.Wrap(err, "TransactionID() failed. this should never fail for structurally-valid transactions"))
	}
	hash := writer.Finalize()
	return (*externalapi.DomainTransactionID)(hash)
}

// TransactionIDs converts the provided slice of DomainTransactions
// to a corresponding slice of TransactionIDs
func TransactionIDs(txs []*externalapi.DomainTransaction) []*externalapi.DomainTransactionID {
	txIDs := make([]*externalapi.DomainTransactionID, len(txs))
	for i, tx := range txs {
		txIDs[i] = TransactionID(tx)
	}
	return txIDs
}

// SerializeTransaction writes the canonical transaction encoding to w.
func SerializeTransaction(w io.Writer, tx *externalapi.DomainTransaction) error {
	err := serialization.WriteElements(w, tx.Version, uint64(len(tx.Inputs)))
	if err != nil {
		return err
	}
	for _, input := range tx.Inputs {
		err = writeTransactionInput(w, input)
		if err != nil {
			return err
		}
	}

	err = serialization.WriteElement(w, uint64(len(tx.Outputs)))
	if err != nil {
		return err
	}
	for _, output := range tx.Outputs {
		err = writeTransactionOutput(w, output)
		if err != nil {
			return err
		}
	}

	return serialization.WriteVarBytes(w, tx.Extension)
}

func writeTransactionInput(w io.Writer, input *externalapi.DomainTransactionInput) error {
	err := WriteOutpoint(w, &input.PreviousOutpoint)
	if err != nil {
		return err
	}
	err = serialization.WriteVarBytes(w, input.UnlockingProof)
	if err != nil {
		return err
	}
	return serialization.WriteElement(w, input.Sequence)
}

func writeTransactionOutput(w io.Writer, output *externalapi.DomainTransactionOutput) error {
	err := serialization.WriteElements(w, output.Value, &output.AssetID)
	if err != nil {
		return err
	}
	return serialization.WriteVarBytes(w, output.LockingCondition)
}

// WriteOutpoint writes the canonical outpoint encoding to w.
func WriteOutpoint(w io.Writer, outpoint *externalapi.DomainOutpoint) error {
	return serialization.WriteElements(w, &outpoint.TransactionID, outpoint.Index)
}
