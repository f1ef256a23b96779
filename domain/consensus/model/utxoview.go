package model

import "github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"

// UTXOView is a read-only projection of a UTXO set. GetUTXO returns an
// error matching database.ErrNotFound for absent outpoints.
type UTXOView interface {
	GetUTXO(outpoint *externalapi.DomainOutpoint) (*externalapi.UTXOEntry, error)
}
