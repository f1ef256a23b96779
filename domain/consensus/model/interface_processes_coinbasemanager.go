package model

import "github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"

// CoinbaseManager exposes methods for handling blocks'
// coinbase transactions
type CoinbaseManager interface {
	CalcBlockSubsidy(height uint64) uint64
	ExpectedCoinbaseTransaction(height uint64, totalFees uint64,
		coinbaseData *externalapi.DomainCoinbaseData) (*externalapi.DomainTransaction, error)
	ValidateCoinbaseTransactionInIsolation(coinbaseTransaction *externalapi.DomainTransaction, height uint64) error
	ValidateCoinbaseTransactionInContext(coinbaseTransaction *externalapi.DomainTransaction,
		height uint64, totalFees uint64) error
}
