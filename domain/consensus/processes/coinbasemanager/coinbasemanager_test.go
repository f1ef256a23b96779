package coinbasemanager

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/ruleerrors"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/transactionhelper"
	"github.com/sedlynet/sedlyd/domain/dagconfig"
)

func TestCalcBlockSubsidy(t *testing.T) {
	params := dagconfig.MainnetParams
	manager := New(params.BaseSubsidy, params.SubsidyReductionInterval)

	tests := []struct {
		height          uint64
		expectedSubsidy uint64
	}{
		{height: 0, expectedSubsidy: 50 * dagconfig.SompiPerSedly},
		{height: 209_999, expectedSubsidy: 50 * dagconfig.SompiPerSedly},
		{height: 210_000, expectedSubsidy: 25 * dagconfig.SompiPerSedly},
		{height: 420_000, expectedSubsidy: 1_250_000_000},
		{height: 210_000 * 33, expectedSubsidy: 0},
		{height: 210_000 * 64, expectedSubsidy: 0},
		{height: ^uint64(0), expectedSubsidy: 0},
	}

	for _, test := range tests {
		subsidy := manager.CalcBlockSubsidy(test.height)
		if subsidy != test.expectedSubsidy {
			t.Errorf("TestCalcBlockSubsidy: height %d: expected subsidy %d, got %d",
				test.height, test.expectedSubsidy, subsidy)
		}
	}
}

// TestTotalSupplyConverges sums the subsidy of every halving era and checks
// that the result never exceeds the maximum supply.
func TestTotalSupplyConverges(t *testing.T) {
	params := dagconfig.MainnetParams
	manager := New(params.BaseSubsidy, params.SubsidyReductionInterval)

	totalSupply := uint64(0)
	for era := uint64(0); era < 64; era++ {
		subsidy := manager.CalcBlockSubsidy(era * params.SubsidyReductionInterval)
		totalSupply += subsidy * params.SubsidyReductionInterval
	}
	if totalSupply > dagconfig.MaxSompi {
		t.Fatalf("TestTotalSupplyConverges: total supply %d exceeds the maximum %d",
			totalSupply, dagconfig.MaxSompi)
	}
	if dagconfig.MaxSompi-totalSupply > dagconfig.SompiPerSedly {
		t.Fatalf("TestTotalSupplyConverges: total supply %d is unexpectedly far from %d",
			totalSupply, dagconfig.MaxSompi)
	}
}

func TestValidateCoinbaseTransaction(t *testing.T) {
	manager := New(1000, 10)
	coinbaseData := &externalapi.DomainCoinbaseData{LockingCondition: []byte{}}

	coinbase, err := manager.ExpectedCoinbaseTransaction(3, 7, coinbaseData)
	if err != nil {
		t.Fatalf("ExpectedCoinbaseTransaction: %+v", err)
	}
	if coinbase.Outputs[0].Value != 1007 {
		t.Fatalf("ExpectedCoinbaseTransaction: unexpected value %d", coinbase.Outputs[0].Value)
	}

	err = manager.ValidateCoinbaseTransactionInIsolation(coinbase, 3)
	if err != nil {
		t.Fatalf("ValidateCoinbaseTransactionInIsolation: %+v", err)
	}
	err = manager.ValidateCoinbaseTransactionInIsolation(coinbase, 4)
	if !errors.Is(err, ruleerrors.ErrBadCoinbaseTransaction) {
		t.Fatalf("ValidateCoinbaseTransactionInIsolation: expected ErrBadCoinbaseTransaction, got %v", err)
	}

	err = manager.ValidateCoinbaseTransactionInContext(coinbase, 3, 7)
	if err != nil {
		t.Fatalf("ValidateCoinbaseTransactionInContext: %+v", err)
	}
	err = manager.ValidateCoinbaseTransactionInContext(coinbase, 3, 6)
	if !errors.Is(err, ruleerrors.ErrCoinbaseOverspend) {
		t.Fatalf("ValidateCoinbaseTransactionInContext: expected ErrCoinbaseOverspend, got %v", err)
	}

	regular := transactionhelper.NewNativeTransaction([]*externalapi.DomainTransactionInput{{}},
		[]*externalapi.DomainTransactionOutput{{Value: 1}})
	err = manager.ValidateCoinbaseTransactionInIsolation(regular, 3)
	if !errors.Is(err, ruleerrors.ErrFirstTxNotCoinbase) {
		t.Fatalf("ValidateCoinbaseTransactionInIsolation: expected ErrFirstTxNotCoinbase, got %v", err)
	}
}
