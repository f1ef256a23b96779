package blockvalidator

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/processes/coinbasemanager"
	"github.com/sedlynet/sedlyd/domain/consensus/ruleerrors"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/consensushashing"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/constants"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/merkle"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/mining"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/ownership"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/transactionhelper"
	"github.com/sedlynet/sedlyd/domain/dagconfig"
	"github.com/sedlynet/sedlyd/infrastructure/db/database"
	"github.com/stretchr/testify/require"
)

type utxoMap map[externalapi.DomainOutpoint]*externalapi.UTXOEntry

func (m utxoMap) GetUTXO(outpoint *externalapi.DomainOutpoint) (*externalapi.UTXOEntry, error) {
	entry, ok := m[*outpoint]
	if !ok {
		return nil, errors.Wrapf(database.ErrNotFound, "outpoint %s", outpoint)
	}
	return entry, nil
}

var testSecret = []byte("open sesame")

type testContext struct {
	t          *testing.T
	params     *dagconfig.Params
	now        time.Time
	validator  model.BlockValidator
	coinbase   model.CoinbaseManager
	view       utxoMap
	rd         *rand.Rand
	parentHash *externalapi.DomainHash

	plain      *externalapi.OutpointAndUTXOEntryPair
	locked     *externalapi.OutpointAndUTXOEntryPair
	immature   *externalapi.OutpointAndUTXOEntryPair
	parentHgt  uint64
	parentTime uint64
}

func outpointForTest(seed byte, index uint32) *externalapi.DomainOutpoint {
	return externalapi.NewDomainOutpoint(
		externalapi.NewDomainTransactionIDFromByteArray(&[externalapi.DomainHashSize]byte{seed}), index)
}

func newTestContext(t *testing.T) *testContext {
	params := &dagconfig.SimnetParams
	now := time.Unix(int64(params.GenesisBlock.Header.Timestamp), 0).Add(24 * time.Hour)
	coinbase := coinbasemanager.New(params.BaseSubsidy, params.SubsidyReductionInterval)
	validator := New(params.PowLimit, params.MaxTimeOffset, params.BlockCoinbaseMaturity,
		func() time.Time { return now }, ownership.Standard, coinbase)

	tc := &testContext{
		t:          t,
		params:     params,
		now:        now,
		validator:  validator,
		coinbase:   coinbase,
		view:       utxoMap{},
		rd:         rand.New(rand.NewSource(0)),
		parentHash: params.GenesisHash,
		parentHgt:  1,
		parentTime: uint64(now.Add(-time.Minute).Unix()),
	}
	tc.plain = tc.addUTXO(outpointForTest(1, 0), &externalapi.UTXOEntry{
		Value: 1000, LockingCondition: []byte{}, CreationHeight: 0})
	tc.locked = tc.addUTXO(outpointForTest(2, 3), &externalapi.UTXOEntry{
		Value: 500, LockingCondition: ownership.NewHashLockCondition(testSecret), CreationHeight: 0})
	tc.immature = tc.addUTXO(outpointForTest(3, 0), &externalapi.UTXOEntry{
		Value: 5000, LockingCondition: []byte{}, CreationHeight: 1, IsCoinbase: true})
	return tc
}

func (tc *testContext) addUTXO(outpoint *externalapi.DomainOutpoint,
	entry *externalapi.UTXOEntry) *externalapi.OutpointAndUTXOEntryPair {

	tc.view[*outpoint] = entry
	return &externalapi.OutpointAndUTXOEntryPair{Outpoint: outpoint, UTXOEntry: entry}
}

func (tc *testContext) blockContext() *model.BlockContext {
	return &model.BlockContext{
		ParentHash:      tc.parentHash,
		ParentHeight:    tc.parentHgt,
		ParentTimestamp: tc.parentTime,
		RequiredBits:    tc.params.PowLimitBits,
		UTXOView:        tc.view,
	}
}

func spendTransaction(outpoints []*externalapi.DomainOutpoint, proof []byte,
	values ...uint64) *externalapi.DomainTransaction {

	inputs := make([]*externalapi.DomainTransactionInput, len(outpoints))
	for i, outpoint := range outpoints {
		inputs[i] = &externalapi.DomainTransactionInput{
			PreviousOutpoint: *outpoint,
			UnlockingProof:   proof,
			Sequence:         transactionhelper.MaxTxInSequenceNum,
		}
	}
	outputs := make([]*externalapi.DomainTransactionOutput, len(values))
	for i, value := range values {
		outputs[i] = &externalapi.DomainTransactionOutput{Value: value, LockingCondition: []byte{}}
	}
	return transactionhelper.NewNativeTransaction(inputs, outputs)
}

func spend(outpoint *externalapi.DomainOutpoint, values ...uint64) *externalapi.DomainTransaction {
	return spendTransaction([]*externalapi.DomainOutpoint{outpoint}, []byte{}, values...)
}

func outpointOf(tx *externalapi.DomainTransaction, index uint32) *externalapi.DomainOutpoint {
	return externalapi.NewDomainOutpoint(consensushashing.TransactionID(tx), index)
}

// newBlock builds a solved block at parentHgt+1 whose coinbase pays the
// subsidy plus fees.
func (tc *testContext) newBlock(fees uint64, transactions ...*externalapi.DomainTransaction) *externalapi.DomainBlock {
	height := tc.parentHgt + 1
	coinbaseTx, err := tc.coinbase.ExpectedCoinbaseTransaction(height, fees,
		&externalapi.DomainCoinbaseData{LockingCondition: []byte{}, ExtraData: []byte("test")})
	require.NoError(tc.t, err)

	block := &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:           1,
			PreviousBlockHash: *tc.parentHash,
			Timestamp:         uint64(tc.now.Unix()),
			Bits:              tc.params.PowLimitBits,
			Height:            height,
		},
		Transactions: append([]*externalapi.DomainTransaction{coinbaseTx}, transactions...),
	}
	tc.resolve(block)
	return block
}

// resolve recomputes the merkle root and solves the block again.
func (tc *testContext) resolve(block *externalapi.DomainBlock) {
	block.Header.MerkleRoot = *merkle.CalculateHashMerkleRoot(block.Transactions)
	mining.SolveBlock(block, tc.rd)
}

func (tc *testContext) validate(block *externalapi.DomainBlock) (*externalapi.UTXODelta, error) {
	err := tc.validator.ValidateBlockInIsolation(block)
	if err != nil {
		return nil, err
	}
	return tc.validator.ValidateBlockInContext(block, tc.blockContext())
}

func TestValidBlockDelta(t *testing.T) {
	tc := newTestContext(t)

	// tx2 spends an output created by tx1 in the same block.
	tx1 := spend(tc.plain.Outpoint, 600, 300)
	tx2 := spend(outpointOf(tx1, 0), 550)
	tx3 := spendTransaction([]*externalapi.DomainOutpoint{tc.locked.Outpoint}, testSecret, 500)
	block := tc.newBlock(150, tx1, tx2, tx3)

	delta, err := tc.validate(block)
	require.NoError(t, err)

	height := tc.parentHgt + 1
	coinbaseTx := block.Transactions[0]
	expected := &externalapi.UTXODelta{
		Spent: []*externalapi.OutpointAndUTXOEntryPair{tc.plain, tc.locked},
		Created: []*externalapi.OutpointAndUTXOEntryPair{
			{
				Outpoint:  outpointOf(coinbaseTx, 0),
				UTXOEntry: externalapi.NewUTXOEntry(coinbaseTx.Outputs[0], height, true),
			},
			{
				Outpoint:  outpointOf(tx1, 1),
				UTXOEntry: externalapi.NewUTXOEntry(tx1.Outputs[1], height, false),
			},
			{
				Outpoint:  outpointOf(tx2, 0),
				UTXOEntry: externalapi.NewUTXOEntry(tx2.Outputs[0], height, false),
			},
			{
				Outpoint:  outpointOf(tx3, 0),
				UTXOEntry: externalapi.NewUTXOEntry(tx3.Outputs[0], height, false),
			},
		},
	}
	require.Truef(t, expected.Equal(delta), "unexpected delta: %+v", delta)
	require.Equal(t, tc.params.BaseSubsidy+150, coinbaseTx.Outputs[0].Value)
}

func TestCheckBlockInIsolation(t *testing.T) {
	tests := []struct {
		name     string
		build    func(tc *testContext) *externalapi.DomainBlock
		expected error
	}{
		{
			name: "hash above the target",
			build: func(tc *testContext) *externalapi.DomainBlock {
				block := tc.newBlock(0)
				mining.BreakBlock(block, tc.rd)
				return block
			},
			expected: ruleerrors.ErrInvalidProofOfWork,
		},
		{
			name: "target above the pow limit",
			build: func(tc *testContext) *externalapi.DomainBlock {
				block := tc.newBlock(0)
				block.Header.Bits = 0x2100ffff
				return block
			},
			expected: ruleerrors.ErrBadDifficultyTarget,
		},
		{
			name: "zero target",
			build: func(tc *testContext) *externalapi.DomainBlock {
				block := tc.newBlock(0)
				block.Header.Bits = 0
				return block
			},
			expected: ruleerrors.ErrBadDifficultyTarget,
		},
		{
			name: "timestamp too far in the future",
			build: func(tc *testContext) *externalapi.DomainBlock {
				block := tc.newBlock(0)
				block.Header.Timestamp = uint64(tc.now.Add(tc.params.MaxTimeOffset + time.Second).Unix())
				tc.resolve(block)
				return block
			},
			expected: ruleerrors.ErrBadTimestamp,
		},
		{
			name: "no transactions",
			build: func(tc *testContext) *externalapi.DomainBlock {
				block := tc.newBlock(0)
				block.Transactions = nil
				tc.resolve(block)
				return block
			},
			expected: ruleerrors.ErrNoTransactions,
		},
		{
			name: "first transaction is not a coinbase",
			build: func(tc *testContext) *externalapi.DomainBlock {
				block := tc.newBlock(0)
				block.Transactions = []*externalapi.DomainTransaction{spend(tc.plain.Outpoint, 1000)}
				tc.resolve(block)
				return block
			},
			expected: ruleerrors.ErrFirstTxNotCoinbase,
		},
		{
			name: "coinbase commits to another height",
			build: func(tc *testContext) *externalapi.DomainBlock {
				block := tc.newBlock(0)
				block.Transactions[0] = transactionhelper.NewCoinbaseTransaction(tc.parentHgt+5,
					&externalapi.DomainCoinbaseData{}, 1)
				tc.resolve(block)
				return block
			},
			expected: ruleerrors.ErrBadCoinbaseTransaction,
		},
		{
			name: "second coinbase",
			build: func(tc *testContext) *externalapi.DomainBlock {
				return tc.newBlock(0, transactionhelper.NewCoinbaseTransaction(tc.parentHgt+1,
					&externalapi.DomainCoinbaseData{ExtraData: []byte("again")}, 1))
			},
			expected: ruleerrors.ErrMultipleCoinbases,
		},
		{
			name: "transaction without inputs",
			build: func(tc *testContext) *externalapi.DomainBlock {
				return tc.newBlock(0, spendTransaction(nil, nil, 1))
			},
			expected: ruleerrors.ErrNoTxInputs,
		},
		{
			name: "transaction without outputs",
			build: func(tc *testContext) *externalapi.DomainBlock {
				return tc.newBlock(0, spend(tc.plain.Outpoint))
			},
			expected: ruleerrors.ErrNoTxOutputs,
		},
		{
			name: "output values overflow",
			build: func(tc *testContext) *externalapi.DomainBlock {
				return tc.newBlock(0, spend(tc.plain.Outpoint, math.MaxUint64, 1))
			},
			expected: ruleerrors.ErrBadTxOutValue,
		},
		{
			name: "duplicate inputs",
			build: func(tc *testContext) *externalapi.DomainBlock {
				return tc.newBlock(0, spendTransaction(
					[]*externalapi.DomainOutpoint{tc.plain.Outpoint, tc.plain.Outpoint}, []byte{}, 1))
			},
			expected: ruleerrors.ErrDuplicateTxInputs,
		},
		{
			name: "unlocking proof longer than the maximum",
			build: func(tc *testContext) *externalapi.DomainBlock {
				block := tc.newBlock(0, spend(tc.plain.Outpoint, 1000))
				block.Transactions[1].Inputs[0].UnlockingProof = make([]byte, constants.MaxTransactionFieldLength+1)
				mining.SolveBlock(block, tc.rd)
				return block
			},
			expected: ruleerrors.ErrTxFieldTooLong,
		},
		{
			name: "coinbase locking condition longer than the maximum",
			build: func(tc *testContext) *externalapi.DomainBlock {
				block := tc.newBlock(0)
				block.Transactions[0].Outputs[0].LockingCondition = make([]byte, constants.MaxTransactionFieldLength+1)
				mining.SolveBlock(block, tc.rd)
				return block
			},
			expected: ruleerrors.ErrTxFieldTooLong,
		},
		{
			name: "wrong merkle root",
			build: func(tc *testContext) *externalapi.DomainBlock {
				block := tc.newBlock(0, spend(tc.plain.Outpoint, 1000))
				block.Header.MerkleRoot = externalapi.DomainHash{}
				mining.SolveBlock(block, tc.rd)
				return block
			},
			expected: ruleerrors.ErrBadMerkleRoot,
		},
		{
			name: "duplicate transaction",
			build: func(tc *testContext) *externalapi.DomainBlock {
				tx := spend(tc.plain.Outpoint, 1000)
				return tc.newBlock(0, tx, tx.Clone())
			},
			expected: ruleerrors.ErrDuplicateTransaction,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tc := newTestContext(t)
			block := test.build(tc)
			err := tc.validator.ValidateBlockInIsolation(block)
			require.Truef(t, errors.Is(err, test.expected), "expected %s, got %v", test.expected, err)
		})
	}
}

func TestMalformedReasonsAreMalformedTransactions(t *testing.T) {
	tc := newTestContext(t)
	block := tc.newBlock(0, spend(tc.plain.Outpoint))
	err := tc.validator.ValidateBlockInIsolation(block)
	require.True(t, errors.Is(err, ruleerrors.ErrMalformedTransaction))

	reason, ok := ruleerrors.Reason(err)
	require.True(t, ok)
	require.Equal(t, "ErrNoTxOutputs", reason)
}

func TestCheckBlockInContext(t *testing.T) {
	tests := []struct {
		name     string
		build    func(tc *testContext) *externalapi.DomainBlock
		expected error
	}{
		{
			name: "wrong previous hash",
			build: func(tc *testContext) *externalapi.DomainBlock {
				block := tc.newBlock(0)
				tc.parentHash = externalapi.NewZeroHash()
				return block
			},
			expected: ruleerrors.ErrWrongPreviousHash,
		},
		{
			name: "wrong height",
			build: func(tc *testContext) *externalapi.DomainBlock {
				tc.parentHgt++
				block := tc.newBlock(0)
				tc.parentHgt--
				return block
			},
			expected: ruleerrors.ErrWrongHeight,
		},
		{
			name: "timestamp equal to the parent's",
			build: func(tc *testContext) *externalapi.DomainBlock {
				block := tc.newBlock(0)
				tc.parentTime = block.Header.Timestamp
				return block
			},
			expected: ruleerrors.ErrBadTimestamp,
		},
		{
			name: "timestamp before the parent's",
			build: func(tc *testContext) *externalapi.DomainBlock {
				block := tc.newBlock(0)
				block.Header.Timestamp = tc.parentTime - 1000
				mining.SolveBlock(block, tc.rd)
				return block
			},
			expected: ruleerrors.ErrBadTimestamp,
		},
		{
			name: "unexpected bits",
			build: func(tc *testContext) *externalapi.DomainBlock {
				block := tc.newBlock(0)
				block.Header.Bits = 0x207ffffe
				mining.SolveBlock(block, tc.rd)
				return block
			},
			expected: ruleerrors.ErrBadDifficultyTarget,
		},
		{
			name: "unknown outpoint",
			build: func(tc *testContext) *externalapi.DomainBlock {
				return tc.newBlock(0, spend(outpointForTest(9, 9), 1))
			},
			expected: ruleerrors.ErrUnknownOutpoint,
		},
		{
			name: "two transactions spend the same outpoint",
			build: func(tc *testContext) *externalapi.DomainBlock {
				return tc.newBlock(1, spend(tc.plain.Outpoint, 1000), spend(tc.plain.Outpoint, 999))
			},
			expected: ruleerrors.ErrIntraBlockDoubleSpend,
		},
		{
			name: "output created in the block is spent twice",
			build: func(tc *testContext) *externalapi.DomainBlock {
				tx := spend(tc.plain.Outpoint, 1000)
				return tc.newBlock(1, tx, spend(outpointOf(tx, 0), 1000), spend(outpointOf(tx, 0), 999))
			},
			expected: ruleerrors.ErrIntraBlockDoubleSpend,
		},
		{
			name: "wrong unlocking proof",
			build: func(tc *testContext) *externalapi.DomainBlock {
				return tc.newBlock(0, spendTransaction(
					[]*externalapi.DomainOutpoint{tc.locked.Outpoint}, []byte("guess"), 500))
			},
			expected: ruleerrors.ErrOwnershipCheckFailed,
		},
		{
			name: "outputs exceed inputs",
			build: func(tc *testContext) *externalapi.DomainBlock {
				return tc.newBlock(0, spend(tc.plain.Outpoint, 1001))
			},
			expected: ruleerrors.ErrValueConservationViolation,
		},
		{
			name: "coinbase claims more than subsidy and fees",
			build: func(tc *testContext) *externalapi.DomainBlock {
				return tc.newBlock(11, spend(tc.plain.Outpoint, 990))
			},
			expected: ruleerrors.ErrCoinbaseOverspend,
		},
		{
			name: "immature coinbase spend",
			build: func(tc *testContext) *externalapi.DomainBlock {
				return tc.newBlock(0, spend(tc.immature.Outpoint, 5000))
			},
			expected: ruleerrors.ErrImmatureSpend,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tc := newTestContext(t)
			block := test.build(tc)
			require.NoError(t, tc.validator.ValidateBlockInIsolation(block))
			_, err := tc.validator.ValidateBlockInContext(block, tc.blockContext())
			require.Truef(t, errors.Is(err, test.expected), "expected %s, got %v", test.expected, err)
		})
	}
}

func TestMissingOutpointDetails(t *testing.T) {
	tc := newTestContext(t)
	missing := outpointForTest(9, 9)
	_, err := tc.validate(tc.newBlock(0, spend(missing, 1)))

	missingTxOut := ruleerrors.ErrMissingTxOut{}
	require.True(t, errors.As(err, &missingTxOut))
	require.Len(t, missingTxOut.MissingOutpoints, 1)
	require.True(t, missingTxOut.MissingOutpoints[0].Equal(missing))
}

func TestCoinbaseMaturity(t *testing.T) {
	tc := newTestContext(t)
	// Created at height 1 with maturity 2, spendable from height 3.
	tc.parentHgt = 2
	delta, err := tc.validate(tc.newBlock(0, spend(tc.immature.Outpoint, 5000)))
	require.NoError(t, err)
	require.Len(t, delta.Spent, 1)
	require.True(t, delta.Spent[0].UTXOEntry.IsCoinbase)
}

func TestCoinbaseMayClaimLess(t *testing.T) {
	tc := newTestContext(t)
	block := tc.newBlock(0)
	block.Transactions[0].Outputs[0].Value = 1
	tc.resolve(block)
	_, err := tc.validate(block)
	require.NoError(t, err)
}

func TestBodyValidationIsAtomic(t *testing.T) {
	tc := newTestContext(t)
	body := tc.validator.NewBodyValidation(tc.parentHgt+1, tc.view)

	// The second input fails, so the first one must not be marked spent.
	_, err := body.AddTransaction(spendTransaction(
		[]*externalapi.DomainOutpoint{tc.plain.Outpoint, outpointForTest(9, 9)}, []byte{}, 1))
	require.True(t, errors.Is(err, ruleerrors.ErrUnknownOutpoint))

	_, err = body.AddTransaction(spend(tc.plain.Outpoint, 2000))
	require.True(t, errors.Is(err, ruleerrors.ErrValueConservationViolation))
	require.Zero(t, body.TotalFees())

	fee, err := body.AddTransaction(spend(tc.plain.Outpoint, 900))
	require.NoError(t, err)
	require.Equal(t, uint64(100), fee)

	fee, err = body.AddTransaction(spendTransaction(
		[]*externalapi.DomainOutpoint{tc.locked.Outpoint}, testSecret, 450))
	require.NoError(t, err)
	require.Equal(t, uint64(50), fee)
	require.Equal(t, uint64(150), body.TotalFees())

	_, err = body.AddTransaction(transactionhelper.NewCoinbaseTransaction(tc.parentHgt+1,
		&externalapi.DomainCoinbaseData{}, 1))
	require.True(t, errors.Is(err, ruleerrors.ErrMultipleCoinbases))

	oversized := spend(tc.plain.Outpoint, 1)
	oversized.Extension = make([]byte, constants.MaxTransactionFieldLength+1)
	_, err = body.AddTransaction(oversized)
	require.True(t, errors.Is(err, ruleerrors.ErrTxFieldTooLong))
	require.Equal(t, uint64(150), body.TotalFees())

	coinbaseTx, err := tc.coinbase.ExpectedCoinbaseTransaction(tc.parentHgt+1, body.TotalFees(),
		&externalapi.DomainCoinbaseData{})
	require.NoError(t, err)
	delta := body.Delta(coinbaseTx)
	require.Len(t, delta.Spent, 2)
	require.Len(t, delta.Created, 3)
	require.True(t, delta.Created[0].UTXOEntry.IsCoinbase)
}
