package mining

import (
	"context"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/consensushashing"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/constants"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/difficulty"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/hashes"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/merkle"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/transactionhelper"
	"github.com/sedlynet/sedlyd/infrastructure/metrics"
	"github.com/sedlynet/sedlyd/util/panics"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// cancelCheckInterval is the number of attempts a worker makes between two
// reads of the stop flag.
const cancelCheckInterval = 1024

// ErrAlreadyMining is returned by MineBlock when the miner is busy with
// another block.
var ErrAlreadyMining = errors.New("the miner is already mining a block")

// Outcome is how a mining round ended.
type Outcome int

const (
	// OutcomeFound means a nonce satisfying the target was found.
	OutcomeFound Outcome = iota

	// OutcomeCancelled means the round was stopped before a nonce was found.
	OutcomeCancelled

	// OutcomeExhausted means every nonce up to the miner's max nonce was
	// tried without success.
	OutcomeExhausted
)

var outcomeStrings = map[Outcome]string{
	OutcomeFound:     "found",
	OutcomeCancelled: "cancelled",
	OutcomeExhausted: "exhausted",
}

func (o Outcome) String() string {
	return outcomeStrings[o]
}

// MiningResult describes a finished mining round. Block is set only when
// Outcome is OutcomeFound.
type MiningResult struct {
	Outcome          Outcome
	Block            *externalapi.DomainBlock
	HashesCalculated uint64
	HashRate         float64
	Elapsed          time.Duration
}

// Option configures a Miner.
type Option func(*Miner)

// WithMaxNonce bounds the nonce space searched by a single round.
func WithMaxNonce(maxNonce uint64) Option {
	return func(m *Miner) {
		m.maxNonce = maxNonce
	}
}

// WithTimeSource sets the clock the header timestamp is taken from.
func WithTimeSource(timeSource func() time.Time) Option {
	return func(m *Miner) {
		m.timeSource = timeSource
	}
}

// Miner searches the nonce space of a block header with a fixed number of
// parallel workers. Worker i of n tries the nonces i, i+n, i+2n and so on, so
// no nonce is tried twice within a round.
type Miner struct {
	target     *big.Int
	threads    int
	maxNonce   uint64
	timeSource func() time.Time

	totalHashes *atomic.Uint64

	roundLock   sync.Mutex
	cancelRound context.CancelFunc
}

// NewMiner returns a miner that accepts a header hash only if it is at most
// target. threads is the number of parallel workers.
func NewMiner(target *big.Int, threads int, options ...Option) (*Miner, error) {
	if target == nil || target.Sign() <= 0 {
		return nil, errors.Errorf("mining target must be positive")
	}
	if target.BitLen() > externalapi.DomainHashSize*8 {
		return nil, errors.Errorf("mining target %x is wider than a hash", target)
	}
	if threads < 1 {
		return nil, errors.Errorf("a miner needs at least one thread, got %d", threads)
	}

	miner := &Miner{
		target:      new(big.Int).Set(target),
		threads:     threads,
		maxNonce:    math.MaxUint64,
		timeSource:  time.Now,
		totalHashes: atomic.NewUint64(0),
	}
	for _, option := range options {
		option(miner)
	}
	return miner, nil
}

// TotalHashes returns the number of hashes computed over every round.
func (m *Miner) TotalHashes() uint64 {
	return m.totalHashes.Load()
}

// IsMining returns whether a round is in progress.
func (m *Miner) IsMining() bool {
	m.roundLock.Lock()
	defer m.roundLock.Unlock()

	return m.cancelRound != nil
}

// Stop cancels the round in progress, if any. The round returns
// OutcomeCancelled.
func (m *Miner) Stop() {
	m.roundLock.Lock()
	defer m.roundLock.Unlock()

	if m.cancelRound != nil {
		m.cancelRound()
	}
}

func (m *Miner) startRound(ctx context.Context) (context.Context, error) {
	m.roundLock.Lock()
	defer m.roundLock.Unlock()

	if m.cancelRound != nil {
		return nil, errors.WithStack(ErrAlreadyMining)
	}
	roundCtx, cancel := context.WithCancel(ctx)
	m.cancelRound = cancel
	return roundCtx, nil
}

func (m *Miner) endRound() {
	m.roundLock.Lock()
	defer m.roundLock.Unlock()

	m.cancelRound()
	m.cancelRound = nil
}

// MineBlock builds a header on top of previousHash committing to
// transactions and searches for a nonce whose header hash is at most both
// the miner's target and the target encoded in bits. The header timestamp is
// read from the miner's clock.
//
// The round ends when a nonce is found, when ctx is done or Stop is called,
// or when the nonce space is exhausted. Only the first is reported with a
// block.
func (m *Miner) MineBlock(ctx context.Context, previousHash *externalapi.DomainHash,
	transactions []*externalapi.DomainTransaction, height uint64, bits uint32) (*MiningResult, error) {

	if len(transactions) == 0 {
		return nil, errors.New("cannot mine a block without transactions")
	}
	for i, tx := range transactions {
		if name, length := transactionhelper.LongestField(tx); length > constants.MaxTransactionFieldLength {
			return nil, errors.Errorf("the %s of transaction %d is %d bytes long, above the maximum of %d",
				name, i, length, constants.MaxTransactionFieldLength)
		}
	}
	timestamp := m.timeSource().Unix()
	if timestamp < 0 {
		timestamp = 0
	}
	return m.MineTemplate(ctx, &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:           constants.BlockVersion,
			PreviousBlockHash: *previousHash,
			MerkleRoot:        *merkle.CalculateHashMerkleRoot(transactions),
			Timestamp:         uint64(timestamp),
			Bits:              bits,
			Height:            height,
		},
		Transactions: transactions,
	})
}

// MineTemplate searches for a nonce for template as it was built: every
// header field other than the nonce is kept. It ends like MineBlock.
func (m *Miner) MineTemplate(ctx context.Context, template *externalapi.DomainBlock) (*MiningResult, error) {
	if len(template.Transactions) == 0 {
		return nil, errors.New("cannot mine a block without transactions")
	}
	header := template.Header.Clone()
	header.Nonce = 0
	height := header.Height
	bitsTarget := difficulty.CompactToBig(header.Bits)
	if bitsTarget.Sign() <= 0 {
		return nil, errors.Errorf("bits %08x encode a non positive target", header.Bits)
	}
	target := m.target
	if bitsTarget.Cmp(target) < 0 {
		target = bitsTarget
	}

	roundCtx, err := m.startRound(ctx)
	if err != nil {
		return nil, err
	}
	defer m.endRound()

	round := &miningRound{
		headerBytes: consensushashing.HeaderBytes(header),
		target:      hashes.FromBig(target),
		stride:      uint64(m.threads),
		maxNonce:    m.maxNonce,
		stop:        atomic.NewBool(false),
		found:       atomic.NewBool(false),
		nonce:       atomic.NewUint64(0),
		attempts:    make([]uint64, m.threads),
	}

	log.Debugf("Mining height %d on top of %s with %d workers, target %064x",
		height, &header.PreviousBlockHash, m.threads, target)
	start := time.Now()

	roundDone := make(chan struct{})
	spawn("MineBlock-stopOnCancel", func() {
		select {
		case <-roundCtx.Done():
			round.stop.Store(true)
		case <-roundDone:
		}
	})

	var group errgroup.Group
	for worker := 0; worker < m.threads; worker++ {
		worker := worker
		group.Go(func() error {
			return panics.RecoverToError(func() error {
				round.work(worker)
				return nil
			})
		})
	}
	err = group.Wait()
	close(roundDone)
	if err != nil {
		return nil, err
	}

	result := &MiningResult{Elapsed: time.Since(start)}
	for _, attempts := range round.attempts {
		result.HashesCalculated += attempts
	}
	if seconds := result.Elapsed.Seconds(); seconds > 0 {
		result.HashRate = float64(result.HashesCalculated) / seconds
	}

	switch {
	case round.found.Load():
		header.Nonce = round.nonce.Load()
		result.Outcome = OutcomeFound
		result.Block = &externalapi.DomainBlock{Header: header, Transactions: template.Transactions}
		log.Infof("Found block %s at height %d after %d hashes (%.2f hash/s)",
			consensushashing.BlockHash(result.Block), height, result.HashesCalculated, result.HashRate)
	case roundCtx.Err() != nil:
		result.Outcome = OutcomeCancelled
		log.Debugf("Mining at height %d was cancelled after %d hashes", height, result.HashesCalculated)
	default:
		result.Outcome = OutcomeExhausted
		log.Debugf("Exhausted the nonce space at height %d after %d hashes", height, result.HashesCalculated)
	}

	m.totalHashes.Add(result.HashesCalculated)
	metrics.MiningRound(result.Outcome.String(), result.HashesCalculated, result.HashRate)
	return result, nil
}

// miningRound is the state shared by the workers of one MineBlock call.
// headerBytes and target are read only; each worker owns one slot of
// attempts.
type miningRound struct {
	headerBytes []byte
	target      *externalapi.DomainHash
	stride      uint64
	maxNonce    uint64

	stop  *atomic.Bool
	found *atomic.Bool
	nonce *atomic.Uint64

	attempts []uint64
}

func (r *miningRound) work(worker int) {
	headerBytes := make([]byte, len(r.headerBytes))
	copy(headerBytes, r.headerBytes)

	var attempts uint64
	defer func() {
		r.attempts[worker] = attempts
	}()

	nonce := uint64(worker)
	if nonce > r.maxNonce {
		return
	}
	for {
		if attempts%cancelCheckInterval == 0 && r.stop.Load() {
			return
		}

		consensushashing.PutNonce(headerBytes, nonce)
		hash := consensushashing.HeaderBytesHash(headerBytes)
		attempts++
		if !r.target.Less(hash) {
			if r.found.CompareAndSwap(false, true) {
				r.nonce.Store(nonce)
			}
			r.stop.Store(true)
			return
		}

		if r.maxNonce-nonce < r.stride {
			return
		}
		nonce += r.stride
	}
}
