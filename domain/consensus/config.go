package consensus

import (
	"time"

	"github.com/sedlynet/sedlyd/domain/consensus/utils/ownership"
	"github.com/sedlynet/sedlyd/domain/dagconfig"
)

const (
	defaultBlockCacheSize       = 256
	defaultDatabaseCacheSizeMiB = 64
)

// Config holds everything a Ledger needs besides its database.
type Config struct {
	Params *dagconfig.Params

	// OwnershipChecker decides whether an input may claim the output it
	// spends.
	OwnershipChecker ownership.Checker

	// TimeSource is the local clock block timestamps are compared against.
	TimeSource func() time.Time

	BlockCacheSize       int
	DatabaseCacheSizeMiB int
}

// DefaultConfig returns the configuration of a ledger for the given network
// using the standard ownership predicate and the system clock.
func DefaultConfig(params *dagconfig.Params) *Config {
	return &Config{
		Params:               params,
		OwnershipChecker:     ownership.Standard,
		TimeSource:           time.Now,
		BlockCacheSize:       defaultBlockCacheSize,
		DatabaseCacheSizeMiB: defaultDatabaseCacheSizeMiB,
	}
}
