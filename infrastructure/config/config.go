package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/constants"
)

const (
	defaultDataDirname     = "data"
	defaultLogLevel        = "info"
	defaultLogDirname      = "logs"
	defaultLogFilename     = "sedlyd.log"
	defaultErrLogFilename  = "sedlyd_err.log"
	defaultHomeDirname     = ".sedlyd"
	defaultNumberOfBlocks  = 0
	maxMiningThreads       = 1024
	maxCoinbaseExtraLength = 64
)

// DefaultHomeDir is the default home directory for sedlyd.
var DefaultHomeDir = defaultHomeDir()

func defaultHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return defaultHomeDirname
	}
	return filepath.Join(homeDir, defaultHomeDirname)
}

// Flags defines the configuration options for sedlyd.
//
// See LoadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion   bool          `short:"V" long:"version" description:"Display version information and exit"`
	DataDir       string        `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir        string        `long:"logdir" description:"Directory to log output."`
	DebugLevel    string        `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	MiningThreads int           `short:"t" long:"threads" description:"Number of parallel mining workers"`
	NumBlocks     uint64        `short:"n" long:"numblocks" description:"Number of blocks to mine. If omitted, will mine until the process is interrupted."`
	MiningAddr    string        `long:"miningaddr" description:"Hex encoded locking condition the coinbase of mined blocks pays to"`
	CoinbaseExtra string        `long:"coinbase-extra" description:"Arbitrary text committed to in the coinbase of mined blocks"`
	MaxTimeOffset time.Duration `long:"maxtimeoffset" description:"How far ahead of the local clock a block timestamp may be. Valid time units are {s, m, h}"`
	MetricsListen string        `long:"metricslisten" description:"Interface/port to serve prometheus metrics on (disabled if empty)"`
	NetworkFlags
}

// Config defines the configuration options for sedlyd.
type Config struct {
	*Flags

	// MiningLockingCondition is MiningAddr decoded.
	MiningLockingCondition []byte
}

// LogFile returns the path of the main log file.
func (cfg *Config) LogFile() string {
	return filepath.Join(cfg.LogDir, defaultLogFilename)
}

// ErrLogFile returns the path of the log file that receives warnings and
// errors only.
func (cfg *Config) ErrLogFile() string {
	return filepath.Join(cfg.LogDir, defaultErrLogFilename)
}

// DefaultFlags returns the flags sedlyd runs with when none are given.
func DefaultFlags() *Flags {
	return &Flags{
		DataDir:       filepath.Join(DefaultHomeDir, defaultDataDirname),
		LogDir:        filepath.Join(DefaultHomeDir, defaultLogDirname),
		DebugLevel:    defaultLogLevel,
		MiningThreads: constants.DefaultMiningThreads,
		NumBlocks:     defaultNumberOfBlocks,
	}
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// LoadConfig parses args on top of DefaultFlags and validates the result.
//
// The data and log directories are namespaced by network, so that networks
// never share a database. When ShowVersion is set the remaining flags are
// not validated; the caller is expected to print the version and exit.
func LoadConfig(args []string) (*Config, error) {
	cfgFlags := DefaultFlags()
	parser := flags.NewParser(cfgFlags, flags.HelpFlag)
	_, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Flags: cfgFlags}
	if cfg.ShowVersion {
		return cfg, nil
	}

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}

	if cfg.MaxTimeOffset != 0 {
		if cfg.MaxTimeOffset < 0 {
			return nil, errors.Errorf("maxtimeoffset must not be negative, got %s", cfg.MaxTimeOffset)
		}
		cfg.ActiveNetParams.MaxTimeOffset = cfg.MaxTimeOffset
	}

	if cfg.MiningThreads < 1 || cfg.MiningThreads > maxMiningThreads {
		return nil, errors.Errorf("threads must be between 1 and %d, got %d", maxMiningThreads, cfg.MiningThreads)
	}

	cfg.MiningLockingCondition, err = hex.DecodeString(cfg.MiningAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "miningaddr %q is not hex encoded", cfg.MiningAddr)
	}

	if len(cfg.CoinbaseExtra) > maxCoinbaseExtraLength {
		return nil, errors.Errorf("coinbase-extra is limited to %d bytes, got %d",
			maxCoinbaseExtraLength, len(cfg.CoinbaseExtra))
	}

	// Append the network type to the data directory so it is "namespaced"
	// per network.
	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.DataDir = filepath.Join(cfg.DataDir, cfg.NetParams().Name)

	// Append the network type to the log directory so it is "namespaced"
	// per network in the same fashion as the data directory.
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.LogDir = filepath.Join(cfg.LogDir, cfg.NetParams().Name)

	return cfg, nil
}
