package activity

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"sonic-vault/pkg/chain"
)

const (
	// MaxEntries caps the merged feed
	MaxEntries = 20

	// OptimisticGracePeriod is how long an optimistic entry without a
	// matching confirmed event survives before it is pruned
	OptimisticGracePeriod = 10 * time.Minute
)

// LogClient is the chain surface the feed needs
type LogClient interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BlockTime(ctx context.Context, blockNumber uint64) (time.Time, error)
}

// Feed presents a merged, newest-first, de-duplicated view of recent
// account activity: optimistic entries recorded at submission time plus
// confirmed entries derived from on-chain event logs.
type Feed struct {
	client       LogClient
	storage      *Storage
	vaultManager common.Address
	lookback     uint64
	logger       *zap.Logger

	mu        sync.Mutex
	account   common.Address
	confirmed []Entry
	loadErr   string
	watcher   *chain.LogWatcher
}

// NewFeed creates a feed reading VaultManager events
func NewFeed(client LogClient, storage *Storage, vaultManager common.Address, lookback uint64, logger *zap.Logger) *Feed {
	return &Feed{
		client:       client,
		storage:      storage,
		vaultManager: vaultManager,
		lookback:     lookback,
		logger:       logger,
	}
}

// eventTopics lists the five activity event signatures
func eventTopics() []common.Hash {
	return []common.Hash{
		chain.VaultManagerABI.Events["CollateralDeposited"].ID,
		chain.VaultManagerABI.Events["CollateralWithdrawn"].ID,
		chain.VaultManagerABI.Events["StableMinted"].ID,
		chain.VaultManagerABI.Events["StableBurned"].ID,
		chain.VaultManagerABI.Events["VaultLiquidated"].ID,
	}
}

func (f *Feed) query(account common.Address) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		Addresses: []common.Address{f.vaultManager},
		Topics: [][]common.Hash{
			eventTopics(),
			{common.BytesToHash(common.LeftPadBytes(account.Bytes(), 32))},
		},
	}
}

// Load fetches historical logs over the lookback window for the account
// and starts watching for new ones. A fetch failure surfaces a feed-level
// error and leaves the list empty rather than partially populated.
func (f *Feed) Load(ctx context.Context, account common.Address) error {
	f.Reset()

	head, err := f.client.BlockNumber(ctx)
	if err != nil {
		f.setLoadError()
		return errors.Wrap(err, "failed to load activity")
	}

	from := uint64(0)
	if head > f.lookback {
		from = head - f.lookback
	}

	q := f.query(account)
	q.FromBlock = new(big.Int).SetUint64(from)
	q.ToBlock = new(big.Int).SetUint64(head)

	logs, err := f.client.FilterLogs(ctx, q)
	if err != nil {
		f.setLoadError()
		return errors.Wrap(err, "failed to load activity")
	}

	entries := make([]Entry, 0, len(logs))
	for _, lg := range logs {
		entry, err := f.mapLog(ctx, lg)
		if err != nil {
			f.logger.Debug("skipping unmappable log", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
		// A confirmed event supersedes its optimistic prediction
		if err := f.storage.RemoveByTxHash(entry.TxHash); err != nil {
			f.logger.Warn("failed to prune confirmed optimistic entry", zap.Error(err))
		}
	}

	f.mu.Lock()
	f.account = account
	f.confirmed = trimOldest(entries)
	f.loadErr = ""
	f.mu.Unlock()

	// Live updates go through the same mapping and merge
	watcher := chain.NewLogWatcher(f.client, f.query(account), head, func(lg types.Log) {
		f.onLog(ctx, lg)
	}, f.logger)
	watcher.Start(ctx)

	f.mu.Lock()
	f.watcher = watcher
	f.mu.Unlock()

	return nil
}

func (f *Feed) setLoadError() {
	f.mu.Lock()
	f.confirmed = nil
	f.loadErr = "failed to load activity"
	f.mu.Unlock()
}

func (f *Feed) onLog(ctx context.Context, lg types.Log) {
	entry, err := f.mapLog(ctx, lg)
	if err != nil {
		f.logger.Debug("skipping unmappable log", zap.Error(err))
		return
	}

	if err := f.storage.RemoveByTxHash(entry.TxHash); err != nil {
		f.logger.Warn("failed to prune confirmed optimistic entry", zap.Error(err))
	}

	f.mu.Lock()
	f.confirmed = trimOldest(append(f.confirmed, entry))
	f.mu.Unlock()
}

// trimOldest bounds the confirmed list at MaxEntries, keeping the newest.
// Entries arrive in block order, so the tail is the newest.
func trimOldest(entries []Entry) []Entry {
	if len(entries) > MaxEntries {
		return entries[len(entries)-MaxEntries:]
	}
	return entries
}

// mapLog deterministically converts an event log to a feed entry
func (f *Feed) mapLog(ctx context.Context, lg types.Log) (Entry, error) {
	if len(lg.Topics) == 0 {
		return Entry{}, fmt.Errorf("log has no topics")
	}

	var (
		kind   Kind
		amount *big.Int
		token  string
	)

	vm := chain.VaultManagerABI
	switch lg.Topics[0] {
	case vm.Events["CollateralDeposited"].ID:
		values, err := vm.Unpack("CollateralDeposited", lg.Data)
		if err != nil {
			return Entry{}, err
		}
		kind = KindDeposit
		amount = values[0].(*big.Int)
		token = collateralLabel(values[1].(bool))

	case vm.Events["CollateralWithdrawn"].ID:
		values, err := vm.Unpack("CollateralWithdrawn", lg.Data)
		if err != nil {
			return Entry{}, err
		}
		kind = KindWithdraw
		amount = values[0].(*big.Int)
		token = collateralLabel(values[1].(bool))

	case vm.Events["StableMinted"].ID:
		values, err := vm.Unpack("StableMinted", lg.Data)
		if err != nil {
			return Entry{}, err
		}
		kind = KindMint
		amount = values[0].(*big.Int)
		token = "eSUSD"

	case vm.Events["StableBurned"].ID:
		values, err := vm.Unpack("StableBurned", lg.Data)
		if err != nil {
			return Entry{}, err
		}
		kind = KindRepay
		amount = values[0].(*big.Int)
		token = "eSUSD"

	case vm.Events["VaultLiquidated"].ID:
		values, err := vm.Unpack("VaultLiquidated", lg.Data)
		if err != nil {
			return Entry{}, err
		}
		kind = KindLiquidation
		amount = values[0].(*big.Int)
		token = "eSUSD"

	default:
		return Entry{}, fmt.Errorf("unknown event topic %s", lg.Topics[0].Hex())
	}

	timestamp, err := f.client.BlockTime(ctx, lg.BlockNumber)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		ID:        fmt.Sprintf("%s-%d", lg.TxHash.Hex(), lg.Index),
		Kind:      kind,
		Amount:    FormatAmount(amount),
		Token:     token,
		Timestamp: timestamp,
		TxHash:    lg.TxHash.Hex(),
	}, nil
}

func collateralLabel(isStS bool) string {
	if isStS {
		return "stS"
	}
	return "S"
}

// RecordOptimistic stores a locally predicted entry at submission time.
// It satisfies the orchestrator's Recorder interface.
func (f *Feed) RecordOptimistic(kind string, amount *big.Int, token string, txHash string) {
	entry := &Entry{
		ID:         uuid.NewString(),
		Kind:       Kind(kind),
		Amount:     FormatAmount(amount),
		Token:      token,
		Timestamp:  time.Now(),
		TxHash:     txHash,
		Optimistic: true,
	}
	if err := f.storage.Add(entry); err != nil {
		f.logger.Warn("failed to persist optimistic entry", zap.Error(err))
	}
}

// Entries returns the merged feed: confirmed entries plus pending
// optimistic ones, minus optimistic entries superseded by a confirmed
// transaction or expired past the grace period, newest first, capped.
func (f *Feed) Entries() []Entry {
	if _, err := f.storage.PruneExpired(OptimisticGracePeriod); err != nil {
		f.logger.Warn("failed to prune expired entries", zap.Error(err))
	}

	f.mu.Lock()
	confirmed := make([]Entry, len(f.confirmed))
	copy(confirmed, f.confirmed)
	f.mu.Unlock()

	confirmedHashes := make(map[string]bool, len(confirmed))
	for _, entry := range confirmed {
		confirmedHashes[entry.TxHash] = true
	}

	merged := confirmed
	for _, pending := range f.storage.List() {
		if pending.TxHash != "" && confirmedHashes[pending.TxHash] {
			continue
		}
		merged = append(merged, *pending)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})

	if len(merged) > MaxEntries {
		merged = merged[:MaxEntries]
	}
	return merged
}

// Err returns the feed-level error from the last load, empty when none
func (f *Feed) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadErr
}

// Reset discards all entries and stops the live subscription, used on
// disconnect or account change. The persisted optimistic queue is left
// to its grace-period pruning.
func (f *Feed) Reset() {
	f.mu.Lock()
	watcher := f.watcher
	f.watcher = nil
	f.account = common.Address{}
	f.confirmed = nil
	f.loadErr = ""
	f.mu.Unlock()

	if watcher != nil {
		watcher.Stop()
	}
}
