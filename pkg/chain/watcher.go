package chain

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// DefaultWatchInterval is how often the watcher polls for new logs
const DefaultWatchInterval = 10 * time.Second

// LogSource is the read surface the watcher needs from a Client
type LogSource interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// LogWatcher polls for new logs matching a filter and delivers them to a
// handler. Fetch errors are treated as transient and retried on the next
// tick.
type LogWatcher struct {
	source    LogSource
	query     ethereum.FilterQuery
	interval  time.Duration
	handler   func(types.Log)
	logger    *zap.Logger
	lastBlock uint64
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewLogWatcher creates a watcher starting from the block after fromBlock
func NewLogWatcher(source LogSource, query ethereum.FilterQuery, fromBlock uint64, handler func(types.Log), logger *zap.Logger) *LogWatcher {
	return &LogWatcher{
		source:    source,
		query:     query,
		interval:  DefaultWatchInterval,
		handler:   handler,
		logger:    logger,
		lastBlock: fromBlock,
		stopChan:  make(chan struct{}),
	}
}

// Start begins polling in a background goroutine
func (w *LogWatcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Stop halts polling. Safe to call multiple times.
func (w *LogWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
}

func (w *LogWatcher) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *LogWatcher) poll(ctx context.Context) {
	head, err := w.source.BlockNumber(ctx)
	if err != nil {
		w.logger.Debug("watcher: head lookup failed, retrying", zap.Error(err))
		return
	}
	if head <= w.lastBlock {
		return
	}

	q := w.query
	q.FromBlock = new(big.Int).SetUint64(w.lastBlock + 1)
	q.ToBlock = new(big.Int).SetUint64(head)

	logs, err := w.source.FilterLogs(ctx, q)
	if err != nil {
		w.logger.Debug("watcher: log fetch failed, retrying", zap.Error(err))
		return
	}

	for _, lg := range logs {
		w.handler(lg)
	}

	w.lastBlock = head
}
