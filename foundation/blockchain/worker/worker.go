// Package worker keeps the local chain reconciled with the known peers. It
// periodically asks every peer for its chain and hands it to the consensus
// rule of the state package.
package worker

import (
	"net/http"
	"sync"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
)

// defaultSyncInterval represents the interval of asking peers for their
// chain when none is configured.
const defaultSyncInterval = time.Minute

// defaultMaxResponseBytes caps the size of a single peer response when
// none is configured.
const defaultMaxResponseBytes int64 = 32 << 20

// Config represents the settings for the worker.
type Config struct {
	Host             string        // Private host of this node, never treated as a peer.
	SyncInterval     time.Duration // How often peers are asked for their chain.
	Client           *http.Client  // Client used to talk to peers.
	MaxResponseBytes int64         // Largest peer response body that is read.
	EvHandler        state.EventHandler
}

// =============================================================================

// Worker manages the peer sync workflow for the chain.
type Worker struct {
	state     *state.State
	peers     *peer.PeerSet
	host      string
	client    *http.Client
	maxBytes  int64
	syncMu    sync.Mutex
	wg        sync.WaitGroup
	shutOnce  sync.Once
	ticker    *time.Ticker
	shut      chan struct{}
	startSync chan bool
	evHandler state.EventHandler
}

// Run creates a worker and starts up the background sync process.
func Run(st *state.State, peers *peer.PeerSet, cfg Config) *Worker {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	interval := cfg.SyncInterval
	if interval <= 0 {
		interval = defaultSyncInterval
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	maxBytes := cfg.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxResponseBytes
	}

	w := Worker{
		state:     st,
		peers:     peers,
		host:      cfg.Host,
		client:    client,
		maxBytes:  maxBytes,
		ticker:    time.NewTicker(interval),
		shut:      make(chan struct{}),
		startSync: make(chan bool, 1),
		evHandler: ev,
	}

	w.wg.Add(1)

	// We don't want to return until we know the G is up and running.
	hasStarted := make(chan bool)

	go func() {
		defer w.wg.Done()
		hasStarted <- true
		w.syncOperations()
	}()

	<-hasStarted

	// Catch up with the network without waiting for the first tick.
	w.SignalSync()

	return &w
}

// Shutdown terminates the goroutine performing work. Calling it more than
// once is safe.
func (w *Worker) Shutdown() {
	w.shutOnce.Do(func() {
		w.evHandler("worker: shutdown: started")
		defer w.evHandler("worker: shutdown: completed")

		w.evHandler("worker: shutdown: stop ticker")
		w.ticker.Stop()

		w.evHandler("worker: shutdown: terminate goroutines")
		close(w.shut)
		w.wg.Wait()
	})
}

// SignalSync starts a sync operation. If there is already a signal pending
// in the channel, just return since a sync operation will start.
func (w *Worker) SignalSync() {
	select {
	case w.startSync <- true:
		w.evHandler("worker: SignalSync: sync signaled")
	default:
	}
}

// =============================================================================

// syncOperations handles the ticker and on demand sync requests.
func (w *Worker) syncOperations() {
	w.evHandler("worker: syncOperations: G started")
	defer w.evHandler("worker: syncOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.Sync()
			}

		case <-w.startSync:
			if !w.isShutdown() {
				w.Sync()
			}

		case <-w.shut:
			w.evHandler("worker: syncOperations: received shut signal")
			return
		}
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
