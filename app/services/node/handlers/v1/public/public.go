// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/merkle"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/events"
	"github.com/ardanlabs/powledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public ledger endpoints.
type Handlers struct {
	Log           *zap.SugaredLogger
	State         *state.State
	WS            websocket.Upgrader
	Evts          *events.Events
	MiningTimeout time.Duration
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	id, ch := h.Evts.Acquire()
	defer h.Evts.Release(id)

	h.Log.Infow("websocket open", "traceid", v.TraceID, "subscriber", id)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// SubmitTransactions mines a new block holding the submitted transactions
// and appends it to the chain.
func (h Handlers) SubmitTransactions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req submitRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.BadRequest(err)
	}

	if h.MiningTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.MiningTimeout)
		defer cancel()
	}

	h.Log.Infow("submit transactions", "traceid", v.TraceID, "trans", len(req.Transactions))

	block, err := h.State.SubmitTransactions(ctx, req.Transactions)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrInvalidTransactionEncoding):
			return errs.BadRequest(err)

		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			return errs.NewTrusted(errors.New("mining did not complete in time"), http.StatusServiceUnavailable)
		}

		return fmt.Errorf("submit transactions: %w", err)
	}

	resp := submitResponse{
		Block: database.NewBlockData(block),
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Chain returns the full chain as block records.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Snapshot(), http.StatusOK)
}

// Valid runs the full audit of the chain.
func (h Handlers) Valid(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := validity{
		Valid:  h.State.IsValid(),
		Length: h.State.Length(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Block returns the block at the specified index.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.BadRequest(fmt.Errorf("invalid block index: %w", err))
	}

	block, err := h.State.QueryBlock(index)
	if err != nil {
		return errs.NotFound(err)
	}

	return web.Respond(ctx, w, database.NewBlockData(block), http.StatusOK)
}

// Proof returns the merkle inclusion proof for the transaction named by the
// tx query parameter in the block at the specified index.
func (h Handlers) Proof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.BadRequest(fmt.Errorf("invalid block index: %w", err))
	}

	tx := r.URL.Query().Get("tx")
	if tx == "" {
		return errs.BadRequest(errors.New("missing tx query parameter"))
	}

	root, hashes, order, err := h.State.QueryProof(index, tx)
	if err != nil {
		return errs.NotFound(err)
	}

	leafHash, err := database.BlockTx(tx).Hash()
	if err != nil {
		return errs.BadRequest(err)
	}

	resp := proof{
		Index:       index,
		Transaction: tx,
		LeafHash:    leafHash,
		MerkleRoot:  root,
		Proof:       hashes,
		Order:       order,
		Verified:    merkle.VerifyProof(root, leafHash, hashes, order),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
