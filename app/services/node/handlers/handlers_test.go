package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/powledger/app/services/node/handlers"
	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/blockchain/worker"
	"github.com/ardanlabs/powledger/foundation/events"
	"github.com/ardanlabs/powledger/foundation/logger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type node struct {
	state   *state.State
	peers   *peer.PeerSet
	public  http.Handler
	private http.Handler
}

func newNode(t *testing.T, blocks int) node {
	log, err := logger.New("TEST", filepath.Join(t.TempDir(), "test.log"))
	if err != nil {
		t.Fatalf("Should be able to construct a logger: %s", err)
	}

	st, err := state.NewWithDifficulty(1, nil)
	if err != nil {
		t.Fatalf("Should be able to construct a chain: %s", err)
	}

	for i := 0; i < blocks; i++ {
		if _, err := st.SubmitTransactions(context.Background(), []string{"seed"}); err != nil {
			t.Fatalf("Should be able to submit transactions: %s", err)
		}
	}

	peers := peer.NewPeerSet()
	w := worker.Run(st, peers, worker.Config{SyncInterval: time.Hour})
	t.Cleanup(w.Shutdown)

	cfg := handlers.MuxConfig{
		Shutdown:      make(chan os.Signal, 1),
		Log:           log,
		State:         st,
		Peers:         peers,
		Worker:        w,
		Evts:          events.New(),
		MiningTimeout: time.Minute,
	}

	return node{
		state:   st,
		peers:   peers,
		public:  handlers.PublicMux(cfg),
		private: handlers.PrivateMux(cfg),
	}
}

func call(t *testing.T, h http.Handler, method string, url string, body string, resp any) int {
	var r *http.Request
	switch body {
	case "":
		r = httptest.NewRequest(method, url, nil)
	default:
		r = httptest.NewRequest(method, url, strings.NewReader(body))
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if resp != nil && w.Code != http.StatusNoContent {
		if err := json.NewDecoder(w.Body).Decode(resp); err != nil {
			t.Fatalf("Should be able to decode the response for %s: %s", url, err)
		}
	}

	return w.Code
}

// =============================================================================

func Test_Public(t *testing.T) {
	n := newNode(t, 0)

	t.Log("Given the need to use the public API.")
	{
		t.Logf("\tTest 0:\tWhen submitting transactions.")
		{
			var resp struct {
				Block database.BlockData `json:"block"`
			}
			code := call(t, n.public, http.MethodPost, "/v1/tx/submit", `{"transactions":["A->B","B->C","C->D"]}`, &resp)
			if code != http.StatusCreated {
				t.Fatalf("\t%s\tTest 0:\tShould get a 201, got %d.", failed, code)
			}
			t.Logf("\t%s\tTest 0:\tShould get a 201.", success)

			if resp.Block.Index != 1 || !strings.HasPrefix(resp.Block.Hash, "0") {
				t.Fatalf("\t%s\tTest 0:\tShould get the mined block, got %+v.", failed, resp.Block)
			}
			t.Logf("\t%s\tTest 0:\tShould get the mined block.", success)
		}

		t.Logf("\tTest 1:\tWhen submitting no transactions.")
		{
			var resp errs.Response
			code := call(t, n.public, http.MethodPost, "/v1/tx/submit", `{"transactions":[]}`, &resp)
			if code != http.StatusBadRequest || resp.Fields["transactions"] == "" {
				t.Fatalf("\t%s\tTest 1:\tShould get a field error, got %d %+v.", failed, code, resp)
			}
			t.Logf("\t%s\tTest 1:\tShould get a field error.", success)
		}

		t.Logf("\tTest 2:\tWhen checking the chain.")
		{
			var resp struct {
				Valid  bool `json:"valid"`
				Length int  `json:"length"`
			}
			call(t, n.public, http.MethodGet, "/v1/chain/valid", "", &resp)
			if !resp.Valid || resp.Length != 2 {
				t.Fatalf("\t%s\tTest 2:\tShould get a valid chain of 2 blocks, got %+v.", failed, resp)
			}
			t.Logf("\t%s\tTest 2:\tShould get a valid chain of 2 blocks.", success)

			var chain []database.BlockData
			call(t, n.public, http.MethodGet, "/v1/chain", "", &chain)
			if len(chain) != 2 || chain[1].PrevHash != chain[0].Hash {
				t.Fatalf("\t%s\tTest 2:\tShould get the linked records.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould get the linked records.", success)
		}

		t.Logf("\tTest 3:\tWhen querying blocks.")
		{
			var blk database.BlockData
			if code := call(t, n.public, http.MethodGet, "/v1/block/1", "", &blk); code != http.StatusOK || blk.Index != 1 {
				t.Fatalf("\t%s\tTest 3:\tShould get block 1, got %d.", failed, code)
			}
			t.Logf("\t%s\tTest 3:\tShould get block 1.", success)

			var resp errs.Response
			if code := call(t, n.public, http.MethodGet, "/v1/block/9", "", &resp); code != http.StatusNotFound {
				t.Fatalf("\t%s\tTest 3:\tShould get a 404 for a missing block, got %d.", failed, code)
			}
			if code := call(t, n.public, http.MethodGet, "/v1/block/abc", "", &resp); code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest 3:\tShould get a 400 for a bad index, got %d.", failed, code)
			}
			t.Logf("\t%s\tTest 3:\tShould reject bad block queries.", success)
		}

		t.Logf("\tTest 4:\tWhen asking for an inclusion proof.")
		{
			var resp struct {
				Proof    []string `json:"proof"`
				Verified bool     `json:"verified"`
			}
			code := call(t, n.public, http.MethodGet, "/v1/block/1/proof?tx=B-%3EC", "", &resp)
			if code != http.StatusOK || !resp.Verified || len(resp.Proof) != 2 {
				t.Fatalf("\t%s\tTest 4:\tShould get a verified proof, got %d %+v.", failed, code, resp)
			}
			t.Logf("\t%s\tTest 4:\tShould get a verified proof.", success)
		}
	}
}

func Test_Private(t *testing.T) {
	local := newNode(t, 1)
	remote := newNode(t, 3)

	srv := httptest.NewServer(remote.private)
	defer srv.Close()

	t.Log("Given the need to reconcile nodes through the private API.")
	{
		t.Logf("\tTest 0:\tWhen asking for the node status.")
		{
			var status peer.PeerStatus
			call(t, remote.private, http.MethodGet, "/v1/node/status", "", &status)
			if status.LatestBlockNumber != 3 || status.Length != 4 {
				t.Fatalf("\t%s\tTest 0:\tShould get the remote tip, got %+v.", failed, status)
			}
			t.Logf("\t%s\tTest 0:\tShould get the remote tip.", success)
		}

		t.Logf("\tTest 1:\tWhen registering a peer.")
		{
			host := strings.TrimPrefix(srv.URL, "http://")
			if code := call(t, local.private, http.MethodPost, "/v1/node/peers", `{"host":"`+host+`"}`, nil); code != http.StatusNoContent {
				t.Fatalf("\t%s\tTest 1:\tShould get a 204, got %d.", failed, code)
			}

			if local.peers.Len() != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould track the peer.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould track the peer.", success)

			var resp errs.Response
			if code := call(t, local.private, http.MethodPost, "/v1/node/peers", `{"host":""}`, &resp); code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest 1:\tShould reject a missing host, got %d.", failed, code)
			}
			t.Logf("\t%s\tTest 1:\tShould reject a missing host.", success)
		}

		t.Logf("\tTest 2:\tWhen resolving against a longer peer chain.")
		{
			var resp struct {
				Length int `json:"length"`
			}
			call(t, local.private, http.MethodPost, "/v1/node/resolve", "", &resp)

			if resp.Length != 4 || local.state.Length() != 4 {
				t.Fatalf("\t%s\tTest 2:\tShould adopt the longer chain, got %d.", failed, resp.Length)
			}
			t.Logf("\t%s\tTest 2:\tShould adopt the longer chain.", success)

			if !local.state.IsValid() {
				t.Fatalf("\t%s\tTest 2:\tShould still hold a valid chain.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould still hold a valid chain.", success)
		}
	}
}
