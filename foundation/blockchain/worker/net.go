package worker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
)

const baseURL = "http://%s/v1/node"

// ErrResponseTooLarge is returned when a peer sends more data than the
// worker is configured to read.
var ErrResponseTooLarge = errors.New("peer response too large")

// requestPeerStatus asks the peer for its chain status and its peer list.
func (w *Worker) requestPeerStatus(pr peer.Peer) (peer.PeerStatus, error) {
	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, pr.Host))

	var ps peer.PeerStatus
	if err := w.send(http.MethodGet, url, nil, &ps); err != nil {
		return peer.PeerStatus{}, err
	}

	w.evHandler("worker: requestPeerStatus: peer-node[%s]: latest-blknum[%d]: peer-list[%s]", pr, ps.LatestBlockNumber, ps.KnownPeers)

	return ps, nil
}

// requestPeerChain retrieves the full chain held by the peer.
func (w *Worker) requestPeerChain(pr peer.Peer) ([]database.BlockData, error) {
	url := fmt.Sprintf("%s/chain", fmt.Sprintf(baseURL, pr.Host))

	var chain []database.BlockData
	if err := w.send(http.MethodGet, url, nil, &chain); err != nil {
		return nil, err
	}

	return chain, nil
}

// requestAddPeer registers this node with the peer.
func (w *Worker) requestAddPeer(pr peer.Peer) error {
	url := fmt.Sprintf("%s/peers", fmt.Sprintf(baseURL, pr.Host))

	return w.send(http.MethodPost, url, peer.New(w.host), nil)
}

// =============================================================================

// send is a helper function to send an HTTP request to a node.
func (w *Worker) send(method string, url string, dataSend any, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	// Read one byte past the cap so an oversized body can be told apart
	// from one that fits exactly.
	data, err := io.ReadAll(io.LimitReader(resp.Body, w.maxBytes+1))
	if err != nil {
		return err
	}
	if int64(len(data)) > w.maxBytes {
		return fmt.Errorf("%w: limit[%d]", ErrResponseTooLarge, w.maxBytes)
	}

	if resp.StatusCode != http.StatusOK {
		return errors.New(string(data))
	}

	if dataRecv != nil {
		if err := json.Unmarshal(data, dataRecv); err != nil {
			return err
		}
	}

	return nil
}
