package worker

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
)

// Sync asks every known peer for its status and chain. A peer that can't be
// reached is removed from the set. A peer holding a longer chain is handed
// to the consensus rule. It reports whether the local chain was replaced.
func (w *Worker) Sync() bool {
	w.syncMu.Lock()
	defer w.syncMu.Unlock()

	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	var replaced bool
	for _, pr := range w.peers.Copy(w.host) {

		// Retrieve the status of this peer.
		peerStatus, err := w.requestPeerStatus(pr)
		if err != nil {
			w.evHandler("worker: sync: requestPeerStatus: %s: ERROR: %s", pr, err)
			w.peers.Remove(pr)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		// The consensus rule only cares about longer chains.
		if peerStatus.Length <= w.state.Length() {
			continue
		}

		w.evHandler("worker: sync: requestPeerChain: %s: length[%d]", pr, peerStatus.Length)

		chain, err := w.requestPeerChain(pr)
		if err != nil {
			w.evHandler("worker: sync: requestPeerChain: %s: ERROR: %s", pr, err)
			w.peers.Remove(pr)
			continue
		}

		if w.state.TryReplace(chain) {
			w.evHandler("worker: sync: adopted chain from %s", pr)
			replaced = true
		}
	}

	// Let the peers know this node is available to chat.
	if w.host != "" {
		for _, pr := range w.peers.Copy(w.host) {
			if err := w.requestAddPeer(pr); err != nil {
				w.evHandler("worker: sync: requestAddPeer: %s: ERROR: %s", pr, err)
			}
		}
	}

	return replaced
}

// addNewPeers takes the list of known peers and makes sure they are included
// in the nodes list of known peers.
func (w *Worker) addNewPeers(knownPeers []peer.Peer) {
	for _, pr := range knownPeers {

		// Don't add this running node to the known peer list.
		if w.host != "" && pr.Match(w.host) {
			continue
		}

		if w.peers.Add(pr) {
			w.evHandler("worker: sync: addNewPeers: adding peer-node %s", pr)
		}
	}
}
