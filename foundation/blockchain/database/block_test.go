package database_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/ardanlabs/powledger/foundation/blockchain/merkle"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_NewBlock(t *testing.T) {
	trans := []string{"A->B", "B->C", "C->D"}

	t.Log("Given the need to construct blocks.")
	{
		t.Logf("\tTest 0:\tWhen constructing the same block twice.")
		{
			b1, err := database.NewBlock(1, trans, digest.HashString("prev"), 1)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to construct a block.", success)

			b2, err := database.NewBlock(1, trans, digest.HashString("prev"), 1)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a block: %v", failed, err)
			}

			if b1.Header.MerkleRoot != b2.Header.MerkleRoot {
				t.Fatalf("\t%s\tTest 0:\tShould get the same merkle root.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould get the same merkle root.", success)

			hashes := []string{digest.HashString("A->B"), digest.HashString("B->C"), digest.HashString("C->D")}
			if exp := merkle.Root(hashes); b1.Header.MerkleRoot != exp {
				t.Logf("\t%s\tTest 0:\tgot: %s", failed, b1.Header.MerkleRoot)
				t.Logf("\t%s\tTest 0:\texp: %s", failed, exp)
				t.Fatalf("\t%s\tTest 0:\tShould get the merkle root of the transaction digests.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould get the merkle root of the transaction digests.", success)

			if b1.Header.Nonce != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould start with a zero nonce.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould start with a zero nonce.", success)

			hash, err := b1.CalculateHash()
			if err != nil || hash != b1.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould seal the hash of the block fields.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould seal the hash of the block fields.", success)
		}

		t.Logf("\tTest 1:\tWhen constructing a block with a bad transaction.")
		{
			_, err := database.NewBlock(1, []string{"ok", "bad\xff"}, digest.HashString("prev"), 1)
			if !errors.Is(err, database.ErrInvalidTransactionEncoding) {
				t.Fatalf("\t%s\tTest 1:\tShould get ErrInvalidTransactionEncoding, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould get ErrInvalidTransactionEncoding.", success)
		}

		t.Logf("\tTest 2:\tWhen constructing a block with no transactions.")
		{
			b, err := database.NewBlock(1, nil, digest.HashString("prev"), 0)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to construct the block: %v", failed, err)
			}
			if b.Header.MerkleRoot != merkle.EmptyRoot {
				t.Fatalf("\t%s\tTest 2:\tShould get the empty merkle root.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould get the empty merkle root.", success)
		}

		t.Logf("\tTest 3:\tWhen constructing a block with an impossible difficulty.")
		{
			_, err := database.NewBlock(1, nil, digest.HashString("prev"), digest.Size+1)
			if !errors.Is(err, database.ErrInvalidDifficulty) {
				t.Fatalf("\t%s\tTest 3:\tShould get ErrInvalidDifficulty, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould get ErrInvalidDifficulty.", success)
		}
	}
}

func Test_Mine(t *testing.T) {
	type table struct {
		name       string
		difficulty uint
	}

	tt := []table{
		{name: "zero", difficulty: 0},
		{name: "one", difficulty: 1},
		{name: "two", difficulty: 2},
	}

	t.Log("Given the need to mine blocks.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				b, err := database.NewBlock(1, []string{"A->B"}, digest.HashString("prev"), tst.difficulty)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to construct a block: %v", failed, testID, err)
				}
				orgNonce := b.Header.Nonce
				orgTime := b.Header.TimeStamp
				orgSolved := digest.IsSolved(b.Hash(), tst.difficulty)

				if err := b.Mine(context.Background(), nil); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould be able to mine the block.", success, testID)

				if !strings.HasPrefix(b.Hash(), strings.Repeat("0", int(tst.difficulty))) {
					t.Fatalf("\t%s\tTest %d:\tShould have %d leading zeros: %s", failed, testID, tst.difficulty, b.Hash())
				}
				t.Logf("\t%s\tTest %d:\tShould have %d leading zeros.", success, testID, tst.difficulty)

				if orgSolved && b.Header.Nonce != orgNonce {
					t.Fatalf("\t%s\tTest %d:\tShould leave the nonce alone for a solved block.", failed, testID)
				}

				if b.Header.TimeStamp != orgTime {
					t.Fatalf("\t%s\tTest %d:\tShould not change the timestamp.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould not change the timestamp.", success, testID)

				hash, _ := b.CalculateHash()
				if hash != b.Hash() {
					t.Fatalf("\t%s\tTest %d:\tShould keep the hash consistent with the fields.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould keep the hash consistent with the fields.", success, testID)

				if err := b.Mine(context.Background(), nil); !errors.Is(err, database.ErrAlreadyMined) {
					t.Fatalf("\t%s\tTest %d:\tShould get ErrAlreadyMined, got %v.", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould get ErrAlreadyMined.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_MineZeroDifficultyNoop(t *testing.T) {
	b, err := database.NewBlock(1, []string{"A->B"}, digest.HashString("prev"), 0)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a block: %v", failed, err)
	}
	hash := b.Hash()

	if err := b.Mine(context.Background(), nil); err != nil {
		t.Fatalf("\t%s\tShould be able to mine the block: %v", failed, err)
	}

	if b.Header.Nonce != 0 || b.Hash() != hash {
		t.Fatalf("\t%s\tShould leave the block untouched.", failed)
	}
	t.Logf("\t%s\tShould leave the block untouched.", success)
}

func Test_MineCancelled(t *testing.T) {
	b, err := database.NewBlock(1, []string{"A->B"}, digest.HashString("prev"), digest.Size)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a block: %v", failed, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := b.Mine(ctx, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("\t%s\tShould stop when the context times out, got %v.", failed, err)
	}
	t.Logf("\t%s\tShould stop when the context times out.", success)

	if b.IsMined() {
		t.Fatalf("\t%s\tShould not finalize a cancelled block.", failed)
	}
	t.Logf("\t%s\tShould not finalize a cancelled block.", success)
}

func Test_ValidateBlock(t *testing.T) {
	genesis, err := database.NewGenesis(0, []string{"Genesis Block"}, 1)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct genesis: %v", failed, err)
	}

	if err := genesis.ValidateGenesis(nil); err != nil {
		t.Fatalf("\t%s\tShould validate genesis: %v", failed, err)
	}
	t.Logf("\t%s\tShould validate genesis.", success)

	if err := genesis.Mine(context.Background(), nil); !errors.Is(err, database.ErrAlreadyMined) {
		t.Fatalf("\t%s\tShould not be able to mine genesis, got %v.", failed, err)
	}
	t.Logf("\t%s\tShould not be able to mine genesis.", success)

	b, err := database.NewBlock(1, []string{"A->B"}, genesis.Hash(), 1)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a block: %v", failed, err)
	}
	if err := b.Mine(context.Background(), nil); err != nil {
		t.Fatalf("\t%s\tShould be able to mine the block: %v", failed, err)
	}

	if err := b.ValidateBlock(genesis, 1, nil); err != nil {
		t.Fatalf("\t%s\tShould validate the mined block: %v", failed, err)
	}
	t.Logf("\t%s\tShould validate the mined block.", success)

	if err := b.ValidateBlock(b, 1, nil); err == nil {
		t.Fatalf("\t%s\tShould reject the wrong parent.", failed)
	}
	t.Logf("\t%s\tShould reject the wrong parent.", success)

	tampered := b.Clone()
	tampered.Trans.Leafs[0].Value = "A->Z"
	if err := tampered.ValidateBlock(genesis, 1, nil); err == nil {
		t.Fatalf("\t%s\tShould reject tampered transactions.", failed)
	}
	t.Logf("\t%s\tShould reject tampered transactions.", success)

	if err := b.ValidateBlock(genesis, 1, nil); err != nil {
		t.Fatalf("\t%s\tShould not affect the original when a clone is changed: %v", failed, err)
	}
	t.Logf("\t%s\tShould not affect the original when a clone is changed.", success)
}

func Test_ToBlock(t *testing.T) {
	genesis, err := database.NewGenesis(0, []string{"Genesis Block"}, 1)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct genesis: %v", failed, err)
	}

	b, err := database.NewBlock(1, []string{"A->B", "B->C"}, genesis.Hash(), 1)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a block: %v", failed, err)
	}
	if err := b.Mine(context.Background(), nil); err != nil {
		t.Fatalf("\t%s\tShould be able to mine the block: %v", failed, err)
	}

	t.Log("Given the need to reconstruct blocks from records.")
	{
		t.Logf("\tTest 0:\tWhen the record is intact.")
		{
			rebuilt, err := database.ToBlock(database.NewBlockData(b))
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould reconstruct the block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reconstruct the block.", success)

			if rebuilt.Hash() != b.Hash() || rebuilt.Header != b.Header {
				t.Fatalf("\t%s\tTest 0:\tShould get the same block back.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould get the same block back.", success)

			if err := rebuilt.ValidateBlock(genesis, 1, nil); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould validate the rebuilt block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould validate the rebuilt block.", success)
		}

		type table struct {
			name   string
			mutate func(bd *database.BlockData)
		}

		tt := []table{
			{name: "forged-hash", mutate: func(bd *database.BlockData) { bd.Hash = digest.HashString("forged") }},
			{name: "changed-tx", mutate: func(bd *database.BlockData) { bd.Transactions[0] = "A->Z" }},
			{name: "changed-nonce", mutate: func(bd *database.BlockData) { bd.Nonce++ }},
			{name: "missing-hash", mutate: func(bd *database.BlockData) { bd.Hash = "" }},
			{name: "missing-prev", mutate: func(bd *database.BlockData) { bd.PrevHash = "" }},
			{name: "missing-trans", mutate: func(bd *database.BlockData) { bd.Transactions = nil }},
			{name: "bad-encoding", mutate: func(bd *database.BlockData) { bd.Transactions[0] = "\xff" }},
			{name: "bad-difficulty", mutate: func(bd *database.BlockData) { bd.Difficulty = 65 }},
		}

		for testID, tst := range tt {
			f := func(t *testing.T) {
				bd := database.NewBlockData(b)
				tst.mutate(&bd)

				if _, err := database.ToBlock(bd); !errors.Is(err, database.ErrMalformedCandidateBlock) {
					t.Fatalf("\t%s\tTest %d:\tShould get ErrMalformedCandidateBlock, got %v.", failed, testID+1, err)
				}
				t.Logf("\t%s\tTest %d:\tShould get ErrMalformedCandidateBlock.", success, testID+1)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Proof(t *testing.T) {
	b, err := database.NewBlock(1, []string{"A->B", "B->C", "C->D"}, digest.HashString("prev"), 0)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a block: %v", failed, err)
	}

	proof, order, err := b.Proof("B->C")
	if err != nil {
		t.Fatalf("\t%s\tShould get a proof: %v", failed, err)
	}

	if !merkle.VerifyProof(b.Header.MerkleRoot, digest.HashString("B->C"), proof, order) {
		t.Fatalf("\t%s\tShould verify the proof against the merkle root.", failed)
	}
	t.Logf("\t%s\tShould verify the proof against the merkle root.", success)
}

func Test_Clone(t *testing.T) {
	b, err := database.NewBlock(1, []string{"A->B", "B->C", "C->D"}, digest.HashString("prev"), 0)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a block: %v", failed, err)
	}

	clone := b.Clone()
	if clone.Hash() != b.Hash() || clone.Trans == b.Trans {
		t.Fatalf("\t%s\tShould copy the block without sharing the tree.", failed)
	}
	t.Logf("\t%s\tShould copy the block without sharing the tree.", success)

	clone.Trans.Leafs[0].Value = "A->Z"
	if got := b.Transactions()[0]; got != "A->B" {
		t.Fatalf("\t%s\tShould not change the original through the copy, got %s.", failed, got)
	}
	if root, _ := b.CalculateMerkleRoot(); root != b.Header.MerkleRoot {
		t.Fatalf("\t%s\tShould keep the original merkle root consistent.", failed)
	}
	t.Logf("\t%s\tShould not change the original through the copy.", success)

	var empty database.Block
	if empty.Clone().Trans != nil {
		t.Fatalf("\t%s\tShould clone a block without transactions.", failed)
	}
}
