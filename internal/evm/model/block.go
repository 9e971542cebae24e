// Package model defines domain models for EVM ledger ingestion.
package model

// Block represents a normalized block persisted to the ledger.
type Block struct {
	Hash       string
	ParentHash string
	Height     uint64
	Timestamp  string
	Nonce      string
	Difficulty string
	GasLimit   uint64
	GasUsed    uint64
	Miner      string
	ExtraData  string
	TxCount    uint32
}

// LedgerBlock groups a block with its transactions for a single ingestion step.
type LedgerBlock struct {
	Block Block
	Txs   []Transaction
}
