// Package chain defines the contract and raw payloads shared between EVM ingestion components.
package chain

import (
	"context"
	"encoding/json"
)

// Reader exposes the two logical node operations the ingester depends on.
type Reader interface {
	CurrentHeight(ctx context.Context) (uint64, error)
	FetchBlock(ctx context.Context, height uint64) (*RawBlock, error)
}

// RawBlock is a block as reported by eth_getBlockByNumber with full transaction objects.
// Quantities are kept in their hex encoding; normalization happens downstream.
type RawBlock struct {
	Number       string           `json:"number"`
	Hash         string           `json:"hash"`
	ParentHash   string           `json:"parentHash"`
	Nonce        string           `json:"nonce"`
	Difficulty   string           `json:"difficulty"`
	GasLimit     string           `json:"gasLimit"`
	GasUsed      string           `json:"gasUsed"`
	Miner        string           `json:"miner"`
	ExtraData    string           `json:"extraData"`
	Timestamp    string           `json:"timestamp"`
	Transactions []RawTransaction `json:"transactions"`

	// Raw holds the undecoded node response for diagnostic archiving.
	Raw json.RawMessage `json:"-"`
}

// RawTransaction is a transaction object embedded in a RawBlock.
type RawTransaction struct {
	Hash             string          `json:"hash"`
	Type             string          `json:"type"`
	AccessList       json.RawMessage `json:"accessList,omitempty"`
	BlockHash        string          `json:"blockHash"`
	BlockNumber      string          `json:"blockNumber"`
	TransactionIndex string          `json:"transactionIndex"`
	From             string          `json:"from"`
	To               *string         `json:"to"`
	Value            string          `json:"value"`
	GasPrice         string          `json:"gasPrice"`
	MaxFeePerGas     string          `json:"maxFeePerGas,omitempty"`
	Gas              string          `json:"gas"`
	Nonce            string          `json:"nonce"`
	Input            string          `json:"input"`
	ChainID          string          `json:"chainId,omitempty"`
}
