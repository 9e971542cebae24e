package model

// Transaction represents a normalized transaction persisted to the ledger.
// Value and GasPrice are decimal strings in the chain's major unit.
type Transaction struct {
	Hash             string
	Type             uint8
	AccessList       string
	BlockHash        string
	BlockHeight      uint64
	Timestamp        string
	TransactionIndex uint32
	From             string
	To               string
	Value            string
	GasPrice         string
	GasLimit         uint64
	Nonce            uint64
	Data             string
	Creates          string
	ChainID          uint64
}
