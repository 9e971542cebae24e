package ethereum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/chain"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/model"
	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/normalize"
	"github.com/goodnatureofminers/blockinsight7000-evm/pkg/safe"
)

// ConvertBlock maps a raw node block into ledger records. Every failure wraps
// chain.ErrMalformedResponse.
func ConvertBlock(src *chain.RawBlock) (model.LedgerBlock, error) {
	if src == nil {
		return model.LedgerBlock{}, fmt.Errorf("%w: nil block", chain.ErrMalformedResponse)
	}
	block, err := buildBlock(src)
	if err != nil {
		return model.LedgerBlock{}, fmt.Errorf("%w: %v", chain.ErrMalformedResponse, err)
	}

	txs := make([]model.Transaction, 0, len(src.Transactions))
	for i := range src.Transactions {
		tx, err := buildTransaction(&src.Transactions[i], block)
		if err != nil {
			return model.LedgerBlock{}, fmt.Errorf("%w: block %d tx %s: %v", chain.ErrMalformedResponse, block.Height, src.Transactions[i].Hash, err)
		}
		txs = append(txs, tx)
	}

	return model.LedgerBlock{Block: block, Txs: txs}, nil
}

func buildBlock(src *chain.RawBlock) (model.Block, error) {
	if src.Hash == "" {
		return model.Block{}, fmt.Errorf("block hash missing")
	}
	height, err := normalize.HexToUint64(src.Number)
	if err != nil {
		return model.Block{}, fmt.Errorf("block number: %w", err)
	}
	ts, err := normalize.HexToUint64(src.Timestamp)
	if err != nil {
		return model.Block{}, fmt.Errorf("block %d timestamp: %w", height, err)
	}
	seconds, err := safe.Int64(ts)
	if err != nil {
		return model.Block{}, fmt.Errorf("block %d timestamp: %w", height, err)
	}
	difficulty, err := normalize.HexToDecimalString(src.Difficulty)
	if err != nil {
		return model.Block{}, fmt.Errorf("block %d difficulty: %w", height, err)
	}
	gasLimit, err := normalize.HexToUint64(src.GasLimit)
	if err != nil {
		return model.Block{}, fmt.Errorf("block %d gas limit: %w", height, err)
	}
	gasUsed, err := normalize.HexToUint64(src.GasUsed)
	if err != nil {
		return model.Block{}, fmt.Errorf("block %d gas used: %w", height, err)
	}
	miner, err := normalize.Address(src.Miner)
	if err != nil {
		return model.Block{}, fmt.Errorf("block %d miner: %w", height, err)
	}
	txCount, err := safe.Uint32(len(src.Transactions))
	if err != nil {
		return model.Block{}, fmt.Errorf("block %d tx count: %w", height, err)
	}

	return model.Block{
		Hash:       src.Hash,
		ParentHash: src.ParentHash,
		Height:     height,
		Timestamp:  normalize.Timestamp(seconds),
		Nonce:      src.Nonce,
		Difficulty: difficulty,
		GasLimit:   gasLimit,
		GasUsed:    gasUsed,
		Miner:      miner,
		ExtraData:  src.ExtraData,
		TxCount:    txCount,
	}, nil
}

func buildTransaction(src *chain.RawTransaction, block model.Block) (model.Transaction, error) {
	if src.Hash == "" {
		return model.Transaction{}, fmt.Errorf("hash missing")
	}
	if src.BlockHash != "" && !strings.EqualFold(src.BlockHash, block.Hash) {
		return model.Transaction{}, fmt.Errorf("block hash %s does not match block %s", src.BlockHash, block.Hash)
	}
	if src.BlockNumber != "" {
		number, err := normalize.HexToUint64(src.BlockNumber)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("block number: %w", err)
		}
		if number != block.Height {
			return model.Transaction{}, fmt.Errorf("block number %d does not match block %d", number, block.Height)
		}
	}

	txType, err := decodeType(src.Type)
	if err != nil {
		return model.Transaction{}, err
	}
	accessList, err := encodeAccessList(src.AccessList)
	if err != nil {
		return model.Transaction{}, err
	}
	index, err := normalize.HexToUint64(src.TransactionIndex)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction index: %w", err)
	}
	txIndex, err := safe.Uint32(index)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction index: %w", err)
	}
	from, err := normalize.Address(src.From)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("from: %w", err)
	}
	var to string
	if src.To != nil && *src.To != "" {
		if to, err = normalize.Address(*src.To); err != nil {
			return model.Transaction{}, fmt.Errorf("to: %w", err)
		}
	}
	value, err := normalize.WeiToEther(src.Value)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("value: %w", err)
	}
	gasPrice, err := normalize.GasPrice(gasPriceHex(src))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("gas price: %w", err)
	}
	gasLimit, err := normalize.HexToUint64(src.Gas)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("gas: %w", err)
	}
	nonce, err := normalize.HexToUint64(src.Nonce)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("nonce: %w", err)
	}
	var chainID uint64
	if src.ChainID != "" {
		if chainID, err = normalize.HexToUint64(src.ChainID); err != nil {
			return model.Transaction{}, fmt.Errorf("chain id: %w", err)
		}
	}
	var creates string
	if to == "" {
		creates = crypto.CreateAddress(common.HexToAddress(from), nonce).Hex()
	}

	return model.Transaction{
		Hash:             src.Hash,
		Type:             txType,
		AccessList:       accessList,
		BlockHash:        block.Hash,
		BlockHeight:      block.Height,
		Timestamp:        block.Timestamp,
		TransactionIndex: txIndex,
		From:             from,
		To:               to,
		Value:            value.String(),
		GasPrice:         gasPrice,
		GasLimit:         gasLimit,
		Nonce:            nonce,
		Data:             src.Input,
		Creates:          creates,
		ChainID:          chainID,
	}, nil
}

func decodeType(value string) (uint8, error) {
	if value == "" {
		return types.LegacyTxType, nil
	}
	raw, err := normalize.HexToUint64(value)
	if err != nil {
		return 0, fmt.Errorf("type: %w", err)
	}
	t, err := safe.Uint8(raw)
	if err != nil {
		return 0, fmt.Errorf("type: %w", err)
	}
	return t, nil
}

// encodeAccessList re-encodes the access list canonically so identical input stores identical text.
func encodeAccessList(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, nullResult) {
		return "", nil
	}
	var list types.AccessList
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return "", fmt.Errorf("access list: %w", err)
	}
	encoded, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("access list: %w", err)
	}
	return string(encoded), nil
}

// gasPriceHex prefers the effective gas price and falls back to the fee cap for dynamic fee
// transactions reported without one.
func gasPriceHex(src *chain.RawTransaction) string {
	switch {
	case src.GasPrice != "":
		return src.GasPrice
	case src.MaxFeePerGas != "":
		return src.MaxFeePerGas
	default:
		return "0x0"
	}
}
