package clickhouse

func (s *RepositorySuite) TestWriteBlock() {
	b := newLedgerBlock(0, 3)

	s.Require().NoError(s.repo.WriteBlock(s.testCtx, b))

	s.Equal(uint64(1), s.countRows("evm_blocks"))
	s.Equal(uint64(3), s.countRows("evm_transactions"))
}

func (s *RepositorySuite) TestWriteBlockIsIdempotent() {
	b := newLedgerBlock(5, 2)

	s.Require().NoError(s.repo.WriteBlock(s.testCtx, b))
	s.Require().NoError(s.repo.WriteBlock(s.testCtx, b))

	s.Equal(uint64(1), s.countRows("evm_blocks"))
	s.Equal(uint64(2), s.countRows("evm_transactions"))

	height, found, err := s.repo.MaxBlockHeight(s.testCtx)
	s.Require().NoError(err)
	s.True(found)
	s.Equal(uint64(5), height)
}

func (s *RepositorySuite) TestWriteBlockRetryAfterOtherHeights() {
	first := newLedgerBlock(1, 2)
	second := newLedgerBlock(2, 1)

	s.Require().NoError(s.repo.WriteBlock(s.testCtx, first))
	s.Require().NoError(s.repo.WriteBlock(s.testCtx, second))
	s.Require().NoError(s.repo.WriteBlock(s.testCtx, first))

	s.Equal(uint64(2), s.countRows("evm_blocks"))
	s.Equal(uint64(3), s.countRows("evm_transactions"))
}

func (s *RepositorySuite) TestWriteBlockWithoutTransactions() {
	s.Require().NoError(s.repo.WriteBlock(s.testCtx, newLedgerBlock(1, 0)))

	s.Equal(uint64(1), s.countRows("evm_blocks"))
	s.Equal(uint64(0), s.countRows("evm_transactions"))
}

func (s *RepositorySuite) TestWriteBlockRoundTrip() {
	b := newLedgerBlock(9, 1)
	b.Txs[0].To = ""
	b.Txs[0].Creates = "0xcd234A471b72ba2F1Ccf0A70FCABA648a5eeCD8d"
	b.Txs[0].AccessList = `[{"address":"0x5df9b87991262f6ba471f09758cde1c0fc1de734","storageKeys":[]}]`
	s.Require().NoError(s.repo.WriteBlock(s.testCtx, b))

	rows, err := s.repo.conn.Query(s.testCtx, `
SELECT value, gas_price, creates, to_address, access_list, chain_id
FROM evm_transactions FINAL
WHERE hash = ?`, b.Txs[0].Hash)
	s.Require().NoError(err)
	defer func() {
		s.Require().NoError(rows.Close())
	}()

	var (
		value, gasPrice, creates, to, accessList string
		chainID                                  uint64
	)
	s.Require().True(rows.Next())
	s.Require().NoError(rows.Scan(&value, &gasPrice, &creates, &to, &accessList, &chainID))
	s.Equal(b.Txs[0].Value, value)
	s.Equal(b.Txs[0].GasPrice, gasPrice)
	s.Equal(b.Txs[0].Creates, creates)
	s.Empty(to)
	s.Equal(b.Txs[0].AccessList, accessList)
	s.Equal(b.Txs[0].ChainID, chainID)
}
