package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	// ReceiptPollInterval is how often WaitMined checks for a receipt
	ReceiptPollInterval = 2 * time.Second

	// DefaultWaitTimeout bounds how long WaitMined polls before giving up
	DefaultWaitTimeout = 5 * time.Minute
)

// Call describes a single contract read
type Call struct {
	To     common.Address
	ABI    gethabi.ABI
	Method string
	Args   []interface{}
}

// CallResult holds the decoded values of one read, or its failure.
// Batch reads report failure per call, never for the batch as a whole.
type CallResult struct {
	Values []interface{}
	Err    error
}

// Ok reports whether the call succeeded
func (r CallResult) Ok() bool {
	return r.Err == nil
}

// BigInt returns the first decoded value as *big.Int
func (r CallResult) BigInt() (*big.Int, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if len(r.Values) == 0 {
		return nil, fmt.Errorf("call returned no values")
	}
	v, ok := r.Values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected return type %T", r.Values[0])
	}
	return v, nil
}

// Client wraps an ethclient connection with contract call, transaction
// submission, and log filtering helpers. A client without a private key
// is read-only.
type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
	key     *ecdsa.PrivateKey
	from    common.Address
	logger  *zap.Logger

	mu          sync.Mutex
	headerTimes map[uint64]time.Time
}

// Dial connects to the RPC endpoint. privateKeyHex may be empty for a
// read-only client.
func Dial(rpcURL string, chainID int64, privateKeyHex string, logger *zap.Logger) (*Client, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL not configured")
	}

	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to RPC endpoint")
	}

	c := &Client{
		eth:         eth,
		chainID:     big.NewInt(chainID),
		logger:      logger,
		headerTimes: make(map[uint64]time.Time),
	}

	if privateKeyHex != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		pub, ok := key.Public().(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("failed to get public key")
		}
		c.key = key
		c.from = crypto.PubkeyToAddress(*pub)
	}

	return c, nil
}

// From returns the signing account address (zero address when read-only)
func (c *Client) From() common.Address {
	return c.from
}

// CanSign reports whether the client holds a signing key
func (c *Client) CanSign() bool {
	return c.key != nil
}

// Call performs a single contract read and decodes the return values
func (c *Client) Call(ctx context.Context, call Call) ([]interface{}, error) {
	data, err := call.ABI.Pack(call.Method, call.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", call.Method, err)
	}

	msg := ethereum.CallMsg{
		To:   &call.To,
		Data: data,
	}
	result, err := c.eth.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s failed", call.Method)
	}

	values, err := call.ABI.Unpack(call.Method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", call.Method, err)
	}

	return values, nil
}

// CallBatch performs a set of independent reads and reports success or
// failure per call. Callers decide how to treat partial failure.
func (c *Client) CallBatch(ctx context.Context, calls []Call) []CallResult {
	results := make([]CallResult, len(calls))
	for i, call := range calls {
		values, err := c.Call(ctx, call)
		results[i] = CallResult{Values: values, Err: err}
	}
	return results
}

// Send packs, signs, and submits a contract write, returning the pending
// transaction hash.
func (c *Client) Send(ctx context.Context, to common.Address, contractABI gethabi.ABI, method string, args ...interface{}) (common.Hash, error) {
	if c.key == nil {
		return common.Hash{}, fmt.Errorf("no private key configured for writes")
	}

	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.from)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to get nonce")
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to get gas price")
	}

	// Estimate gas with a 20% buffer; fall back to a fixed limit when the
	// node refuses the estimate (it will surface the revert at mining time)
	gasLimit := uint64(300000)
	msg := ethereum.CallMsg{
		From: c.from,
		To:   &to,
		Data: data,
	}
	if estimated, err := c.eth.EstimateGas(ctx, msg); err == nil {
		gasLimit = estimated * 120 / 100
	}

	tx := types.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), c.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, errors.Wrapf(err, "failed to send %s transaction", method)
	}

	c.logger.Debug("transaction submitted",
		zap.String("method", method),
		zap.String("hash", signedTx.Hash().Hex()))

	return signedTx.Hash(), nil
}

// WaitMined polls for the transaction receipt until the transaction is
// confirmed, fails, or the timeout elapses. While the receipt is absent
// the transaction is still confirming.
func (c *Client) WaitMined(ctx context.Context, hash common.Hash) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultWaitTimeout)
	defer cancel()

	ticker := time.NewTicker(ReceiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("transaction %s reverted", hash.Hex())
			}
			return nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			c.logger.Debug("receipt lookup failed, retrying", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "timed out waiting for transaction %s", hash.Hex())
		case <-ticker.C:
		}
	}
}

// BlockNumber returns the current chain head number
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get block number")
	}
	return n, nil
}

// FilterLogs returns logs matching the query
func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	logs, err := c.eth.FilterLogs(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch logs")
	}
	return logs, nil
}

// BlockTime returns the timestamp of a block, cached per block number
func (c *Client) BlockTime(ctx context.Context, blockNumber uint64) (time.Time, error) {
	c.mu.Lock()
	if t, ok := c.headerTimes[blockNumber]; ok {
		c.mu.Unlock()
		return t, nil
	}
	c.mu.Unlock()

	header, err := c.eth.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "failed to get header %d", blockNumber)
	}

	t := time.Unix(int64(header.Time), 0)
	c.mu.Lock()
	c.headerTimes[blockNumber] = t
	c.mu.Unlock()

	return t, nil
}

// Close closes the underlying connection
func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
	}
}
