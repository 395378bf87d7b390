package chain

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/steemit/agora/pkg/config"
	"github.com/steemit/agora/pkg/logging"
)

// ErrNotConfigured is returned when no relayer URL is configured
var ErrNotConfigured = errors.New("chain relayer is not configured")

// SBTClient mints and updates soulbound membership tokens
type SBTClient struct {
	rpc      *RPCClient
	contract string
	logger   *zap.Logger
}

// New creates an SBT client. Without an RPC URL every call fails with
// ErrNotConfigured, which leaves outbox events pending until one is set.
func New(cfg *config.ChainConfig) *SBTClient {
	logger := logging.WithComponent("chain")
	c := &SBTClient{contract: cfg.ContractAddress, logger: logger}
	if cfg.RPCURL != "" {
		c.rpc = NewRPCClient(cfg.RPCURL, cfg.Timeout, logger)
		logger.Info("Chain client initialized", zap.String("url", cfg.RPCURL))
	}
	return c
}

// Mint issues a token to wallet and returns the transaction hash
func (c *SBTClient) Mint(ctx context.Context, wallet string) (string, error) {
	if wallet == "" {
		return "", fmt.Errorf("mint: empty wallet address")
	}
	return c.send(ctx, "sbt_mint", map[string]interface{}{
		"contract": c.contract,
		"to":       wallet,
	})
}

// UpdateRole records the wallet's role in a community on chain
func (c *SBTClient) UpdateRole(ctx context.Context, wallet string, communityID int64, role string) (string, error) {
	if wallet == "" {
		return "", fmt.Errorf("update role: empty wallet address")
	}
	return c.send(ctx, "sbt_updateRole", map[string]interface{}{
		"contract":    c.contract,
		"wallet":      wallet,
		"communityId": communityID,
		"role":        role,
	})
}

func (c *SBTClient) send(ctx context.Context, method string, params map[string]interface{}) (string, error) {
	if c.rpc == nil {
		return "", ErrNotConfigured
	}
	result, err := c.rpc.Call(ctx, method, []interface{}{params})
	if err != nil {
		return "", err
	}
	tx := result.Get("transactionHash").String()
	if tx == "" {
		tx = result.String()
	}
	if tx == "" {
		return "", fmt.Errorf("%s: empty transaction hash", method)
	}
	return tx, nil
}
