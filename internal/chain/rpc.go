// Package chain talks to the soulbound-token relayer over JSON-RPC 2.0.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/steemit/agora/pkg/telemetry"
)

// RPCRequest represents a JSON-RPC 2.0 request
type RPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

// RPCError represents a JSON-RPC error object
type RPCError struct {
	Code    int64
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// RPCClient is a minimal JSON-RPC 2.0 client over HTTP
type RPCClient struct {
	url    string
	http   *http.Client
	nextID int64
	logger *zap.Logger
}

// NewRPCClient creates a client for url
func NewRPCClient(url string, timeout time.Duration, logger *zap.Logger) *RPCClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RPCClient{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Call invokes method and returns the raw "result" member
func (c *RPCClient) Call(ctx context.Context, method string, params interface{}) (gjson.Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "chain."+method)
	defer span.End()

	id := atomic.AddInt64(&c.nextID, 1)
	body, err := json.Marshal(RPCRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("call %s: http status %d", method, resp.StatusCode)
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("call %s: malformed response", method)
	}

	reply := gjson.ParseBytes(raw)
	if rpcErr := reply.Get("error"); rpcErr.Exists() && rpcErr.Type != gjson.Null {
		return gjson.Result{}, &RPCError{
			Code:    rpcErr.Get("code").Int(),
			Message: rpcErr.Get("message").String(),
		}
	}
	if got := reply.Get("id").Int(); got != id {
		return gjson.Result{}, fmt.Errorf("call %s: response id %d does not match request id %d", method, got, id)
	}

	c.logger.Debug("rpc call", zap.String("method", method), zap.Int64("id", id))
	return reply.Get("result"), nil
}
