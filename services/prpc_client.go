package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"atlas/models"
)

const (
	methodGetPodsWithStats = "get-pods-with-stats"
	methodGetPods          = "get-pods"
)

// PRPCClient speaks JSON-RPC 2.0 to pNode seed endpoints.
type PRPCClient struct {
	httpClient  *http.Client
	defaultPort int
	requestID   atomic.Int64
}

func NewPRPCClient(timeout time.Duration, defaultPort int) *PRPCClient {
	if timeout <= 0 {
		timeout = 7 * time.Second
	}
	if defaultPort <= 0 {
		defaultPort = 6000
	}
	return &PRPCClient{
		httpClient:  &http.Client{Timeout: timeout},
		defaultPort: defaultPort,
	}
}

// BuildSeedURL resolves a seed entry to its pRPC endpoint. Entries that
// already carry a scheme are trusted as-is apart from the /rpc suffix; bare
// hosts get http, keeping an explicit port and defaulting otherwise.
func (c *PRPCClient) BuildSeedURL(seed string) string {
	seed = strings.TrimSpace(seed)
	if strings.HasPrefix(seed, "http://") || strings.HasPrefix(seed, "https://") {
		if strings.HasSuffix(seed, "/rpc") {
			return seed
		}
		return strings.TrimRight(seed, "/") + "/rpc"
	}
	host, port, err := net.SplitHostPort(seed)
	if err != nil {
		host, port = seed, strconv.Itoa(c.defaultPort)
	}
	return fmt.Sprintf("http://%s/rpc", net.JoinHostPort(host, port))
}

// FetchPods calls the given pod-listing method on one seed and decodes the
// result payload. An absent result with no error object decodes as an empty
// pod list, which callers treat as "seed answered but knows nothing".
func (c *PRPCClient) FetchPods(ctx context.Context, seed, method string) (*models.PodsPayload, error) {
	reqBody := models.RPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		ID:      c.requestID.Add(1),
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rpc request: %w", err)
	}

	url := c.BuildSeedURL(seed)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("seed %s returned HTTP %d", seed, resp.StatusCode)
	}

	var rpcResp models.RPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", seed, err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("seed %s rpc error %d: %s", seed, rpcResp.Error.Code, rpcResp.Error.Message)
	}

	result := &models.PodsPayload{}
	if len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return nil, fmt.Errorf("failed to decode pods payload from %s: %w", seed, err)
		}
	}
	return result, nil
}
