package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"atlas/models"
)

func rpcTestServer(t *testing.T, handler func(req models.RPCRequest) (interface{}, *models.RPCError)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rpc" {
			http.NotFound(w, r)
			return
		}
		var req models.RPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result, rpcErr := handler(req)
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else if result != nil {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchPods(t *testing.T) {
	server := rpcTestServer(t, func(req models.RPCRequest) (interface{}, *models.RPCError) {
		if req.Method != methodGetPodsWithStats {
			t.Errorf("unexpected method %q", req.Method)
		}
		return models.PodsPayload{
			Pods:       []models.RawPod{{Pubkey: "abc", Version: "0.8.1"}},
			TotalCount: 1,
		}, nil
	})

	client := NewPRPCClient(2*time.Second, 6000)
	payload, err := client.FetchPods(context.Background(), server.URL, methodGetPodsWithStats)
	if err != nil {
		t.Fatalf("FetchPods() error: %v", err)
	}
	if len(payload.Pods) != 1 || payload.Pods[0].Pubkey != "abc" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestFetchPodsRPCError(t *testing.T) {
	server := rpcTestServer(t, func(models.RPCRequest) (interface{}, *models.RPCError) {
		return nil, &models.RPCError{Code: -32601, Message: "method not found"}
	})

	client := NewPRPCClient(2*time.Second, 6000)
	_, err := client.FetchPods(context.Background(), server.URL, methodGetPods)
	if err == nil {
		t.Fatal("expected rpc error")
	}
	if !strings.Contains(err.Error(), "method not found") {
		t.Errorf("error %q should carry the rpc message", err)
	}
}

func TestFetchPodsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := NewPRPCClient(2*time.Second, 6000)
	_, err := client.FetchPods(context.Background(), server.URL, methodGetPods)
	if err == nil {
		t.Fatal("expected http error")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error %q should carry the status code", err)
	}
}

func TestFetchPodsAbsentResult(t *testing.T) {
	server := rpcTestServer(t, func(models.RPCRequest) (interface{}, *models.RPCError) {
		return nil, nil
	})

	client := NewPRPCClient(2*time.Second, 6000)
	payload, err := client.FetchPods(context.Background(), server.URL, methodGetPods)
	if err != nil {
		t.Fatalf("FetchPods() error: %v", err)
	}
	if len(payload.Pods) != 0 {
		t.Errorf("expected empty pod list, got %d", len(payload.Pods))
	}
}

func TestBuildSeedURL(t *testing.T) {
	client := NewPRPCClient(time.Second, 6000)

	cases := []struct {
		seed string
		want string
	}{
		{"173.212.220.65", "http://173.212.220.65:6000/rpc"},
		{"  173.212.220.65  ", "http://173.212.220.65:6000/rpc"},
		{"173.212.220.65:7000", "http://173.212.220.65:7000/rpc"},
		{"http://seed.example.com", "http://seed.example.com/rpc"},
		{"http://seed.example.com/rpc", "http://seed.example.com/rpc"},
		{"https://seed.example.com/", "https://seed.example.com/rpc"},
		{"https://seed.example.com:8443", "https://seed.example.com:8443/rpc"},
		{"https://seed.example.com:8443/rpc", "https://seed.example.com:8443/rpc"},
	}
	for _, tc := range cases {
		if got := client.BuildSeedURL(tc.seed); got != tc.want {
			t.Errorf("BuildSeedURL(%q) = %q, want %q", tc.seed, got, tc.want)
		}
	}
}
