package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/DIG-Network/dig-collateral-coin/config"
	"github.com/DIG-Network/dig-collateral-coin/internal/driver"
	klog "github.com/DIG-Network/dig-collateral-coin/internal/log"
	"github.com/DIG-Network/dig-collateral-coin/internal/signer"
	"github.com/DIG-Network/dig-collateral-coin/internal/simulator"
	"github.com/DIG-Network/dig-collateral-coin/internal/storage"
	"github.com/DIG-Network/dig-collateral-coin/pkg/crypto"
	"github.com/DIG-Network/dig-collateral-coin/pkg/program"
	"github.com/DIG-Network/dig-collateral-coin/pkg/spend"
	"github.com/DIG-Network/dig-collateral-coin/pkg/types"
)

// testEnv holds all components for an RPC test.
type testEnv struct {
	server   *Server
	sim      *simulator.Simulator
	protocol config.ProtocolConfig
	key      *crypto.PrivateKey
	puzzle   *program.Program
	coin     types.Coin
	url      string
}

func setupTestEnv(t *testing.T, serveCfg ...config.ServeConfig) *testEnv {
	t.Helper()
	klog.Init("error", false, "")

	p := config.DevnetProtocol()
	sim := simulator.New(p, storage.NewMemory())
	sim.SetFeeEstimate(25)

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	puzzle, err := driver.StandardPuzzle(p, key.PublicKey())
	if err != nil {
		t.Fatalf("standard puzzle: %v", err)
	}
	coin, err := sim.Fund(puzzle.TreeHash(), 1000)
	if err != nil {
		t.Fatalf("fund: %v", err)
	}

	// Create and start RPC server on random port.
	srv := New("127.0.0.1:0", p, sim, serveCfg...)
	if err := srv.Start(); err != nil {
		t.Fatalf("start rpc: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })

	return &testEnv{
		server:   srv,
		sim:      sim,
		protocol: p,
		key:      key,
		puzzle:   puzzle,
		coin:     coin,
		url:      fmt.Sprintf("http://%s/", srv.Addr()),
	}
}

func rpcCall(t *testing.T, url, method string, params interface{}) Response {
	t.Helper()
	req := Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", method, err)
	}
	defer resp.Body.Close()

	var rpcResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rpcResp
}

// decodeResult re-decodes a generic result into a typed value.
func decodeResult(t *testing.T, resp Response, v interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected error: %d %s", resp.Error.Code, resp.Error.Message)
	}
	data, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}

// spendBundle spends the funded coin into one output and a fee.
func (env *testEnv) spendBundle(t *testing.T) *spend.SpendBundle {
	t.Helper()
	cs := spend.CoinSpend{
		Coin:         env.coin,
		PuzzleReveal: env.puzzle,
		Solution: driver.StandardSolution([]spend.Condition{
			spend.NewCreateCoin(env.puzzle.TreeHash(), 990, [][]byte{env.puzzle.TreeHash().Bytes()}),
			spend.NewReserveFee(10),
		}),
	}
	bundle, err := signer.New(env.protocol).Sign(&spend.SpendSet{CoinSpends: []spend.CoinSpend{cs}},
		[]*crypto.PrivateKey{env.key}, env.protocol.UseAltSignatureDomain)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return bundle
}

// ── Tests ───────────────────────────────────────────────────────────────

func TestRPC_GetInfo(t *testing.T) {
	env := setupTestEnv(t)

	var result InfoResult
	decodeResult(t, rpcCall(t, env.url, MethodGetInfo, nil), &result)

	if result.Network != string(config.Devnet) {
		t.Errorf("network = %q, want devnet", result.Network)
	}
	if result.AssetID != env.protocol.AssetID.String() {
		t.Errorf("asset_id = %q", result.AssetID)
	}
	if result.Height != 0 {
		t.Errorf("height = %d, want 0", result.Height)
	}
}

func TestRPC_GetCoinState(t *testing.T) {
	env := setupTestEnv(t)

	var cs types.CoinState
	decodeResult(t, rpcCall(t, env.url, MethodGetCoinState, HashParam{Hash: env.coin.ID().String()}), &cs)
	if cs.Coin != env.coin {
		t.Errorf("coin = %v, want %v", cs.Coin, env.coin)
	}
	if cs.IsSpent() {
		t.Error("funded coin reported spent")
	}
}

func TestRPC_GetCoinState_NotFound(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, MethodGetCoinState, HashParam{Hash: types.Hash{1}.String()})
	if resp.Error == nil || resp.Error.Code != CodeNotFound {
		t.Fatalf("error = %+v, want code %d", resp.Error, CodeNotFound)
	}
}

func TestRPC_InvalidParams(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		method string
		params interface{}
	}{
		{MethodGetCoinState, nil},
		{MethodGetCoinState, HashParam{Hash: "abc"}},
		{MethodGetCoinsByHint, HashParam{Hash: "zz"}},
		{MethodGetPuzzleAndSolution, map[string]interface{}{"hash": 5}},
		{MethodPushBundle, BundleParam{}},
	}
	for _, tt := range tests {
		resp := rpcCall(t, env.url, tt.method, tt.params)
		if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
			t.Errorf("%s(%v): error = %+v, want invalid params", tt.method, tt.params, resp.Error)
		}
	}
}

func TestRPC_GetByHint(t *testing.T) {
	env := setupTestEnv(t)

	var states []types.CoinState
	decodeResult(t, rpcCall(t, env.url, MethodGetCoinsByHint, HashParam{Hash: env.coin.PuzzleHash.String()}), &states)
	if len(states) != 1 || states[0].Coin != env.coin {
		t.Errorf("states = %+v", states)
	}

	resp := rpcCall(t, env.url, MethodGetCoinsByHint, HashParam{Hash: types.Hash{9}.String()})
	data, _ := json.Marshal(resp.Result)
	if string(data) != "[]" {
		t.Errorf("empty hint result = %s, want []", data)
	}
}

func TestRPC_PushBundle(t *testing.T) {
	env := setupTestEnv(t)
	bundle := env.spendBundle(t)

	var result PushResult
	decodeResult(t, rpcCall(t, env.url, MethodPushBundle, BundleParam{Bundle: bundle}), &result)
	if result.BundleID != bundle.ID().String() {
		t.Errorf("bundle_id = %s, want %s", result.BundleID, bundle.ID())
	}

	// The spend is now visible.
	var cs spend.CoinSpend
	decodeResult(t, rpcCall(t, env.url, MethodGetPuzzleAndSolution, HashParam{Hash: env.coin.ID().String()}), &cs)
	if cs.PuzzleReveal.TreeHash() != env.coin.PuzzleHash {
		t.Error("returned puzzle reveal does not match the coin")
	}

	// Pushing it again is a double spend.
	resp := rpcCall(t, env.url, MethodPushBundle, BundleParam{Bundle: bundle})
	if resp.Error == nil || resp.Error.Code != CodeRejected {
		t.Errorf("error = %+v, want code %d", resp.Error, CodeRejected)
	}
}

func TestRPC_GetPuzzleAndSolution_Unspent(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, MethodGetPuzzleAndSolution, HashParam{Hash: env.coin.ID().String()})
	if resp.Error == nil || resp.Error.Code != CodeCoinUnspent {
		t.Errorf("error = %+v, want code %d", resp.Error, CodeCoinUnspent)
	}
}

func TestRPC_EstimateFee(t *testing.T) {
	env := setupTestEnv(t)

	var result FeeResult
	decodeResult(t, rpcCall(t, env.url, MethodEstimateFee, FeeParam{TargetSeconds: 60}), &result)
	if result.Fee != 25 {
		t.Errorf("fee = %d, want 25", result.Fee)
	}
}

func TestRPC_MethodNotFound(t *testing.T) {
	env := setupTestEnv(t)

	resp := rpcCall(t, env.url, "wallet_send", nil)
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Errorf("error = %+v, want method not found", resp.Error)
	}
}

func TestRPC_InvalidRequests(t *testing.T) {
	env := setupTestEnv(t)

	// Wrong version.
	body := `{"jsonrpc":"1.0","method":"chain_getInfo","id":1}`
	resp, err := http.Post(env.url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	var r Response
	json.NewDecoder(resp.Body).Decode(&r)
	resp.Body.Close()
	if r.Error == nil || r.Error.Code != CodeInvalidRequest {
		t.Errorf("version error = %+v", r.Error)
	}

	// Bad JSON.
	resp, err = http.Post(env.url, "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	r = Response{}
	json.NewDecoder(resp.Body).Decode(&r)
	resp.Body.Close()
	if r.Error == nil || r.Error.Code != CodeParseError {
		t.Errorf("parse error = %+v", r.Error)
	}

	// GET is not allowed.
	resp, err = http.Get(env.url)
	if err != nil {
		t.Fatal(err)
	}
	r = Response{}
	json.NewDecoder(resp.Body).Decode(&r)
	resp.Body.Close()
	if r.Error == nil || r.Error.Code != CodeInvalidRequest {
		t.Errorf("GET error = %+v", r.Error)
	}

	// Oversized body.
	big := `{"jsonrpc":"2.0","method":"chain_getInfo","params":"` + strings.Repeat("a", maxBodySize) + `","id":1}`
	resp, err = http.Post(env.url, "application/json", strings.NewReader(big))
	if err != nil {
		t.Fatal(err)
	}
	r = Response{}
	json.NewDecoder(resp.Body).Decode(&r)
	resp.Body.Close()
	if r.Error == nil || r.Error.Code != CodeInvalidRequest {
		t.Errorf("oversized error = %+v", r.Error)
	}
}

func TestRPC_IPFilter(t *testing.T) {
	env := setupTestEnv(t, config.ServeConfig{AllowedIPs: []string{"10.1.2.3"}})

	resp, err := http.Post(env.url, "application/json", strings.NewReader(`{"jsonrpc":"2.0","method":"chain_getInfo","id":1}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestRPC_CORS(t *testing.T) {
	env := setupTestEnv(t, config.ServeConfig{CORSOrigins: []string{"http://app.example"}})

	req, _ := http.NewRequest(http.MethodOptions, env.url, nil)
	req.Header.Set("Origin", "http://app.example")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://app.example" {
		t.Errorf("allow origin = %q", got)
	}

	req, _ = http.NewRequest(http.MethodOptions, env.url, nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unlisted origin got allow origin %q", got)
	}
}

func TestParseAllowedIPs(t *testing.T) {
	nets := parseAllowedIPs([]string{"127.0.0.1", "10.0.0.0/8", "::1", "not-an-ip"})
	if len(nets) != 3 {
		t.Fatalf("parsed %d nets, want 3", len(nets))
	}
	if ones, _ := nets[0].Mask.Size(); ones != 32 {
		t.Errorf("single IPv4 mask = /%d", ones)
	}
	if ones, _ := nets[2].Mask.Size(); ones != 128 {
		t.Errorf("single IPv6 mask = /%d", ones)
	}
}
