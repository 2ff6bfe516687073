package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"unidash/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	vitalik      = common.HexToAddress("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045")
	stranger     = common.HexToAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")
	resolverAddr = common.HexToAddress("0x4976fb03C32e5B8cfe2b6cCB31c09Ba78EBaBa41")
)

func reverseNode(addr common.Address) [32]byte {
	return Namehash(strings.ToLower(addr.Hex()[2:]) + ".addr.reverse")
}

// newENSNode serves just enough JSON-RPC for the resolver: eth_call against
// the registry and resolver, and eth_getBalance.
func newENSNode(t *testing.T) *httptest.Server {
	parsed, err := ensABIInstance()
	require.NoError(t, err)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage   `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		var result interface{}
		switch req.Method {
		case "eth_getBalance":
			result = "0xde0b6b3a7640000"
		case "eth_call":
			var call map[string]string
			_ = json.Unmarshal(req.Params[0], &call)
			input := call["input"]
			if input == "" {
				input = call["data"]
			}
			raw, _ := hex.DecodeString(strings.TrimPrefix(input, "0x"))
			method, err := parsed.MethodById(raw[:4])
			if err != nil {
				http.Error(w, "unknown method", http.StatusBadRequest)
				return
			}
			var node [32]byte
			copy(node[:], raw[4:36])

			var out []byte
			switch method.Name {
			case "resolver":
				res := common.Address{}
				if node == Namehash("vitalik.eth") || node == reverseNode(vitalik) {
					res = resolverAddr
				}
				out, _ = method.Outputs.Pack(res)
			case "addr":
				res := common.Address{}
				if node == Namehash("vitalik.eth") {
					res = vitalik
				}
				out, _ = method.Outputs.Pack(res)
			case "name":
				out, _ = method.Outputs.Pack("vitalik.eth")
			}
			result = "0x" + hex.EncodeToString(out)
		default:
			result = "0x0"
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
}

func dialTestResolver(t *testing.T) *ENSResolver {
	server := newENSNode(t)
	t.Cleanup(server.Close)

	r, closeFn, err := DialENSResolver(context.Background(), server.URL, 0, nil)
	require.NoError(t, err)
	t.Cleanup(closeFn)
	return r
}

func TestNamehash(t *testing.T) {
	assert.Equal(t, [32]byte{}, Namehash(""))
	assert.Equal(t, "93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae", hex.EncodeToString(sliceOf(Namehash("eth"))))
	assert.Equal(t, "de9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f", hex.EncodeToString(sliceOf(Namehash("foo.eth"))))
}

func sliceOf(b [32]byte) []byte { return b[:] }

func TestResolveName(t *testing.T) {
	r := dialTestResolver(t)
	q, _ := models.ParseNameOrAddress("vitalik.eth")

	info, err := r.Resolve(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, vitalik, info.Address)
	assert.Equal(t, "vitalik.eth", info.ENSName)
	assert.Equal(t, "1000000000000000000", info.Balance.String())
}

func TestResolveAddressWithReverseRecord(t *testing.T) {
	r := dialTestResolver(t)
	q, _ := models.ParseNameOrAddress(vitalik.Hex())

	info, err := r.Resolve(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, vitalik, info.Address)
	assert.Equal(t, "vitalik.eth", info.ENSName)
}

func TestResolveAddressWithoutReverseRecord(t *testing.T) {
	r := dialTestResolver(t)
	q, _ := models.ParseNameOrAddress(stranger.Hex())

	info, err := r.Resolve(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, stranger, info.Address)
	assert.Empty(t, info.ENSName)
	assert.NotNil(t, info.Balance)
}

func TestResolveUnknownName(t *testing.T) {
	r := dialTestResolver(t)
	q, _ := models.ParseNameOrAddress("nobody.eth")

	_, err := r.Resolve(context.Background(), q)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNameNotFound))
}

func TestResolveZeroAddress(t *testing.T) {
	r := dialTestResolver(t)
	_, err := r.Resolve(context.Background(), models.NameOrAddress{})
	assert.True(t, errors.Is(err, ErrInvalidAddress))
}
