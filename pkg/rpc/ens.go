package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"unidash/pkg/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// ENSRegistry is the mainnet ENS registry.
var ENSRegistry = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

var (
	ErrNameNotFound   = errors.New("ens name not found")
	ErrInvalidAddress = errors.New("invalid address")
)

const ensABIJSON = `[
  {"inputs": [{"name": "node", "type": "bytes32"}], "name": "resolver", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "node", "type": "bytes32"}], "name": "addr", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "node", "type": "bytes32"}], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

var (
	ensABI     abi.ABI
	ensABIOnce sync.Once
	ensABIErr  error
)

func ensABIInstance() (abi.ABI, error) {
	ensABIOnce.Do(func() {
		ensABI, ensABIErr = abi.JSON(strings.NewReader(ensABIJSON))
	})
	return ensABI, ensABIErr
}

// ChainReader is the subset of ethclient.Client the resolver needs.
type ChainReader interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// ENSResolver resolves ENS names and hex addresses against an Ethereum node.
type ENSResolver struct {
	client   ChainReader
	registry common.Address
	timeout  time.Duration
	logger   *zap.Logger
}

func NewENSResolver(client ChainReader, timeout time.Duration, logger *zap.Logger) *ENSResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ENSResolver{client: client, registry: ENSRegistry, timeout: timeout, logger: logger}
}

// DialENSResolver connects to rpcURL. The returned func closes the client.
func DialENSResolver(ctx context.Context, rpcURL string, timeout time.Duration, logger *zap.Logger) (*ENSResolver, func(), error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	return NewENSResolver(client, timeout, logger), client.Close, nil
}

// Resolve looks up the address behind a name, or the primary name behind an
// address, plus the account's ETH balance. A missing reverse record is not an
// error.
func (r *ENSResolver) Resolve(ctx context.Context, q models.NameOrAddress) (models.AddressInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	info := models.AddressInfo{}
	if q.IsName {
		addr, err := r.lookupAddress(ctx, q.Name)
		if err != nil {
			return info, fmt.Errorf("resolve %s: %w", q.Name, err)
		}
		info.Address = addr
		info.ENSName = q.Name
	} else {
		if q.Address == (common.Address{}) {
			return info, ErrInvalidAddress
		}
		info.Address = q.Address
		name, err := r.lookupName(ctx, q.Address)
		if err != nil {
			r.logger.Debug("reverse ens lookup failed", zap.String("address", q.Address.Hex()), zap.Error(err))
		}
		info.ENSName = name
	}

	balance, err := r.client.BalanceAt(ctx, info.Address, nil)
	if err != nil {
		return info, fmt.Errorf("balance of %s: %w", info.Address.Hex(), err)
	}
	info.Balance = balance
	return info, nil
}

func (r *ENSResolver) lookupAddress(ctx context.Context, name string) (common.Address, error) {
	node := Namehash(name)
	resolver, err := r.resolverFor(ctx, node)
	if err != nil {
		return common.Address{}, err
	}
	values, err := r.call(ctx, resolver, "addr", node)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := values[0].(common.Address)
	if !ok || addr == (common.Address{}) {
		return common.Address{}, ErrNameNotFound
	}
	return addr, nil
}

func (r *ENSResolver) lookupName(ctx context.Context, addr common.Address) (string, error) {
	node := Namehash(strings.ToLower(addr.Hex()[2:]) + ".addr.reverse")
	resolver, err := r.resolverFor(ctx, node)
	if err != nil {
		return "", err
	}
	values, err := r.call(ctx, resolver, "name", node)
	if err != nil {
		return "", err
	}
	name, _ := values[0].(string)
	return name, nil
}

func (r *ENSResolver) resolverFor(ctx context.Context, node [32]byte) (common.Address, error) {
	values, err := r.call(ctx, r.registry, "resolver", node)
	if err != nil {
		return common.Address{}, err
	}
	resolver, ok := values[0].(common.Address)
	if !ok || resolver == (common.Address{}) {
		return common.Address{}, ErrNameNotFound
	}
	return resolver, nil
}

func (r *ENSResolver) call(ctx context.Context, to common.Address, method string, node [32]byte) ([]interface{}, error) {
	parsed, err := ensABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse ens abi: %w", err)
	}
	data, err := parsed.Pack(method, node)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	resp, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if len(resp) == 0 {
		return nil, ErrNameNotFound
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, ErrNameNotFound
	}
	return values, nil
}

// Namehash implements the ENS name hashing scheme (EIP-137).
func Namehash(name string) [32]byte {
	var node [32]byte
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		label := crypto.Keccak256([]byte(labels[i]))
		copy(node[:], crypto.Keccak256(node[:], label))
	}
	return node
}
