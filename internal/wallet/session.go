package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"ticketHub/internal/chain"
	"ticketHub/internal/model"
)

// State is the connection state of a wallet session.
type State string

const (
	StateNone         State = "none"
	StateDetecting    State = "detecting"
	StateConnected    State = "connected"
	StateWrongNetwork State = "wrong-network"
	StateError        State = "error"
)

// Status is a snapshot of a session.
type Status struct {
	State   State
	Account common.Address
	ChainID uint64
	Reason  string
}

// Session owns the wallet provider for the lifetime of the process. All
// operations are serialized; wallets do not tolerate overlapping prompts.
type Session struct {
	network model.NetworkDescriptor
	detect  DetectFunc
	logger  *zap.Logger

	mu       sync.Mutex
	provider Provider
	state    State
	account  common.Address
	chainID  uint64
	reason   string
}

func NewSession(network model.NetworkDescriptor, detect DetectFunc, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		network: network,
		detect:  detect,
		logger:  logger,
		state:   StateNone,
	}
}

// Status returns the current session state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{State: s.state, Account: s.account, ChainID: s.chainID, Reason: s.reason}
}

// Network returns the descriptor of the network the session targets.
func (s *Session) Network() model.NetworkDescriptor {
	return s.network
}

// EnsureProvider detects the injected wallet. It never retries on its own.
func (s *Session) EnsureProvider(ctx context.Context) (Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureProvider(ctx)
}

// RequestAccounts asks the wallet to authorize an account.
func (s *Session) RequestAccounts(ctx context.Context, p Provider) (common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestAccounts(ctx, p)
}

// EnsureNetwork selects target in the wallet, registering it first when the
// wallet has never seen it.
func (s *Session) EnsureNetwork(ctx context.Context, p Provider, target model.NetworkDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureNetwork(ctx, p, target)
}

// Connect runs provider detection, account authorization and the network
// check, and returns a signer for the authorized account.
func (s *Session) Connect(ctx context.Context) (chain.Sender, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.ensureProvider(ctx)
	if err != nil {
		return nil, err
	}
	account, err := s.requestAccounts(ctx, p)
	if err != nil {
		return nil, err
	}

	var active hexutil.Uint64
	if err := p.CallContext(ctx, &active, "eth_chainId"); err != nil {
		s.logger.Debug("eth_chainId failed", zap.Error(err))
	}
	if uint64(active) != s.network.ChainID {
		s.state = StateWrongNetwork
		s.logger.Info("wallet on wrong network",
			zap.Uint64("active_chain_id", uint64(active)),
			zap.Uint64("target_chain_id", s.network.ChainID),
		)
		if err := s.ensureNetwork(ctx, p, s.network); err != nil {
			return nil, err
		}
	} else {
		s.chainID = uint64(active)
		s.markConnected()
	}

	return &Signer{provider: p, account: account, chainID: s.chainID}, nil
}

// Close releases the provider if it holds a connection.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if closer, ok := s.provider.(interface{ Close() }); ok {
		closer.Close()
	}
	s.provider = nil
	s.state = StateNone
}

func (s *Session) ensureProvider(ctx context.Context) (Provider, error) {
	if s.provider != nil {
		return s.provider, nil
	}
	if s.detect == nil {
		return nil, s.fail(fmt.Errorf("%w: no detector configured", ErrProviderMissing))
	}

	s.state = StateDetecting
	p, err := s.detect(ctx)
	if err != nil {
		if !errors.Is(err, ErrProviderMissing) {
			err = fmt.Errorf("%w: %v", ErrProviderMissing, err)
		}
		return nil, s.fail(err)
	}
	if p == nil {
		return nil, s.fail(ErrProviderMissing)
	}
	s.provider = p
	return p, nil
}

func (s *Session) requestAccounts(ctx context.Context, p Provider) (common.Address, error) {
	var accounts []common.Address
	if err := p.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		if isUserRejected(err) {
			return common.Address{}, s.fail(fmt.Errorf("%w: %v", ErrUserRejected, err))
		}
		return common.Address{}, s.fail(fmt.Errorf("request accounts: %w", err))
	}
	if len(accounts) == 0 {
		return common.Address{}, s.fail(fmt.Errorf("%w: no account authorized", ErrUserRejected))
	}
	s.account = accounts[0]
	s.logger.Info("wallet account authorized", zap.String("account", s.account.Hex()))
	return s.account, nil
}

type switchChainParams struct {
	ChainID string `json:"chainId"`
}

type nativeCurrencyParams struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type addChainParams struct {
	ChainID           string               `json:"chainId"`
	ChainName         string               `json:"chainName"`
	RPCURLs           []string             `json:"rpcUrls"`
	BlockExplorerURLs []string             `json:"blockExplorerUrls,omitempty"`
	NativeCurrency    nativeCurrencyParams `json:"nativeCurrency"`
}

func (s *Session) ensureNetwork(ctx context.Context, p Provider, target model.NetworkDescriptor) error {
	chainID := hexutil.EncodeUint64(target.ChainID)

	err := p.CallContext(ctx, nil, "wallet_switchEthereumChain", switchChainParams{ChainID: chainID})
	if err == nil {
		s.chainID = target.ChainID
		s.markConnected()
		return nil
	}
	if !isUnrecognizedChain(err) {
		s.state = StateWrongNetwork
		s.reason = err.Error()
		return fmt.Errorf("%w: switch to %s: %v", ErrNetworkSwitchFailed, chainID, err)
	}

	s.logger.Info("registering network with wallet",
		zap.Uint64("chain_id", target.ChainID),
		zap.String("name", target.Name),
	)
	params := addChainParams{
		ChainID:           chainID,
		ChainName:         target.Name,
		RPCURLs:           target.RPCURLs,
		BlockExplorerURLs: target.ExplorerURLs,
		NativeCurrency: nativeCurrencyParams{
			Name:     target.Currency.Name,
			Symbol:   target.Currency.Symbol,
			Decimals: target.Currency.Decimals,
		},
	}
	if err := p.CallContext(ctx, nil, "wallet_addEthereumChain", params); err != nil {
		s.state = StateWrongNetwork
		s.reason = err.Error()
		return fmt.Errorf("%w: register %s: %v", ErrNetworkSwitchFailed, chainID, err)
	}

	s.chainID = target.ChainID
	s.markConnected()
	return nil
}

func (s *Session) markConnected() {
	s.state = StateConnected
	s.reason = ""
}

func (s *Session) fail(err error) error {
	s.state = StateError
	s.reason = err.Error()
	return err
}
