package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"vibequiz/internal/domain"
)

// Provider is the subset of an EIP-1193 wallet the session needs.
type Provider interface {
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
	On(event string, fn func(json.RawMessage)) func()
}

// AddressStore records the connected address for other processes to read.
type AddressStore interface {
	Save(ctx context.Context, address string) error
	Clear(ctx context.Context) error
}

// State is a snapshot of the wallet session.
type State struct {
	Address     string
	Network     string
	Initialized bool
}

// Connected reports whether an address is known.
func (s State) Connected() bool {
	return s.Address != ""
}

// OnTarget reports whether the wallet is on the chain the app transacts on.
func (s State) OnTarget() bool {
	return s.Network == TargetNetwork
}

// Session tracks the connected address and network of one wallet provider.
// Lifecycle is Init, then any number of Connect/SwitchNetwork calls, then Close.
type Session struct {
	provider Provider
	store    AddressStore
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     State
	unsubs    []func()
	observers map[int]func(State)
	seq       int
}

// NewSession builds a session. A nil provider means no wallet is available.
func NewSession(provider Provider, store AddressStore, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		provider:  provider,
		store:     store,
		logger:    logger.With("component", "wallet"),
		ctx:       ctx,
		cancel:    cancel,
		observers: make(map[int]func(State)),
	}
}

// Init subscribes to provider notifications and probes for an already
// authorised account. The session is initialized afterwards whatever the outcome.
func (s *Session) Init(ctx context.Context) {
	defer s.update(func(st *State) { st.Initialized = true })

	if s.provider == nil {
		s.logger.Info("no wallet provider available")
		return
	}

	s.mu.Lock()
	s.unsubs = append(s.unsubs,
		s.provider.On("accountsChanged", s.handleAccountsChanged),
		s.provider.On("chainChanged", s.handleChainChanged),
	)
	s.mu.Unlock()

	accounts, err := s.accounts(ctx, "eth_accounts")
	if err != nil {
		s.logger.Error("checking wallet connection", "err", err)
		return
	}
	s.applyAccounts(ctx, accounts)
}

// Connect asks the provider for account access. Failures other than a missing
// provider are logged and leave the address unset.
func (s *Session) Connect(ctx context.Context) error {
	if s.provider == nil {
		return domain.ErrProviderNotFound
	}
	accounts, err := s.accounts(ctx, "eth_requestAccounts")
	if err != nil {
		s.logger.Error("connecting wallet", "err", err)
		return nil
	}
	if len(accounts) > 0 {
		s.applyAccounts(ctx, accounts)
	}
	return nil
}

// SwitchNetwork moves the wallet to the target chain, adding the chain first
// when the wallet does not know it. Provider failures are logged.
func (s *Session) SwitchNetwork(ctx context.Context) error {
	if s.provider == nil {
		return domain.ErrProviderNotFound
	}

	_, err := s.provider.Request(ctx, "wallet_switchEthereumChain", map[string]string{"chainId": TargetChainID})
	if err != nil {
		if !domain.IsProviderCode(err, domain.CodeUnrecognizedChain) {
			s.logger.Error("switching network", "err", err)
			return nil
		}
		if _, err := s.provider.Request(ctx, "wallet_addEthereumChain", targetChain); err != nil {
			s.logger.Error("adding chain", "chain", TargetChainID, "err", err)
			return nil
		}
		s.checkNetwork(ctx)
		return nil
	}

	s.checkNetwork(ctx)
	accounts, err := s.accounts(ctx, "eth_accounts")
	if err != nil {
		s.logger.Error("reading accounts after switch", "err", err)
		return nil
	}
	if len(accounts) > 0 {
		s.setAddress(ctx, accounts[0])
	}
	return nil
}

// State returns a snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Address returns the connected address or "".
func (s *Session) Address() string {
	return s.State().Address
}

// Provider returns the underlying provider, nil when none is available.
func (s *Session) Provider() Provider {
	return s.provider
}

// Watch registers fn to receive a snapshot after every change.
func (s *Session) Watch(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := s.seq
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Close unsubscribes from the provider and drops all observers.
func (s *Session) Close() {
	s.cancel()
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.observers = make(map[int]func(State))
	s.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
}

func (s *Session) handleAccountsChanged(params json.RawMessage) {
	var accounts []string
	if err := json.Unmarshal(params, &accounts); err != nil {
		s.logger.Error("decoding accountsChanged", "err", err)
		return
	}
	s.applyAccounts(s.ctx, accounts)
}

func (s *Session) handleChainChanged(json.RawMessage) {
	s.checkNetwork(s.ctx)
}

func (s *Session) applyAccounts(ctx context.Context, accounts []string) {
	if len(accounts) == 0 {
		s.update(func(st *State) { st.Address = "" })
		if s.store != nil {
			if err := s.store.Clear(ctx); err != nil {
				s.logger.Error("clearing stored address", "err", err)
			}
		}
		return
	}
	s.setAddress(ctx, accounts[0])
	s.checkNetwork(ctx)
}

func (s *Session) setAddress(ctx context.Context, address string) {
	s.update(func(st *State) { st.Address = address })
	if s.store != nil {
		if err := s.store.Save(ctx, address); err != nil {
			s.logger.Error("saving address", "err", err)
		}
	}
}

func (s *Session) checkNetwork(ctx context.Context) string {
	label := UnknownNetwork
	raw, err := s.provider.Request(ctx, "eth_chainId")
	if err != nil {
		s.logger.Error("checking network", "err", err)
	} else {
		var chainID string
		if err := json.Unmarshal(raw, &chainID); err != nil {
			s.logger.Error("decoding chain id", "err", err)
		} else {
			label = NetworkLabel(chainID)
		}
	}
	s.update(func(st *State) { st.Network = label })
	return label
}

func (s *Session) accounts(ctx context.Context, method string) ([]string, error) {
	raw, err := s.provider.Request(ctx, method)
	if err != nil {
		return nil, err
	}
	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", method, err)
	}
	return accounts, nil
}

func (s *Session) update(mutate func(*State)) {
	s.mu.Lock()
	mutate(&s.state)
	snapshot := s.state
	observers := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}
