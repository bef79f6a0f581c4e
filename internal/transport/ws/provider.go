package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vibequiz/internal/domain"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned for requests issued or pending after Close.
var ErrClosed = errors.New("wallet provider connection closed")

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcMessage struct {
	ID     *uint64               `json:"id,omitempty"`
	Result json.RawMessage       `json:"result,omitempty"`
	Error  *domain.ProviderError `json:"error,omitempty"`
	Method string                `json:"method,omitempty"`
	Params json.RawMessage       `json:"params,omitempty"`
}

// Provider is an EIP-1193 style wallet provider reached over a JSON-RPC websocket.
// One goroutine owns writes and one owns reads. Notifications are dispatched in
// arrival order on a third goroutine so listeners may issue requests.
type Provider struct {
	conn   *websocket.Conn
	logger *slog.Logger

	send       chan rpcRequest
	closed     chan struct{}
	closeOnce  sync.Once
	writerDone chan struct{}
	readerDone chan struct{}
	events     chan rpcMessage

	mu        sync.Mutex
	nextID    uint64
	pending   map[uint64]chan rpcMessage
	listeners map[string]map[int]func(json.RawMessage)
	seq       int
}

// Dial connects to the wallet endpoint. Connection failures are reported as
// domain.ErrProviderNotFound.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Provider, error) {
	if url == "" {
		return nil, domain.ErrProviderNotFound
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w (%v)", domain.ErrProviderNotFound, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Provider{
		conn:       conn,
		logger:     logger,
		send:       make(chan rpcRequest, 16),
		closed:     make(chan struct{}),
		writerDone: make(chan struct{}),
		readerDone: make(chan struct{}),
		events:     make(chan rpcMessage, 32),
		pending:    make(map[uint64]chan rpcMessage),
		listeners:  make(map[string]map[int]func(json.RawMessage)),
	}
	go p.writeLoop()
	go p.readLoop()
	go p.dispatchLoop()
	return p, nil
}

// Request performs a JSON-RPC call and returns the raw result. RPC errors come back
// as *domain.ProviderError.
func (p *Provider) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	reply := make(chan rpcMessage, 1)

	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.pending[id] = reply
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
	}()

	select {
	case p.send <- rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}:
	case <-p.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case msg := <-reply:
		if msg.Error != nil {
			return nil, msg.Error
		}
		return msg.Result, nil
	case <-p.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// On registers fn for a provider notification such as accountsChanged or
// chainChanged. The returned function unsubscribes.
func (p *Provider) On(event string, fn func(json.RawMessage)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	id := p.seq
	if p.listeners[event] == nil {
		p.listeners[event] = make(map[int]func(json.RawMessage))
	}
	p.listeners[event][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners[event], id)
			p.mu.Unlock()
		})
	}
}

// Close tears down the connection, failing pending requests and dropping listeners.
func (p *Provider) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closed)
		_ = p.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), closeDeadline())
		err = p.conn.Close()
		<-p.writerDone
		<-p.readerDone

		p.mu.Lock()
		p.listeners = make(map[string]map[int]func(json.RawMessage))
		p.mu.Unlock()
	})
	return err
}

func (p *Provider) writeLoop() {
	defer close(p.writerDone)
	for {
		select {
		case msg := <-p.send:
			if err := p.conn.WriteJSON(msg); err != nil {
				p.logger.Error("wallet provider write failed", "method", msg.Method, "err", err)
				go p.Close()
				return
			}
		case <-p.closed:
			return
		}
	}
}

func (p *Provider) readLoop() {
	defer close(p.readerDone)
	for {
		var msg rpcMessage
		if err := p.conn.ReadJSON(&msg); err != nil {
			select {
			case <-p.closed:
			default:
				p.logger.Error("wallet provider read failed", "err", err)
				go p.Close()
			}
			return
		}

		if msg.ID == nil {
			if msg.Method != "" {
				select {
				case p.events <- msg:
				case <-p.closed:
					return
				}
			}
			continue
		}

		p.mu.Lock()
		reply, ok := p.pending[*msg.ID]
		p.mu.Unlock()
		if !ok {
			p.logger.Debug("wallet provider reply without request", "id", *msg.ID)
			continue
		}
		select {
		case reply <- msg:
		default:
		}
	}
}

func (p *Provider) dispatchLoop() {
	for {
		select {
		case msg := <-p.events:
			p.notify(msg.Method, msg.Params)
		case <-p.closed:
			return
		}
	}
}

func (p *Provider) notify(event string, params json.RawMessage) {
	p.mu.Lock()
	fns := make([]func(json.RawMessage), 0, len(p.listeners[event]))
	for _, fn := range p.listeners[event] {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(params)
	}
}

func closeDeadline() time.Time {
	return time.Now().Add(time.Second)
}
