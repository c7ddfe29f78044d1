package krakengo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sonirico/vago/lol"
)

// SessionState is one node of the streaming session's state machine:
//
//	Disconnected --connect--> Opening --ok--> Connected
//	                               `--err--> Failed (terminal if attempts exhausted)
//	Connected --auth? yes--> Authenticating --ok--> Authenticated
//	Any --break--> Reconnecting (attempt++) --backoff--> Opening
//	Any --close()--> Closed (terminal)
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateOpening
	StateConnected
	StateAuthenticating
	StateAuthenticated
	StateReconnecting
	StateFailed
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateOpening:
		return "Opening"
	case StateConnected:
		return "Connected"
	case StateAuthenticating:
		return "Authenticating"
	case StateAuthenticated:
		return "Authenticated"
	case StateReconnecting:
		return "Reconnecting"
	case StateFailed:
		return "Failed"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

type authFlavor int

const (
	authNone authFlavor = iota
	authToken
	authChallenge
)

type subscriptionRecord struct {
	payload map[string]any
	pending bool
}

// Session is a single websocket connection to either Kraken flavor
// (Spot token auth or Futures challenge auth), exposing a demultiplexed
// event stream and transparent reconnect-with-resubscribe.
type Session struct {
	url    string
	config WsConfig
	flavor authFlavor

	token     string
	apiKey    string
	apiSecret string
	challenge string
	signed    string

	mu            sync.Mutex
	writeMu       sync.Mutex
	conn          *websocket.Conn
	state         SessionState
	subscriptions map[string]*subscriptionRecord
	nextSubID     atomic.Int64
	nextReqID     atomic.Int64

	lastRxAt         time.Time
	reconnectAttempt uint32

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	debug  bool
	logger lol.Logger
}

func newSession(wsURL string, config WsConfig, flavor authFlavor, opts []SessionOpt) (*Session, error) {
	parsed, err := url.Parse(wsURL)
	if err != nil {
		return nil, &SerializationError{Op: "parse websocket URL", Err: err}
	}
	if parsed.Scheme != "wss" && parsed.Scheme != "ws" {
		return nil, &StreamingError{Reason: "websocket URL must use ws or wss scheme, got: " + parsed.Scheme}
	}

	s := &Session{
		url:           wsURL,
		config:        config,
		flavor:        flavor,
		state:         StateDisconnected,
		subscriptions: make(map[string]*subscriptionRecord),
		events:        make(chan Event, 256),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt.Apply(s)
	}
	return s, nil
}

// ConnectPublic opens an unauthenticated streaming session.
func ConnectPublic(ctx context.Context, wsURL string, config WsConfig, opts ...SessionOpt) (*Session, error) {
	s, err := newSession(wsURL, config, authNone, opts)
	if err != nil {
		return nil, err
	}
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	s.startPumps()
	return s, nil
}

// ConnectToken opens a Spot private streaming session authenticated with a
// token previously obtained from SpotClient.GetWebSocketToken.
func ConnectToken(ctx context.Context, wsURL, token string, config WsConfig, opts ...SessionOpt) (*Session, error) {
	s, err := newSession(wsURL, config, authToken, opts)
	if err != nil {
		return nil, err
	}
	s.token = token
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	s.startPumps()
	return s, nil
}

// ConnectChallenge opens a Futures private streaming session, performing
// the challenge/response handshake: it sends {event:"challenge",api_key},
// waits up to config.ChallengeTimeout for the server's challenge string,
// and signs it with SignChallenge.
func ConnectChallenge(ctx context.Context, wsURL, apiKey, apiSecret string, config WsConfig, opts ...SessionOpt) (*Session, error) {
	s, err := newSession(wsURL, config, authChallenge, opts)
	if err != nil {
		return nil, err
	}
	s.apiKey = apiKey
	s.apiSecret = apiSecret
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	s.startPumps()
	return s, nil
}

// Events returns the session's demultiplexed event stream. It stays open
// until Close is called. Exhausting the reconnect attempts emits an
// EventDisconnected event but does not close the channel.
func (s *Session) Events() <-chan Event {
	return s.events
}

// State returns the session's current state-machine node.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// connect dials a fresh socket, performs the flavor's auth handshake if
// needed, and resends every recorded subscription. Used both for the
// initial connect and for each reconnect attempt.
func (s *Session) connect(ctx context.Context) error {
	s.setState(StateOpening)

	dialer := websocket.Dialer{}
	//nolint:bodyclose // websocket connections have no response body to close
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		s.setState(StateFailed)
		return &StreamingError{Reason: "dial", Err: err}
	}

	s.mu.Lock()
	s.conn = conn
	s.lastRxAt = time.Now()
	s.mu.Unlock()
	s.setState(StateConnected)

	if s.flavor != authNone {
		s.setState(StateAuthenticating)
		if err := s.authenticate(ctx); err != nil {
			_ = conn.Close()
			s.setState(StateFailed)
			return err
		}
		s.setState(StateAuthenticated)
	}

	return s.resubscribeAll()
}

func (s *Session) authenticate(ctx context.Context) error {
	switch s.flavor {
	case authToken:
		// token is attached per-subscription, not at connect time.
		return nil
	case authChallenge:
		return s.performChallenge(ctx)
	default:
		return nil
	}
}

func (s *Session) performChallenge(ctx context.Context) error {
	if err := s.writeJSON(map[string]any{"event": "challenge", "api_key": s.apiKey}); err != nil {
		return &StreamingError{Reason: "send challenge request", Err: err}
	}

	deadline := time.NewTimer(s.config.ChallengeTimeout)
	defer deadline.Stop()

	type challengeResult struct {
		challenge string
		err       error
	}
	resultCh := make(chan challengeResult, 1)

	go func() {
		for {
			_, msg, err := s.conn.ReadMessage()
			if err != nil {
				resultCh <- challengeResult{err: &StreamingError{Reason: "read challenge response", Err: err}}
				return
			}
			var frame struct {
				Event   string `json:"event"`
				Message string `json:"message"`
			}
			if err := json.Unmarshal(msg, &frame); err != nil {
				continue
			}
			switch frame.Event {
			case "challenge":
				resultCh <- challengeResult{challenge: frame.Message}
				return
			case "error":
				resultCh <- challengeResult{err: &StreamingError{Reason: "challenge rejected: " + frame.Message}}
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		return &StreamingError{Reason: "challenge wait canceled", Err: ctx.Err()}
	case <-deadline.C:
		return &StreamingError{Reason: "challenge wait timed out"}
	case res := <-resultCh:
		if res.err != nil {
			return res.err
		}
		signed, err := SignChallenge(s.apiSecret, res.challenge)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.challenge = res.challenge
		s.signed = signed
		s.mu.Unlock()
		return nil
	}
}

// Subscribe records and sends a subscription. The flavor's private auth
// fields (token, or original/signed challenge) are injected automatically.
func (s *Session) Subscribe(ctx context.Context, payload map[string]any) (string, error) {
	subID := fmt.Sprintf("sub-%d", s.nextSubID.Add(1))

	msg := s.decoratePayload(payload)

	s.mu.Lock()
	s.subscriptions[subID] = &subscriptionRecord{payload: payload, pending: true}
	s.mu.Unlock()

	if err := s.writeJSON(msg); err != nil {
		return "", &StreamingError{Reason: "send subscribe", Err: err}
	}
	return subID, nil
}

// Unsubscribe removes a prior subscription by the id returned from
// Subscribe.
func (s *Session) Unsubscribe(ctx context.Context, subID string) error {
	s.mu.Lock()
	rec, ok := s.subscriptions[subID]
	if ok {
		delete(s.subscriptions, subID)
	}
	s.mu.Unlock()
	if !ok {
		return &StreamingError{Reason: "unknown subscription id: " + subID}
	}

	msg := s.decoratePayload(rec.payload)
	if method, ok := msg["method"].(string); ok && method != "" {
		msg["method"] = "unsubscribe"
	} else {
		msg["event"] = "unsubscribe"
	}
	return s.writeJSON(msg)
}

func (s *Session) decoratePayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		out[k] = v
	}
	s.mu.Lock()
	switch s.flavor {
	case authToken:
		out["token"] = s.token
	case authChallenge:
		out["original_challenge"] = s.challenge
		out["signed_challenge"] = s.signed
	}
	s.mu.Unlock()
	return out
}

// SendCommand issues an arbitrary trading command over the socket (e.g.
// add_order/cancel_order on the token flavor), returning the request id
// attached so the caller can correlate the eventual OrderAck/
// OrderCancelAck/Error event.
func (s *Session) SendCommand(ctx context.Context, method string, params map[string]any) (int64, error) {
	reqID := s.nextReqID.Add(1)
	msg := s.decoratePayload(params)
	msg["method"] = method
	msg["req_id"] = reqID
	if err := s.writeJSON(msg); err != nil {
		return 0, &StreamingError{Reason: "send command " + method, Err: err}
	}
	return reqID, nil
}

func (s *Session) resubscribeAll() error {
	s.mu.Lock()
	records := make([]*subscriptionRecord, 0, len(s.subscriptions))
	for _, rec := range s.subscriptions {
		records = append(records, rec)
	}
	s.mu.Unlock()

	for _, rec := range records {
		rec.pending = true
		if err := s.writeJSON(s.decoratePayload(rec.payload)); err != nil {
			return &StreamingError{Reason: "resubscribe", Err: err}
		}
	}
	return nil
}

func (s *Session) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("session not connected")
	}

	if s.debug {
		bts, _ := json.Marshal(v)
		s.logger.Debugf("[>] %s", string(bts))
	}
	return conn.WriteJSON(v)
}

// startPumps launches readPump and pingPump, tracking both in the
// session's WaitGroup so Close can wait for them to exit before closing
// the event channel.
func (s *Session) startPumps() {
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.readPump()
	}()
	go func() {
		defer s.wg.Done()
		s.pingPump()
	}()
}

func (s *Session) readPump() {
	for {
		select {
		case <-s.done:
			return
		default:
		}

		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			if s.handleBreak() {
				continue
			}
			return
		}

		s.mu.Lock()
		s.lastRxAt = time.Now()
		s.mu.Unlock()

		if s.debug {
			s.logger.Debugf("[<] %s", string(msg))
		}

		evt := classifyFrame(msg)
		s.applyFrameSideEffects(evt)
		s.emit(evt)
	}
}

func (s *Session) applyFrameSideEffects(evt Event) {
	switch evt.Kind {
	case EventSubscribed:
		s.mu.Lock()
		for _, rec := range s.subscriptions {
			rec.pending = false
		}
		s.mu.Unlock()
	}
}

func (s *Session) emit(evt Event) {
	select {
	case s.events <- evt:
	case <-s.done:
	}
}

// pingPump drives app-level liveness for the token flavor only; the
// challenge flavor relies on the underlying websocket's own ping/pong
// control frames.
func (s *Session) pingPump() {
	if s.flavor == authChallenge || s.flavor == authNone {
		return
	}

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			sinceRx := time.Since(s.lastRxAt)
			s.mu.Unlock()
			if sinceRx > s.config.PingInterval+s.config.PongTimeout {
				s.handleBreak()
				continue
			}
			if err := s.writeJSON(map[string]any{"method": "ping"}); err != nil {
				s.handleBreak()
			}
		}
	}
}

// handleBreak is invoked from the read or ping loop on any socket break.
// It runs the reconnect-with-backoff loop synchronously and reports
// whether the caller's loop (readPump) should keep going on the new
// connection.
func (s *Session) handleBreak() bool {
	select {
	case <-s.done:
		return false
	default:
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return false
	}
	s.conn = nil
	s.mu.Unlock()

	return s.reconnectLoop()
}

func (s *Session) reconnectLoop() bool {
	s.setState(StateReconnecting)

	for {
		select {
		case <-s.done:
			return false
		default:
		}

		s.mu.Lock()
		s.reconnectAttempt++
		attempt := s.reconnectAttempt
		s.mu.Unlock()

		if s.config.MaxReconnectAttempts != nil && attempt > *s.config.MaxReconnectAttempts {
			s.emit(Event{Kind: EventDisconnected})
			s.setState(StateFailed)
			return false
		}

		s.emit(Event{Kind: EventReconnecting, Attempt: int(attempt)})

		wait := backoffFor(s.config.InitialBackoff, s.config.MaxBackoff, attempt)
		select {
		case <-time.After(wait):
		case <-s.done:
			return false
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := s.connect(ctx)
		cancel()
		if err != nil {
			continue
		}

		s.mu.Lock()
		s.reconnectAttempt = 0
		s.mu.Unlock()
		s.emit(Event{Kind: EventReconnected})
		return true
	}
}

func backoffFor(initial, max time.Duration, attempt uint32) time.Duration {
	if attempt == 0 {
		return initial
	}
	shift := attempt - 1
	if shift > 20 {
		shift = 20 // avoid overflowing the duration multiply
	}
	wait := initial << shift
	if wait > max || wait <= 0 {
		return max
	}
	return wait
}

// Close tears the session down deterministically: the socket is closed,
// the event stream drains and is closed, and no further reconnect is
// attempted.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.setState(StateClosed)
		close(s.done)

		s.mu.Lock()
		conn := s.conn
		s.conn = nil
		s.mu.Unlock()

		if conn != nil {
			err = conn.Close()
		}
		s.wg.Wait()
		close(s.events)
	})
	return err
}
