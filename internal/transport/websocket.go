package transport

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/olivier-w/neonpulse/internal/analysis"
	"github.com/olivier-w/neonpulse/internal/log"
)

// Path is the endpoint that upgrades to a band stream.
const Path = "/ws"

const (
	clientBuffer = 32
	writeTimeout = 2 * time.Second
)

// BandMessage is the JSON frame sent to every client once per rendered frame.
type BandMessage struct {
	Type string  `json:"type"`
	Time float64 `json:"time"`
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

type client struct {
	conn *websocket.Conn
	send chan BandMessage
}

// Broadcaster fans band energies out to WebSocket clients. A client that
// cannot keep up loses frames rather than stalling the render loop.
type Broadcaster struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	server  *http.Server
	closed  bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the HTTP handler serving Path.
func (b *Broadcaster) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, b.handleWebSocket)
	return mux
}

// Listen binds addr and serves in the background. The returned address is
// the one actually bound, which matters for ":0".
func (b *Broadcaster) Listen(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		ln.Close()
		return "", http.ErrServerClosed
	}
	b.server = &http.Server{Handler: b.Handler(), ReadHeaderTimeout: 5 * time.Second}
	srv := b.server
	b.mu.Unlock()

	go func() {
		log.Infof("transport: serving bands on ws://%s%s", ln.Addr(), Path)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("transport: server error: %v", err)
		}
	}()
	return ln.Addr().String(), nil
}

func (b *Broadcaster) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("transport: upgrade error: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan BandMessage, clientBuffer)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		conn.Close()
		return
	}
	b.clients[c] = struct{}{}
	total := len(b.clients)
	b.mu.Unlock()
	log.Debugf("transport: client connected, total: %d", total)

	go b.writeLoop(c)

	// Clients never send anything; a read error means they went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				b.remove(c)
				return
			}
		}
	}()
}

func (b *Broadcaster) writeLoop(c *client) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			log.Debugf("transport: write error: %v", err)
			b.remove(c)
			return
		}
	}
}

func (b *Broadcaster) remove(c *client) {
	b.mu.Lock()
	_, ok := b.clients[c]
	if ok {
		delete(b.clients, c)
		close(c.send)
	}
	total := len(b.clients)
	b.mu.Unlock()

	if ok {
		c.conn.Close()
		log.Debugf("transport: client disconnected, total: %d", total)
	}
}

// Publish queues one frame of band energies for every client.
func (b *Broadcaster) Publish(t float64, bands analysis.BandEnergies) {
	msg := BandMessage{Type: "bands", Time: t, Low: bands.Low, Mid: bands.Mid, High: bands.High}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		select {
		case c.send <- msg:
		default:
			// slow client, drop the frame
		}
	}
}

// Clients returns the number of connected clients.
func (b *Broadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close disconnects every client and stops the server. It is safe to call
// more than once.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	clients := b.clients
	b.clients = make(map[*client]struct{})
	srv := b.server
	b.mu.Unlock()

	for c := range clients {
		close(c.send)
		c.conn.Close()
	}
	if srv != nil {
		return srv.Close()
	}
	return nil
}
