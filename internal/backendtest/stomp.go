package backendtest

import (
	"bytes"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	Subprotocols: []string{"v12.stomp"},
}

// brokerConn is one client connection to the fake broker
type brokerConn struct {
	ws   *websocket.Conn
	wmu  sync.Mutex
	subs map[string]string // subscription id -> destination
}

func (c *brokerConn) send(f *frame.Frame) error {
	var buf bytes.Buffer
	if err := frame.NewWriter(&buf).Write(f); err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, buf.Bytes())
}

// broker is a minimal STOMP 1.2 broker with topic fan-out
type broker struct {
	mu     sync.Mutex
	conns  map[*brokerConn]struct{}
	reject string
	nextID int
}

func newBroker() *broker {
	return &broker{conns: make(map[*brokerConn]struct{})}
}

func (b *broker) serve(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	c := &brokerConn{ws: ws, subs: make(map[string]string)}

	connect, err := readFrame(ws)
	if err != nil || (connect.Command != frame.CONNECT && connect.Command != frame.STOMP) {
		return
	}

	b.mu.Lock()
	reject := b.reject
	b.mu.Unlock()
	if reject != "" {
		_ = c.send(frame.New(frame.ERROR, frame.Message, reject))
		return
	}

	if err := c.send(frame.New(frame.CONNECTED, frame.Version, "1.2", frame.HeartBeat, "0,0")); err != nil {
		return
	}

	b.mu.Lock()
	b.conns[c] = struct{}{}
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.conns, c)
		b.mu.Unlock()
	}()

	for {
		f, err := readFrame(ws)
		if err != nil {
			return
		}
		if f == nil {
			continue
		}
		switch f.Command {
		case frame.SUBSCRIBE:
			b.mu.Lock()
			c.subs[f.Header.Get(frame.Id)] = f.Header.Get(frame.Destination)
			b.mu.Unlock()
		case frame.UNSUBSCRIBE:
			b.mu.Lock()
			delete(c.subs, f.Header.Get(frame.Id))
			b.mu.Unlock()
		case frame.DISCONNECT:
			return
		}
	}
}

// readFrame reads one WebSocket message holding a single frame; nil means
// a heart-beat
func readFrame(ws *websocket.Conn) (*frame.Frame, error) {
	_, data, err := ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	return frame.NewReader(bytes.NewReader(data)).Read()
}

func (b *broker) publish(destination, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for c := range b.conns {
		for id, dest := range c.subs {
			if dest != destination {
				continue
			}
			b.nextID++
			f := frame.New(frame.MESSAGE,
				frame.Destination, destination,
				frame.Subscription, id,
				frame.MessageId, strconv.Itoa(b.nextID),
				frame.ContentType, "text/plain;charset=UTF-8",
			)
			f.Body = []byte(body)
			_ = c.send(f)
		}
	}
}

func (b *broker) sendError(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.conns {
		_ = c.send(frame.New(frame.ERROR, frame.Message, message))
	}
}

func (b *broker) setReject(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reject = message
}

func (b *broker) dropAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.conns {
		_ = c.ws.Close()
		delete(b.conns, c)
	}
}

func (b *broker) subscribers(destination string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for c := range b.conns {
		for _, dest := range c.subs {
			if dest == destination {
				n++
				break
			}
		}
	}
	return n
}

func (b *broker) connections() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}
