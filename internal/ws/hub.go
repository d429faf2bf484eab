package ws

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub fans deployment events out to subscribers keyed by website ID.
type Hub struct {
	clients   map[string]map[Subscriber]struct{}
	register  chan subscription
	unreg     chan subscription
	broadcast chan message
}

// message couples payload with website identifier.
type message struct {
	websiteID string
	payload   []byte
}

// subscription defines register/unregister requests.
type subscription struct {
	websiteID string
	client    Subscriber
}

// NewHub creates an initialized Hub.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[string]map[Subscriber]struct{}),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan message),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			if _, ok := h.clients[sub.websiteID]; !ok {
				h.clients[sub.websiteID] = make(map[Subscriber]struct{})
			}
			h.clients[sub.websiteID][sub.client] = struct{}{}
		case sub := <-h.unreg:
			if clients, ok := h.clients[sub.websiteID]; ok {
				delete(clients, sub.client)
				if len(clients) == 0 {
					delete(h.clients, sub.websiteID)
				}
			}
		case msg := <-h.broadcast:
			if clients, ok := h.clients[msg.websiteID]; ok {
				for c := range clients {
					if err := c.Send(msg.payload); err != nil {
						c.Close()
						delete(clients, c)
					}
				}
				if len(clients) == 0 {
					delete(h.clients, msg.websiteID)
				}
			}
		}
	}
}

// Register adds a client to a website's event stream.
func (h *Hub) Register(websiteID string, client Subscriber) {
	h.register <- subscription{websiteID: websiteID, client: client}
}

// Unregister removes a client.
func (h *Hub) Unregister(websiteID string, client Subscriber) {
	h.unreg <- subscription{websiteID: websiteID, client: client}
}

// Broadcast sends payload to all subscribers of a website.
func (h *Hub) Broadcast(websiteID string, payload []byte) {
	h.broadcast <- message{websiteID: websiteID, payload: payload}
}
