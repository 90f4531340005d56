package rudp

// HandlerFactory constructs the upstream Handler for a new Connection
// (spec.md §4.G). Implementations typically close over application state
// shared across connections (a room, a player registry, a routing table).
type HandlerFactory interface {
	NewHandler(own, dest, relay Address) Handler
}

// HandlerFactoryFunc adapts a plain function to HandlerFactory.
type HandlerFactoryFunc func(own, dest, relay Address) Handler

func (f HandlerFactoryFunc) NewHandler(own, dest, relay Address) Handler {
	return f(own, dest, relay)
}

// MakeNewConnection is the factory operation of spec.md §4.G:
// make_new_connection(own_addr, dest_addr, relay_addr). It constructs the
// handler first, then the connection, then — if the handler asks for one —
// installs the handler's non-owning back-reference to the connection so it
// can call SendMessage/Shutdown on the channel it was just handed.
func MakeNewConnection(proto Proto, handlerFactory HandlerFactory, codec Codec, clock Clock, own, dest, relay Address, cfg Config) (*Connection, Handler) {
	handler := handlerFactory.NewHandler(own, dest, relay)
	conn := NewConnection(proto, handler, codec, clock, own, dest, relay, cfg)
	if binder, ok := handler.(ConnectionBinder); ok {
		binder.BindConnection(conn)
	}
	return conn, handler
}
