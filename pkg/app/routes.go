package app

import "fmt"

// RouteID identifies a screen. The set of implementations is closed.
type RouteID interface {
	routeID()
	String() string
}

type (
	WelcomeRoute     struct{}
	MainRoute        struct{}
	MyPositionsRoute struct{}
	LimitOrdersRoute struct{}
	SearchingRoute   struct{ Query string }
	PoolInfoRoute    struct{ Index int }
)

func (WelcomeRoute) routeID() {}
func (MainRoute) routeID() {}
func (MyPositionsRoute) routeID() {}
func (LimitOrdersRoute) routeID() {}
func (SearchingRoute) routeID() {}
func (PoolInfoRoute) routeID() {}

func (WelcomeRoute) String() string { return "welcome" }
func (MainRoute) String() string { return "main" }
func (MyPositionsRoute) String() string { return "my-positions" }
func (LimitOrdersRoute) String() string { return "limit-orders" }
func (r SearchingRoute) String() string { return fmt.Sprintf("searching(%s)", r.Query) }
func (r PoolInfoRoute) String() string { return fmt.Sprintf("pool-info(%d)", r.Index) }

// ActiveBlock names the widget that owns keyboard focus.
type ActiveBlock int

const (
	BlockSearchBar ActiveBlock = iota
	BlockMain
	BlockMyPositions
	BlockLimitOrders
	BlockPoolInfo
)

func (b ActiveBlock) String() string {
	switch b {
	case BlockSearchBar:
		return "search"
	case BlockMain:
		return "main"
	case BlockMyPositions:
		return "my-positions"
	case BlockLimitOrders:
		return "limit-orders"
	case BlockPoolInfo:
		return "pool-info"
	}
	return "unknown"
}

// Route pairs a screen with its focused widget.
type Route struct {
	ID    RouteID
	Block ActiveBlock
}

func DefaultRoute() Route {
	return Route{ID: WelcomeRoute{}, Block: BlockSearchBar}
}

// PushRoute makes (id, block) the current route.
func (s *State) PushRoute(id RouteID, block ActiveBlock) {
	s.routes = append(s.routes, Route{ID: id, Block: block})
}

// PopRoute drops the current route. The root route is never popped.
func (s *State) PopRoute() {
	if len(s.routes) > 1 {
		s.routes = s.routes[:len(s.routes)-1]
	}
}

// CurrentRoute returns a copy of the top of the stack.
func (s *State) CurrentRoute() Route {
	return s.routes[len(s.routes)-1]
}

// SetActiveBlock refocuses the current route, keeping its id. It is a pop
// followed by a push, so callers must hold the state lock.
func (s *State) SetActiveBlock(block ActiveBlock) {
	cur := s.CurrentRoute()
	if len(s.routes) > 1 {
		s.PopRoute()
		s.PushRoute(cur.ID, block)
		return
	}
	s.routes[0] = Route{ID: cur.ID, Block: block}
}

// Routes returns a copy of the stack, bottom first.
func (s *State) Routes() []Route {
	out := make([]Route, len(s.routes))
	copy(out, s.routes)
	return out
}

// ShowRoute focuses block on the current route when it is already the same
// kind of screen as id, and pushes a new route otherwise.
func (s *State) ShowRoute(id RouteID, block ActiveBlock) {
	if sameScreen(s.CurrentRoute().ID, id) {
		s.routes[len(s.routes)-1] = Route{ID: id, Block: block}
		return
	}
	s.PushRoute(id, block)
}

// sameScreen reports whether a and b are the same kind of route, ignoring
// their payloads.
func sameScreen(a, b RouteID) bool {
	switch a.(type) {
	case WelcomeRoute:
		_, ok := b.(WelcomeRoute)
		return ok
	case MainRoute:
		_, ok := b.(MainRoute)
		return ok
	case MyPositionsRoute:
		_, ok := b.(MyPositionsRoute)
		return ok
	case LimitOrdersRoute:
		_, ok := b.(LimitOrdersRoute)
		return ok
	case SearchingRoute:
		_, ok := b.(SearchingRoute)
		return ok
	case PoolInfoRoute:
		_, ok := b.(PoolInfoRoute)
		return ok
	}
	return false
}
