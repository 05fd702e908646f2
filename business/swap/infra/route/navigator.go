// Package route tracks the visible pair route.
package route

import (
	"context"
	"sync"

	"github.com/fd1az/swapdesk/business/swap/app"
	"github.com/fd1az/swapdesk/business/swap/domain"
	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/logger"
)

const defaultHistory = 50

var _ app.Navigator = (*Navigator)(nil)

// Sink persists the last route. Optional.
type Sink interface {
	SaveRoute(ctx context.Context, r domain.Route) error
}

// Navigator keeps a bounded history of routes and tells listeners about
// every move.
type Navigator struct {
	sink Sink
	log  logger.LoggerInterface
	max  int

	mu        sync.RWMutex
	history   []domain.Route
	listeners []func(domain.Route)
}

// NewNavigator creates a Navigator. sink may be nil.
func NewNavigator(sink Sink, log logger.LoggerInterface) *Navigator {
	return &Navigator{sink: sink, log: log, max: defaultHistory}
}

// OnNavigate registers fn for every accepted route.
func (n *Navigator) OnNavigate(fn func(domain.Route)) {
	n.mu.Lock()
	n.listeners = append(n.listeners, fn)
	n.mu.Unlock()
}

// Navigate moves to r. Moving to the current route is a no-op.
func (n *Navigator) Navigate(ctx context.Context, r domain.Route) error {
	if r.ChainID == 0 || !r.Kind.Valid() {
		return apperror.Validation(apperror.CodeInvalidInput, "route "+r.Slug())
	}

	n.mu.Lock()
	if len(n.history) > 0 && n.history[len(n.history)-1] == r {
		n.mu.Unlock()
		return nil
	}
	n.history = append(n.history, r)
	if len(n.history) > n.max {
		n.history = n.history[len(n.history)-n.max:]
	}
	listeners := n.listeners
	n.mu.Unlock()

	n.log.Debug(ctx, "navigate", "route", r.Slug())
	for _, fn := range listeners {
		fn(r)
	}

	if n.sink != nil {
		if err := n.sink.SaveRoute(ctx, r); err != nil {
			return apperror.Wrap(err, apperror.CodeNavigationFailed, "save route")
		}
	}
	return nil
}

// Current returns the latest route.
func (n *Navigator) Current() (domain.Route, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if len(n.history) == 0 {
		return domain.Route{}, false
	}
	return n.history[len(n.history)-1], true
}

// History returns the routes visited, oldest first.
func (n *Navigator) History() []domain.Route {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]domain.Route(nil), n.history...)
}
