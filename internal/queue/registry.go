package queue

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// HandlerFunc executes a named task. The returned value is stored in the
// result backend; wrap errors with Retry to request re-delivery.
type HandlerFunc func(ctx context.Context, task *Task) (interface{}, error)

// Registry maps task names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register binds a handler to a task name. Registering the same name twice
// is a programming error.
func (r *Registry) Register(name string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.handlers[name]; dup {
		panic(fmt.Sprintf("queue: task %q registered twice", name))
	}
	r.handlers[name] = h
}

// Lookup returns the handler for a task name.
func (r *Registry) Lookup(name string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns all registered task names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Router maps task names to queues by name prefix, e.g.
// "orders.tasks." -> "orders". Unmatched tasks go to the default queue.
type Router struct {
	routes       map[string]string
	defaultQueue string
}

// NewRouter builds a router. Keys of routes are task-name prefixes.
func NewRouter(defaultQueue string, routes map[string]string) *Router {
	return &Router{routes: routes, defaultQueue: defaultQueue}
}

// Route returns the queue a task should be published to.
func (r *Router) Route(taskName string) string {
	for prefix, q := range r.routes {
		if strings.HasPrefix(taskName, prefix) {
			return q
		}
	}
	return r.defaultQueue
}

// DefaultQueue returns the fallback queue name.
func (r *Router) DefaultQueue() string {
	return r.defaultQueue
}

// Queues returns every queue the router can publish to, default first.
func (r *Router) Queues() []string {
	seen := map[string]bool{r.defaultQueue: true}
	out := []string{r.defaultQueue}
	names := make([]string, 0, len(r.routes))
	for _, q := range r.routes {
		names = append(names, q)
	}
	sort.Strings(names)
	for _, q := range names {
		if !seen[q] {
			seen[q] = true
			out = append(out, q)
		}
	}
	return out
}
