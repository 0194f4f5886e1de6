package tasks

import "shopbackend/internal/queue"

// DefaultQueue is where unrouted tasks land.
const DefaultQueue = "celery"

// NewRouter returns the production routing table: each app's tasks ride
// their own queue so workers can be dedicated per concern. Product catalog
// maintenance shares the default queue.
func NewRouter() *queue.Router {
	return queue.NewRouter(DefaultQueue, map[string]string{
		"customers.tasks.": "customers",
		"orders.tasks.":    "orders",
		"payments.tasks.":  "payments",
		"inventory.tasks.": "inventory",
	})
}

// Queues lists every queue the routing table can target.
func Queues() []string {
	return []string{DefaultQueue, "customers", "orders", "payments", "inventory"}
}
