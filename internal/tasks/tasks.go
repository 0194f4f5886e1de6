// Package tasks binds the background task names to the service layer and
// owns the periodic schedule.
package tasks

import (
	"github.com/google/uuid"

	"shopbackend/internal/queue"
	"shopbackend/internal/services"
)

// Services bundles everything the task handlers call into.
type Services struct {
	Customers *services.CustomerService
	Orders    *services.OrderService
	Payments  *services.PaymentService
	Inventory *services.InventoryService
	Products  *services.ProductService
}

// RegisterAll installs every task handler on the registry.
func RegisterAll(reg *queue.Registry, s Services) {
	registerCustomerTasks(reg, s.Customers)
	registerOrderTasks(reg, s.Orders)
	registerPaymentTasks(reg, s.Payments)
	registerInventoryTasks(reg, s.Inventory)
	registerProductTasks(reg, s.Products)
}

// argUUID reads positional argument i as a UUID string.
func argUUID(t *queue.Task, i int) (uuid.UUID, error) {
	s, err := t.ArgString(i)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(s)
}
