package tasks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbackend/internal/queue"
)

func TestScheduleSpecsAreValid(t *testing.T) {
	require.NoError(t, queue.ValidateSchedule(Schedule()))
}

func TestScheduleNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, entry := range Schedule() {
		assert.False(t, seen[entry.Name], "duplicate schedule name %q", entry.Name)
		seen[entry.Name] = true
	}
}

func TestEveryScheduledTaskHasHandler(t *testing.T) {
	reg := queue.NewRegistry()
	RegisterAll(reg, Services{})

	for _, entry := range Schedule() {
		_, ok := reg.Lookup(entry.Task)
		assert.True(t, ok, "schedule %q references unregistered task %q", entry.Name, entry.Task)
	}
}

func TestScheduleMatchesDeployedCadence(t *testing.T) {
	specs := map[string]string{}
	taskNames := map[string]string{}
	for _, entry := range Schedule() {
		specs[entry.Name] = entry.Spec
		taskNames[entry.Name] = entry.Task
	}

	assert.Equal(t, "0 2 * * *", specs["auto-cancel-unpaid-orders"])
	assert.Equal(t, "*/30 * * * *", specs["monitor-stock-levels"])
	assert.Equal(t, "0 * * * *", specs["check-low-stock-products"])
	assert.Equal(t, "30 23 * * *", specs["reconcile-daily-mpesa-transactions"])
	assert.Equal(t, "0 3 1 * *", specs["cleanup-old-resolved-alerts"])
	assert.Equal(t, "0 * * * *", specs["check-pending-orders"])

	assert.Equal(t, "products.tasks.check_low_stock_products", taskNames["check-low-stock-products"])
	assert.Equal(t, "customers.tasks.check_inactive_customers", taskNames["check-inactive-customers"])
	assert.Equal(t, "orders.tasks.check_pending_orders", taskNames["check-pending-orders"])
}

func TestRouterSendsAppsToTheirQueues(t *testing.T) {
	router := NewRouter()

	assert.Equal(t, "customers", router.Route("customers.tasks.send_welcome_email"))
	assert.Equal(t, "orders", router.Route("orders.tasks.auto_cancel_unpaid_orders"))
	assert.Equal(t, "payments", router.Route("payments.tasks.process_mpesa_callback_task"))
	assert.Equal(t, "inventory", router.Route("inventory.tasks.monitor_stock_levels"))
	assert.Equal(t, DefaultQueue, router.Route("products.tasks.record_view"),
		"product tasks share the default queue")
}

func TestEveryRegisteredTaskRoutesSomewhere(t *testing.T) {
	reg := queue.NewRegistry()
	RegisterAll(reg, Services{})
	router := NewRouter()

	known := map[string]bool{}
	for _, q := range Queues() {
		known[q] = true
	}
	for _, name := range reg.Names() {
		q := router.Route(name)
		assert.True(t, known[q], "task %q routes to unknown queue %q", name, q)
		// Task names follow the <app>.tasks.<name> convention.
		assert.Equal(t, 3, len(strings.SplitN(name, ".", 3)), "task %q has a malformed name", name)
	}
}
