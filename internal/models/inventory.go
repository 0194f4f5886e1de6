package models

import (
	"time"

	"github.com/google/uuid"
)

type Warehouse struct {
	ID        uuid.UUID  `json:"id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	Address   string     `json:"address,omitempty"`
	Capacity  int        `json:"capacity"` // total unit capacity, 0 = unlimited
	ManagerID *uuid.UUID `json:"manager_id,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}

// WarehouseStock tracks one product's stock at one warehouse.
type WarehouseStock struct {
	ID          uuid.UUID `json:"id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	ProductID   uuid.UUID `json:"product_id"`

	Quantity        int `json:"quantity"`
	ReservedQty     int `json:"reserved_quantity"`
	DamagedQty      int `json:"damaged_quantity"`
	ReorderPoint    int `json:"reorder_point"`
	ReorderQuantity int `json:"reorder_quantity"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Available is the sellable quantity: on hand minus reserved minus damaged.
func (s *WarehouseStock) Available() int {
	return s.Quantity - s.ReservedQty - s.DamagedQty
}

// NeedsReorder reports whether available stock has fallen to the reorder
// point.
func (s *WarehouseStock) NeedsReorder() bool {
	return s.ReorderPoint > 0 && s.Available() <= s.ReorderPoint
}

// IsOverstocked flags stock above three times the reorder quantity.
func (s *WarehouseStock) IsOverstocked() bool {
	return s.ReorderQuantity > 0 && s.Quantity > s.ReorderQuantity*3
}

// Stock movement types.
const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementTransfer   = "transfer"
	MovementAdjustment = "adjustment"
)

// StockMovement is the immutable audit record of every stock change.
type StockMovement struct {
	ID          uuid.UUID  `json:"id"`
	WarehouseID uuid.UUID  `json:"warehouse_id"`
	ProductID   uuid.UUID  `json:"product_id"`
	Type        string     `json:"movement_type"`
	Quantity    int        `json:"quantity"` // signed: negative for out
	Reference   string     `json:"reference,omitempty"`
	PerformedBy *uuid.UUID `json:"performed_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Inventory transfer statuses.
const (
	TransferRequested = "requested"
	TransferApproved  = "approved"
	TransferInTransit = "in_transit"
	TransferReceived  = "received"
	TransferCancelled = "cancelled"
)

type InventoryTransfer struct {
	ID              uuid.UUID  `json:"id"`
	FromWarehouseID uuid.UUID  `json:"from_warehouse_id"`
	ToWarehouseID   uuid.UUID  `json:"to_warehouse_id"`
	ProductID       uuid.UUID  `json:"product_id"`
	Quantity        int        `json:"quantity"`
	Status          string     `json:"status"`
	RequestedAt     time.Time  `json:"requested_at"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	ShippedAt       *time.Time `json:"shipped_at,omitempty"`
	ReceivedAt      *time.Time `json:"received_at,omitempty"`
	ExpectedDelivery *time.Time `json:"expected_delivery,omitempty"`
}

// Stock alert types and priorities.
const (
	AlertLowStock     = "low_stock"
	AlertOutOfStock   = "out_of_stock"
	AlertReorderPoint = "reorder_point"
	AlertOverstock    = "overstock"
	AlertDamaged      = "damaged"
	AlertCapacity     = "capacity"

	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

type StockAlert struct {
	ID          uuid.UUID  `json:"id"`
	Type        string     `json:"alert_type"`
	WarehouseID uuid.UUID  `json:"warehouse_id"`
	ProductID   *uuid.UUID `json:"product_id,omitempty"`
	Priority    string     `json:"priority"`
	Message     string     `json:"message"`

	CurrentQuantity   int `json:"current_quantity"`
	ThresholdQuantity int `json:"threshold_quantity"`

	IsResolved      bool      `json:"is_resolved"`
	ResolutionNotes string    `json:"resolution_notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Stock count statuses.
const (
	CountScheduled  = "scheduled"
	CountInProgress = "in_progress"
	CountCompleted  = "completed"
)

// StockCount is a scheduled cycle count of a warehouse. Counts are
// scheduled automatically every quarter per active warehouse.
type StockCount struct {
	ID           uuid.UUID  `json:"id"`
	WarehouseID  uuid.UUID  `json:"warehouse_id"`
	Status       string     `json:"status"`
	ScheduledFor time.Time  `json:"scheduled_for"`
	AssignedTo   *uuid.UUID `json:"assigned_to,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	// Filled when completed: net discrepancy discovered by the count.
	DiscrepancyUnits int   `json:"discrepancy_units"`
	DiscrepancyValue int64 `json:"discrepancy_value"` // cents
}

// WarehouseValuation is one line of the inventory valuation report.
type WarehouseValuation struct {
	WarehouseID   uuid.UUID `json:"warehouse_id"`
	WarehouseName string    `json:"warehouse_name"`
	TotalUnits    int       `json:"total_units"`
	TotalValue    int64     `json:"total_value"` // cost value in cents
}

// ReorderRecommendation suggests a purchase for stock at or below its
// reorder point.
type ReorderRecommendation struct {
	WarehouseID   uuid.UUID `json:"warehouse_id"`
	WarehouseName string    `json:"warehouse_name"`
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Available     int       `json:"available"`
	ReorderPoint  int       `json:"reorder_point"`
	SuggestedQty  int       `json:"suggested_quantity"`
}
