package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// RunMigrations applies the schema in order. Every statement is idempotent
// so startup can re-run the full list safely.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, log *logrus.Logger) error {
	migrations := []string{
		createCustomersTable,
		createPasswordResetCodesTable,
		createCategoriesTable,
		createBrandsTable,
		createProductsTable,
		createProductImagesTable,
		createReviewsTable,
		createOrdersTable,
		createOrderItemsTable,
		createOrderStatusHistoryTable,
		createMpesaTransactionsTable,
		createMpesaCallbacksTable,
		createMpesaRefundsTable,
		createWarehousesTable,
		createWarehouseStockTable,
		createStockMovementsTable,
		createInventoryTransfersTable,
		createStockAlertsTable,
		createStockCountsTable,
	}

	for i, migration := range migrations {
		log.Debugf("running migration %d/%d", i+1, len(migrations))
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Info("all migrations completed")
	return nil
}

const createCustomersTable = `
CREATE TABLE IF NOT EXISTS customers (
  id UUID PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  loyalty_points INTEGER NOT NULL DEFAULT 0,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  is_staff BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  last_login_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_customers_email ON customers(email);
CREATE INDEX IF NOT EXISTS idx_customers_last_login ON customers(is_active, last_login_at);
`

const createPasswordResetCodesTable = `
CREATE TABLE IF NOT EXISTS password_reset_codes (
  id UUID PRIMARY KEY,
  customer_id UUID NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
  code TEXT NOT NULL,
  is_used BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reset_codes_customer ON password_reset_codes(customer_id, is_used);
CREATE INDEX IF NOT EXISTS idx_reset_codes_expires ON password_reset_codes(expires_at);
`

const createCategoriesTable = `
CREATE TABLE IF NOT EXISTS categories (
  id UUID PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  parent_id UUID REFERENCES categories(id) ON DELETE CASCADE,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  display_order INTEGER NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_categories_slug ON categories(slug);
CREATE INDEX IF NOT EXISTS idx_categories_active ON categories(is_active, display_order);
`

const createBrandsTable = `
CREATE TABLE IF NOT EXISTS brands (
  id UUID PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  website TEXT NOT NULL DEFAULT '',
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  is_featured BOOLEAN NOT NULL DEFAULT FALSE,
  display_order INTEGER NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_brands_slug ON brands(slug);
`

const createProductsTable = `
CREATE TABLE IF NOT EXISTS products (
  id UUID PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  sku TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  short_description TEXT NOT NULL DEFAULT '',
  category_id UUID NOT NULL REFERENCES categories(id),
  brand_id UUID NOT NULL REFERENCES brands(id),

  price BIGINT NOT NULL CHECK (price >= 0),
  cost_price BIGINT CHECK (cost_price >= 0),
  discount_percentage DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (discount_percentage >= 0 AND discount_percentage <= 100),
  sale_price BIGINT CHECK (sale_price >= 0),
  sale_starts_at TIMESTAMPTZ,
  sale_ends_at TIMESTAMPTZ,

  stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
  low_stock_threshold INTEGER NOT NULL DEFAULT 10,
  condition TEXT NOT NULL DEFAULT 'new',
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  is_featured BOOLEAN NOT NULL DEFAULT FALSE,

  is_new_arrival BOOLEAN NOT NULL DEFAULT FALSE,
  new_arrival_until TIMESTAMPTZ,
  is_bestseller BOOLEAN NOT NULL DEFAULT FALSE,
  is_on_sale BOOLEAN NOT NULL DEFAULT FALSE,

  preorder_available BOOLEAN NOT NULL DEFAULT FALSE,
  backorder_allowed BOOLEAN NOT NULL DEFAULT FALSE,
  restock_date TIMESTAMPTZ,

  max_quantity_per_order INTEGER,

  visibility TEXT NOT NULL DEFAULT 'public',
  publish_date TIMESTAMPTZ,

  display_order INTEGER NOT NULL DEFAULT 0,
  view_count INTEGER NOT NULL DEFAULT 0,
  popularity_score DOUBLE PRECISION NOT NULL DEFAULT 0,

  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_products_slug ON products(slug);
CREATE INDEX IF NOT EXISTS idx_products_sku ON products(sku);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id, is_active);
CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand_id, is_active);
CREATE INDEX IF NOT EXISTS idx_products_stock ON products(is_active, stock_quantity);
CREATE INDEX IF NOT EXISTS idx_products_popularity ON products(popularity_score);
`

const createProductImagesTable = `
CREATE TABLE IF NOT EXISTS product_images (
  id UUID PRIMARY KEY,
  product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  url TEXT NOT NULL,
  alt_text TEXT NOT NULL DEFAULT '',
  is_primary BOOLEAN NOT NULL DEFAULT FALSE,
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_product_images_product ON product_images(product_id, sort_order);
`

const createReviewsTable = `
CREATE TABLE IF NOT EXISTS reviews (
  id UUID PRIMARY KEY,
  product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  customer_id UUID NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
  rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  title TEXT NOT NULL,
  comment TEXT NOT NULL DEFAULT '',
  is_verified_purchase BOOLEAN NOT NULL DEFAULT FALSE,
  is_approved BOOLEAN NOT NULL DEFAULT FALSE,
  helpful_count INTEGER NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (product_id, customer_id)
);

CREATE INDEX IF NOT EXISTS idx_reviews_product ON reviews(product_id, is_approved);
`

const createOrdersTable = `
CREATE TABLE IF NOT EXISTS orders (
  id UUID PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  customer_id UUID REFERENCES customers(id),
  guest_email TEXT NOT NULL DEFAULT '',

  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL DEFAULT '',

  subtotal BIGINT NOT NULL DEFAULT 0,
  shipping_cost BIGINT NOT NULL DEFAULT 0,
  total BIGINT NOT NULL DEFAULT 0,

  shipping_address TEXT NOT NULL DEFAULT '',
  shipping_city TEXT NOT NULL DEFAULT '',
  shipping_phone TEXT NOT NULL DEFAULT '',

  carrier TEXT NOT NULL DEFAULT '',
  tracking_number TEXT NOT NULL DEFAULT '',

  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  shipped_date TIMESTAMPTZ,
  delivered_date TIMESTAMPTZ,
  cancelled_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_orders_number ON orders(order_number);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, payment_status);
CREATE INDEX IF NOT EXISTS idx_orders_created ON orders(created_at);
`

const createOrderItemsTable = `
CREATE TABLE IF NOT EXISTS order_items (
  id UUID PRIMARY KEY,
  order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id UUID NOT NULL REFERENCES products(id),
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  price BIGINT NOT NULL CHECK (price >= 0)
);

CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id);
`

const createOrderStatusHistoryTable = `
CREATE TABLE IF NOT EXISTS order_status_history (
  id UUID PRIMARY KEY,
  order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  old_status TEXT NOT NULL,
  new_status TEXT NOT NULL,
  changed_by UUID REFERENCES customers(id),
  notes TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_status_history_order ON order_status_history(order_id);
CREATE INDEX IF NOT EXISTS idx_status_history_created ON order_status_history(created_at);
`

const createMpesaTransactionsTable = `
CREATE TABLE IF NOT EXISTS mpesa_transactions (
  id UUID PRIMARY KEY,
  order_id UUID REFERENCES orders(id),
  phone TEXT NOT NULL,
  amount BIGINT NOT NULL CHECK (amount > 0),
  merchant_request_id TEXT NOT NULL DEFAULT '',
  checkout_request_id TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending',
  result_code INTEGER,
  result_desc TEXT NOT NULL DEFAULT '',
  mpesa_receipt TEXT NOT NULL DEFAULT '',
  initiated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  completed_at TIMESTAMPTZ,
  failed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_mpesa_tx_checkout ON mpesa_transactions(checkout_request_id);
CREATE INDEX IF NOT EXISTS idx_mpesa_tx_status ON mpesa_transactions(status, initiated_at);
CREATE INDEX IF NOT EXISTS idx_mpesa_tx_order ON mpesa_transactions(order_id);
`

const createMpesaCallbacksTable = `
CREATE TABLE IF NOT EXISTS mpesa_callbacks (
  id UUID PRIMARY KEY,
  checkout_request_id TEXT NOT NULL DEFAULT '',
  payload JSONB NOT NULL,
  ip_address TEXT NOT NULL DEFAULT '',
  processed BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_mpesa_callbacks_created ON mpesa_callbacks(created_at);
`

const createMpesaRefundsTable = `
CREATE TABLE IF NOT EXISTS mpesa_refunds (
  id UUID PRIMARY KEY,
  transaction_id UUID NOT NULL REFERENCES mpesa_transactions(id),
  amount BIGINT NOT NULL CHECK (amount > 0),
  reason TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  completed_at TIMESTAMPTZ
);
`

const createWarehousesTable = `
CREATE TABLE IF NOT EXISTS warehouses (
  id UUID PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  address TEXT NOT NULL DEFAULT '',
  capacity INTEGER NOT NULL DEFAULT 0,
  manager_id UUID REFERENCES customers(id),
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const createWarehouseStockTable = `
CREATE TABLE IF NOT EXISTS warehouse_stock (
  id UUID PRIMARY KEY,
  warehouse_id UUID NOT NULL REFERENCES warehouses(id) ON DELETE CASCADE,
  product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  quantity INTEGER NOT NULL DEFAULT 0,
  reserved_quantity INTEGER NOT NULL DEFAULT 0,
  damaged_quantity INTEGER NOT NULL DEFAULT 0,
  reorder_point INTEGER NOT NULL DEFAULT 0,
  reorder_quantity INTEGER NOT NULL DEFAULT 0,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (warehouse_id, product_id)
);

CREATE INDEX IF NOT EXISTS idx_warehouse_stock_product ON warehouse_stock(product_id);
`

const createStockMovementsTable = `
CREATE TABLE IF NOT EXISTS stock_movements (
  id UUID PRIMARY KEY,
  warehouse_id UUID NOT NULL REFERENCES warehouses(id),
  product_id UUID NOT NULL REFERENCES products(id),
  movement_type TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  reference TEXT NOT NULL DEFAULT '',
  performed_by UUID REFERENCES customers(id),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_stock_movements_created ON stock_movements(created_at);
CREATE INDEX IF NOT EXISTS idx_stock_movements_product ON stock_movements(warehouse_id, product_id);
`

const createInventoryTransfersTable = `
CREATE TABLE IF NOT EXISTS inventory_transfers (
  id UUID PRIMARY KEY,
  from_warehouse_id UUID NOT NULL REFERENCES warehouses(id),
  to_warehouse_id UUID NOT NULL REFERENCES warehouses(id),
  product_id UUID NOT NULL REFERENCES products(id),
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  status TEXT NOT NULL DEFAULT 'requested',
  requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  approved_at TIMESTAMPTZ,
  shipped_at TIMESTAMPTZ,
  received_at TIMESTAMPTZ,
  expected_delivery TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_transfers_status ON inventory_transfers(status, requested_at);
`

const createStockAlertsTable = `
CREATE TABLE IF NOT EXISTS stock_alerts (
  id UUID PRIMARY KEY,
  alert_type TEXT NOT NULL,
  warehouse_id UUID NOT NULL REFERENCES warehouses(id),
  product_id UUID REFERENCES products(id),
  priority TEXT NOT NULL DEFAULT 'medium',
  message TEXT NOT NULL DEFAULT '',
  current_quantity INTEGER NOT NULL DEFAULT 0,
  threshold_quantity INTEGER NOT NULL DEFAULT 0,
  is_resolved BOOLEAN NOT NULL DEFAULT FALSE,
  resolution_notes TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_stock_alerts_open ON stock_alerts(is_resolved, priority);
CREATE INDEX IF NOT EXISTS idx_stock_alerts_product ON stock_alerts(warehouse_id, product_id, alert_type);
`

const createStockCountsTable = `
CREATE TABLE IF NOT EXISTS stock_counts (
  id UUID PRIMARY KEY,
  warehouse_id UUID NOT NULL REFERENCES warehouses(id),
  status TEXT NOT NULL DEFAULT 'scheduled',
  scheduled_for TIMESTAMPTZ NOT NULL,
  assigned_to UUID REFERENCES customers(id),
  notes TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  completed_at TIMESTAMPTZ,
  discrepancy_units INTEGER NOT NULL DEFAULT 0,
  discrepancy_value BIGINT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_stock_counts_warehouse ON stock_counts(warehouse_id, created_at);
`
