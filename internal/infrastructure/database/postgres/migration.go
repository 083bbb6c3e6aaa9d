// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/ves-sport/commerce-backend/internal/domain/contact"
	"github.com/ves-sport/commerce-backend/internal/domain/design"
	"github.com/ves-sport/commerce-backend/internal/domain/order"
	"github.com/ves-sport/commerce-backend/internal/domain/upload"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger logrus.FieldLogger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		&design.Design{},
		&order.Order{},
		&order.OrderItem{},
		&order.Payment{},
		&design.DesignSale{},
		&upload.UploadedFile{},
		&contact.ContactMessage{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("Running database auto-migrations")

	for _, model := range Models() {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	m.logger.WithField("models", len(Models())).Info("Database auto-migrations completed")
	return nil
}

// indexes are the secondary indexes the order, payment and contact queries rely on. The
// unique indexes on stripe ids come from the model tags.
var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_orders_email ON orders(email)",
	"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
	"CREATE INDEX IF NOT EXISTS idx_order_items_design ON order_items(design_id) WHERE design_id IS NOT NULL",
	"CREATE INDEX IF NOT EXISTS idx_payments_order_status ON payments(order_id, status)",
	"CREATE INDEX IF NOT EXISTS idx_design_sales_design ON design_sales(design_id, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_designs_designer_status ON designs(designer_id, status)",
	"CREATE INDEX IF NOT EXISTS idx_contact_messages_created ON contact_messages(created_at DESC)",
}

// CreateIndexes creates additional indexes. Failures are logged and counted,
// never fatal.
func (m *Migration) CreateIndexes() (created, failed int) {
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.logger.WithError(err).WithField("sql", indexSQL).Warn("Failed to create index")
			failed++
			continue
		}
		created++
	}

	m.logger.WithFields(logrus.Fields{
		"created": created,
		"failed":  failed,
	}).Info("Database indexes ensured")
	return created, failed
}

// GetTableInfo logs the row count of every model table
func (m *Migration) GetTableInfo() error {
	var tables []string
	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	for _, table := range tables {
		var count int64
		if err := m.db.Table(table).Count(&count).Error; err != nil {
			m.logger.WithError(err).WithField("table", table).Warn("Failed to count rows")
			continue
		}
		m.logger.WithFields(logrus.Fields{
			"table":   table,
			"records": count,
		}).Debug("Table info")
	}
	return nil
}
