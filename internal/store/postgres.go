package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cleared-dev/ledgerport/internal/model"
)

// Postgres persists loads into PostgreSQL through gorm.
type Postgres struct {
	db  *gorm.DB
	log *zap.Logger
}

// OpenPostgres connects to dsn and migrates the load tables.
func OpenPostgres(dsn string, log *zap.Logger) (*Postgres, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Load{}, &AccountRecord{}, &TransactionRecord{}, &ItemRecord{}, &ReimbursementRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrating postgres: %w", err)
	}
	return &Postgres{db: db, log: log}, nil
}

// DB returns the gorm handle.
func (p *Postgres) DB() *gorm.DB { return p.db }

// Close closes the connection pool.
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save implements Sink.
func (p *Postgres) Save(ctx context.Context, entity string, years []*model.FiscalYear) error {
	_, err := p.SaveLoad(ctx, entity, years)
	return err
}

// SaveLoad writes years as a new load in one transaction and returns the
// load id.
func (p *Postgres) SaveLoad(ctx context.Context, entity string, years []*model.FiscalYear) (string, error) {
	snap := NewSnapshot(uuid.NewString(), entity, years, time.Now().UTC())

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&snap.Load).Error; err != nil {
			return fmt.Errorf("inserting load: %w", err)
		}
		if len(snap.Accounts) > 0 {
			if err := tx.Create(&snap.Accounts).Error; err != nil {
				return fmt.Errorf("inserting accounts: %w", err)
			}
		}
		// gorm inserts each transaction's items through the association.
		if len(snap.Transactions) > 0 {
			if err := tx.CreateInBatches(&snap.Transactions, 500).Error; err != nil {
				return fmt.Errorf("inserting transactions: %w", err)
			}
		}
		if len(snap.Reimbursements) > 0 {
			if err := tx.Create(&snap.Reimbursements).Error; err != nil {
				return fmt.Errorf("inserting reimbursements: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	p.log.Info("stored load",
		zap.String("load_id", snap.Load.ID),
		zap.String("entity", entity),
		zap.Int("transactions", len(snap.Transactions)),
		zap.Int("items", snap.ItemCount()),
	)
	return snap.Load.ID, nil
}
