package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledgerport/internal/model"
)

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

// SQLite persists loads into a SQLite database file.
type SQLite struct {
	db  *sql.DB
	log *zap.Logger
}

// OpenSQLite opens the database at path and applies pending migrations.
func OpenSQLite(path string, log *zap.Logger) (*SQLite, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)

	if err := migrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db, log: log}, nil
}

func migrateSQLite(db *sql.DB) error {
	src, err := iofs.New(sqliteMigrations, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// DB returns the underlying handle.
func (s *SQLite) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

// Save implements Sink.
func (s *SQLite) Save(ctx context.Context, entity string, years []*model.FiscalYear) error {
	_, err := s.SaveLoad(ctx, entity, years)
	return err
}

// SaveLoad writes years as a new load in one transaction and returns the
// load id.
func (s *SQLite) SaveLoad(ctx context.Context, entity string, years []*model.FiscalYear) (string, error) {
	snap := NewSnapshot(uuid.NewString(), entity, years, time.Now().UTC().Truncate(time.Second))

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return insertSnapshot(ctx, tx, snap)
	})
	if err != nil {
		return "", err
	}
	s.log.Info("stored load",
		zap.String("load_id", snap.Load.ID),
		zap.String("entity", entity),
		zap.Int("transactions", len(snap.Transactions)),
		zap.Int("items", snap.ItemCount()),
	)
	return snap.Load.ID, nil
}

func (s *SQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertSnapshot(ctx context.Context, tx *sql.Tx, snap *Snapshot) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO loads(id, entity, created_at) VALUES(?, ?, ?)`,
		snap.Load.ID, snap.Load.Entity, snap.Load.CreatedAt); err != nil {
		return fmt.Errorf("inserting load: %w", err)
	}

	for _, a := range snap.Accounts {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO accounts(load_id, name, number, type, default_debit, receivable)
		VALUES(?, ?, ?, ?, ?, ?)`,
			a.LoadID, a.Name, a.Number.String(), a.Type, a.DefaultDebit, a.Receivable); err != nil {
			return fmt.Errorf("inserting account %q: %w", a.Name, err)
		}
	}

	for _, t := range snap.Transactions {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions(load_id, fiscal_year, transaction_id, date, description, checked, kind)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
			t.LoadID, t.FiscalYear, t.TransactionID, t.Date.Format(time.DateOnly), t.Description, t.Checked, t.Kind); err != nil {
			return fmt.Errorf("inserting transaction %d/%d: %w", t.FiscalYear, t.TransactionID, err)
		}
		for _, it := range t.Items {
			var receivable any
			if it.ReceivableAmount != nil {
				receivable = it.ReceivableAmount.String()
			}
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO items(load_id, fiscal_year, transaction_id, seq, account, number, amount, is_debit, checked, receivable_amount)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				it.LoadID, it.FiscalYear, it.TransactionID, it.Seq, it.Account, it.Number.String(),
				it.Amount.String(), it.IsDebit, it.Checked, receivable); err != nil {
				return fmt.Errorf("inserting item %d/%d/%d: %w", it.FiscalYear, it.TransactionID, it.Seq, err)
			}
		}
	}

	for _, r := range snap.Reimbursements {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO reimbursements(load_id, number, receivable_year, receivable_transaction_id,
		 reimbursement_year, reimbursement_transaction_id, reimbursed, allocated)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
			r.LoadID, r.Number.String(), r.ReceivableYear, r.ReceivableTransactionID,
			r.ReimbursementYear, r.ReimbursementTransactionID, r.Reimbursed.String(), r.Allocated.String()); err != nil {
			return fmt.Errorf("inserting reimbursement: %w", err)
		}
	}
	return nil
}
