package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gateway is the single entry point to the relational store. Every call
// acquires and releases its own connection; Transaction pins one connection
// for the duration of fn.
type Gateway struct {
	db *gorm.DB
}

func NewGateway(db *gorm.DB) *Gateway {
	return &Gateway{db: db}
}

// DB returns a session bound to ctx.
func (g *Gateway) DB(ctx context.Context) *gorm.DB {
	return g.db.WithContext(ctx)
}

// Transaction runs fn inside BEGIN/COMMIT. Any error returned by fn, or a
// panic, rolls the whole transaction back.
func (g *Gateway) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

// Exec runs a parametrized statement and returns the affected-row count.
func (g *Gateway) Exec(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	res := g.db.WithContext(ctx).Exec(sql, args...)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Create inserts value without touching its associations. The generated
// primary key is written back into value.
func (g *Gateway) Create(ctx context.Context, value interface{}) error {
	return CreateIn(g.db.WithContext(ctx), value)
}

// CreateIn is Create against an existing session, typically a transaction.
func CreateIn(tx *gorm.DB, value interface{}) error {
	if err := tx.Omit(clause.Associations).Create(value).Error; err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// Ping checks that a connection can be acquired.
func (g *Gateway) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
