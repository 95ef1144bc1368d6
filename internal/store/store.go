package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gitlab.com/dirk.krummacker/contacts-api/internal/config"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
)

// Store is the persistence client for contacts. Implementations must be safe for concurrent use.
type Store interface {
	// List returns all contacts, newest first.
	List(ctx context.Context) ([]model.Contact, error)
	// FindByID returns the contact with the given id or an error of kind NotFound.
	FindByID(ctx context.Context, id int64) (*model.Contact, error)
	// Create inserts the contact and sets its Id and CreatedAt fields.
	Create(ctx context.Context, c *model.Contact) error
	// Update overwrites name, email and phone of the contact with c.Id.
	Update(ctx context.Context, c *model.Contact) error
	Close() error
}

// ErrorKind classifies store errors independently of the database vendor.
type ErrorKind int

const (
	Unknown ErrorKind = iota
	NotFound
	Conflict
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Conflict:
		return "conflict"
	default:
		return "unknown"
	}
}

var (
	// ErrNotFound is returned when no contact has the requested id.
	ErrNotFound = errors.New("contact not found")
	// ErrConflict is returned when a unique constraint, i.e. the email, is violated.
	ErrConflict = errors.New("email already exists")
)

// KindOf returns the kind of a store error.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNotFound):
		return NotFound
	case errors.Is(err, ErrConflict):
		return Conflict
	default:
		return Unknown
	}
}

// conflict marks a vendor error as a unique constraint violation while keeping it in the chain.
func conflict(err error) error {
	return fmt.Errorf("%w: %w", ErrConflict, err)
}

// Open creates the store selected by the database configuration.
func Open(cfg config.Database) (Store, error) {
	dsn, err := cfg.ConnectionString()
	if err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case config.DriverMySQL:
		sqlDB, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		st, err := NewMySQLStore(sqlDB)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		return st, nil
	case config.DriverPostgres:
		st, err := OpenPostgresStore(dsn)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
