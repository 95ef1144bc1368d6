package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
)

// mysqlDuplicateEntry is the MySQL error number for a violated unique key.
const mysqlDuplicateEntry = 1062

// MySQLStore keeps contacts in a MySQL table through sqlx.
type MySQLStore struct {
	// db is a handle to the database.
	db *sqlx.DB

	// insert is a prepared statement for creating a contact.
	insert *sqlx.NamedStmt

	// selectAll is a prepared statement for listing all contacts, newest first.
	selectAll *sqlx.Stmt

	// selectWhereId is a prepared statement for selecting the contact with a given id.
	selectWhereId *sqlx.Stmt

	// update is a prepared statement for overwriting the mutable fields of a contact.
	update *sqlx.NamedStmt
}

// NewMySQLStore wraps the specified sql database with sqlx and prepares all statements. The
// database argument can be a real database for production use or a mock database within unit
// tests.
func NewMySQLStore(sqlDB *sql.DB) (*MySQLStore, error) {
	var err error
	s := &MySQLStore{db: sqlx.NewDb(sqlDB, "mysql")}

	s.insert, err = s.db.PrepareNamed(`
		INSERT INTO contacts (name, email, phone, created_at)
		VALUES (:name, :email, :phone, :created_at)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	s.selectAll, err = s.db.Preparex(`
		SELECT id, name, email, phone, created_at FROM contacts ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare select all: %w", err)
	}
	s.selectWhereId, err = s.db.Preparex(`
		SELECT id, name, email, phone, created_at FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare select by id: %w", err)
	}
	s.update, err = s.db.PrepareNamed(`
		UPDATE contacts SET name = :name, email = :email, phone = :phone WHERE id = :id
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare update: %w", err)
	}
	return s, nil
}

func (s *MySQLStore) List(ctx context.Context) ([]model.Contact, error) {
	contacts := []model.Contact{}
	if err := s.selectAll.SelectContext(ctx, &contacts); err != nil {
		return nil, fmt.Errorf("select contacts: %w", err)
	}
	return contacts, nil
}

func (s *MySQLStore) FindByID(ctx context.Context, id int64) (*model.Contact, error) {
	var contact model.Contact
	err := s.selectWhereId.GetContext(ctx, &contact, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select contact %d: %w", id, err)
	}
	return &contact, nil
}

func (s *MySQLStore) Create(ctx context.Context, c *model.Contact) error {
	// DATETIME(6) keeps microseconds, so the returned value equals the stored one.
	c.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	result, err := s.insert.ExecContext(ctx, c)
	if err != nil {
		return mysqlError("insert contact", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("read id of new contact: %w", err)
	}
	c.Id = id
	return nil
}

func (s *MySQLStore) Update(ctx context.Context, c *model.Contact) error {
	result, err := s.update.ExecContext(ctx, c)
	if err != nil {
		return mysqlError("update contact", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the prepared statements and the database handle.
func (s *MySQLStore) Close() error {
	return errors.Join(
		s.insert.Close(),
		s.selectAll.Close(),
		s.selectWhereId.Close(),
		s.update.Close(),
		s.db.Close(),
	)
}

func mysqlError(op string, err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return conflict(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
