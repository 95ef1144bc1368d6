package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
)

// createMockObjects builds a mock database handle and a mock object for defining our expected SQL
// calls.
func createMockObjects(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	return db, mock
}

// expectPreparedStatements instructs the mock object to expect that several statements are being
// prepared.
func expectPreparedStatements(mock sqlmock.Sqlmock) {
	mock.ExpectPrepare("INSERT INTO contacts")
	mock.ExpectPrepare("SELECT (.+) FROM contacts ORDER BY")
	mock.ExpectPrepare("SELECT (.+) FROM contacts WHERE id")
	mock.ExpectPrepare("UPDATE contacts SET")
}

// createMySQLStore prepares the statements against the mock database.
func createMySQLStore(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	db, mock := createMockObjects(t)
	t.Cleanup(func() { db.Close() })
	expectPreparedStatements(mock)
	st, err := NewMySQLStore(db)
	require.NoError(t, err)
	return st, mock
}

var contactColumns = []string{"id", "name", "email", "phone", "created_at"}

// TestMySQLList expects that all rows are returned in the order of the result set.
func TestMySQLList(t *testing.T) {
	st, mock := createMySQLStore(t)
	rows := mock.NewRows(contactColumns).
		AddRow(2, "Berta", "berta@example.com", "+420 222", time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)).
		AddRow(1, "Aaron", "aaron@example.com", nil, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC))
	mock.ExpectQuery("SELECT (.+) FROM contacts ORDER BY created_at DESC").
		WillReturnRows(rows)

	contacts, err := st.List(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, int64(2), contacts[0].Id)
	assert.Equal(t, "Berta", contacts[0].Name)
	assert.Equal(t, "+420 222", *contacts[0].Phone)
	assert.Equal(t, int64(1), contacts[1].Id)
	assert.Nil(t, contacts[1].Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestMySQLListEmpty expects an empty, non-nil slice if there are no contacts.
func TestMySQLListEmpty(t *testing.T) {
	st, mock := createMySQLStore(t)
	mock.ExpectQuery("SELECT (.+) FROM contacts ORDER BY").
		WillReturnRows(mock.NewRows(contactColumns))

	contacts, err := st.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestMySQLFindByID expects the contact with the requested id.
func TestMySQLFindByID(t *testing.T) {
	st, mock := createMySQLStore(t)
	created := time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM contacts WHERE id").
		WithArgs(int64(29)).
		WillReturnRows(mock.NewRows(contactColumns).
			AddRow(29, "Erika Mustermann", "erika@example.com", "+49 0815 4711", created))

	contact, err := st.FindByID(context.Background(), 29)
	require.NoError(t, err)
	assert.Equal(t, int64(29), contact.Id)
	assert.Equal(t, "Erika Mustermann", contact.Name)
	assert.Equal(t, "erika@example.com", contact.Email)
	assert.Equal(t, "+49 0815 4711", *contact.Phone)
	assert.Equal(t, created, contact.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestMySQLFindByIDNotFound expects an error of kind NotFound for an unknown id.
func TestMySQLFindByIDNotFound(t *testing.T) {
	st, mock := createMySQLStore(t)
	mock.ExpectQuery("SELECT (.+) FROM contacts WHERE id").
		WithArgs(int64(9999)).
		WillReturnRows(mock.NewRows(contactColumns))

	contact, err := st.FindByID(context.Background(), 9999)
	assert.Nil(t, contact)
	assert.Equal(t, NotFound, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestMySQLFindByIDFailure expects other database errors to be of kind Unknown.
func TestMySQLFindByIDFailure(t *testing.T) {
	st, mock := createMySQLStore(t)
	mock.ExpectQuery("SELECT (.+) FROM contacts WHERE id").
		WithArgs(int64(1)).
		WillReturnError(sql.ErrConnDone)

	_, err := st.FindByID(context.Background(), 1)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Equal(t, Unknown, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestMySQLCreate expects the id assigned by the database and a creation time.
func TestMySQLCreate(t *testing.T) {
	st, mock := createMySQLStore(t)
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs("Erika Mustermann", "erika@example.com", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(42, 1))

	contact := model.Contact{Name: "Erika Mustermann", Email: "erika@example.com"}
	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, st.Create(context.Background(), &contact))
	assert.Equal(t, int64(42), contact.Id)
	assert.True(t, contact.CreatedAt.After(before))
	assert.Equal(t, time.UTC, contact.CreatedAt.Location())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestMySQLCreateDuplicateEmail expects the duplicate entry error to be of kind Conflict.
func TestMySQLCreateDuplicateEmail(t *testing.T) {
	st, mock := createMySQLStore(t)
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs("Erika Mustermann", "erika@example.com", "0815", sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'erika@example.com' for key 'email'"})

	phone := "0815"
	contact := model.Contact{Name: "Erika Mustermann", Email: "erika@example.com", Phone: &phone}
	err := st.Create(context.Background(), &contact)
	assert.Equal(t, Conflict, KindOf(err))
	assert.ErrorIs(t, err, ErrConflict)
	var myErr *mysql.MySQLError
	assert.ErrorAs(t, err, &myErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestMySQLCreateOtherError expects that other MySQL errors are not reported as conflicts.
func TestMySQLCreateOtherError(t *testing.T) {
	st, mock := createMySQLStore(t)
	mock.ExpectExec("INSERT INTO contacts").
		WillReturnError(&mysql.MySQLError{Number: 1146, Message: "Table 'contacts' doesn't exist"})

	err := st.Create(context.Background(), &model.Contact{Name: "A", Email: "a@example.com"})
	assert.Error(t, err)
	assert.Equal(t, Unknown, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestMySQLUpdate expects that name, email and phone are written for the contact's id.
func TestMySQLUpdate(t *testing.T) {
	st, mock := createMySQLStore(t)
	mock.ExpectExec("UPDATE contacts SET").
		WithArgs("Rudi Völler", "rudi@example.com", "+49 1234567890", int64(17)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	phone := "+49 1234567890"
	contact := model.Contact{Id: 17, Name: "Rudi Völler", Email: "rudi@example.com", Phone: &phone}
	assert.NoError(t, st.Update(context.Background(), &contact))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestMySQLUpdateNotFound expects an error of kind NotFound if no row matched.
func TestMySQLUpdateNotFound(t *testing.T) {
	st, mock := createMySQLStore(t)
	mock.ExpectExec("UPDATE contacts SET").
		WithArgs("Rudi Völler", "rudi@example.com", nil, int64(9999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	contact := model.Contact{Id: 9999, Name: "Rudi Völler", Email: "rudi@example.com"}
	assert.Equal(t, NotFound, KindOf(st.Update(context.Background(), &contact)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestMySQLUpdateDuplicateEmail expects the duplicate entry error to be of kind Conflict.
func TestMySQLUpdateDuplicateEmail(t *testing.T) {
	st, mock := createMySQLStore(t)
	mock.ExpectExec("UPDATE contacts SET").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	contact := model.Contact{Id: 3, Name: "Rudi Völler", Email: "taken@example.com"}
	assert.Equal(t, Conflict, KindOf(st.Update(context.Background(), &contact)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestMySQLPrepareFailure expects the constructor to fail if a statement cannot be prepared.
func TestMySQLPrepareFailure(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	mock.ExpectPrepare("INSERT INTO contacts").WillReturnError(sql.ErrConnDone)

	_, err := NewMySQLStore(db)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}
