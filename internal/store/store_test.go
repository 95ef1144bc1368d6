package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/contacts-api/internal/config"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, NotFound, KindOf(ErrNotFound))
	assert.Equal(t, NotFound, KindOf(fmt.Errorf("lookup: %w", ErrNotFound)))
	assert.Equal(t, Conflict, KindOf(conflict(errors.New("duplicate"))))
	assert.Equal(t, Unknown, KindOf(errors.New("connection refused")))
	assert.Equal(t, Unknown, KindOf(nil))
	assert.Equal(t, "conflict", Conflict.String())
}

func TestOpen(t *testing.T) {
	st, err := Open(config.Database{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, st)
	assert.NoError(t, st.Close())

	_, err = Open(config.Database{Driver: "oracle"})
	assert.Error(t, err)
}
