package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapDBError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, MapDBError(nil))
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		err := MapDBError(context.DeadlineExceeded)
		assert.Equal(t, ErrCodeTimeout, GetCode(err))
	})

	t.Run("canceled", func(t *testing.T) {
		err := MapDBError(context.Canceled)
		assert.Equal(t, ErrCodeCanceled, GetCode(err))
	})

	t.Run("no rows", func(t *testing.T) {
		err := MapDBError(pgx.ErrNoRows)
		assert.True(t, IsNotFound(err))
	})

	t.Run("unique violation extracts field", func(t *testing.T) {
		pgErr := &pgconn.PgError{
			Code:   pgerrcode.UniqueViolation,
			Detail: "Key (job_id)=(j1) already exists.",
		}
		err := MapDBError(pgErr)
		require.True(t, IsConflict(err))
		assert.Equal(t, "job_id", GetField(err))
	})

	t.Run("foreign key violation", func(t *testing.T) {
		err := MapDBError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})
		assert.True(t, IsValidation(err))
	})

	t.Run("not null violation carries column", func(t *testing.T) {
		err := MapDBError(&pgconn.PgError{
			Code:       pgerrcode.NotNullViolation,
			ColumnName: "patient_id",
		})
		require.True(t, IsValidation(err))
		assert.Equal(t, "patient_id", GetField(err))
	})

	t.Run("check violation", func(t *testing.T) {
		err := MapDBError(&pgconn.PgError{Code: pgerrcode.CheckViolation})
		assert.True(t, IsValidation(err))
	})

	t.Run("unknown pg error is internal", func(t *testing.T) {
		err := MapDBError(&pgconn.PgError{Code: pgerrcode.DivisionByZero})
		assert.True(t, IsInternal(err))
	})

	t.Run("unrecognized error passes through", func(t *testing.T) {
		plain := errors.New("something else")
		assert.Equal(t, plain, MapDBError(plain))
	})
}
