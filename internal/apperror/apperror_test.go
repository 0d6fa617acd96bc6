package apperror

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrappedError(t *testing.T) {
	err := fmt.Errorf("placing order: %w", InsufficientStock("Stock insuficiente. Disponible: %d", 2))

	assert.Equal(t, KindInsufficientStock, KindOf(err))
	assert.Equal(t, "Stock insuficiente. Disponible: 2", MessageOf(err))
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestKindOfPlainError(t *testing.T) {
	err := errors.New("connection reset")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "Internal server error", MessageOf(err))
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(KindNotFound, sql.ErrNoRows, "Orden no encontrada")

	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "Orden no encontrada")
}
