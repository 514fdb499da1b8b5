package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestFrom(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType Type
		wantCode int
	}{
		{"record not found", fmt.Errorf("get bed: %w", gorm.ErrRecordNotFound), TypeNotFound, http.StatusNotFound},
		{"postgres unique", errors.New(`ERROR: duplicate key value violates unique constraint "idx_rent_student_month"`), TypeConflict, http.StatusConflict},
		{"sqlite unique", errors.New("UNIQUE constraint failed: students.bed_id"), TypeConflict, http.StatusConflict},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, TypeConflict, http.StatusConflict},
		{"app error passes through", fmt.Errorf("wrap: %w", Forbidden("admin only")), TypeForbidden, http.StatusForbidden},
		{"unknown", errors.New("connection reset"), TypeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := From(tt.err)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
	assert.Nil(t, From(nil))
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("mark overdue: %w", Conflict("rent %s is not pending", "r1"))
	assert.True(t, Is(err, TypeConflict))
	assert.False(t, Is(err, TypeNotFound))
	assert.Equal(t, "rent r1 is not pending", From(err).Message)
}

func TestInternal_KeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal(cause, "failed to save")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to save", err.Message)
}
