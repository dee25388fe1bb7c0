package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewAppError(ErrTypeTransform, "business key null after dedup", nil),
			want: "[TRANSFORM] business key null after dedup",
		},
		{
			name: "with cause",
			err:  NewAppError(ErrTypeSourceRead, "reading source entity crm_sales", errors.New("file missing")),
			want: "[SOURCE_READ] reading source entity crm_sales: file missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewStorageError("commit failed", cause)

	assert.ErrorIs(t, err, cause)
}

func TestAppError_Context(t *testing.T) {
	err := NewTransformError("unexpected shape", nil).
		WithStage("conform_sales").
		WithEntity("crm_sales")

	assert.Equal(t, "conform_sales", err.Context["stage"])
	assert.Equal(t, "crm_sales", err.Context["entity"])
}

func TestNewSourceReadError(t *testing.T) {
	err := NewSourceReadError("erp_locations", errors.New("unreadable"))

	assert.Equal(t, ErrTypeSourceRead, err.Type)
	assert.Equal(t, "erp_locations", err.Context["entity"])
	assert.Contains(t, err.Error(), "erp_locations")
}

func TestIsType(t *testing.T) {
	err := NewConflictError("run in progress")

	assert.True(t, IsType(err, ErrTypeConflict))
	assert.False(t, IsType(err, ErrTypeStorage))
	assert.False(t, IsType(errors.New("plain"), ErrTypeConflict))
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation maps to 400",
			err:        NewValidationError("bad scope"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION",
		},
		{
			name:       "not found maps to 404",
			err:        NewNotFoundError("run"),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "conflict maps to 409",
			err:        NewConflictError("busy"),
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
		},
		{
			name:       "storage maps to 500",
			err:        NewStorageError("disk", nil),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "STORAGE",
		},
		{
			name:       "plain error maps to generic 500",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := ToAPIError(tt.err)
			require.NotNil(t, api)
			assert.Equal(t, tt.wantStatus, api.StatusCode)
			assert.Equal(t, tt.wantCode, api.ErrorCode)
		})
	}
}
