package util

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrModuleNotFound, http.StatusNotFound},
		{errors.Wrap(ErrBackupNotFound, "restore"), http.StatusNotFound},
		{fmt.Errorf("update: %w", ErrInvalidSetting), http.StatusBadRequest},
		{ErrInvalidPIN, http.StatusBadRequest},
		{ErrWrongPIN, http.StatusUnauthorized},
		{errors.Wrap(ErrPermissionDenied, "backups/x"), http.StatusForbidden},
		{errors.Wrap(ErrUnsupportedFile, "text/plain"), http.StatusUnsupportedMediaType},
		{ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorStatus(tt.err))
		})
	}
}
