package validators

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email string `json:"email" validate:"required,email"`
	Limit int    `query:"limit" validate:"min=1,max=50"`
	Kind  string `json:"kind" validate:"omitempty,oneof=a b"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		in      sample
		wantMsg string
	}{
		{"valid", sample{Email: "a@b.test", Limit: 10}, ""},
		{"missing email", sample{Limit: 10}, "email is required"},
		{"bad email", sample{Email: "nope", Limit: 10}, "email must be a valid email"},
		{"limit too big", sample{Email: "a@b.test", Limit: 51}, "limit must satisfy max=50"},
		{"bad kind", sample{Email: "a@b.test", Limit: 1, Kind: "c"}, "kind must be one of [a b]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, http.StatusBadRequest, he.Code)
			assert.Equal(t, tt.wantMsg, he.Message)
		})
	}
}
