package httputil_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostprompt/internal/httputil"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Tone     string `json:"tone" validate:"omitempty,oneof=chill formal"`
}

func TestRespondError(t *testing.T) {
	rr := httptest.NewRecorder()
	httputil.RespondError(rr, http.StatusNotFound, "Property not found")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Property not found"}`, rr.Body.String())
}

func TestDecodeAndValidate(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		ok      bool
		message string
	}{
		{name: "valid", body: `{"email":"a@b.co","password":"longenough"}`, ok: true},
		{name: "bad json", body: `{"email":`, message: "invalid JSON"},
		{name: "missing email", body: `{"password":"longenough"}`, message: "Field 'email' is required"},
		{name: "short password", body: `{"email":"a@b.co","password":"x"}`, message: "Field 'password' must be at least 8"},
		{name: "bad tone", body: `{"email":"a@b.co","password":"longenough","tone":"loud"}`, message: "must be one of [chill formal]"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))

			var dst signup
			ok := httputil.DecodeAndValidate(rr, req, &dst)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, "a@b.co", dst.Email)
				return
			}

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var body httputil.ErrorBody
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Contains(t, body.Message, tc.message)
		})
	}
}

func TestValidationDetailsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, httputil.ValidationDetails(assert.AnError))
}
