package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func roleRequest(role string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/events/chain", nil)
	ctx := context.WithValue(r.Context(), claimsKey, &Claims{Role: role})
	return r.WithContext(ctx)
}

func TestRequireRoleIngest(t *testing.T) {
	h := RequireRole(IngestRoles()...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, role := range []string{RoleIndexer, RoleSuperAdmin} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, roleRequest(role))
		assert.Equal(t, http.StatusOK, w.Code, role)
	}

	for _, role := range []string{RoleViewer, RoleGameMaster} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, roleRequest(role))
		assert.Equal(t, http.StatusForbidden, w.Code, role)
	}
}

func TestRequireRoleWrite(t *testing.T) {
	h := RequireRole(WriteRoles()...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, roleRequest(RoleGameMaster))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, roleRequest(RoleViewer))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoleNoClaims(t *testing.T) {
	h := RequireRole(RoleSuperAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/events/chain", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
