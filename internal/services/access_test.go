package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hqvuong/work-order-api/internal/models"
)

func TestResolveAccessScope(t *testing.T) {
	worker := Principal{UserID: 7, Role: models.RoleWorker}
	admin := Principal{UserID: 9, Role: models.RoleAdmin}

	tests := []struct {
		name           string
		principal      Principal
		restrictToMine bool
		want           AccessScope
	}{
		{"worker default", worker, false, AccessScope{Mine: true, UserID: 7}},
		{"worker cannot widen", worker, true, AccessScope{Mine: true, UserID: 7}},
		{"admin default sees all", admin, false, AccessScope{}},
		{"admin restricted to own worklist", admin, true, AccessScope{Mine: true, UserID: 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveAccessScope(tt.principal, tt.restrictToMine))
		})
	}
}
