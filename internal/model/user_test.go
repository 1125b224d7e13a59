package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPasswordHashing(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetPassword("admin123"))

	assert.NotEqual(t, "admin123", u.Password)
	assert.True(t, u.CheckPassword("admin123"))
	assert.False(t, u.CheckPassword("admin124"))
}

func TestUserToResponse(t *testing.T) {
	u := &User{
		Email:      "ops@example.com",
		Role:       &Role{Code: RoleOperator},
		Privileges: []Privilege{{Code: PrivOrderCreate}, {Code: PrivOrderCancel}},
		IsActive:   true,
	}

	resp := u.ToResponse()
	assert.Equal(t, RoleOperator, resp.Role)
	assert.Equal(t, []string{PrivOrderCreate, PrivOrderCancel}, resp.Privileges)
}
