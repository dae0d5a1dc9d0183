package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type createUser struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin doctor"`
}

func TestValidate_Struct(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(createUser{Username: "a", Password: "longenough", Role: "admin"}))

	err := v.Validate(createUser{Password: "longenough", Role: "admin"})
	assert.EqualError(t, err, "username is required")

	err = v.Validate(createUser{Username: "a", Password: "short", Role: "admin"})
	assert.EqualError(t, err, "password must be at least 8 characters")

	err = v.Validate(createUser{Username: "a", Password: "longenough", Role: "janitor"})
	assert.EqualError(t, err, "role must be one of: admin, doctor")
}

func TestValidate_Map(t *testing.T) {
	v := New()
	rules := map[string]string{"patient_id": "required", "date": "required"}

	assert.NoError(t, v.ValidateMap(map[string]interface{}{"patient_id": "p", "date": "2026-01-01"}, rules))
	assert.EqualError(t, v.ValidateMap(map[string]interface{}{"patient_id": "p"}, rules), "date is required")
	assert.EqualError(t, v.ValidateMap(map[string]interface{}{"date": "x", "patient_id": ""}, rules), "patient_id is required")
}
