package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user tech admin"`
}

type review struct {
	Rating int      `json:"rating" validate:"required,min=1,max=5"`
	Images []string `json:"images" validate:"max=5"`
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Struct(signup{Email: "nope", Password: "123", Role: "root"})
	require.Error(t, err)

	var fe Errors
	require.True(t, errors.As(err, &fe))

	byField := map[string]string{}
	for _, e := range fe {
		byField[e.Field] = e.Message
	}
	assert.Equal(t, "is required", byField["name"])
	assert.Equal(t, "must be a valid email", byField["email"])
	assert.Equal(t, "must be at least 6 characters", byField["password"])
	assert.Equal(t, "must be one of: user, tech, admin", byField["role"])
}

func TestStruct_Valid(t *testing.T) {
	v := New()
	assert.NoError(t, v.Struct(signup{Name: "A", Email: "a@b.co", Password: "secret"}))
	assert.NoError(t, v.Validate(&review{Rating: 5}))
}

func TestStruct_Bounds(t *testing.T) {
	v := New()
	err := v.Struct(review{Rating: 6, Images: []string{"1", "2", "3", "4", "5", "6"}})

	var fe Errors
	require.True(t, errors.As(err, &fe))
	assert.Len(t, fe, 2)
	assert.Contains(t, err.Error(), "rating: must be at most 5")
}
