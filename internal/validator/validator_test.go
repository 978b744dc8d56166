package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("ana@example.com"))
	assert.True(t, IsEmail(" a@b.co "))
	assert.False(t, IsEmail("ana@example"))
	assert.False(t, IsEmail("ana.example.com"))
	assert.False(t, IsEmail(""))
}

func TestRegistration(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		errs := Registration("Ana", "ana@example.com", "secret123", "secret123")
		assert.NoError(t, errs.Err())
	})

	t.Run("all wrong", func(t *testing.T) {
		errs := Registration(" ", "nope", "short", "other")
		assert.Equal(t, Errors{
			"name":                  "Name is required",
			"email":                 "Please enter a valid email address",
			"password":              "Password must be at least 8 characters",
			"password_confirmation": "Passwords do not match",
		}, errs)
		assert.True(t, errors.Is(errs.Err(), ErrInvalidInput))
	})

	t.Run("exactly eight chars", func(t *testing.T) {
		errs := Registration("Ana", "ana@example.com", "12345678", "12345678")
		assert.Empty(t, errs)
	})
}

func TestLogin(t *testing.T) {
	errs := Login("", "")
	assert.Equal(t, "Email is required", errs["email"])
	assert.Equal(t, "Password is required", errs["password"])
}

func TestErrors_ErrorIsSortedByField(t *testing.T) {
	errs := Errors{"b": "second", "a": "first"}
	assert.Equal(t, "first second", errs.Error())
}
