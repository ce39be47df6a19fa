package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password,omitempty" validate:"min=8"`
	Kind     string `json:"kind" validate:"omitempty,oneof=A B"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(&sample{Email: "a@example.com", Password: "12345678"}))

	fields := Validate(&sample{Email: "nope", Password: "short", Kind: "C"})
	assert.Equal(t, map[string]string{
		"email":    "email",
		"password": "min",
		"kind":     "oneof",
	}, fields)
}

func TestValidate_NotAStruct(t *testing.T) {
	fields := Validate("plain string")
	assert.Contains(t, fields, "_")
}

type secret struct {
	Password string `json:"password" validate:"maxbytes=72"`
}

func TestValidate_MaxBytes(t *testing.T) {
	assert.Nil(t, Validate(&secret{Password: strings.Repeat("a", 72)}))
	assert.Nil(t, Validate(&secret{Password: strings.Repeat("é", 36)}))

	// 72 runes but 144 bytes.
	assert.Equal(t, map[string]string{"password": "maxbytes"},
		Validate(&secret{Password: strings.Repeat("é", 72)}))
}
