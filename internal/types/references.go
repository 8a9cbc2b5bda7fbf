package types

import (
	"github.com/go-playground/validator/v10"
)

// Keys used to persist ReferenceValues in a key-value store.
const (
	KeyTitle       = "title"
	KeyPreheader   = "preheader"
	KeyProductCode = "prod_cd"
)

// ReferenceKeys lists the persisted keys in save order.
var ReferenceKeys = []string{KeyTitle, KeyPreheader, KeyProductCode}

// ReferenceValues are the user-supplied values the checks compare against.
type ReferenceValues struct {
	Title       string `json:"title" yaml:"title" validate:"max=512"`
	Preheader   string `json:"preheader" yaml:"preheader" validate:"max=1024"`
	ProductCode string `json:"prod_cd" yaml:"prod_cd" validate:"omitempty,printascii,max=64"`
}

// Validate validates the ReferenceValues using the validator.
func (r *ReferenceValues) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Value returns the field stored under key.
func (r *ReferenceValues) Value(key string) (string, bool) {
	switch key {
	case KeyTitle:
		return r.Title, true
	case KeyPreheader:
		return r.Preheader, true
	case KeyProductCode:
		return r.ProductCode, true
	default:
		return "", false
	}
}

// SetValue assigns the field stored under key. Unknown keys are ignored.
func (r *ReferenceValues) SetValue(key, value string) bool {
	switch key {
	case KeyTitle:
		r.Title = value
	case KeyPreheader:
		r.Preheader = value
	case KeyProductCode:
		r.ProductCode = value
	default:
		return false
	}
	return true
}

// ChannelFlags select which variant of the markup is being checked.
type ChannelFlags struct {
	Email bool `json:"email"` // Email variant; web variant otherwise
	SEAC  bool `json:"seac"`  // Alternate branding (footer/favicon) variant
}

// Channel returns "email" or "web".
func (f ChannelFlags) Channel() string {
	if f.Email {
		return "email"
	}
	return "web"
}
