package address

import (
	"sort"
	"strings"
	"time"
)

// Shipping is the address form collected at checkout. Phone is optional.
type Shipping struct {
	FirstName string `json:"firstName" example:"Ana"`
	LastName  string `json:"lastName" example:"García"`
	Email     string `json:"email" example:"ana@example.com"`
	Phone     string `json:"phone,omitempty" example:"+1 555 0100"`
	Address   string `json:"address" example:"12 Grove St"`
	City      string `json:"city" example:"Portland"`
	State     string `json:"state" example:"OR"`
	ZipCode   string `json:"zipCode" example:"97201"`
	Country   string `json:"country" example:"United States"`
}

// ValidationError lists the offending fields with a message each.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return "invalid address: missing " + strings.Join(names, ", ")
}

// Validate requires every field but phone.
func (s Shipping) Validate() error {
	required := []struct{ name, value string }{
		{"firstName", s.FirstName},
		{"lastName", s.LastName},
		{"email", s.Email},
		{"address", s.Address},
		{"city", s.City},
		{"state", s.State},
		{"zipCode", s.ZipCode},
		{"country", s.Country},
	}
	fields := map[string]string{}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			fields[f.name] = "required"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Summary is the one-line form stored on the profile.
func (s Shipping) Summary() string {
	return s.Address + ", " + s.City + ", " + s.State + " " + s.ZipCode + ", " + s.Country
}

func (s Shipping) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Saved is an address row owned by a signed-in user.
type Saved struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Label     string    `json:"label" example:"Home"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Shipping
}
