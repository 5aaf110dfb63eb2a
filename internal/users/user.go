package users

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

const minPasswordLength = 6

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Weight       *float64  `json:"weight,omitempty"`
	Height       *float64  `json:"height,omitempty"`
	Goal         *string   `json:"goal,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile holds the user editable fields.
type Profile struct {
	Name   string   `json:"name"`
	Weight *float64 `json:"weight,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Goal   *string  `json:"goal,omitempty"`
}

func (p *Profile) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return errors.New("name empty")
	}
	if p.Weight != nil && *p.Weight <= 0 {
		return errors.New("weight must be positive")
	}
	if p.Height != nil && *p.Height <= 0 {
		return errors.New("height must be positive")
	}
	return nil
}

func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errors.New("email empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errors.New("email invalid")
	}
	return email, nil
}
