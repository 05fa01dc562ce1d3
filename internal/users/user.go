package users

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSignup      = errors.New("invalid signup")
)

const (
	PlanFree = "free"
	PlanPro  = "pro"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Level        string    `json:"level,omitempty"`
	Plan         string    `json:"plan"`
	Goals        []string  `json:"goals"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SignupRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" || !strings.Contains(r.Email, "@") || r.Password == "" {
		return ErrInvalidSignup
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate carries optional fields; empty ones are left untouched.
type ProfileUpdate struct {
	Name      string   `json:"name"`
	Level     string   `json:"level"`
	Goals     []string `json:"goals"`
	AvatarURL string   `json:"avatarUrl"`
}

func (u ProfileUpdate) apply(user *User) {
	if u.Name != "" {
		user.Name = u.Name
	}
	if u.Level != "" {
		user.Level = u.Level
	}
	if u.Goals != nil {
		user.Goals = u.Goals
	}
	if u.AvatarURL != "" {
		user.AvatarURL = u.AvatarURL
	}
}

// Summary is the public subset of a user returned on signup and login.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Plan  string `json:"plan"`
}

func (u User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email, Plan: u.Plan}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
