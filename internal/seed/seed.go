// Package seed loads the initial accounts of a community from YAML and inserts the ones that
// do not exist yet.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/hongminglow/aparthus-be/internal/auth"
	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/models/dto"
	"github.com/hongminglow/aparthus-be/internal/storage"
)

// File is the seed document.
type File struct {
	Users     []User     `yaml:"users"`
	Residents []Resident `yaml:"residents"`
}

// User is a staff account entry.
type User struct {
	Username string      `yaml:"username"`
	Email    string      `yaml:"email"`
	Phone    string      `yaml:"phone"`
	Password string      `yaml:"password"`
	Role     models.Role `yaml:"role"`
}

// Resident is a household entry. DueDate is YYYY-MM-DD.
type Resident struct {
	Username        string          `yaml:"username"`
	Password        string          `yaml:"password"`
	FirstName       string          `yaml:"firstName"`
	LastName        string          `yaml:"lastName"`
	Email           string          `yaml:"email"`
	ContactNumber   string          `yaml:"contactNumber"`
	SiteName        string          `yaml:"siteName"`
	Block           string          `yaml:"block"`
	ApartmentNumber int             `yaml:"apartmentNumber"`
	AmountDue       decimal.Decimal `yaml:"amountDue"`
	DueDate         string          `yaml:"dueDate"`
}

// Store is where seeded accounts go.
type Store interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	CreateResident(ctx context.Context, resident models.Resident) (models.Resident, error)
}

// Result counts what Apply did.
type Result struct {
	UsersCreated     int
	ResidentsCreated int
	Skipped          int
}

// Load reads and parses a seed file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return File{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return f, nil
}

// Apply hashes passwords and inserts every entry, skipping ones that already exist.
func Apply(ctx context.Context, store Store, f File) (Result, error) {
	var res Result
	for _, u := range f.Users {
		user, err := u.model()
		if err != nil {
			return res, err
		}
		switch _, err := store.CreateUser(ctx, user); {
		case err == nil:
			res.UsersCreated++
		case errors.Is(err, storage.ErrAlreadyExists):
			res.Skipped++
		default:
			return res, fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}
	for _, r := range f.Residents {
		resident, err := r.model()
		if err != nil {
			return res, err
		}
		switch _, err := store.CreateResident(ctx, resident); {
		case err == nil:
			res.ResidentsCreated++
		case errors.Is(err, storage.ErrAlreadyExists):
			res.Skipped++
		default:
			return res, fmt.Errorf("seed resident %s: %w", r.Username, err)
		}
	}
	return res, nil
}

func (u User) model() (models.User, error) {
	username := strings.TrimSpace(u.Username)
	if username == "" {
		return models.User{}, errors.New("seed user without username")
	}
	if u.Role != models.RoleAdmin && u.Role != models.RoleSecurity {
		return models.User{}, fmt.Errorf("seed user %s: role must be admin or security", username)
	}
	hash, err := auth.HashPassword(u.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("seed user %s: %w", username, err)
	}
	return models.User{
		Username:     username,
		Email:        strings.TrimSpace(u.Email),
		Phone:        strings.TrimSpace(u.Phone),
		Role:         u.Role,
		PasswordHash: hash,
	}, nil
}

func (r Resident) model() (models.Resident, error) {
	username := strings.TrimSpace(r.Username)
	if username == "" {
		return models.Resident{}, errors.New("seed resident without username")
	}
	if r.AmountDue.IsNegative() {
		return models.Resident{}, fmt.Errorf("seed resident %s: amountDue must not be negative", username)
	}
	hash, err := auth.HashPassword(r.Password)
	if err != nil {
		return models.Resident{}, fmt.Errorf("seed resident %s: %w", username, err)
	}
	resident := models.Resident{
		Username:        username,
		PasswordHash:    hash,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Email:           r.Email,
		ContactNumber:   r.ContactNumber,
		SiteName:        r.SiteName,
		Block:           r.Block,
		ApartmentNumber: r.ApartmentNumber,
		AmountDue:       r.AmountDue,
		HasPaid:         r.AmountDue.IsZero(),
	}
	if r.DueDate != "" {
		due, err := dto.ParseDate(r.DueDate)
		if err != nil {
			return models.Resident{}, fmt.Errorf("seed resident %s: %w", username, err)
		}
		resident.DueDate = due
	}
	return resident, nil
}
