package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/aparthus-be/internal/models"
)

// RegisterRequest creates a staff account. Site managers registering themselves also send
// their site and its dues.
type RegisterRequest struct {
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone,omitempty"`
	PhoneNumber string          `json:"phoneNumber,omitempty"`
	Password    string          `json:"password"`
	Role        models.Role     `json:"role,omitempty"`
	FirstName   string          `json:"firstName,omitempty"`
	LastName    string          `json:"lastName,omitempty"`
	SiteName    string          `json:"siteName,omitempty"`
	Block       string          `json:"block,omitempty"`
	DueAmount   decimal.Decimal `json:"dueAmount,omitzero"`
	DueDate     string          `json:"dueDate,omitempty"`
	IBAN        string          `json:"IBAN,omitempty"`
}

// ResidentRegisterRequest is a resident signing up under a site manager.
type ResidentRegisterRequest struct {
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	PhoneNumber     string  `json:"phoneNumber,omitempty"`
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	SiteName        string  `json:"siteName,omitempty"`
	Block           string  `json:"block,omitempty"`
	ApartmentNumber FlexInt `json:"apartmentNumber"`
	ContactNumber   string  `json:"contactNumber"`
	ManagerID       string  `json:"yoneticiId"`
}

// SiteInfo is the public view of a site manager, read by residents before they register.
type SiteInfo struct {
	ManagerID string          `json:"yoneticiId"`
	SiteName  string          `json:"siteName"`
	Block     string          `json:"block,omitempty"`
	DueAmount decimal.Decimal `json:"dueAmount"`
	DueDate   time.Time       `json:"dueDate,omitzero"`
}

// FlexInt decodes a JSON number or a numeric string.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(strings.Trim(string(data), `"`))
	if raw == "" || raw == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s is not a whole number", data)
	}
	*n = FlexInt(v)
	return nil
}

// LoginRequest accepts every identifier field the app versions have sent.
type LoginRequest struct {
	Identifier string `json:"identifier,omitempty"`
	Username   string `json:"username,omitempty"`
	Email      string `json:"email,omitempty"`
	Password   string `json:"password"`
}

// LoginID returns the first non-empty identifier field.
func (r LoginRequest) LoginID() string {
	for _, candidate := range []string{r.Identifier, r.Username, r.Email} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// LoginResponse answers /api/login. ResidentID is set only for resident logins.
type LoginResponse struct {
	Token      string       `json:"token"`
	Role       models.Role  `json:"role"`
	ResidentID string       `json:"residentId,omitempty"`
	User       *models.User `json:"user,omitempty"`
}

type ResidentLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ResidentIdentity is the resident part of a resident login response.
type ResidentIdentity struct {
	ID       string      `json:"_id"`
	Role     models.Role `json:"role"`
	Username string      `json:"username"`
}

type ResidentLoginResponse struct {
	Token    string           `json:"token"`
	Resident ResidentIdentity `json:"resident"`
}
