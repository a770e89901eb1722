package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/gorilla/mux"

	"github.com/hongminglow/aparthus-be/internal/auth"
	"github.com/hongminglow/aparthus-be/internal/http/respond"
	"github.com/hongminglow/aparthus-be/internal/middleware"
	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/models/dto"
	"github.com/hongminglow/aparthus-be/internal/storage"
)

const msgInvalidCredentials = "invalid credentials"

// AuthStore is the persistence the login and registration endpoints use.
type AuthStore interface {
	storage.UserStore
	FindResidentByUsername(ctx context.Context, username string) (models.Resident, error)
	CreateResident(ctx context.Context, resident models.Resident) (models.Resident, error)
}

// AuthHandler owns login and registration.
type AuthHandler struct {
	store  AuthStore
	static *auth.StaticCredentials
	tokens *auth.TokenManager
}

// NewAuthHandler constructs the handler. static may be nil.
func NewAuthHandler(store AuthStore, static *auth.StaticCredentials, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{store: store, static: static, tokens: tokens}
}

// RegisterPublic attaches the routes reachable without a token; limit guards them against
// guessing and sign-up floods.
func (h *AuthHandler) RegisterPublic(r *mux.Router, limit func(http.Handler) http.Handler) {
	r.Handle("/api/login", limit(http.HandlerFunc(h.handleLogin))).Methods(http.MethodPost)
	r.Handle("/api/users/login", limit(http.HandlerFunc(h.handleLogin))).Methods(http.MethodPost)
	r.Handle("/api/residents/login", limit(http.HandlerFunc(h.handleResidentLogin))).Methods(http.MethodPost)
	r.Handle("/api/users/register", limit(http.HandlerFunc(h.handleRegister))).Methods(http.MethodPost)
	r.Handle("/api/residents/register", limit(http.HandlerFunc(h.handleResidentRegister))).Methods(http.MethodPost)
	r.Handle("/api/users/{id}", limit(http.HandlerFunc(h.handleSite))).Methods(http.MethodGet)
}

// handleRegister creates staff accounts. Without a token only a site manager may sign
// itself up; with one, an admin may create any staff role.
func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		respond.Error(w, http.StatusBadRequest, "username is required")
		return
	}
	if req.Role == models.RoleResident {
		respond.Error(w, http.StatusBadRequest, "residents register through /api/residents/register")
		return
	}

	role := req.Role
	selfService := false
	if token, ok := middleware.BearerToken(r); ok {
		claims, err := h.tokens.Parse(token)
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if claims.Role != models.RoleAdmin {
			respond.Error(w, http.StatusForbidden, "forbidden: insufficient role")
			return
		}
		if role == "" {
			role = models.RoleSecurity
		}
	} else {
		if role != models.RoleAdmin {
			respond.Error(w, http.StatusUnauthorized, "only site managers may register without a token")
			return
		}
		selfService = true
	}

	user := models.User{
		Username:  username,
		Email:     strings.TrimSpace(req.Email),
		Phone:     normalizePhone(req),
		Role:      role,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}
	if selfService || strings.TrimSpace(req.SiteName) != "" {
		if role != models.RoleAdmin {
			respond.Error(w, http.StatusBadRequest, "only site managers carry site details")
			return
		}
		if err := applySite(&user, req); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	user.PasswordHash = passwordHash

	created, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "user already exists")
			return
		}
		respond.StoreError(w, "create user", err)
		return
	}

	respond.JSON(w, http.StatusCreated, "User created successfully", created)
}

var ibanPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{1,30}$`)

// applySite validates a manager's site details onto user.
func applySite(user *models.User, req dto.RegisterRequest) error {
	user.SiteName = strings.TrimSpace(req.SiteName)
	user.Block = strings.TrimSpace(req.Block)
	user.IBAN = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(req.IBAN), " ", ""))
	switch {
	case user.FirstName == "" || user.LastName == "":
		return errors.New("firstName and lastName are required")
	case user.SiteName == "":
		return errors.New("siteName is required")
	case !strings.Contains(user.Email, "@"):
		return errors.New("a valid email is required")
	case req.DueAmount.IsNegative():
		return errors.New("dueAmount must not be negative")
	case !ibanPattern.MatchString(user.IBAN):
		return errors.New("IBAN is not valid")
	case strings.TrimSpace(req.DueDate) == "":
		return errors.New("dueDate is required")
	}
	due, err := dto.ParseDate(req.DueDate)
	if err != nil {
		return err
	}
	user.DueAmount = req.DueAmount.Round(2)
	user.DueDate = due
	return nil
}

// handleResidentRegister signs a resident up under a site manager. Site, dues, and due date
// come from the manager's record.
func (h *AuthHandler) handleResidentRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.ResidentRegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resident := models.Resident{
		Username:        strings.TrimSpace(req.Username),
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Email:           strings.TrimSpace(req.Email),
		ContactNumber:   strings.TrimSpace(req.ContactNumber),
		Block:           strings.TrimSpace(req.Block),
		ApartmentNumber: int(req.ApartmentNumber),
		ManagerID:       strings.TrimSpace(req.ManagerID),
	}
	if resident.ContactNumber == "" {
		resident.ContactNumber = strings.TrimSpace(req.PhoneNumber)
	}
	switch {
	case resident.Username == "":
		respond.Error(w, http.StatusBadRequest, "username is required")
		return
	case resident.FirstName == "" || resident.LastName == "":
		respond.Error(w, http.StatusBadRequest, "firstName and lastName are required")
		return
	case resident.ContactNumber == "":
		respond.Error(w, http.StatusBadRequest, "contactNumber is required")
		return
	case resident.ApartmentNumber <= 0:
		respond.Error(w, http.StatusBadRequest, "apartmentNumber is required")
		return
	case resident.ManagerID == "":
		respond.Error(w, http.StatusBadRequest, "yoneticiId is required")
		return
	}

	manager, err := h.store.FindUserByID(r.Context(), resident.ManagerID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		respond.StoreError(w, "find manager", err)
		return
	}
	if err != nil || !manager.ManagesSite() {
		respond.Error(w, http.StatusBadRequest, "yoneticiId does not belong to a site manager")
		return
	}
	resident.SiteName = manager.SiteName
	if resident.Block == "" {
		resident.Block = manager.Block
	}
	resident.AmountDue = manager.DueAmount
	resident.HasPaid = manager.DueAmount.IsZero()
	resident.DueDate = manager.DueDate

	resident.PasswordHash, err = auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	created, err := h.store.CreateResident(r.Context(), resident)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "username already taken")
			return
		}
		respond.StoreError(w, "register resident", err)
		return
	}
	respond.JSON(w, http.StatusCreated, "Resident registered successfully", created)
}

// handleSite shows the public part of a manager record.
func (h *AuthHandler) handleSite(w http.ResponseWriter, r *http.Request) {
	manager, err := h.store.FindUserByID(r.Context(), mux.Vars(r)["id"])
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		respond.StoreError(w, "find manager", err)
		return
	}
	if err != nil || !manager.ManagesSite() {
		respond.Error(w, http.StatusNotFound, "site manager not found")
		return
	}
	respond.JSON(w, http.StatusOK, "site fetched", dto.SiteInfo{
		ManagerID: manager.ID,
		SiteName:  manager.SiteName,
		Block:     manager.Block,
		DueAmount: manager.DueAmount,
		DueDate:   manager.DueDate,
	})
}

// handleLogin checks staff users first, then residents by username, then the static pairs.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	identifier := req.LoginID()
	if identifier == "" || strings.TrimSpace(req.Password) == "" {
		respond.Error(w, http.StatusBadRequest, "identifier and password are required")
		return
	}

	ctx := r.Context()
	user, err := h.store.FindByUsernameOrEmail(ctx, identifier)
	switch {
	case err == nil:
		if auth.CheckPassword(user.PasswordHash, req.Password) {
			h.issueStaff(w, user)
			return
		}
	case !errors.Is(err, storage.ErrNotFound):
		log.Printf("login failed: error fetching user %s: %v", identifier, err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	resident, err := h.store.FindResidentByUsername(ctx, identifier)
	switch {
	case err == nil:
		if auth.CheckPassword(resident.PasswordHash, req.Password) {
			token, err := h.tokens.Generate(auth.PrincipalFromResident(resident))
			if err != nil {
				respond.Error(w, http.StatusInternalServerError, "failed to generate token")
				return
			}
			respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{
				Token:      token,
				Role:       models.RoleResident,
				ResidentID: resident.ID,
			})
			return
		}
	case !errors.Is(err, storage.ErrNotFound):
		log.Printf("login failed: error fetching resident %s: %v", identifier, err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	if static, ok := h.static.Verify(identifier, req.Password); ok {
		h.issueStaff(w, static)
		return
	}
	respond.Error(w, http.StatusUnauthorized, msgInvalidCredentials)
}

func (h *AuthHandler) issueStaff(w http.ResponseWriter, user models.User) {
	principal := auth.PrincipalFromUser(user)
	if user.Role == models.RoleResident {
		principal.ResidentID = user.ID
	}
	token, err := h.tokens.Generate(principal)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	resp := dto.LoginResponse{Token: token, Role: user.Role, User: &user}
	if user.Role == models.RoleResident {
		resp.ResidentID = user.ID
	}
	respond.JSON(w, http.StatusOK, "login successful", resp)
}

func (h *AuthHandler) handleResidentLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.ResidentLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || strings.TrimSpace(req.Password) == "" {
		respond.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	resident, err := h.store.FindResidentByUsername(r.Context(), username)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("resident login failed: error fetching %s: %v", username, err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch resident")
		return
	}
	var principal auth.Principal
	switch {
	case err == nil && auth.CheckPassword(resident.PasswordHash, req.Password):
		principal = auth.PrincipalFromResident(resident)
	default:
		static, ok := h.static.Verify(username, req.Password)
		if !ok || static.Role != models.RoleResident {
			respond.Error(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}
		principal = auth.Principal{ID: static.ID, Username: static.Username, Role: models.RoleResident, ResidentID: static.ID}
	}

	token, err := h.tokens.Generate(principal)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.ResidentLoginResponse{
		Token: token,
		Resident: dto.ResidentIdentity{
			ID:       principal.ResidentID,
			Role:     models.RoleResident,
			Username: principal.Username,
		},
	})
}

func normalizePhone(req dto.RegisterRequest) string {
	if trimmed := strings.TrimSpace(req.Phone); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(req.PhoneNumber)
}
