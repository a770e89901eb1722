// Package navigation decides which screens a role may open.
package navigation

import (
	"sync"

	"github.com/hongminglow/aparthus-be/internal/models"
)

// Screen names a navigable view of the app.
type Screen string

const (
	Login         Screen = "Login"
	NotAuthorized Screen = "NotAuthorized"

	AdminHome        Screen = "AdminHome"
	ManageUsers      Screen = "ManageUsers"
	ExpenseDetails   Screen = "ExpenseDetails"
	Announcement     Screen = "Announcement"
	SendNotification Screen = "SendNotification"
	QRCodeScanner    Screen = "QRCodeScanner"
	BankTransactions Screen = "BankTransactions"
	TaskTracking     Screen = "TaskTracking"

	ResidentHome      Screen = "ResidentHome"
	AidatPayment      Screen = "AidatPayment"
	ReportIssue       Screen = "ReportIssue"
	EmergencyReport   Screen = "EmergencyReport"
	AnnouncementList  Screen = "AnnouncementList"
	VisitorManagement Screen = "VisitorManagement"

	SecurityHome Screen = "SecurityHome"
)

var (
	adminScreens = []Screen{
		AdminHome, ManageUsers, ExpenseDetails, Announcement,
		SendNotification, QRCodeScanner, BankTransactions, TaskTracking,
	}
	residentScreens = []Screen{
		ResidentHome, AidatPayment, ReportIssue, EmergencyReport, AnnouncementList, VisitorManagement,
	}
	securityScreens = []Screen{SecurityHome, QRCodeScanner}
)

// ScreensFor lists the screens open to role, home first. Unknown roles get nothing.
func ScreensFor(role models.Role) []Screen {
	var screens []Screen
	switch role {
	case models.RoleAdmin:
		screens = adminScreens
	case models.RoleResident:
		screens = residentScreens
	case models.RoleSecurity:
		screens = securityScreens
	}
	return append([]Screen(nil), screens...)
}

// Home returns the landing screen for role.
func Home(role models.Role) Screen {
	if screens := ScreensFor(role); len(screens) > 0 {
		return screens[0]
	}
	return Login
}

// Decision is the outcome of Guard.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Guard allows screen only when it belongs to role's screen set.
func Guard(screen Screen, role models.Role) Decision {
	for _, s := range ScreensFor(role) {
		if s == screen {
			return Allow
		}
	}
	return Deny
}

// State is either unauthenticated or authenticated with a role.
type State struct {
	Authenticated bool
	Role          models.Role
}

// Router tracks the authentication state and resolves navigation requests.
type Router struct {
	mu    sync.RWMutex
	state State
}

func NewRouter() *Router {
	return &Router{}
}

// Authenticate moves to Authenticated(role) and returns its home screen.
func (r *Router) Authenticate(role models.Role) (Screen, error) {
	if !role.Valid() {
		return Login, models.ErrUnknownRole
	}
	r.mu.Lock()
	r.state = State{Authenticated: true, Role: role}
	r.mu.Unlock()
	return Home(role), nil
}

// Logout returns to Unauthenticated.
func (r *Router) Logout() Screen {
	r.mu.Lock()
	r.state = State{}
	r.mu.Unlock()
	return Login
}

func (r *Router) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Screens lists what the current state may open.
func (r *Router) Screens() []Screen {
	st := r.State()
	if !st.Authenticated {
		return []Screen{Login}
	}
	return ScreensFor(st.Role)
}

// Navigate resolves a request to open screen. Denied requests land on NotAuthorized, and
// unauthenticated ones on Login.
func (r *Router) Navigate(screen Screen) Screen {
	st := r.State()
	if !st.Authenticated {
		return Login
	}
	if Guard(screen, st.Role) == Deny {
		return NotAuthorized
	}
	return screen
}
