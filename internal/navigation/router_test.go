package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/aparthus-be/internal/models"
)

func TestGuard(t *testing.T) {
	tests := []struct {
		screen Screen
		role   models.Role
		want   Decision
	}{
		{ManageUsers, models.RoleAdmin, Allow},
		{ManageUsers, models.RoleResident, Deny},
		{ManageUsers, models.RoleSecurity, Deny},
		{AdminHome, models.RoleResident, Deny},
		{AidatPayment, models.RoleResident, Allow},
		{AidatPayment, models.RoleAdmin, Deny},
		{QRCodeScanner, models.RoleSecurity, Allow},
		{QRCodeScanner, models.RoleAdmin, Allow},
		{QRCodeScanner, models.RoleResident, Deny},
		{ReportIssue, models.RoleSecurity, Deny},
		{AdminHome, "", Deny},
	}
	for _, tt := range tests {
		t.Run(string(tt.screen)+"/"+string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, Guard(tt.screen, tt.role))
		})
	}
}

func TestScreensFor(t *testing.T) {
	assert.Equal(t, []Screen{SecurityHome, QRCodeScanner}, ScreensFor(models.RoleSecurity))
	assert.Contains(t, ScreensFor(models.RoleAdmin), BankTransactions)
	assert.Contains(t, ScreensFor(models.RoleResident), EmergencyReport)
	assert.Empty(t, ScreensFor("manager"))

	screens := ScreensFor(models.RoleAdmin)
	screens[0] = NotAuthorized
	assert.Equal(t, AdminHome, Home(models.RoleAdmin))

	assert.Equal(t, ResidentHome, Home(models.RoleResident))
	assert.Equal(t, SecurityHome, Home(models.RoleSecurity))
	assert.Equal(t, Login, Home(""))
}

func TestRouterTransitions(t *testing.T) {
	r := NewRouter()
	assert.False(t, r.State().Authenticated)
	assert.Equal(t, []Screen{Login}, r.Screens())
	assert.Equal(t, Login, r.Navigate(AdminHome))

	_, err := r.Authenticate("janitor")
	require.ErrorIs(t, err, models.ErrUnknownRole)
	assert.False(t, r.State().Authenticated)

	home, err := r.Authenticate(models.RoleResident)
	require.NoError(t, err)
	assert.Equal(t, ResidentHome, home)
	assert.Equal(t, State{Authenticated: true, Role: models.RoleResident}, r.State())
	assert.Equal(t, AidatPayment, r.Navigate(AidatPayment))
	assert.Equal(t, NotAuthorized, r.Navigate(ManageUsers))

	assert.Equal(t, Login, r.Logout())
	assert.False(t, r.State().Authenticated)
	assert.Equal(t, Login, r.Navigate(AidatPayment))
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "deny", Deny.String())
}
