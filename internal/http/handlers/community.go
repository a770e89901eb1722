package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/hongminglow/aparthus-be/internal/http/respond"
	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/models/dto"
	"github.com/hongminglow/aparthus-be/internal/storage"
)

// CommunityStore is the persistence behind announcements and resident reports.
type CommunityStore interface {
	storage.AnnouncementStore
	storage.IssueStore
	storage.EmergencyStore
	storage.NotificationStore
}

// Notifier sends direct and broadcast notifications.
type Notifier interface {
	Send(ctx context.Context, residentID, message string) (int, error)
}

// CommunityHandler serves announcements, issue and emergency reports, and notifications.
type CommunityHandler struct {
	store    CommunityStore
	notifier Notifier
}

func NewCommunityHandler(store CommunityStore, notifier Notifier) *CommunityHandler {
	return &CommunityHandler{store: store, notifier: notifier}
}

func (h *CommunityHandler) Register(api *mux.Router) {
	api.Handle("/announcements", only(h.handleCreateAnnouncement, models.RoleAdmin)).Methods(http.MethodPost)
	api.Handle("/announcements", only(h.handleListAnnouncements, models.Roles...)).Methods(http.MethodGet)

	api.Handle("/issues/report", only(h.handleReportIssue, models.RoleResident)).Methods(http.MethodPost)
	api.Handle("/issues", only(h.handleListIssues, models.RoleAdmin)).Methods(http.MethodGet)

	api.Handle("/emergency/report", only(h.handleReportEmergency, models.RoleResident)).Methods(http.MethodPost)
	api.Handle("/emergency", only(h.handleListEmergencies, models.RoleAdmin, models.RoleSecurity)).Methods(http.MethodGet)

	api.Handle("/notifications/send", only(h.handleSendNotification, models.RoleAdmin)).Methods(http.MethodPost)
	api.Handle("/notifications", only(h.handleListNotifications, models.RoleResident)).Methods(http.MethodGet)
}

func (h *CommunityHandler) handleCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req dto.AnnouncementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	message := strings.TrimSpace(req.Message)
	block := strings.TrimSpace(req.Block)
	if message == "" || block == "" {
		respond.Error(w, http.StatusBadRequest, "message and block are required")
		return
	}
	a := models.Announcement{
		Message:  message,
		Block:    block,
		MediaURL: strings.TrimSpace(req.MediaURL),
		Author:   claims.Username,
	}
	if req.ScheduledAt != nil {
		a.ScheduledAt = req.ScheduledAt.UTC()
	}
	created, err := h.store.CreateAnnouncement(r.Context(), a)
	if err != nil {
		respond.StoreError(w, "create announcement", err)
		return
	}
	respond.JSON(w, http.StatusCreated, "announcement published", created)
}

func (h *CommunityHandler) handleListAnnouncements(w http.ResponseWriter, r *http.Request) {
	block := strings.TrimSpace(r.URL.Query().Get("block"))
	announcements, err := h.store.ListAnnouncements(r.Context(), block)
	if err != nil {
		respond.StoreError(w, "list announcements", err)
		return
	}
	respond.JSON(w, http.StatusOK, "announcements fetched", announcements)
}

func (h *CommunityHandler) handleReportIssue(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req dto.IssueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		respond.Error(w, http.StatusBadRequest, "description is required")
		return
	}
	created, err := h.store.CreateIssue(r.Context(), models.Issue{
		ResidentID:  claims.ResidentID,
		Description: description,
	})
	if err != nil {
		respond.StoreError(w, "report issue", err)
		return
	}
	respond.JSON(w, http.StatusCreated, "issue reported", created)
}

func (h *CommunityHandler) handleListIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := h.store.ListIssues(r.Context())
	if err != nil {
		respond.StoreError(w, "list issues", err)
		return
	}
	respond.JSON(w, http.StatusOK, "issues fetched", issues)
}

func (h *CommunityHandler) handleReportEmergency(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req dto.EmergencyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	kind := strings.TrimSpace(req.Type)
	if kind == "" {
		respond.Error(w, http.StatusBadRequest, "type and priority are required")
		return
	}
	priority, err := models.ParsePriority(req.Priority)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "priority must be low, medium or high")
		return
	}
	created, err := h.store.CreateEmergencyReport(r.Context(), models.EmergencyReport{
		ResidentID:  claims.ResidentID,
		Type:        kind,
		Priority:    priority,
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		respond.StoreError(w, "report emergency", err)
		return
	}
	respond.JSON(w, http.StatusCreated, "emergency reported", created)
}

func (h *CommunityHandler) handleListEmergencies(w http.ResponseWriter, r *http.Request) {
	reports, err := h.store.ListEmergencyReports(r.Context())
	if err != nil {
		respond.StoreError(w, "list emergency reports", err)
		return
	}
	respond.JSON(w, http.StatusOK, "emergency reports fetched", reports)
}

func (h *CommunityHandler) handleSendNotification(w http.ResponseWriter, r *http.Request) {
	var req dto.SendNotificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	residentID := strings.TrimSpace(req.ResidentID)
	message := strings.TrimSpace(req.Message)
	if residentID == "" || message == "" {
		respond.Error(w, http.StatusBadRequest, "residentId and message are required")
		return
	}
	sent, err := h.notifier.Send(r.Context(), residentID, message)
	if err != nil {
		respond.StoreError(w, "send notification", err)
		return
	}
	respond.JSON(w, http.StatusCreated, "notification sent", dto.SendNotificationResponse{Delivered: sent})
}

func (h *CommunityHandler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	notifications, err := h.store.ListNotifications(r.Context(), claims.ResidentID)
	if err != nil {
		respond.StoreError(w, "list notifications", err)
		return
	}
	respond.JSON(w, http.StatusOK, "notifications fetched", notifications)
}
