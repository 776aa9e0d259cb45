package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"remind-push/internal/push"
)

type Handler struct {
	sender NotificationSender
}

func New(sender NotificationSender) *Handler {
	return &Handler{sender: sender}
}

type sendNotificationRequest struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

type sendNotificationResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SendNotification handles POST /sendNotification: one validated, ad-hoc push.
// Explicit title/body win; otherwise both are derived from data.type.
func (h *Handler) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req sendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	if req.Title == "" && req.Body == "" && req.Data == nil {
		writeError(w, http.StatusBadRequest, "title/body or data is required")
		return
	}

	title, body := req.Title, req.Body
	if title == "" && body == "" {
		title, body = deriveContent(req.Data)
	}

	response, err := h.sender.Send(r.Context(), req.Token, title, body, req.Data)
	if err != nil {
		if push.IsInvalidTokenError(err) {
			log.Printf("⚠️  Stale device token on ad-hoc push: %v", err)
		} else {
			log.Printf("❌ Ad-hoc push failed: %v", err)
		}
		writeJSON(w, http.StatusInternalServerError, sendNotificationResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, sendNotificationResponse{
		Success:  true,
		Response: response,
	})
}

// Root handles GET /: static liveness confirmation.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "FCM notification server is running")
}

// deriveContent builds a title/body pair from the notification category tag.
func deriveContent(data map[string]string) (title, body string) {
	title = "New Notification"
	body = "You have a new interaction"

	switch data["type"] {
	case "chat":
		if data["senderName"] != "" {
			title = data["senderName"]
		} else {
			title = "New Message"
		}
		if data["content"] != "" {
			body = data["content"]
		} else {
			body = "You have a message"
		}
	case "forum_comment":
		title = "New Comment"
		body = fmt.Sprintf("%s commented on your post", data["senderName"])
	case "comment":
		title = "New Comment"
		body = fmt.Sprintf("%s left a comment", data["senderName"])
	}

	return title, body
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
