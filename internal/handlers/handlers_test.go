package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type mockSender struct {
	calls []sendCall
	err   error
}

type sendCall struct {
	token, title, body string
	data               map[string]string
}

func (m *mockSender) Send(_ context.Context, token, title, body string, data map[string]string) (string, error) {
	m.calls = append(m.calls, sendCall{token, title, body, data})
	if m.err != nil {
		return "", m.err
	}
	return "projects/x/messages/123", nil
}

func postNotification(t *testing.T, h *Handler, payload string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/sendNotification", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	h.SendNotification(rr, req)
	return rr
}

func TestSendNotification_MissingTokenRejected(t *testing.T) {
	sender := &mockSender{}
	h := New(sender)

	rr := postNotification(t, h, `{"body":"x"}`)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if len(sender.calls) != 0 {
		t.Errorf("sender invoked %d times on a rejected request", len(sender.calls))
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if resp["error"] == "" {
		t.Error("400 response carries no error field")
	}
}

func TestSendNotification_MissingContentRejected(t *testing.T) {
	sender := &mockSender{}
	h := New(sender)

	rr := postNotification(t, h, `{"token":"tok1"}`)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if len(sender.calls) != 0 {
		t.Errorf("sender invoked %d times on a rejected request", len(sender.calls))
	}
}

func TestSendNotification_InvalidJSONRejected(t *testing.T) {
	sender := &mockSender{}
	h := New(sender)

	rr := postNotification(t, h, `{token`)

	if rr.Code != http.StatusBadRequest || len(sender.calls) != 0 {
		t.Errorf("status = %d calls = %d, want 400 and no sends", rr.Code, len(sender.calls))
	}
}

func TestSendNotification_ExplicitContent(t *testing.T) {
	sender := &mockSender{}
	h := New(sender)

	rr := postNotification(t, h, `{"token":"tok1","title":"Hi","body":"there","data":{"k":"v"}}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if len(sender.calls) != 1 {
		t.Fatalf("sender calls = %d, want exactly 1", len(sender.calls))
	}

	call := sender.calls[0]
	if call.token != "tok1" || call.title != "Hi" || call.body != "there" || call.data["k"] != "v" {
		t.Errorf("unexpected call %+v", call)
	}

	var resp sendNotificationResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if !resp.Success || resp.Response == "" {
		t.Errorf("response = %+v, want success with a message id", resp)
	}
}

func TestSendNotification_DerivedContent(t *testing.T) {
	cases := []struct {
		name      string
		data      string
		wantTitle string
		wantBody  string
	}{
		{"chat", `{"type":"chat","senderName":"Ana","content":"hello"}`, "Ana", "hello"},
		{"chat defaults", `{"type":"chat"}`, "New Message", "You have a message"},
		{"forum comment", `{"type":"forum_comment","senderName":"Ana"}`, "New Comment", "Ana commented on your post"},
		{"comment", `{"type":"comment","senderName":"Ana"}`, "New Comment", "Ana left a comment"},
		{"unknown type", `{"type":"like"}`, "New Notification", "You have a new interaction"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &mockSender{}
			h := New(sender)

			rr := postNotification(t, h, `{"token":"tok1","data":`+tc.data+`}`)

			if rr.Code != http.StatusOK || len(sender.calls) != 1 {
				t.Fatalf("status = %d calls = %d", rr.Code, len(sender.calls))
			}
			call := sender.calls[0]
			if call.title != tc.wantTitle || call.body != tc.wantBody {
				t.Errorf("derived title/body = %q/%q, want %q/%q", call.title, call.body, tc.wantTitle, tc.wantBody)
			}
		})
	}
}

func TestSendNotification_TransportFailure(t *testing.T) {
	sender := &mockSender{err: errors.New("messaging: registration token not registered")}
	h := New(sender)

	rr := postNotification(t, h, `{"token":"stale","title":"Hi","body":"there"}`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}

	var resp sendNotificationResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if resp.Success {
		t.Error("success = true on a transport failure")
	}
	if !strings.Contains(resp.Error, "not registered") {
		t.Errorf("error %q does not surface the transport reason", resp.Error)
	}
}

func TestRoot_Liveness(t *testing.T) {
	h := New(&mockSender{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.Root(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "running") {
		t.Errorf("body = %q, want a confirmation string", rr.Body.String())
	}
}
