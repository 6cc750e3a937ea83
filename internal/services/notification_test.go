package services

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/inframonitor-backend/internal/models"
)

type fakeConn struct {
	mu     sync.Mutex
	sent   []Notification
	fail   bool
	closed bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.sent = append(c.sent, v.(Notification))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type fakeMailer struct {
	mu       sync.Mutex
	to       []string
	subjects []string
	err      error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.subjects = append(m.subjects, subject)
	return nil
}

func TestHubRegistry(t *testing.T) {
	hub := NewNotificationHub(nil, nil)
	a1, a2, b := &fakeConn{}, &fakeConn{}, &fakeConn{}
	hub.Add("a", a1)
	hub.Add("a", a2)
	hub.Add("b", b)
	assert.Equal(t, HubStats{ActiveConnections: 3, ConnectedUsers: 2}, hub.Stats())

	assert.True(t, hub.Deliver(context.Background(), Notification{Type: NotificationWelcome, UserID: "a"}))
	assert.Len(t, a1.sent, 1)
	assert.Len(t, a2.sent, 1)
	assert.Empty(t, b.sent)
	assert.False(t, a1.sent[0].Timestamp.IsZero())

	assert.False(t, hub.SendLocal(Notification{UserID: "nobody"}))

	hub.Remove("a", a1)
	assert.True(t, hub.Online("a"))
	hub.Remove("a", a2)
	assert.False(t, hub.Online("a"))
	assert.Equal(t, HubStats{ActiveConnections: 1, ConnectedUsers: 1}, hub.Stats())
}

func TestHubDropsBrokenConnections(t *testing.T) {
	hub := NewNotificationHub(nil, nil)
	bad := &fakeConn{fail: true}
	hub.Add("u", bad)

	assert.False(t, hub.SendLocal(Notification{UserID: "u"}))
	assert.True(t, bad.closed)
	assert.False(t, hub.Online("u"))
}

func TestNotifyHonoursPreferences(t *testing.T) {
	f := newFixture()
	hub := NewNotificationHub(nil, nil)
	mail := &fakeMailer{}
	svc := NewNotificationService(f.users, hub, mail, nil)
	ctx := context.Background()

	u := f.users.Add("sara", models.RoleUser)
	conn := &fakeConn{}
	hub.Add(u.ID.Hex(), conn)

	occ := &models.Occurrence{Title: "Dark street", Address: "Av. Central 10", Status: models.StatusResolved, ConfirmationCount: 3}
	res := svc.Notify(ctx, u.ID, NotificationOccurrenceResolved, map[string]interface{}{"occurrence": occ})
	assert.Equal(t, NotifyResult{WsSent: true, EmailSent: true}, res)
	require.Len(t, mail.subjects, 1)
	assert.Equal(t, "Problem resolved: Dark street", mail.subjects[0])
	assert.Equal(t, "sara@example.com", mail.to[0])
	require.Len(t, conn.sent, 1)
	assert.Equal(t, NotificationOccurrenceResolved, conn.sent[0].Type)

	_, err := f.users.UpdateProfile(ctx, u.ID, models.ProfileUpdate{Preferences: &models.PreferencesInput{
		Notifications: &models.NotificationPreferencesInput{Email: ptr(false), Push: ptr(false)},
	}})
	require.NoError(t, err)
	res = svc.Notify(ctx, u.ID, NotificationOccurrenceResolved, map[string]interface{}{"occurrence": occ})
	assert.Equal(t, NotifyResult{}, res)
	assert.Len(t, mail.subjects, 1)
	assert.Len(t, conn.sent, 1)
}

func TestNotifyEmailFailuresAreReported(t *testing.T) {
	f := newFixture()
	mail := &fakeMailer{err: errors.New("relay down")}
	svc := NewNotificationService(f.users, nil, mail, nil)
	u := f.users.Add("tito", models.RoleUser)

	res := svc.Notify(context.Background(), u.ID, NotificationWelcome, nil)
	assert.Equal(t, NotifyResult{}, res)

	// new_occurrence has no email template.
	mail.err = nil
	res = svc.Notify(context.Background(), u.ID, NotificationNewOccurrence, nil)
	assert.False(t, res.EmailSent)
	assert.Empty(t, mail.subjects)
}

func TestNotifyAdmins(t *testing.T) {
	f := newFixture()
	hub := NewNotificationHub(nil, nil)
	svc := NewNotificationService(f.users, hub, nil, nil)
	admin := f.users.Add("root", models.RoleAdmin)
	f.users.Add("ursula", models.RoleUser)
	conn := &fakeConn{}
	hub.Add(admin.ID.Hex(), conn)

	n := svc.NotifyAdmins(context.Background(), NotificationNewOccurrence, map[string]interface{}{"title": "x"})
	assert.Equal(t, 1, n)
	require.Len(t, conn.sent, 1)
	assert.Equal(t, NotificationNewOccurrence, conn.sent[0].Type)
	assert.Equal(t, HubStats{ActiveConnections: 1, ConnectedUsers: 1}, svc.Stats())
}

func TestSMTPMailerBreaker(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 587, User: "bot@example.com", Pass: "pw"}, nil)
	var calls int
	var lastMsg string
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		calls++
		lastMsg = string(msg)
		assert.Equal(t, "smtp.example.com:587", addr)
		assert.Equal(t, "bot@example.com", from)
		return nil
	}
	require.NoError(t, m.Send(context.Background(), "a@example.com", "Hi", "<p>hello</p>"))
	assert.Contains(t, lastMsg, "Subject: Hi\r\n")
	assert.True(t, strings.HasSuffix(lastMsg, "<p>hello</p>"))

	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		calls++
		return errors.New("connection refused")
	}
	for i := 0; i < 5; i++ {
		assert.Error(t, m.Send(context.Background(), "a@example.com", "Hi", "x"))
	}
	assert.Equal(t, 4, calls, "breaker opens after three consecutive failures")
}

func TestRenderEmail(t *testing.T) {
	html, err := renderEmail("occurrence", occurrenceEmail{Subject: "S", Title: "<b>T</b>", Address: "A", Status: "new", Confirmations: 2})
	require.NoError(t, err)
	assert.Contains(t, html, "&lt;b&gt;T&lt;/b&gt;")
	assert.Contains(t, html, "<strong>Confirmations:</strong> 2")
}
