package channel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-api/internal/model"
)

func TestWhatsApp_Send(t *testing.T) {
	var (
		mu   sync.Mutex
		got  whatsAppRequest
		auth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	wa := NewWhatsApp(WhatsAppConfig{URL: srv.URL})
	err := wa.Send(context.Background(), "+15550100", "", "hello", Credentials{APIKey: "secret"})
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, whatsAppRequest{Phone: "+15550100", Message: "hello"}, got)
}

func TestWhatsApp_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWhatsApp(WhatsAppConfig{URL: srv.URL}).Send(context.Background(), "1", "", "m", Credentials{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWhatsApp_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	wa := NewWhatsApp(WhatsAppConfig{URL: srv.URL, Timeout: 50 * time.Millisecond})
	start := time.Now()
	err := wa.Send(context.Background(), "1", "", "m", Credentials{})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWhatsApp_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	wa := NewWhatsApp(WhatsAppConfig{URL: srv.URL, TripAfter: 2, Cooldown: time.Minute})
	for i := 0; i < 4; i++ {
		_ = wa.Send(context.Background(), "1", "", "m", Credentials{})
	}
	assert.Equal(t, int32(2), calls.Load())
	err := wa.Send(context.Background(), "1", "", "m", Credentials{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestWhatsApp_Recipient(t *testing.T) {
	wa := NewWhatsApp(WhatsAppConfig{})
	_, err := wa.Recipient(model.Record{"full_name": "x"})
	assert.EqualError(t, err, "No phone number")

	phone, err := wa.Recipient(model.Record{"phone": "123"})
	require.NoError(t, err)
	assert.Equal(t, "123", phone)
}

type fakeSender struct {
	sent  []*gomail.Message
	err   error
	delay time.Duration
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	time.Sleep(f.delay)
	f.sent = append(f.sent, m...)
	return f.err
}

func TestEmail_Send(t *testing.T) {
	fs := &fakeSender{}
	e := NewEmailWithSender("clinic@example.com", fs)

	_, err := e.Recipient(model.Record{})
	assert.EqualError(t, err, "No email address")

	require.NoError(t, e.Send(context.Background(), "p@example.com", "Reminder", "body", Credentials{Sender: "+15550000"}))
	require.Len(t, fs.sent, 1)
	assert.Equal(t, []string{"clinic@example.com"}, fs.sent[0].GetHeader("From"))
	assert.Equal(t, []string{"p@example.com"}, fs.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Reminder"}, fs.sent[0].GetHeader("Subject"))
}

func TestEmail_SendError(t *testing.T) {
	e := NewEmailWithSender("a@b.c", &fakeSender{err: errors.New("smtp down")})
	assert.EqualError(t, e.Send(context.Background(), "x@y.z", "s", "m", Credentials{}), "smtp down")
}

func TestEmail_SendTimeout(t *testing.T) {
	e := NewEmailWithSender("a@b.c", &fakeSender{delay: 200 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, e.Send(ctx, "x@y.z", "s", "m", Credentials{}), context.DeadlineExceeded)
}
