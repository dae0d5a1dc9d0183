package channel

import (
	"context"
	"errors"

	"github.com/jwalitptl/clinic-api/internal/model"
)

var (
	ErrNoPhone = errors.New("No phone number")
	ErrNoEmail = errors.New("No email address")
)

// Credentials come from the settings collection at drain time.
type Credentials struct {
	APIKey string
	Sender string
}

// Channel delivers a formatted message to one patient contact.
type Channel interface {
	Name() string
	// Recipient extracts the contact address from a patient record.
	Recipient(patient model.Record) (string, error)
	Send(ctx context.Context, recipient, subject, message string, creds Credentials) error
}
