package email

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/simryo/storefront-backend/pkg/config"
	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	"github.com/simryo/storefront-backend/pkg/logger"
)

// ActivationEmail is the transactional payload for one provisioned eSIM.
type ActivationEmail struct {
	UserEmail      string
	UserName       string
	PlanName       string
	Country        string
	DataAmount     string
	Days           int
	Price          float64
	Currency       string
	QRCodeURL      string
	ActivationCode string
	ICCID          string
	ExpiresAt      *time.Time
}

// Result reports the delivery outcome for one message.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Mailer delivers transactional storefront email.
type Mailer interface {
	SendActivation(ctx context.Context, msg ActivationEmail) (*Result, error)
}

// logMailer writes the message to the structured log instead of an SMTP
// relay. Swapping in a real delivery backend only touches this type.
type logMailer struct {
	cfg    config.EmailConfig
	logger *logger.Logger
}

// NewLogMailer builds the log-backed mailer.
func NewLogMailer(cfg config.EmailConfig, logg *logger.Logger) (Mailer, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("from address required")
	}
	return &logMailer{cfg: cfg, logger: logg}, nil
}

func (m *logMailer) fromHeader() string {
	if m.cfg.FromName == "" {
		return m.cfg.FromAddress
	}
	return fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.FromAddress)
}

func (m *logMailer) SendActivation(ctx context.Context, msg ActivationEmail) (*Result, error) {
	if msg.UserEmail == "" {
		return &Result{Success: false, Error: "recipient email is required"},
			pkgerrors.New(pkgerrors.CodeValidation, "recipient email is required")
	}

	messageID := fmt.Sprintf("simryo-%s", uuid.NewString())
	fields := map[string]any{
		"message_id": messageID,
		"from":       m.fromHeader(),
		"to":         msg.UserEmail,
		"plan":       msg.PlanName,
		"country":    msg.Country,
		"data":       msg.DataAmount,
		"days":       msg.Days,
	}
	if msg.ExpiresAt != nil {
		fields["expires_at"] = msg.ExpiresAt.UTC().Format(time.RFC3339)
	}
	logCtx := m.logger.WithFields(ctx, fields)
	m.logger.Info(logCtx, "activation email dispatched")

	return &Result{Success: true, MessageID: messageID}, nil
}
