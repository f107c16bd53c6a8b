package provisioning

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/simryo/storefront-backend/pkg/errors"
	"github.com/simryo/storefront-backend/pkg/logger"
	"github.com/simryo/storefront-backend/pkg/types"
)

// Request identifies one eSIM to provision.
type Request struct {
	OrderID     uuid.UUID
	CountryName string
	DataAmount  string
	Days        int
	Provider    types.ProviderRef
}

// Artifacts is the activation bundle handed to the buyer.
type Artifacts struct {
	QRCodeURL      string
	ActivationCode string
	Instructions   []string
}

// Provisioner obtains activation artifacts from an upstream eSIM provider.
type Provisioner interface {
	Provision(ctx context.Context, req Request) (*Artifacts, error)
}

// stubProvisioner fabricates activation artifacts locally. Real carrier
// integrations (esim-go, airalo) plug in behind the same interface.
type stubProvisioner struct {
	logger *logger.Logger
}

// NewStubProvisioner builds the fabricating provisioner.
func NewStubProvisioner(logg *logger.Logger) (Provisioner, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &stubProvisioner{logger: logg}, nil
}

func (p *stubProvisioner) Provision(ctx context.Context, req Request) (*Artifacts, error) {
	if req.Provider.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "no provisioning provider configured for plan")
	}
	if req.CountryName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "country is required for provisioning")
	}

	code := activationCode()
	payload := fmt.Sprintf("LPA:1$%s.simryo.example$%s", req.Provider.Name, code)
	artifacts := &Artifacts{
		QRCodeURL:      "https://api.qrserver.com/v1/create-qr-code/?size=240x240&data=" + url.QueryEscape(payload),
		ActivationCode: code,
		Instructions: []string{
			"Go to Settings > Cellular > Add eSIM on your device.",
			"Scan the QR code or enter the activation code manually.",
			fmt.Sprintf("Enable data roaming for your %s plan (%s, %d days).", req.CountryName, req.DataAmount, req.Days),
		},
	}

	logCtx := p.logger.WithFields(ctx, map[string]any{
		"order_id": req.OrderID.String(),
		"provider": req.Provider.Name,
		"country":  req.CountryName,
	})
	p.logger.Info(logCtx, "esim activation artifacts issued")
	return artifacts, nil
}

// activationCode fabricates a provider-style activation code.
func activationCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("SIM-%s-%s", raw[:6], raw[6:12])
}
