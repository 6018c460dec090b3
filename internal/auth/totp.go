// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"newsdesk/internal/models"
	"newsdesk/internal/session"
)

// Enrollment is a freshly generated, not yet confirmed TOTP secret.
type Enrollment struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
	QRCode []byte `json:"qr_code"` // PNG, base64 in JSON
}

// EnrollTOTP generates a new secret for the actor and stores it disabled.
// Login keeps working without a code until ConfirmTOTP succeeds.
func (m *Manager) EnrollTOTP(ctx context.Context, actor *session.Data) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      m.issuer,
		AccountName: actor.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("totp generate: %w", err)
	}

	secret := key.Secret()
	secretPtr := &secret
	disabled := false
	if err := m.users.Update(ctx, actor.UserID, models.UserPatch{TOTPSecret: &secretPtr, TOTPEnabled: &disabled}); err != nil {
		return nil, fmt.Errorf("save totp secret: %w", err)
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}
	return &Enrollment{Secret: secret, URL: key.URL(), QRCode: png}, nil
}

// ConfirmTOTP enables the second factor once the actor proves possession
// of the enrolled secret.
func (m *Manager) ConfirmTOTP(ctx context.Context, actor *session.Data, code string) error {
	user, err := m.users.Find(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if user.TOTPSecret == nil {
		return ErrTOTPNotEnrolled
	}
	if !validateTOTP(code, *user.TOTPSecret) {
		return ErrInvalidCredentials
	}
	enabled := true
	return m.users.Update(ctx, actor.UserID, models.UserPatch{TOTPEnabled: &enabled})
}

func validateTOTP(code, secret string) bool {
	return totp.Validate(strings.TrimSpace(code), secret)
}
