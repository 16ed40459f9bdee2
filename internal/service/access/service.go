// Package access issues and checks the one-time codes that gate wallet
// and ticket visibility for a phone number.
package access

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"github.com/ganarapp/sorteo/internal/domain"
	redisrepo "github.com/ganarapp/sorteo/internal/repository/redis"
)

const codeLength = 6

type Service struct {
	codes *redisrepo.AccessCodeStore
}

func New(codes *redisrepo.AccessCodeStore) *Service {
	return &Service{codes: codes}
}

// IssueCode generates a fresh numeric code for phone, replacing any code
// issued earlier. Delivery (WhatsApp message) is the caller's concern.
func (s *Service) IssueCode(ctx context.Context, phone string) (string, error) {
	const op = "service.access.IssueCode"

	code, err := numericCode(codeLength)
	if err != nil {
		return "", fmt.Errorf("%s:%w", op, err)
	}

	if err := s.codes.Put(ctx, domain.NormalizePhone(phone), code); err != nil {
		return "", fmt.Errorf("%s:%w", op, err)
	}

	return code, nil
}

// Validate reports whether code matches the most recently issued code for
// phone. An expired or never-issued code validates false, never an error.
func (s *Service) Validate(ctx context.Context, phone, code string) (bool, error) {
	const op = "service.access.Validate"

	current, ok, err := s.codes.Get(ctx, domain.NormalizePhone(phone))
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, err)
	}
	if !ok {
		return false, nil
	}

	return subtle.ConstantTimeCompare([]byte(current), []byte(code)) == 1, nil
}

func numericCode(length int) (string, error) {
	const charset = "0123456789"

	code := make([]byte, length)
	if _, err := rand.Read(code); err != nil {
		return "", err
	}

	for i := 0; i < length; i++ {
		code[i] = charset[int(code[i])%len(charset)]
	}

	return string(code), nil
}
