package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/pkg/config"
	"github.com/shiksha-labs/prashnagen/pkg/mailer"
	"github.com/shiksha-labs/prashnagen/pkg/security"
)

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
	MinLength:        8,
}

func testHasher() *security.Hasher {
	return security.NewHasher(testPasswordConfig)
}

type stubSessionManager struct {
	accessIDs []string
	userIDs   []uuid.UUID
	err       error
}

func (s *stubSessionManager) Generate(_ context.Context, accessID string, userID uuid.UUID) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.accessIDs = append(s.accessIDs, accessID)
	s.userIDs = append(s.userIDs, userID)
	return "refresh-" + accessID, nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}
