package botgate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"rhb-forms-api/internal/domain"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, token string) (domain.ChallengeResult, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(domain.ChallengeResult), args.Error(1)
}

func score(f float64) *float64 { return &f }

func TestInspectHoneypot(t *testing.T) {
	v := new(mockVerifier)
	g := New(v, nil)

	assert.Equal(t, SilentReject, g.Inspect(context.Background(), "http://spam.example", "token"))
	assert.Equal(t, SilentReject, g.Inspect(context.Background(), "x", ""))
	v.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestInspectWhitespaceHoneypotIsEmpty(t *testing.T) {
	g := New(nil, nil)
	assert.Equal(t, Admit, g.Inspect(context.Background(), "   ", ""))
}

func TestInspectWithoutTokenSkipsVerifier(t *testing.T) {
	v := new(mockVerifier)
	g := New(v, nil)

	assert.Equal(t, Admit, g.Inspect(context.Background(), "", ""))
	v.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestInspectWithoutVerifierAdmits(t *testing.T) {
	g := New(nil, nil)
	assert.Equal(t, Admit, g.Inspect(context.Background(), "", "token"))
}

func TestInspectChallenge(t *testing.T) {
	tests := []struct {
		name   string
		result domain.ChallengeResult
		err    error
		want   Verdict
	}{
		{"high score", domain.ChallengeResult{Success: true, Score: score(0.9)}, nil, Admit},
		{"threshold score", domain.ChallengeResult{Success: true, Score: score(0.5)}, nil, Admit},
		{"low score", domain.ChallengeResult{Success: true, Score: score(0.3)}, nil, HardReject},
		{"unscored success", domain.ChallengeResult{Success: true}, nil, Admit},
		{"failed", domain.ChallengeResult{Success: false, Score: score(0.9)}, nil, HardReject},
		{"transport error", domain.ChallengeResult{}, errors.New("timeout"), HardReject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := new(mockVerifier)
			v.On("Verify", mock.Anything, "tok").Return(tt.result, tt.err).Once()

			g := New(v, nil)
			assert.Equal(t, tt.want, g.Inspect(context.Background(), "", "tok"))
			v.AssertExpectations(t)
		})
	}
}
