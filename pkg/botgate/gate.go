// Package botgate screens form submissions for automated senders before any
// validation or side effect runs.
package botgate

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"rhb-forms-api/internal/domain"
)

// MinChallengeScore is the lowest score a verified token may carry
const MinChallengeScore = 0.5

// Verdict is the outcome of Inspect
type Verdict int

const (
	// Admit lets the submission continue to validation.
	Admit Verdict = iota
	// SilentReject means a honeypot was filled. Answer as if successful and
	// skip every side effect.
	SilentReject
	// HardReject means the challenge failed. Answer with a generic message.
	HardReject
)

func (v Verdict) String() string {
	switch v {
	case Admit:
		return "admit"
	case SilentReject:
		return "silent_reject"
	case HardReject:
		return "hard_reject"
	default:
		return "unknown"
	}
}

// Reason is the only explanation a rejected client ever sees
const Reason = "Security verification failed"

type Gate struct {
	verifier domain.ChallengeVerifier
	log      *zap.Logger
}

// New builds a gate. A nil verifier disables the challenge check.
func New(verifier domain.ChallengeVerifier, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{verifier: verifier, log: log}
}

// Inspect checks the honeypot, then the challenge token if one was supplied.
func (g *Gate) Inspect(ctx context.Context, honeypot, token string) Verdict {
	if strings.TrimSpace(honeypot) != "" {
		return SilentReject
	}

	token = strings.TrimSpace(token)
	if token == "" || g.verifier == nil {
		return Admit
	}

	res, err := g.verifier.Verify(ctx, token)
	if err != nil {
		g.log.Warn("challenge verification error", zap.Error(err))
		return HardReject
	}
	if !res.Success {
		return HardReject
	}
	if res.Score != nil && *res.Score < MinChallengeScore {
		g.log.Debug("challenge score below threshold", zap.Float64("score", *res.Score))
		return HardReject
	}
	return Admit
}
