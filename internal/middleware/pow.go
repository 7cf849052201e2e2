package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/veilpost/dsa-core/internal/model"
	"github.com/veilpost/dsa-core/internal/pow"
	"github.com/veilpost/dsa-core/internal/service"
	"github.com/veilpost/dsa-core/pkg/apperror"
)

// PoWGate protects public mutation endpoints with adaptive proof-of-work.
// Clients below the abuse threshold pass untouched; once a client crosses it
// (or is inside a cooldown), every request must carry a valid X-PoW header
// or gets a 428 with a fresh challenge.
type PoWGate struct {
	challenger *pow.Challenger
	tracker    pow.AbuseTracker
	policy     pow.Policy
	audit      service.AuditService
}

func NewPoWGate(challenger *pow.Challenger, tracker pow.AbuseTracker, policy pow.Policy, audit service.AuditService) *PoWGate {
	return &PoWGate{
		challenger: challenger,
		tracker:    tracker,
		policy:     policy,
		audit:      audit,
	}
}

// Guard returns middleware gating one scope (e.g. "appeal", "evidence").
func (g *PoWGate) Guard(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := pow.ClientKey(c.ClientIP(), c.Request.UserAgent())

		required, err := g.tracker.Required(ctx, key)
		if err != nil {
			log.Printf("pow gate: tracker check failed, admitting request: %v", err)
			c.Next()
			return
		}

		if !required {
			count, err := g.tracker.Hit(ctx, key, g.policy.Window)
			if err != nil {
				log.Printf("pow gate: tracker hit failed, admitting request: %v", err)
				c.Next()
				return
			}

			if count < int64(g.policy.ThresholdFor(c.Request.UserAgent())) {
				c.Next()
				return
			}

			if err := g.tracker.Require(ctx, key, g.policy.Cooldown); err != nil {
				log.Printf("pow gate: tracker require failed: %v", err)
			}
		}

		header := c.GetHeader("X-PoW")
		if header != "" {
			sol, err := pow.ParseHeader(header)
			if err == nil {
				if err := g.challenger.Verify(sol, scope); err == nil {
					c.Next()
					return
				}
			}
		}

		g.issueChallenge(c, scope)
	}
}

func (g *PoWGate) issueChallenge(c *gin.Context, scope string) {
	challenge := g.challenger.Issue(scope)

	// Abuse analytics, not enforcement: the challenge itself is stateless.
	g.audit.RecordAsync(c.Request.Context(), model.EntityAdmission, uuid.Nil, model.ActionPoWChallenge,
		service.PublicActor(c.ClientIP()), map[string]interface{}{
			"scope":      scope,
			"difficulty": challenge.Difficulty,
			"userAgent":  c.Request.UserAgent(),
		})

	c.AbortWithStatusJSON(http.StatusPreconditionRequired, gin.H{
		"errorCode": apperror.CodePoWRequired,
		"message":   "solve the challenge and retry with the X-PoW header",
		"challenge": challenge,
	})
}
