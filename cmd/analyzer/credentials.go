package main

import (
	"context"
	"strings"
	"time"
)

// testCredentials probes the Gemini API and the SMTP server without
// sending a report, so misconfigured secrets surface before the first
// scheduled run.
func (a *app) testCredentials(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	a.logger.Info("🔑 Testing Gemini API key...")
	reply, err := a.provider.Complete(ctx, "Say hello in one word")
	switch {
	case err != nil:
		a.logger.Error("❌ Gemini check failed", "error", err)
	case strings.TrimSpace(reply) == "":
		a.logger.Error("❌ Gemini check failed", "error", "empty response")
	default:
		a.logger.Info("✅ Gemini API key works", "reply", strings.TrimSpace(reply))
	}

	a.logger.Info("📧 Testing SMTP connection...")
	if err := a.mailer.VerifyConnection(ctx); err != nil {
		a.logger.Error("❌ SMTP check failed", "error", err)
		return
	}
	a.logger.Info("✅ SMTP credentials work")
}
