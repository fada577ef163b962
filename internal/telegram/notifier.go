// Package telegram pushes short run summaries to a Telegram chat. The
// channel is optional; the pipeline works fine without it.
package telegram

import (
	"fmt"
	"path/filepath"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewNotifier(token string, chatID int64) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Notifier{api: api, chatID: chatID}, nil
}

// SendRunSummary posts the end-of-run status line.
func (n *Notifier) SendRunSummary(query string, totalJobs int, reportPath string, emailed bool) error {
	reportName := "none"
	if reportPath != "" {
		reportName = filepath.Base(reportPath)
	}
	emailStatus := "failed"
	if emailed {
		emailStatus = "sent"
	}

	text := fmt.Sprintf(
		"✅ Analysis run finished\n🔍 Query: %s\n📊 Jobs analyzed: %d\n📄 Report: %s\n📧 Email: %s",
		query, totalJobs, reportName, emailStatus,
	)
	msg := tgbotapi.NewMessage(n.chatID, text)
	_, err := n.api.Send(msg)
	return err
}

// SendError reports a failed run.
func (n *Notifier) SendError(runErr error) error {
	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf("❌ Analyzer error: %v", runErr))
	_, err := n.api.Send(msg)
	return err
}
