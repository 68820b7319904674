package bot

import (
	"fmt"

	"feargreed-dashboard/internal/domain"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"
)

type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Alerter posts extreme-sentiment alerts to a single chat.
type Alerter struct {
	sender Sender
	chat   tele.ChatID
	logger zerolog.Logger
}

func NewAlerter(sender Sender, chatID int64, logger zerolog.Logger) *Alerter {
	return &Alerter{
		sender: sender,
		chat:   tele.ChatID(chatID),
		logger: logger.With().Str("component", "alerter").Int64("chat_id", chatID).Logger(),
	}
}

// Alert sends one message. Errors are logged and returned.
func (a *Alerter) Alert(mode domain.Mode, value int, classification domain.Classification) error {
	msg := FormatAlert(mode, value, classification)
	if _, err := a.sender.Send(a.chat, msg); err != nil {
		a.logger.Warn().Err(err).Int("value", value).Msg("failed to send alert")
		return err
	}
	a.logger.Info().Str("mode", string(mode)).Int("value", value).Msg("extreme sentiment alert sent")
	return nil
}

func FormatAlert(mode domain.Mode, value int, classification domain.Classification) string {
	zone := "greed"
	if value <= 20 {
		zone = "fear"
	}
	return fmt.Sprintf("Alert: %s sentiment entered extreme %s.\nFear & Greed: %d (%s)", mode.Label(), zone, value, classification)
}
