package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"feargreed-dashboard/internal/dashboard"
	"feargreed-dashboard/internal/domain"
	"feargreed-dashboard/internal/news"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"
)

const (
	commandTimeout = 15 * time.Second
	maxHeadlines   = 5
)

type IndexReader interface {
	Mode() domain.Mode
	GetIndex(ctx context.Context, mode domain.Mode, forceRefresh bool) (domain.SentimentReading, error)
}

type NewsReader interface {
	FetchNews(ctx context.Context, sentimentValue int) []domain.NewsArticle
}

var newBot = tele.NewBot

// StartTelegramBot starts long polling in the background. It returns nil when
// token is empty.
func StartTelegramBot(logger zerolog.Logger, token string, index IndexReader, headlines NewsReader) (*tele.Bot, error) {
	if token == "" {
		logger.Info().Msg("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil, nil
	}
	b, err := newBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	cmds := &commands{index: index, news: headlines, clock: clockwork.NewRealClock()}
	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})
	b.Handle("/fng", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return c.Send(cmds.fng(ctx, c.Args()))
	})
	b.Handle("/news", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return c.Send(cmds.headlines(ctx, c.Args()), tele.NoPreview)
	})

	logger.Info().Msg("Telegram bot started")
	go b.Start()
	return b, nil
}

type commands struct {
	index IndexReader
	news  NewsReader
	clock clockwork.Clock
}

func (c *commands) fng(ctx context.Context, args []string) string {
	mode := c.index.Mode()
	if len(args) > 0 {
		parsed, err := domain.ParseMode(args[0])
		if err != nil {
			return "Usage: /fng [crypto|stock]"
		}
		mode = parsed
	}
	reading, err := c.index.GetIndex(ctx, mode, false)
	if err != nil {
		return fmt.Sprintf("Could not load the %s index: %v", mode.Label(), err)
	}
	return FormatReading(reading)
}

func (c *commands) headlines(ctx context.Context, args []string) string {
	value := -1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < domain.MinValue || n > domain.MaxValue {
			return "Usage: /news [0-100]"
		}
		value = n
	}
	if value < 0 {
		reading, err := c.index.GetIndex(ctx, c.index.Mode(), false)
		if err != nil {
			value = dashboard.DefaultValue
		} else {
			value = reading.Value
		}
	}

	articles := c.news.FetchNews(ctx, value)
	if len(articles) == 0 {
		return "No news articles available at the moment."
	}
	if len(articles) > maxHeadlines {
		articles = articles[:maxHeadlines]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Top %s headlines\n", domain.BucketFor(value))
	for i, a := range articles {
		fmt.Fprintf(&sb, "\n%d. %s\n   %s, %s", i+1, a.Title, a.Source, news.RelativeTime(a.PublishedAt, c.clock.Now()))
		if a.URL != "" && a.URL != "#" {
			fmt.Fprintf(&sb, "\n   %s", a.URL)
		}
	}
	return sb.String()
}

// FormatReading renders a reading with its 24h change for chat.
func FormatReading(r domain.SentimentReading) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Fear & Greed: %d (%s)", r.Mode.Label(), r.Value, r.Classification)
	stats := dashboard.ComputeStats(r)
	if stats.HasChange24h {
		fmt.Fprintf(&sb, "\n24h change: %s", dashboard.FormatChange(stats.Change24h))
		if stats.HasChangePct {
			fmt.Fprintf(&sb, " (%+.1f%%)", stats.Change24hPct)
		}
	}
	if stats.HasTrend7d {
		fmt.Fprintf(&sb, "\n7-day trend: %s", dashboard.FormatChange(stats.Trend7d))
	}
	if r.IsMock {
		sb.WriteString("\n(demo data)")
	}
	return sb.String()
}
