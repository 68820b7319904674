package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"feargreed-dashboard/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"
)

func TestStartTelegramBotSkipsWithoutToken(t *testing.T) {
	b, err := StartTelegramBot(zerolog.Nop(), "", nil, nil)
	if err != nil || b != nil {
		t.Fatalf("expected no bot without token, got %v %v", b, err)
	}
}

func TestStartTelegramBotReportsCreateError(t *testing.T) {
	orig := newBot
	defer func() { newBot = orig }()
	newBot = func(tele.Settings) (*tele.Bot, error) { return nil, errors.New("unauthorized") }

	if _, err := StartTelegramBot(zerolog.Nop(), "token", nil, nil); err == nil {
		t.Fatal("expected error from bot creation")
	}
}

type stubIndex struct {
	mode     domain.Mode
	readings map[domain.Mode]domain.SentimentReading
	err      error
}

func (s *stubIndex) Mode() domain.Mode { return s.mode }

func (s *stubIndex) GetIndex(ctx context.Context, mode domain.Mode, forceRefresh bool) (domain.SentimentReading, error) {
	if s.err != nil {
		return domain.SentimentReading{}, s.err
	}
	return s.readings[mode], nil
}

type stubNews struct {
	lastValue int
	articles  []domain.NewsArticle
}

func (s *stubNews) FetchNews(ctx context.Context, sentimentValue int) []domain.NewsArticle {
	s.lastValue = sentimentValue
	return s.articles
}

func historyOf(values ...int) []domain.HistoricalPoint {
	out := make([]domain.HistoricalPoint, len(values))
	for i, v := range values {
		out[i] = domain.HistoricalPoint{Value: v}
	}
	return out
}

func TestFngCommandUsesRequestedMode(t *testing.T) {
	index := &stubIndex{mode: domain.ModeCrypto, readings: map[domain.Mode]domain.SentimentReading{
		domain.ModeStock: {Mode: domain.ModeStock, Value: 66, Classification: domain.Greed, Historical: historyOf(66, 60)},
	}}
	cmds := &commands{index: index, news: &stubNews{}, clock: clockwork.NewFakeClock()}

	got := cmds.fng(context.Background(), []string{"stock"})
	if !strings.Contains(got, "Stock Market Fear & Greed: 66 (Greed)") {
		t.Fatalf("unexpected reply: %q", got)
	}
	if !strings.Contains(got, "24h change: +6 (+10.0%)") {
		t.Fatalf("missing 24h change: %q", got)
	}
}

func TestFngCommandRejectsUnknownMode(t *testing.T) {
	cmds := &commands{index: &stubIndex{mode: domain.ModeCrypto}, news: &stubNews{}, clock: clockwork.NewFakeClock()}
	if got := cmds.fng(context.Background(), []string{"gold"}); !strings.HasPrefix(got, "Usage") {
		t.Fatalf("expected usage, got %q", got)
	}
}

func TestFngCommandReportsError(t *testing.T) {
	cmds := &commands{index: &stubIndex{mode: domain.ModeCrypto, err: domain.ErrNetworkFailure}, news: &stubNews{}, clock: clockwork.NewFakeClock()}
	if got := cmds.fng(context.Background(), nil); !strings.Contains(got, "Could not load") {
		t.Fatalf("expected error reply, got %q", got)
	}
}

func TestNewsCommandLimitsHeadlines(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	var articles []domain.NewsArticle
	for i := 0; i < 8; i++ {
		articles = append(articles, domain.NewsArticle{
			Title:       "Headline",
			Source:      "Reuters",
			URL:         "#",
			PublishedAt: clock.Now().Add(-2 * time.Hour).Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}
	headlines := &stubNews{articles: articles}
	cmds := &commands{index: &stubIndex{mode: domain.ModeCrypto}, news: headlines, clock: clock}

	got := cmds.headlines(context.Background(), []string{"15"})
	if headlines.lastValue != 15 {
		t.Fatalf("expected value 15, got %d", headlines.lastValue)
	}
	if strings.Count(got, "Headline") != maxHeadlines {
		t.Fatalf("expected %d headlines, got %q", maxHeadlines, got)
	}
	if !strings.HasPrefix(got, "Top fear headlines") || !strings.Contains(got, "2 hours ago") {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestNewsCommandDefaultsToCurrentReading(t *testing.T) {
	index := &stubIndex{mode: domain.ModeCrypto, readings: map[domain.Mode]domain.SentimentReading{
		domain.ModeCrypto: {Value: 90},
	}}
	headlines := &stubNews{}
	cmds := &commands{index: index, news: headlines, clock: clockwork.NewFakeClock()}

	got := cmds.headlines(context.Background(), nil)
	if headlines.lastValue != 90 {
		t.Fatalf("expected current value, got %d", headlines.lastValue)
	}
	if got != "No news articles available at the moment." {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestFormatReadingMarksMock(t *testing.T) {
	got := FormatReading(domain.SentimentReading{Mode: domain.ModeCrypto, Value: 10, Classification: domain.ExtremeFear, IsMock: true})
	if !strings.Contains(got, "(demo data)") {
		t.Fatalf("expected mock marker, got %q", got)
	}
	if strings.Contains(got, "24h change") {
		t.Fatalf("no history means no change line, got %q", got)
	}
}
