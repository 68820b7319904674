package news

import (
	"fmt"
	"time"

	"feargreed-dashboard/internal/domain"
)

const (
	mockArticleCount  = 8
	mockArticleSpread = 2 * time.Hour
	mockDescription   = "Market analysis and financial news coverage."
)

var mockSources = []string{
	"Bloomberg",
	"Reuters",
	"CNBC",
	"Financial Times",
	"CoinDesk",
	"The Wall Street Journal",
}

var mockHeadlines = map[domain.Bucket][]string{
	domain.BucketFear: {
		"Market Volatility Increases Amid Economic Concerns",
		"Crypto Markets Experience Significant Downturn",
		"Investors Grow Cautious as Uncertainty Rises",
		"Analysts Warn of Potential Market Correction",
		"Fear Grips Markets as Key Indicators Decline",
		"Bitcoin Drops Below Key Support Level",
		"Stock Market Faces Selling Pressure",
		"Economic Data Sparks Market Concerns",
	},
	domain.BucketGreed: {
		"Markets Rally on Positive Economic Data",
		"Bitcoin Reaches New Heights Amid Bullish Sentiment",
		"Investors Show Strong Confidence in Tech Stocks",
		"Cryptocurrency Market Surges to Record Levels",
		"Bull Market Continues as Indices Hit All-Time Highs",
		"Optimism Drives Strong Market Performance",
		"Risk Appetite Returns as Markets Soar",
		"Euphoria in Markets as Rally Extends",
	},
	domain.BucketNeutral: {
		"Markets Trade Sideways Amid Mixed Signals",
		"Cryptocurrency Prices Remain Stable",
		"Investors Await Key Economic Reports",
		"Market Sentiment Remains Balanced",
		"Trading Volumes Normalize After Recent Activity",
		"Financial Markets Show Steady Performance",
		"Analysts Divided on Market Direction",
		"Cautious Optimism Prevails in Trading Sessions",
	},
}

// MockArticles builds the static placeholder list for a bucket, spaced two
// hours apart going back from now.
func MockArticles(b domain.Bucket, now time.Time) []domain.NewsArticle {
	headlines, ok := mockHeadlines[b]
	if !ok {
		b = domain.BucketNeutral
		headlines = mockHeadlines[b]
	}

	articles := make([]domain.NewsArticle, mockArticleCount)
	for i := range articles {
		title := headlines[0]
		if i < len(headlines) {
			title = headlines[i]
		}
		articles[i] = domain.NewsArticle{
			Title:       title,
			Description: mockDescription,
			Source:      mockSources[i%len(mockSources)],
			URL:         "#",
			Image:       fmt.Sprintf("https://picsum.photos/seed/%s%d/400/200", b, i),
			PublishedAt: now.Add(-time.Duration(i) * mockArticleSpread).UTC().Format(isoMillis),
			Sentiment:   b,
			IsMock:      true,
		}
	}
	return articles
}
