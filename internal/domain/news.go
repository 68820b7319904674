package domain

import (
	"fmt"
	"strings"
)

// Bucket is the coarse three-way sentiment used to pick headlines.
type Bucket string

const (
	BucketFear    Bucket = "fear"
	BucketNeutral Bucket = "neutral"
	BucketGreed   Bucket = "greed"
)

var Buckets = []Bucket{BucketFear, BucketNeutral, BucketGreed}

func (b Bucket) Valid() bool {
	return b == BucketFear || b == BucketNeutral || b == BucketGreed
}

// BucketFor maps a 0-100 value to a news bucket. The cutoffs differ from
// Classify on purpose: 40 and 60 are both neutral here.
func BucketFor(value int) Bucket {
	switch {
	case value < 40:
		return BucketFear
	case value > 60:
		return BucketGreed
	default:
		return BucketNeutral
	}
}

func ParseBucket(s string) (Bucket, error) {
	b := Bucket(strings.ToLower(strings.TrimSpace(s)))
	if !b.Valid() {
		return "", fmt.Errorf("%w: unknown bucket %q", ErrInvalidArgument, s)
	}
	return b, nil
}

type NewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	PublishedAt string `json:"publishedAt"`
	Sentiment   Bucket `json:"sentiment"`
	IsMock      bool   `json:"isMock,omitempty"`
}

func CloneArticles(in []NewsArticle) []NewsArticle {
	if in == nil {
		return nil
	}
	out := make([]NewsArticle, len(in))
	copy(out, in)
	return out
}
