package news

import "feargreed-dashboard/internal/domain"

var searchQueries = map[domain.Bucket]string{
	domain.BucketFear:    "market crash OR bitcoin crash OR stock market decline OR recession fears OR market downturn",
	domain.BucketGreed:   "market rally OR bitcoin surge OR bull market OR all-time high OR market boom",
	domain.BucketNeutral: "cryptocurrency OR stock market OR financial markets",
}

// SearchQuery returns the upstream search string for a bucket.
func SearchQuery(b domain.Bucket) string {
	if q, ok := searchQueries[b]; ok {
		return q
	}
	return searchQueries[domain.BucketNeutral]
}
