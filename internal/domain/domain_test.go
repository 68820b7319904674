package domain

import (
	"errors"
	"testing"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := map[int]Classification{
		0:   ExtremeFear,
		20:  ExtremeFear,
		21:  Fear,
		40:  Fear,
		41:  Neutral,
		60:  Neutral,
		61:  Greed,
		80:  Greed,
		81:  ExtremeGreed,
		100: ExtremeGreed,
	}
	for value, want := range tests {
		if got := Classify(value); got != want {
			t.Fatalf("Classify(%d) = %q, want %q", value, got, want)
		}
	}
}

func TestBucketForBoundaries(t *testing.T) {
	tests := map[int]Bucket{
		0:   BucketFear,
		39:  BucketFear,
		40:  BucketNeutral,
		60:  BucketNeutral,
		61:  BucketGreed,
		100: BucketGreed,
	}
	for value, want := range tests {
		if got := BucketFor(value); got != want {
			t.Fatalf("BucketFor(%d) = %q, want %q", value, got, want)
		}
	}
}

func TestClampValue(t *testing.T) {
	if ClampValue(-5) != 0 || ClampValue(105) != 100 || ClampValue(42) != 42 {
		t.Fatal("clamp did not pin value into range")
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Stock ")
	if err != nil || m != ModeStock {
		t.Fatalf("expected stock, got %q err=%v", m, err)
	}
	if _, err := ParseMode("invalid"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestIsExtreme(t *testing.T) {
	for _, v := range []int{0, 20, 80, 100} {
		if !IsExtreme(v) {
			t.Fatalf("expected %d to be extreme", v)
		}
	}
	for _, v := range []int{21, 50, 79} {
		if IsExtreme(v) {
			t.Fatalf("expected %d not to be extreme", v)
		}
	}
}

func TestSentimentReadingCloneIsIndependent(t *testing.T) {
	r := SentimentReading{Value: 10, Historical: []HistoricalPoint{{Value: 1}}}
	c := r.Clone()
	c.Historical[0].Value = 99
	if r.Historical[0].Value != 1 {
		t.Fatal("clone shares historical backing array")
	}
}
