package util

import (
	"testing"
	"time"
)

func TestParseDateRFC3339(t *testing.T) {
	s := "1990-10-10T10:10:10Z"
	got, ok := ParseDate(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseDateDateOnly(t *testing.T) {
	got, ok := ParseDate("1990-06-15")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 1990 || got.Month() != time.June || got.Day() != 15 {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateEmpty(t *testing.T) {
	if _, ok := ParseDate(""); ok {
		t.Fatalf("expected not ok")
	}
}

func TestAgeAtBeforeBirthday(t *testing.T) {
	dob := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	if got := AgeAt(dob, now); got != 33 {
		t.Fatalf("expected 33, got %d", got)
	}
}

func TestAgeAtOnBirthday(t *testing.T) {
	dob := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	if got := AgeAt(dob, now); got != 34 {
		t.Fatalf("expected 34, got %d", got)
	}
}
