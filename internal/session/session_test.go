package session

import (
	"fmt"
	"testing"
)

func TestAppendOrder(t *testing.T) {
	s := New()
	for i := 0; i < 10; i++ {
		s.Append(RoleUser, fmt.Sprintf("q%d", i))
		s.Append(RoleSystem, fmt.Sprintf("a%d", i))
	}

	recs := s.Records()
	if len(recs) != 20 {
		t.Fatalf("log length = %d, want 20", len(recs))
	}
	for i := 0; i < 10; i++ {
		if recs[2*i].Content != fmt.Sprintf("q%d", i) || recs[2*i].Role != RoleUser {
			t.Fatalf("record %d = %+v, want user q%d", 2*i, recs[2*i], i)
		}
		if recs[2*i+1].Content != fmt.Sprintf("a%d", i) || recs[2*i+1].Role != RoleSystem {
			t.Fatalf("record %d = %+v, want system a%d", 2*i+1, recs[2*i+1], i)
		}
	}
}

func TestRecordsIsACopy(t *testing.T) {
	s := New()
	s.Append(RoleUser, "original")

	recs := s.Records()
	recs[0].Content = "mutated"

	if got := s.Records()[0].Content; got != "original" {
		t.Fatalf("log mutated through Records() copy: %q", got)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	a, b := New(), New()
	if a.ID == b.ID {
		t.Fatal("two sessions share an ID")
	}
	a.Append(RoleUser, "only in a")
	if b.Len() != 0 {
		t.Fatalf("append to one session visible in another: %d records", b.Len())
	}
}
