package cache

import "testing"

func TestDeriveKeyDeterministic(t *testing.T) {
	a := DeriveKey("some transcript text", "what happened?")
	b := DeriveKey("some transcript text", "what happened?")
	if a != b {
		t.Errorf("same inputs produced different keys: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestDeriveKeyQuerySensitive(t *testing.T) {
	noQuery := DeriveKey("content", "")
	withQuery := DeriveKey("content", "question")
	if noQuery == withQuery {
		t.Error("query should change the key")
	}
	otherContent := DeriveKey("other content", "")
	if noQuery == otherContent {
		t.Error("content should change the key")
	}
}
