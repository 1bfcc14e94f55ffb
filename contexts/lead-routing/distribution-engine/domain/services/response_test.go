package services_test

import (
	"testing"

	"lares/contexts/lead-routing/distribution-engine/domain/entities"
	"lares/contexts/lead-routing/distribution-engine/domain/services"
)

func TestParseReplyStructuredIDTakesPriority(t *testing.T) {
	status, ok := services.ParseReply("accept", "2")
	if !ok || status != entities.AttemptStatusAccepted {
		t.Fatalf("expected structured accept to win over free text, got %s ok=%v", status, ok)
	}

	status, ok = services.ParseReply("REJECT", "sim")
	if !ok || status != entities.AttemptStatusRejected {
		t.Fatalf("expected structured reject to win over free text, got %s ok=%v", status, ok)
	}
}

func TestParseReplyFreeTextTokens(t *testing.T) {
	cases := []struct {
		body string
		want entities.AttemptStatus
	}{
		{"1", entities.AttemptStatusAccepted},
		{"  YES ", entities.AttemptStatusAccepted},
		{"Sim", entities.AttemptStatusAccepted},
		{"aceito", entities.AttemptStatusAccepted},
		{"2", entities.AttemptStatusRejected},
		{"no", entities.AttemptStatusRejected},
		{"Não", entities.AttemptStatusRejected},
		{"nao", entities.AttemptStatusRejected},
		{"recuso", entities.AttemptStatusRejected},
	}
	for _, tc := range cases {
		status, ok := services.ParseReply("", tc.body)
		if !ok {
			t.Fatalf("expected %q to parse", tc.body)
		}
		if status != tc.want {
			t.Fatalf("expected %q to resolve %s, got %s", tc.body, tc.want, status)
		}
	}
}

func TestParseReplyUnrecognizedContent(t *testing.T) {
	for _, body := range []string{"", "maybe later", "yes please call me", "3"} {
		if _, ok := services.ParseReply("", body); ok {
			t.Fatalf("expected %q to stay unrecognized", body)
		}
	}
	if _, ok := services.ParseReply("unknown-button", ""); ok {
		t.Fatalf("expected unknown structured id with empty body to stay unrecognized")
	}
}
