package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStoreSendAppendsBothTurns(t *testing.T) {
	srv, _ := newModelServer(t, "Nice work today!")
	defer srv.Close()

	s := NewStore(nil, newTestClient(srv.URL))
	reply, err := s.Send(context.Background(), "evening reflection please", nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply != "Nice work today!" {
		t.Fatalf("reply=%q", reply)
	}

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("messages=%d, want user+assistant", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant {
		t.Fatalf("roles=%s,%s", msgs[0].Role, msgs[1].Role)
	}
}

func TestStoreSendErrorKeepsTranscriptCoherent(t *testing.T) {
	s := NewStore(nil, NewClient("")) // no key, every call fails

	_, err := s.Send(context.Background(), "hello?", nil)
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("err=%v, want ErrNoAPIKey", err)
	}
	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("messages=%d, want the user turn plus an apology", len(msgs))
	}
	if msgs[1].Role != RoleAssistant || !strings.Contains(msgs[1].Content, "snag") {
		t.Fatalf("error turn=%+v", msgs[1])
	}
}

func TestStoreTrimsToMaxMessages(t *testing.T) {
	srv, _ := newModelServer(t, "ok")
	defer srv.Close()

	s := NewStore(nil, newTestClient(srv.URL))
	for i := 0; i < MaxMessages; i++ {
		if _, err := s.Send(context.Background(), fmt.Sprintf("message %d", i), nil); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	msgs := s.Messages()
	if len(msgs) != MaxMessages {
		t.Fatalf("messages=%d, want capped at %d", len(msgs), MaxMessages)
	}
	// The oldest turns fell off the front.
	if strings.Contains(msgs[0].Content, "message 0") {
		t.Fatal("oldest message should have been trimmed")
	}
}

func TestStoreClear(t *testing.T) {
	srv, _ := newModelServer(t, "ok")
	defer srv.Close()

	s := NewStore(nil, newTestClient(srv.URL))
	s.Send(context.Background(), "hi", nil)
	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(s.Messages()) != 0 {
		t.Fatal("Clear should empty the transcript")
	}
}
