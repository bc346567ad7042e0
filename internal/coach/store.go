package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/realQhimself/dopamine-app/internal/storage"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MaxMessages bounds the persisted transcript; older turns fall off the
// front.
const MaxMessages = 50

const chatDocVersion = 1

type chatDoc struct {
	Version  int       `json:"version"`
	Messages []Message `json:"messages"`
}

// Store keeps the chat transcript and pairs the client's calls with history
// bookkeeping.
type Store struct {
	docs     *storage.DocRepo
	client   *Client
	now      func() time.Time
	messages []Message
}

func NewStore(docs *storage.DocRepo, client *Client) *Store {
	return &Store{docs: docs, client: client, now: time.Now}
}

func (s *Store) Load(ctx context.Context) error {
	if s.docs == nil {
		return nil
	}
	doc, err := s.docs.Get(ctx, storage.DocChat)
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	var d chatDoc
	if err := json.Unmarshal(doc.Data, &d); err != nil {
		return fmt.Errorf("decode chat document: %w", err)
	}
	s.messages = d.Messages
	return nil
}

func (s *Store) save(ctx context.Context) error {
	if s.docs == nil {
		return nil
	}
	data, err := json.Marshal(chatDoc{Version: chatDocVersion, Messages: s.messages})
	if err != nil {
		return fmt.Errorf("encode chat document: %w", err)
	}
	return s.docs.Put(ctx, storage.DocChat, chatDocVersion, data)
}

// Send appends the user turn, calls the model with the full trimmed history,
// and appends the reply. A model error becomes an apologetic assistant turn
// so the transcript stays coherent; the error is still returned.
func (s *Store) Send(ctx context.Context, text string, snap *Snapshot) (string, error) {
	s.append(Message{Role: RoleUser, Content: text, Timestamp: s.now()})

	reply, err := s.client.SendMessage(ctx, s.messages, snap)
	if err != nil {
		s.append(Message{
			Role:      RoleAssistant,
			Content:   fmt.Sprintf("Sorry, I hit a snag: %v", err),
			Timestamp: s.now(),
		})
		if saveErr := s.save(ctx); saveErr != nil {
			return "", saveErr
		}
		return "", err
	}

	s.append(Message{Role: RoleAssistant, Content: reply, Timestamp: s.now()})
	if err := s.save(ctx); err != nil {
		return "", err
	}
	return reply, nil
}

func (s *Store) append(m Message) {
	s.messages = append(s.messages, m)
	if len(s.messages) > MaxMessages {
		s.messages = s.messages[len(s.messages)-MaxMessages:]
	}
}

func (s *Store) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Store) Clear(ctx context.Context) error {
	s.messages = nil
	return s.save(ctx)
}
