package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"slices"
)

type subscribersFile struct {
	Subscribers []int64 `json:"subscribers"`
}

// Subscribers persists the telegram chat IDs that opted into
// announcements.
type Subscribers struct {
	path string
}

func NewSubscribers(path string) Subscribers {
	return Subscribers{path: path}
}

// Load returns the subscribed chat IDs. A missing or damaged file
// means no subscribers.
func (s Subscribers) Load(ctx context.Context) []int64 {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.WarnContext(ctx, "failed to read subscribers file",
				"path", s.path, "err", err)
		}
		return nil
	}
	var parsed subscribersFile
	err = json.Unmarshal(raw, &parsed)
	if err != nil {
		slog.WarnContext(ctx, "subscribers file is not valid json",
			"path", s.path, "err", err)
		return nil
	}
	return parsed.Subscribers
}

// Add subscribes a chat. It reports whether the chat was newly added.
func (s Subscribers) Add(ctx context.Context, chatId int64) (bool, error) {
	subs := s.Load(ctx)
	if slices.Contains(subs, chatId) {
		return false, nil
	}
	err := s.save(append(subs, chatId))
	if err != nil {
		return false, err
	}
	return true, nil
}

// Remove unsubscribes a chat. It reports whether the chat was
// subscribed.
func (s Subscribers) Remove(ctx context.Context, chatId int64) (bool, error) {
	subs := s.Load(ctx)
	kept := slices.DeleteFunc(subs, func(id int64) bool {
		return id == chatId
	})
	if len(kept) == len(subs) {
		return false, nil
	}
	err := s.save(kept)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s Subscribers) save(subs []int64) error {
	raw, err := json.MarshalIndent(subscribersFile{Subscribers: subs}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0644)
}
