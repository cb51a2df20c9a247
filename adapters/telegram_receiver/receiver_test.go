package telegram_receiver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mymmrac/telego"

	"github.com/jdelaire/bingobot/core"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUpdater struct {
	updates []telego.Update
	err     error
	params  *telego.GetUpdatesParams
}

// UpdatesViaLongPolling emits the canned updates, then closes the channel
// once ctx is cancelled, as telego does.
func (f *fakeUpdater) UpdatesViaLongPolling(ctx context.Context, params *telego.GetUpdatesParams, _ ...telego.LongPollingOption) (<-chan telego.Update, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan telego.Update)
	go func() {
		defer close(ch)
		for _, u := range f.updates {
			select {
			case ch <- u:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return ch, nil
}

func TestStartDeliversEvents(t *testing.T) {
	now := time.Now().Unix()
	up := &fakeUpdater{updates: []telego.Update{
		{UpdateID: 100, Message: &telego.Message{
			MessageID: 1,
			From:      &telego.User{ID: 42, Username: "alice"},
			Chat:      telego.Chat{ID: 123},
			Date:      now,
			Text:      "/start",
		}},
		{UpdateID: 101, Message: &telego.Message{Chat: telego.Chat{ID: 123}, Date: now, Text: "hello"}},
		{UpdateID: 102, CallbackQuery: &telego.CallbackQuery{
			ID:      "cb-1",
			From:    telego.User{ID: 42, FirstName: "Alice"},
			Message: &telego.Message{MessageID: 7, Chat: telego.Chat{ID: 123}},
			Data:    "start_game",
		}},
	}}

	var mu sync.Mutex
	var got []core.Event
	handler := func(ev core.Event) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(up, handler, testLogger()).Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Start returned %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2 (plain text dropped)", len(got))
	}
	if _, ok := got[0].(core.CommandEvent); !ok {
		t.Errorf("event 0 is %T, want CommandEvent", got[0])
	}
	if _, ok := got[1].(core.CallbackEvent); !ok {
		t.Errorf("event 1 is %T, want CallbackEvent", got[1])
	}
	if diff := cmp.Diff([]string{"message", "callback_query"}, up.params.AllowedUpdates); diff != "" {
		t.Errorf("allowed updates mismatch (-want +got):\n%s", diff)
	}
}

func TestStartPollingError(t *testing.T) {
	up := &fakeUpdater{err: errors.New("bad params")}
	err := New(up, func(core.Event) {}, testLogger()).Start(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestToEventCommand(t *testing.T) {
	date := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ev, ok := toEvent(telego.Update{UpdateID: 5, Message: &telego.Message{
		From: &telego.User{ID: 9, FirstName: "Bob", LastName: "Ray"},
		Chat: telego.Chat{ID: 77},
		Date: date.Unix(),
		Text: "/Start@bingobot now",
	}})
	if !ok {
		t.Fatal("command was dropped")
	}

	want := core.CommandEvent{
		UpdateID:    5,
		ChatID:      77,
		UserID:      9,
		DisplayName: "Bob Ray",
		Name:        "start",
		Args:        "now",
		Timestamp:   time.Unix(date.Unix(), 0),
	}
	if diff := cmp.Diff(want, ev); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestToEventDropsNonCommands(t *testing.T) {
	tests := map[string]telego.Update{
		"plain text": {UpdateID: 1, Message: &telego.Message{Text: "hi"}},
		"empty text": {UpdateID: 2, Message: &telego.Message{}},
		"no payload": {UpdateID: 3},
	}
	for name, u := range tests {
		if _, ok := toEvent(u); ok {
			t.Errorf("%s: expected update to be dropped", name)
		}
	}
}

func TestToEventCallback(t *testing.T) {
	ev, ok := toEvent(telego.Update{UpdateID: 8, CallbackQuery: &telego.CallbackQuery{
		ID:      "q1",
		From:    telego.User{ID: 3, Username: "carol"},
		Message: &telego.Message{MessageID: 11, Chat: telego.Chat{ID: 44}},
		Data:    "settings_notifications",
	}})
	if !ok {
		t.Fatal("callback was dropped")
	}

	want := core.CallbackEvent{
		UpdateID:    8,
		ID:          "q1",
		Tag:         "settings_notifications",
		ChatID:      44,
		MessageID:   11,
		UserID:      3,
		Username:    "carol",
		DisplayName: "carol",
	}
	if diff := cmp.Diff(want, ev); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestToEventCallbackWithoutTag(t *testing.T) {
	ev, ok := toEvent(telego.Update{UpdateID: 9, CallbackQuery: &telego.CallbackQuery{ID: "q2", From: telego.User{ID: 1}}})
	if !ok {
		t.Fatal("callback without data must still be delivered so it gets acknowledged")
	}
	cb := ev.(core.CallbackEvent)
	if cb.Tag != "" || cb.ID != "q2" {
		t.Errorf("event = %+v", cb)
	}
}
