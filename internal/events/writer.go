package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"phtrs/internal/domain"
)

// Writer appends events to an in-memory journal and mirrors each one as a
// log line. It is not safe for concurrent use.
type Writer struct {
	Logger *slog.Logger
	Now    func() time.Time

	events []domain.Event
}

type EventPayload map[string]any

// Append records an event. Failures ("*.failed" types) are logged at warn level.
func (w *Writer) Append(evtType, entityKind, entityID string, payload EventPayload) (domain.Event, error) {
	if w.Now == nil {
		w.Now = time.Now
	}
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return domain.Event{}, fmt.Errorf("marshal event payload: %w", err)
	}
	ts := w.Now().UTC()
	evt := domain.Event{
		ID:         uuid.New().String(),
		TS:         ts,
		Type:       evtType,
		EntityKind: entityKind,
		EntityID:   entityID,
		Payload:    string(data),
	}
	w.events = append(w.events, evt)
	w.log(evt, payload)
	return evt, nil
}

func (w *Writer) log(evt domain.Event, payload EventPayload) {
	if w.Logger == nil {
		return
	}
	attrs := make([]any, 0, 4+2*len(payload))
	attrs = append(attrs, "entity_kind", evt.EntityKind)
	if evt.EntityID != "" {
		attrs = append(attrs, "entity_id", evt.EntityID)
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, k, payload[k])
	}
	if isFailure(evt.Type) {
		w.Logger.Warn(evt.Type, attrs...)
		return
	}
	w.Logger.Info(evt.Type, attrs...)
}

// Events returns a copy of the journal in append order.
func (w *Writer) Events() []domain.Event {
	out := make([]domain.Event, len(w.events))
	copy(out, w.events)
	return out
}

// Latest returns up to n most recent events matching evtType and entityKind
// (empty filters match everything), oldest first.
func (w *Writer) Latest(n int, evtType, entityKind string) []domain.Event {
	var out []domain.Event
	for i := len(w.events) - 1; i >= 0 && (n <= 0 || len(out) < n); i-- {
		e := w.events[i]
		if evtType != "" && e.Type != evtType {
			continue
		}
		if entityKind != "" && e.EntityKind != entityKind {
			continue
		}
		out = append(out, e)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func isFailure(evtType string) bool {
	return strings.HasSuffix(evtType, ".failed")
}
