package prompt

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"inkpress/internal/metrics"
)

var ErrUnknownDecision = errors.New("prompt: unknown or already answered decision")

type DecisionKind string

const (
	DecisionMapping DecisionKind = "mapping"
	DecisionReview  DecisionKind = "review"
)

// Decision is a question waiting for a person.
type Decision struct {
	ID        string          `json:"id"`
	Kind      DecisionKind    `json:"kind"`
	CreatedAt time.Time       `json:"createdAt"`
	Mapping   *MappingRequest `json:"mapping,omitempty"`
	Review    *ReviewRequest  `json:"review,omitempty"`
}

// Answer resolves a Decision. Cancel wins over any other field; a review
// answer without Text accepts the extracted text unchanged.
type Answer struct {
	Mapping Mapping `json:"mapping,omitempty"`
	Text    *string `json:"text,omitempty"`
	Cancel  bool    `json:"cancel,omitempty"`
}

type waiter struct {
	decision Decision
	reply    chan Answer
}

// Broker turns Resolver calls into events that something else (an HTTP
// handler, a UI) answers later. Callers block until Answer or Cancel is called
// for their decision, or their context ends.
type Broker struct {
	mu      sync.Mutex
	pending map[string]*waiter
	events  chan Decision
	now     func() time.Time
}

func NewBroker(buffer int) *Broker {
	if buffer < 0 {
		buffer = 0
	}
	return &Broker{
		pending: make(map[string]*waiter),
		events:  make(chan Decision, buffer),
		now:     time.Now,
	}
}

// Events delivers each new decision once. Delivery is best effort: when the
// buffer is full the decision is still listed by Pending.
func (b *Broker) Events() <-chan Decision {
	return b.events
}

func (b *Broker) ResolveMapping(ctx context.Context, req MappingRequest) (Mapping, error) {
	ans, err := b.ask(ctx, Decision{Kind: DecisionMapping, Mapping: &req})
	if err != nil {
		return nil, err
	}
	return cloneMapping(ans.Mapping), nil
}

func (b *Broker) ReviewText(ctx context.Context, req ReviewRequest) (string, error) {
	ans, err := b.ask(ctx, Decision{Kind: DecisionReview, Review: &req})
	if err != nil {
		return "", err
	}
	if ans.Text == nil {
		return req.Text, nil
	}
	return *ans.Text, nil
}

func (b *Broker) ask(ctx context.Context, d Decision) (Answer, error) {
	d.ID = uuid.NewString()
	d.CreatedAt = b.now()
	w := &waiter{decision: d, reply: make(chan Answer, 1)}

	b.mu.Lock()
	b.pending[d.ID] = w
	metrics.DecisionsPending.Set(float64(len(b.pending)))
	b.mu.Unlock()

	select {
	case b.events <- d:
	default:
	}

	select {
	case ans := <-w.reply:
		if ans.Cancel {
			return Answer{}, Cancelled(string(d.Kind) + " dismissed")
		}
		return ans, nil
	case <-ctx.Done():
		b.remove(d.ID)
		return Answer{}, Cancelled(ctx.Err().Error())
	}
}

// Pending lists unanswered decisions, oldest first.
func (b *Broker) Pending() []Decision {
	b.mu.Lock()
	out := make([]Decision, 0, len(b.pending))
	for _, w := range b.pending {
		out = append(out, w.decision)
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Answer resolves decision id.
func (b *Broker) Answer(id string, ans Answer) error {
	w := b.remove(id)
	if w == nil {
		return ErrUnknownDecision
	}
	w.reply <- ans
	return nil
}

// Cancel dismisses decision id; the waiting import fails as cancelled.
func (b *Broker) Cancel(id string) error {
	return b.Answer(id, Answer{Cancel: true})
}

func (b *Broker) remove(id string) *waiter {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.pending[id]
	if !ok {
		return nil
	}
	delete(b.pending, id)
	metrics.DecisionsPending.Set(float64(len(b.pending)))
	return w
}
