package form

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/stoneyard/shipment-bot/internal/models"
)

// Appender persists committed shipments.
type Appender interface {
	Append(ctx context.Context, rec models.Record) error
}

// Conversation is the form state of one chat.
type Conversation struct {
	ID        string    `json:"id"`
	Step      Step      `json:"step"`
	Draft     Draft     `json:"draft"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversation returns an idle conversation with an empty draft.
func NewConversation(id string) *Conversation {
	return &Conversation{ID: id, Step: StepIdle}
}

// Reset discards the draft and returns to idle.
func (c *Conversation) Reset() {
	c.Step = StepIdle
	c.Draft = Draft{}
}

// Event is one inbound action for a conversation.
type Event struct {
	Trigger  Trigger
	Text     string
	PhotoRef string
	Operator string
}

// ReplyKind classifies the outcome of an event.
type ReplyKind string

const (
	ReplyPrompt       ReplyKind = "prompt"
	ReplyInvalid      ReplyKind = "invalid"
	ReplyPhotoAdded   ReplyKind = "photo_added"
	ReplyPhotoLimit   ReplyKind = "photo_limit"
	ReplyNeedPhotos   ReplyKind = "need_photos"
	ReplyConfirm      ReplyKind = "confirm"
	ReplyCommitted    ReplyKind = "committed"
	ReplyCommitFailed ReplyKind = "commit_failed"
	ReplyCancelled    ReplyKind = "cancelled"
	ReplyUnexpected   ReplyKind = "unexpected"
)

// Reply is the semantic outcome of an event; rendering is up to the caller.
type Reply struct {
	Kind      ReplyKind
	Step      Step
	Label     string
	Hint      string
	Reason    string
	Photos    int
	MinPhotos int
	Draft     models.Shipment
	Record    *models.Record
}

// Config holds the tunables of the form.
type Config struct {
	MinPhotos int
	Location  *time.Location
}

type transition func(ctx context.Context, c *Conversation, ev Event) Reply

type edge struct {
	from    Step
	trigger Trigger
}

// Machine drives conversations through the shipment form. It does not
// serialize access: callers must deliver events of one conversation one at a
// time.
type Machine struct {
	table     map[edge]transition
	store     Appender
	logger    *zap.Logger
	minPhotos int
	loc       *time.Location
	now       func() time.Time
	orderID   func(time.Time) string
}

// NewMachine builds the transition table.
func NewMachine(store Appender, cfg Config, logger *zap.Logger) *Machine {
	if cfg.MinPhotos < 1 {
		cfg.MinPhotos = 1
	}
	if cfg.MinPhotos > models.MaxPhotos {
		cfg.MinPhotos = models.MaxPhotos
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	m := &Machine{
		store:     store,
		logger:    logger.Named("form"),
		minPhotos: cfg.MinPhotos,
		loc:       cfg.Location,
		now:       time.Now,
		orderID:   NewOrderID,
	}
	m.table = m.transitions()
	return m
}

func (m *Machine) transitions() map[edge]transition {
	t := make(map[edge]transition)
	for _, s := range Steps {
		t[edge{s, TriggerStart}] = m.start
		t[edge{s, TriggerCancel}] = m.cancel
	}
	for _, s := range []Step{StepStoneType, StepQuantity, StepPallets, StepDestination, StepPhone, StepPrice, StepLoader} {
		t[edge{s, TriggerText}] = m.input
	}
	t[edge{StepPhotos, TriggerPhoto}] = m.addPhoto
	t[edge{StepPhotos, TriggerProceed}] = m.proceed
	t[edge{StepConfirm, TriggerCommit}] = m.commit
	return t
}

// Allowed lists the triggers accepted in step.
func (m *Machine) Allowed(step Step) []Trigger {
	var out []Trigger
	for e := range m.table {
		if e.from == step {
			out = append(out, e.trigger)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MinPhotos is the number of photos required to leave the photo step.
func (m *Machine) MinPhotos() int {
	return m.minPhotos
}

// Fire applies ev to c. Events with no transition from the current step
// leave c untouched. A conversation in a step the machine does not know is
// reset to idle first.
func (m *Machine) Fire(ctx context.Context, c *Conversation, ev Event) Reply {
	if !knownStep(c.Step) {
		m.logger.Warn("resetting conversation in unknown step", zap.String("conversation", c.ID), zap.String("step", string(c.Step)))
		c.Reset()
	}
	t, ok := m.table[edge{c.Step, ev.Trigger}]
	if !ok {
		return m.prompt(c, ReplyUnexpected)
	}
	return t(ctx, c, ev)
}

func (m *Machine) prompt(c *Conversation, kind ReplyKind) Reply {
	r := Reply{
		Kind:      kind,
		Step:      c.Step,
		Photos:    len(c.Draft.PhotoRefs),
		MinPhotos: m.minPhotos,
	}
	if rule, ok := RuleFor(c.Step); ok {
		r.Label = rule.Label
		r.Hint = rule.Hint
	}
	if c.Step == StepConfirm {
		r.Draft = c.Draft.Snapshot()
	}
	return r
}

func (m *Machine) start(_ context.Context, c *Conversation, _ Event) Reply {
	c.Reset()
	c.Step = StepStoneType
	return m.prompt(c, ReplyPrompt)
}

func (m *Machine) cancel(_ context.Context, c *Conversation, _ Event) Reply {
	c.Reset()
	return Reply{Kind: ReplyCancelled, Step: StepIdle}
}

func (m *Machine) input(_ context.Context, c *Conversation, ev Event) Reply {
	rule, _ := RuleFor(c.Step)
	value, err := rule.Validate(ev.Text)
	if err != nil {
		r := m.prompt(c, ReplyInvalid)
		var verr *ValidationError
		if errors.As(err, &verr) {
			r.Reason = verr.Reason
		}
		return r
	}
	if err := c.Draft.Put(c.Step, value); err != nil {
		m.logger.Error("draft write rejected", zap.String("conversation", c.ID), zap.String("step", string(c.Step)), zap.Error(err))
		return m.prompt(c, ReplyUnexpected)
	}
	c.Step = next(c.Step)
	if c.Step == StepConfirm {
		return m.prompt(c, ReplyConfirm)
	}
	return m.prompt(c, ReplyPrompt)
}

func (m *Machine) addPhoto(_ context.Context, c *Conversation, ev Event) Reply {
	if ev.PhotoRef == "" {
		return m.prompt(c, ReplyUnexpected)
	}
	switch err := c.Draft.AddPhoto(ev.PhotoRef); {
	case errors.Is(err, ErrPhotoLimit):
		return m.prompt(c, ReplyPhotoLimit)
	case err != nil:
		m.logger.Error("photo append rejected", zap.String("conversation", c.ID), zap.Error(err))
		return m.prompt(c, ReplyUnexpected)
	}
	return m.prompt(c, ReplyPhotoAdded)
}

func (m *Machine) proceed(_ context.Context, c *Conversation, _ Event) Reply {
	if len(c.Draft.PhotoRefs) < m.minPhotos {
		return m.prompt(c, ReplyNeedPhotos)
	}
	c.Step = next(c.Step)
	return m.prompt(c, ReplyPrompt)
}

func (m *Machine) commit(ctx context.Context, c *Conversation, ev Event) Reply {
	now := m.now().In(m.loc)
	c.Draft.Stamp(now)
	rec := models.Record{
		OrderID:  m.orderID(now),
		Operator: ev.Operator,
		Shipment: c.Draft.Snapshot(),
	}
	c.Reset()

	if err := m.store.Append(ctx, rec); err != nil {
		m.logger.Error("failed to persist shipment",
			zap.String("conversation", c.ID),
			zap.String("order_id", rec.OrderID),
			zap.Error(err),
		)
		return Reply{Kind: ReplyCommitFailed, Step: StepIdle}
	}

	m.logger.Info("shipment committed", zap.String("conversation", c.ID), zap.String("order_id", rec.OrderID))
	return Reply{Kind: ReplyCommitted, Step: StepIdle, Record: &rec}
}
