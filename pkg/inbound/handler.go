package inbound

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/outreach/pkg/contact"
	"github.com/dmitrymomot/outreach/pkg/logger"
	"github.com/dmitrymomot/outreach/pkg/sanitizer"
	"github.com/dmitrymomot/outreach/pkg/sequence"
)

// SecretHeader carries the shared webhook secret.
const SecretHeader = "X-Webhook-Secret"

const maxPayloadBytes = 1 << 20

// maxApplyAttempts bounds retries when the contact moves under a reply.
const maxApplyAttempts = 3

// Store is the slice of contact.Store the webhook needs.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*contact.Contact, error)
	RecordReply(ctx context.Context, r contact.Reply) error
	Apply(ctx context.Context, id string, u contact.Update) error
}

// Message is the inbound webhook payload.
type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"` // used when text is empty
	Signal  string `json:"signal,omitempty"`
}

// Result is the outcome of one accepted reply.
type Result struct {
	ContactID string          `json:"contact_id"`
	Signal    sequence.Signal `json:"signal"`
	State     sequence.State  `json:"state"`
}

// Handler turns inbound replies into sequence transitions.
type Handler struct {
	store      Store
	machine    *sequence.Machine
	classifier Classifier
	followUps  FollowUps
	secret     string
	now        func() time.Time
	log        *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithClassifier replaces the keyword classifier.
func WithClassifier(c Classifier) Option {
	return func(h *Handler) {
		if c != nil {
			h.classifier = c
		}
	}
}

// WithFollowUps sets what happens after a positive reply. Default: nothing.
func WithFollowUps(f FollowUps) Option {
	return func(h *Handler) {
		if f != nil {
			h.followUps = f
		}
	}
}

// WithSecret requires SecretHeader to equal secret. Empty disables the check.
func WithSecret(secret string) Option {
	return func(h *Handler) {
		h.secret = secret
	}
}

// WithNow replaces time.Now.
func WithNow(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// New creates a Handler.
func New(store Store, machine *sequence.Machine, opts ...Option) *Handler {
	h := &Handler{
		store:      store,
		machine:    machine,
		classifier: NewKeywordClassifier(),
		followUps:  NoFollowUps,
		now:        time.Now,
		log:        logger.NewNope(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes mounts the webhook on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/webhooks/inbound", h.ServeHTTP)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretHeader)), []byte(h.secret)) != 1 {
		writeError(w, withStatus(http.StatusUnauthorized, ErrUnauthorized))
		return
	}

	var msg Message
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err := dec.Decode(&msg); err != nil {
		writeError(w, withStatus(http.StatusBadRequest, errors.Join(ErrBadPayload, err)))
		return
	}

	res, err := h.Process(r.Context(), msg)
	if err != nil {
		if statusOf(err) >= http.StatusInternalServerError {
			h.log.ErrorContext(r.Context(), "inbound reply failed",
				slog.String("from", msg.From),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"contact_id": res.ContactID,
		"signal":     res.Signal.String(),
		"state":      res.State.String(),
	})
}

// Process classifies msg, advances the sender's contact and persists the
// result. A positive reply is then handed to the follow-ups; their failure
// is logged and does not fail the reply.
func (h *Handler) Process(ctx context.Context, msg Message) (*Result, error) {
	from, err := senderAddress(msg.From)
	if err != nil {
		return nil, withStatus(http.StatusBadRequest, errors.Join(ErrBadPayload, err))
	}

	if strings.TrimSpace(msg.Text) == "" {
		msg.Text = sanitizer.StripHTML(msg.HTML)
	}

	sig, err := h.signal(ctx, msg)
	if err != nil {
		return nil, err
	}

	c, err := h.store.FindByEmail(ctx, from)
	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			return nil, withStatus(http.StatusNotFound, errors.Join(ErrUnknownContact, err))
		}
		return nil, withStatus(http.StatusInternalServerError, errors.Join(ErrStore, err))
	}
	ctx = logger.WithContactID(ctx, c.ID)

	next, err := h.machine.Advance(c.State, sig)
	if err != nil {
		return nil, withStatus(http.StatusConflict, errors.Join(ErrRejected, err))
	}

	now := h.now().UTC()
	if err := h.store.RecordReply(ctx, contact.Reply{
		ContactID:  c.ID,
		From:       from,
		Subject:    msg.Subject,
		Text:       msg.Text,
		Signal:     sig,
		ReceivedAt: now,
	}); err != nil {
		return nil, withStatus(http.StatusInternalServerError, errors.Join(ErrStore, err))
	}

	for attempt := 1; ; attempt++ {
		err := h.store.Apply(ctx, c.ID, contact.Update{
			From:         c.State,
			State:        next.State,
			NextActionAt: next.Wait.DueAt(now),
		})
		if err == nil {
			break
		}
		if !errors.Is(err, contact.ErrStale) {
			return nil, withStatus(http.StatusInternalServerError, errors.Join(ErrStore, err))
		}
		if attempt == maxApplyAttempts {
			return nil, withStatus(http.StatusConflict, errors.Join(ErrRejected, err))
		}

		// A scheduler pass moved the contact meanwhile; replay the reply on its new state.
		if c, err = h.store.FindByEmail(ctx, from); err != nil {
			return nil, withStatus(http.StatusInternalServerError, errors.Join(ErrStore, err))
		}
		if next, err = h.machine.Advance(c.State, sig); err != nil {
			return nil, withStatus(http.StatusConflict, errors.Join(ErrRejected, err))
		}
	}

	h.log.InfoContext(ctx, "reply applied",
		slog.String("email", c.Email),
		slog.String("signal", sig.String()),
		slog.String("from", c.State.String()),
		slog.String("to", next.State.String()),
	)

	if sig == sequence.SignalReplyPositive {
		if err := h.followUps.ReplyReceived(ctx, c.ID); err != nil {
			h.log.WarnContext(ctx, "reply follow-up failed", slog.String("error", err.Error()))
		}
	}

	return &Result{ContactID: c.ID, Signal: sig, State: next.State}, nil
}

func (h *Handler) signal(ctx context.Context, msg Message) (sequence.Signal, error) {
	if msg.Signal != "" {
		sig, err := sequence.ParseSignal(msg.Signal)
		if err != nil || !sig.IsReply() {
			return "", withStatus(http.StatusBadRequest, errors.Join(ErrBadPayload, sequence.ErrInvalidSignal))
		}
		return sig, nil
	}

	sig, err := h.classifier.Classify(ctx, msg)
	if err != nil {
		return "", withStatus(http.StatusInternalServerError, err)
	}
	if !sig.IsReply() {
		return "", withStatus(http.StatusInternalServerError, fmt.Errorf("%w: classifier returned %q", sequence.ErrInvalidSignal, sig))
	}
	return sig, nil
}

// senderAddress accepts both "jane@example.com" and "Jane <jane@example.com>".
func senderAddress(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("from is required")
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", err
	}
	return contact.NormalizeEmail(addr.Address), nil
}

func writeError(w http.ResponseWriter, err error) {
	code := statusOf(err)
	msg := http.StatusText(code)
	if code < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, code, map[string]string{"status": "error", "error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
