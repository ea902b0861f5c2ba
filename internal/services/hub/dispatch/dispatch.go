// Package dispatch turns a scanned tag into the one event the hub emits for it.
package dispatch

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/rfidhub/internal/platform/errors"
	"github.com/louisbranch/rfidhub/internal/platform/errors/i18n"
	"github.com/louisbranch/rfidhub/internal/services/hub/mode"
	"github.com/louisbranch/rfidhub/internal/services/hub/protocol"
	"github.com/louisbranch/rfidhub/internal/services/hub/verifier"
)

const tracerName = "github.com/louisbranch/rfidhub/internal/services/hub/dispatch"

// Kind says who receives an outcome.
type Kind int

const (
	// Broadcast goes to every open session.
	Broadcast Kind = iota
	// Reply goes to the scanning session only.
	Reply
)

func (k Kind) String() string {
	switch k {
	case Broadcast:
		return "broadcast"
	case Reply:
		return "reply"
	default:
		return "unknown"
	}
}

// Outcome is the single result of handling one scan. Err is set only for
// replies and carries the coded cause so callers can localize the text.
type Outcome struct {
	Kind     Kind
	Envelope protocol.Envelope
	Mode     mode.Mode
	Err      error
}

// ModeReader exposes the current mode.
type ModeReader interface {
	Get() mode.Mode
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTracer overrides the tracer used for verifier spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dispatcher) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// Dispatcher handles rfid_scan messages.
type Dispatcher struct {
	modes    ModeReader
	verifier verifier.Verifier
	tracer   trace.Tracer
}

// New builds a dispatcher reading the mode from modes and asking v in assign
// mode.
func New(modes ModeReader, v verifier.Verifier, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		modes:    modes,
		verifier: v,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle reads the mode once and builds the outcome from that reading, even
// if the mode changes while the verifier is being consulted. A reply is
// rendered in locale.
func (d *Dispatcher) Handle(ctx context.Context, tag, locale string) Outcome {
	current := d.modes.Get()
	if current != mode.Assign {
		return Outcome{Kind: Broadcast, Envelope: protocol.Attendance(tag), Mode: current}
	}

	result, err := d.check(ctx, tag)
	if err != nil {
		log.Printf("hub: verify rfid %q (%s): %v", tag, apperrors.GetCode(err).Category(), err)
		return Outcome{
			Kind:     Reply,
			Envelope: protocol.Error(ErrorText(locale, err)),
			Mode:     current,
			Err:      err,
		}
	}
	if result.Exists {
		return Outcome{Kind: Broadcast, Envelope: protocol.RfidExists(result.Tag), Mode: current}
	}
	return Outcome{Kind: Broadcast, Envelope: protocol.AssignRfid(result.Tag), Mode: current}
}

func (d *Dispatcher) check(ctx context.Context, tag string) (verifier.Result, error) {
	ctx, span := d.tracer.Start(ctx, "verifier.exists", trace.WithAttributes(attribute.String("rfid", tag)))
	defer span.End()

	if d.verifier == nil {
		err := apperrors.New(apperrors.CodeVerifierUnavailable, "verifier is not configured")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return verifier.Result{}, err
	}

	result, err := verifier.Check(ctx, d.verifier, tag)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.GetCode(err)))
		return verifier.Result{}, err
	}
	span.SetAttributes(attribute.Bool("exists", result.Exists))
	return result, nil
}

// ErrorText renders err for a client in locale.
func ErrorText(locale string, err error) string {
	return i18n.GetCatalog(locale).Format(string(apperrors.GetCode(err)), apperrors.GetMetadata(err))
}
