package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "github.com/louisbranch/rfidhub/internal/platform/errors"
	"github.com/louisbranch/rfidhub/internal/services/hub/mode"
	"github.com/louisbranch/rfidhub/internal/services/hub/protocol"
)

type fakeVerifier struct {
	calls   atomic.Int32
	exists  bool
	err     error
	onCheck func()
}

func (f *fakeVerifier) Exists(_ context.Context, _ string) (bool, error) {
	f.calls.Add(1)
	if f.onCheck != nil {
		f.onCheck()
	}
	return f.exists, f.err
}

func TestHandleAttendanceSkipsVerifier(t *testing.T) {
	for _, tag := range []string{"ABC123", ""} {
		v := &fakeVerifier{exists: true}
		d := New(mode.NewController(mode.Attendance), v)

		out := d.Handle(context.Background(), tag, "en-US")
		if out.Kind != Broadcast {
			t.Fatalf("kind = %s, want broadcast", out.Kind)
		}
		if out.Envelope != protocol.Attendance(tag) {
			t.Fatalf("envelope = %+v, want attendance for %q", out.Envelope, tag)
		}
		if got := v.calls.Load(); got != 0 {
			t.Fatalf("verifier calls = %d, want 0", got)
		}
	}
}

func TestHandleAssign(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
		want   protocol.Envelope
	}{
		{name: "new tag", exists: false, want: protocol.AssignRfid("NEW1")},
		{name: "assigned tag", exists: true, want: protocol.RfidExists("NEW1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &fakeVerifier{exists: tt.exists}
			d := New(mode.NewController(mode.Assign), v)

			out := d.Handle(context.Background(), "NEW1", "en-US")
			if out.Kind != Broadcast {
				t.Fatalf("kind = %s, want broadcast", out.Kind)
			}
			if out.Envelope != tt.want {
				t.Fatalf("envelope = %+v, want %+v", out.Envelope, tt.want)
			}
			if out.Err != nil {
				t.Fatalf("unexpected error: %v", out.Err)
			}
			if got := v.calls.Load(); got != 1 {
				t.Fatalf("verifier calls = %d, want 1", got)
			}
		})
	}
}

func TestHandleVerifierFailureRepliesWithError(t *testing.T) {
	cause := apperrors.Wrap(apperrors.CodeVerifierUnavailable, "call verifier", errors.New("connection refused"))
	modes := mode.NewController(mode.Assign)
	d := New(modes, &fakeVerifier{err: cause})

	out := d.Handle(context.Background(), "X9", "en-US")
	if out.Kind != Reply {
		t.Fatalf("kind = %s, want reply", out.Kind)
	}
	want := protocol.Error("Failed to verify RFID with external API")
	if out.Envelope != want {
		t.Fatalf("envelope = %+v, want %+v", out.Envelope, want)
	}
	if !errors.Is(out.Err, cause) {
		t.Fatalf("err = %v, want verifier cause", out.Err)
	}
	if got := modes.Get(); got != mode.Assign {
		t.Fatalf("mode = %q, want assign", got)
	}
}

func TestHandleVerifierFailureReplyUsesLocale(t *testing.T) {
	cause := apperrors.New(apperrors.CodeVerifierStatus, "status 503")
	d := New(mode.NewController(mode.Assign), &fakeVerifier{err: cause})

	out := d.Handle(context.Background(), "X9", "pt-BR")
	if out.Kind != Reply {
		t.Fatalf("kind = %s, want reply", out.Kind)
	}
	want := protocol.Error("Falha ao verificar o RFID na API externa")
	if out.Envelope != want {
		t.Fatalf("envelope = %+v, want %+v", out.Envelope, want)
	}
	if out.Envelope.Message != ErrorText("pt-BR", out.Err) {
		t.Fatalf("envelope text %q does not match ErrorText for the cause", out.Envelope.Message)
	}
}

func TestHandleUsesModeReadBeforeVerifier(t *testing.T) {
	modes := mode.NewController(mode.Assign)
	v := &fakeVerifier{exists: false}
	v.onCheck = func() {
		if _, err := modes.Set("attendance"); err != nil {
			t.Errorf("set mode: %v", err)
		}
	}
	d := New(modes, v)

	out := d.Handle(context.Background(), "T7", "en-US")
	if out.Envelope != protocol.AssignRfid("T7") {
		t.Fatalf("envelope = %+v, want assign_rfid for the snapshot mode", out.Envelope)
	}
	if out.Mode != mode.Assign {
		t.Fatalf("outcome mode = %q, want assign", out.Mode)
	}
	if got := modes.Get(); got != mode.Attendance {
		t.Fatalf("mode after = %q, want attendance", got)
	}
}

func TestHandleWithoutVerifierReplies(t *testing.T) {
	out := New(mode.NewController(mode.Assign), nil).Handle(context.Background(), "T1", "en-US")
	if out.Kind != Reply {
		t.Fatalf("kind = %s, want reply", out.Kind)
	}
	if apperrors.GetCode(out.Err) != apperrors.CodeVerifierUnavailable {
		t.Fatalf("code = %q", apperrors.GetCode(out.Err))
	}
}

func TestHandleRecordsVerifierSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	tracer := provider.Tracer("test")

	modes := mode.NewController(mode.Assign)
	_ = New(modes, &fakeVerifier{exists: true}, WithTracer(tracer)).Handle(context.Background(), "S1", "en-US")
	_ = New(modes, &fakeVerifier{err: apperrors.New(apperrors.CodeVerifierStatus, "status 500")}, WithTracer(tracer)).Handle(context.Background(), "S2", "en-US")

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}
	if spans[0].Name() != "verifier.exists" {
		t.Fatalf("span name = %q", spans[0].Name())
	}
	if !hasAttr(spans[0].Attributes(), attribute.String("rfid", "S1")) || !hasAttr(spans[0].Attributes(), attribute.Bool("exists", true)) {
		t.Fatalf("span attributes = %v", spans[0].Attributes())
	}
	if spans[1].Status().Code != codes.Error {
		t.Fatalf("failed span status = %v, want error", spans[1].Status())
	}
}

func TestErrorTextLocalizes(t *testing.T) {
	err := apperrors.New(apperrors.CodeVerifierStatus, "status 502")
	if got := ErrorText("pt-BR", err); got != "Falha ao verificar o RFID na API externa" {
		t.Fatalf("pt-BR text = %q", got)
	}
	if got := ErrorText("fr", err); got != "Failed to verify RFID with external API" {
		t.Fatalf("fallback text = %q", got)
	}
}

func hasAttr(attrs []attribute.KeyValue, want attribute.KeyValue) bool {
	for _, attr := range attrs {
		if attr == want {
			return true
		}
	}
	return false
}
