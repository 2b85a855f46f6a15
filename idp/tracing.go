package idp

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrEthical07/authflow/session"
)

const tracerName = "github.com/MrEthical07/authflow/idp"

type tracedGateway struct {
	next   Gateway
	tracer trace.Tracer
}

// WithTracing wraps gw so every call runs inside a span. A nil provider uses
// the global otel provider.
func WithTracing(gw Gateway, tp trace.TracerProvider) Gateway {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &tracedGateway{next: gw, tracer: tp.Tracer(tracerName)}
}

func (g *tracedGateway) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return g.tracer.Start(ctx, "idp."+op, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		code, _ := CodeOf(err)
		span.SetAttributes(attribute.String("idp.error_code", code))
		span.SetStatus(codes.Error, code)
	}
	span.End()
}

func (g *tracedGateway) SignInWithCredentials(ctx context.Context, email, password string) (*session.Session, error) {
	ctx, span := g.start(ctx, "SignInWithCredentials")
	s, err := g.next.SignInWithCredentials(ctx, email, password)
	finish(span, err)
	return s, err
}

func (g *tracedGateway) SignUpWithCredentials(ctx context.Context, email, password string) (*session.Session, error) {
	ctx, span := g.start(ctx, "SignUpWithCredentials")
	s, err := g.next.SignUpWithCredentials(ctx, email, password)
	finish(span, err)
	return s, err
}

func (g *tracedGateway) UpdateDisplayName(ctx context.Context, s *session.Session, name string) error {
	ctx, span := g.start(ctx, "UpdateDisplayName")
	err := g.next.UpdateDisplayName(ctx, s, name)
	finish(span, err)
	return err
}

func (g *tracedGateway) SignInWithProvider(ctx context.Context, provider Provider) (*session.Session, error) {
	ctx, span := g.start(ctx, "SignInWithProvider", attribute.String("idp.provider", string(provider)))
	s, err := g.next.SignInWithProvider(ctx, provider)
	finish(span, err)
	return s, err
}

func (g *tracedGateway) SendVerificationEmail(ctx context.Context, s *session.Session) error {
	ctx, span := g.start(ctx, "SendVerificationEmail")
	err := g.next.SendVerificationEmail(ctx, s)
	finish(span, err)
	return err
}

func (g *tracedGateway) SignOut(ctx context.Context, s *session.Session) error {
	ctx, span := g.start(ctx, "SignOut")
	err := g.next.SignOut(ctx, s)
	finish(span, err)
	return err
}
