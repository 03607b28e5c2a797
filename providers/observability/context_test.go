package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingObserver struct {
	Nop
	messages []string
}

func (r *recordingObserver) Info(_ context.Context, msg string, _ ...Attribute) {
	r.messages = append(r.messages, msg)
}

func TestObserverFromContext_Empty_ReturnsNil(t *testing.T) {
	assert.Nil(t, ObserverFromContext(context.Background()))
	//nolint:staticcheck // nil context is accepted on purpose
	assert.Nil(t, ObserverFromContext(nil))
}

func TestContextWithObserver_RoundTrip(t *testing.T) {
	observer := &recordingObserver{}
	ctx := ContextWithObserver(context.Background(), observer)

	got := ObserverFromContext(ctx)
	assert.Same(t, observer, got)

	got.Info(ctx, "hello")
	assert.Equal(t, []string{"hello"}, observer.messages)
}

func TestError_NilAndNonNil(t *testing.T) {
	assert.Equal(t, Attribute{Key: AttrError, Value: ""}, Error(nil))
	assert.Equal(t, Attribute{Key: AttrError, Value: "boom"}, Error(assertError("boom")))
}

type assertError string

func (e assertError) Error() string { return string(e) }
