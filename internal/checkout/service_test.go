package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleepoutside/storefront/internal/cart"
	"github.com/sleepoutside/storefront/internal/catalog"
	"github.com/sleepoutside/storefront/internal/kvstore"
)

// mockSubmitter is a mock implementation of the Submitter interface.
type mockSubmitter struct {
	response *SubmitResponse
	error    error

	calls    int
	payloads []OrderPayload
	started  chan struct{} // closed-like signal, one send per call
	release  chan struct{} // blocks the call until signalled
	cancel   context.CancelFunc
}

func (m *mockSubmitter) Submit(ctx context.Context, payload OrderPayload) (*SubmitResponse, error) {
	m.calls++
	m.payloads = append(m.payloads, payload)
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.release != nil {
		<-m.release
	}
	if m.cancel != nil {
		m.cancel()
		<-ctx.Done()
		return nil, errors.New("request aborted")
	}
	if m.error != nil {
		return nil, m.error
	}
	return m.response, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testCustomer() CustomerInfo {
	return CustomerInfo{
		FirstName:  "John",
		LastName:   "Doe",
		Street:     "123 Main Street",
		City:       "Salt Lake City",
		State:      "UT",
		Zip:        "84044",
		CardNumber: "1234123412341234",
		Expiration: "8/28",
		Code:       "123",
	}
}

func filledCart(t *testing.T) *cart.Store {
	t.Helper()
	store := cart.NewStore(context.Background(), kvstore.NewMemoryStore(), "so-cart", discardLogger())
	price1, price2 := 100.0, 80.0
	require.True(t, store.AddItem(context.Background(), catalog.Product{ID: "880RR", Name: "Ajax Tent - 3-Person", FinalPrice: &price1}, 2))
	require.True(t, store.AddItem(context.Background(), catalog.Product{ID: "985RF", Name: "Talus Tent - 4-Person", FinalPrice: &price2}, 2))
	return store
}

func Test_Service_Submit_Success(t *testing.T) {
	// given
	cartStore := filledCart(t)
	submitter := &mockSubmitter{response: &SubmitResponse{OrderID: 4342, Message: "Order placed"}}
	svc := NewService(cartStore, submitter, tieredPricing(), discardLogger())
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }

	// when
	resp, err := svc.Submit(context.Background(), testCustomer())

	// then
	require.NoError(t, err)
	assert.Equal(t, int64(4342), resp.OrderID)
	require.Equal(t, 1, submitter.calls)

	payload := submitter.payloads[0]
	assert.Equal(t, "2026-03-14T12:00:00Z", payload.OrderDate)
	assert.Equal(t, 393.6, payload.OrderTotal)
	assert.Equal(t, 21.6, payload.Tax)
	assert.Equal(t, 12.0, payload.Shipping)
	assert.Equal(t, "John", payload.FirstName)
	require.Len(t, payload.Items, 2)
	assert.Equal(t, "880RR", payload.Items[0].ID)

	// the service never clears the cart; that is the caller's job
	assert.Len(t, cartStore.Items(), 2)
}

func Test_Service_Submit_EmptyCart(t *testing.T) {
	// given
	cartStore := cart.NewStore(context.Background(), kvstore.NewMemoryStore(), "so-cart", discardLogger())
	submitter := &mockSubmitter{response: &SubmitResponse{OrderID: 1}}
	svc := NewService(cartStore, submitter, tieredPricing(), discardLogger())

	// when
	resp, err := svc.Submit(context.Background(), testCustomer())

	// then
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, submitter.calls, "an empty cart must never reach the network")
}

func Test_Service_Submit_RejectionLeavesCartUntouched(t *testing.T) {
	// given
	cartStore := filledCart(t)
	submitter := &mockSubmitter{error: ErrSubmissionRejected}
	svc := NewService(cartStore, submitter, tieredPricing(), discardLogger())

	// when
	resp, err := svc.Submit(context.Background(), testCustomer())

	// then
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrSubmissionRejected)
	assert.Len(t, cartStore.Items(), 2, "a failed checkout must preserve the cart for retry")

	// and a subsequent attempt is allowed again
	submitter.error = nil
	submitter.response = &SubmitResponse{OrderID: 7}
	resp, err = svc.Submit(context.Background(), testCustomer())
	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.OrderID)
}

func Test_Service_Submit_RejectsConcurrentAttempt(t *testing.T) {
	// given a submitter that blocks until released
	cartStore := filledCart(t)
	submitter := &mockSubmitter{
		response: &SubmitResponse{OrderID: 1},
		started:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	svc := NewService(cartStore, submitter, tieredPricing(), discardLogger())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), testCustomer())
		done <- err
	}()
	<-submitter.started

	// when a second attempt arrives while the first is in flight
	_, err := svc.Submit(context.Background(), testCustomer())

	// then
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	// and the first attempt still completes normally
	close(submitter.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, submitter.calls)
}

func Test_Service_Submit_ContextCancellation(t *testing.T) {
	// given a submitter whose request dies when the context is cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cartStore := filledCart(t)
	submitter := &mockSubmitter{cancel: cancel}
	svc := NewService(cartStore, submitter, tieredPricing(), discardLogger())

	// when
	resp, err := svc.Submit(ctx, testCustomer())

	// then the context error wins over the transport error
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, cartStore.Items(), 2)
}

func Test_Service_Totals(t *testing.T) {
	// given
	cartStore := filledCart(t)
	svc := NewService(cartStore, &mockSubmitter{}, tieredPricing(), discardLogger())

	// when
	totals := svc.Totals()

	// then totals track the live cart
	assert.Equal(t, 360.0, totals.Subtotal)
	cartStore.Clear(context.Background())
	assert.Equal(t, Totals{}, svc.Totals())
}
