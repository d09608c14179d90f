package workers

import (
	"context"
	"errors"
	"testing"

	"aura-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVouches struct {
	ids       []string
	confirmed []string
}

func (f *fakeVouches) PendingIDs(ctx context.Context, limit int) ([]string, error) {
	return f.ids, nil
}

func (f *fakeVouches) ConfirmPending(ctx context.Context, id string) (*models.Vouch, error) {
	f.confirmed = append(f.confirmed, id)
	if id == "bad" {
		return nil, errors.New("rpc down")
	}
	return &models.Vouch{ID: id, Status: models.PaymentStatusConfirmed}, nil
}

type fakePurchases struct {
	ids []string
	err error
}

func (f *fakePurchases) PendingIDs(ctx context.Context, limit int) ([]string, error) {
	return f.ids, f.err
}

func (f *fakePurchases) ConfirmPending(ctx context.Context, id string) (*models.SteezePurchase, error) {
	return &models.SteezePurchase{ID: id, Status: models.PaymentStatusPending}, nil
}

func TestPaymentWorkerTick(t *testing.T) {
	v := &fakeVouches{ids: []string{"a", "bad", "c"}}
	p := &fakePurchases{ids: []string{"x"}}
	w := NewPaymentWorker(v, p)

	nv, np := w.Tick(context.Background())
	assert.Equal(t, 3, nv)
	assert.Equal(t, 1, np)
	assert.Equal(t, []string{"a", "bad", "c"}, v.confirmed)
}

func TestPaymentWorkerListError(t *testing.T) {
	w := NewPaymentWorker(&fakeVouches{}, &fakePurchases{err: errors.New("db down")})
	nv, np := w.Tick(context.Background())
	assert.Zero(t, nv)
	assert.Zero(t, np)
}

func TestPaymentWorkerStopsOnCancelledContext(t *testing.T) {
	v := &fakeVouches{ids: []string{"a", "b"}}
	w := NewPaymentWorker(v, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	nv, _ := w.Tick(ctx)
	assert.Zero(t, nv)
	assert.Empty(t, v.confirmed)
}

type countingRefresher struct{ calls int }

func (c *countingRefresher) RefreshBalances(ctx context.Context) (int, error) {
	c.calls++
	return 2, nil
}

func TestBalanceSyncWorkerSync(t *testing.T) {
	r := &countingRefresher{}
	w := NewBalanceSyncWorker(r)
	require.NoError(t, w.sync(context.Background()))
	assert.Equal(t, 1, r.calls)
}
