package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"maternidad/internal/correction"
	"maternidad/internal/correction/store"
	"maternidad/pkg/domain"
)

func pending(target domain.DeliveryID) *correction.Request {
	return &correction.Request{
		TargetID:  target,
		Message:   "Corregir el registro",
		State:     correction.StatePending,
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestCreateRejectsDuplicatePending(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.Create(ctx, pending(5))
	require.NoError(t, err)
	require.Equal(t, domain.CorrectionID(1), id)

	_, err = s.Create(ctx, pending(5))
	require.ErrorIs(t, err, store.ErrDuplicatePending)

	// A different target is unaffected.
	_, err = s.Create(ctx, pending(6))
	require.NoError(t, err)
}

func TestResolvedTargetAcceptsNewPending(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.Create(ctx, pending(5))
	require.NoError(t, err)

	req, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.NoError(t, req.Resolve(domain.Actor{}, time.Now()))
	require.NoError(t, s.Update(ctx, req))

	_, err = s.Create(ctx, pending(5))
	require.NoError(t, err)
}

func TestGetReturnsACopy(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.Create(ctx, pending(5))
	require.NoError(t, err)

	first, err := s.Get(ctx, id)
	require.NoError(t, err)
	first.Message = "mutated"

	second, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Corregir el registro", second.Message)
}

func TestUpdateUnknownID(t *testing.T) {
	s := New()
	err := s.Update(context.Background(), &correction.Request{ID: 99})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, target := range []domain.DeliveryID{1, 2, 3} {
		_, err := s.Create(ctx, pending(target))
		require.NoError(t, err)
	}

	out, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, domain.CorrectionID(3), out[0].ID)
	require.Equal(t, domain.CorrectionID(1), out[2].ID)
}
