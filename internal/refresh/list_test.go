package refresh

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hairsby-console/internal/domain"
)

func TestList_RefreshReplacesWholesale(t *testing.T) {
	calls := 0
	pages := [][]domain.Product{
		{{ID: "p1", Name: "A"}, {ID: "p2", Name: "B"}},
		{{ID: "p2", Name: "B2"}},
	}
	l := NewList(domain.KindProduct, func(ctx context.Context) ([]domain.Product, error) {
		page := pages[calls]
		calls++
		return page, nil
	})

	require.NoError(t, l.EnsureLoaded(context.Background()))
	require.NoError(t, l.EnsureLoaded(context.Background()))
	assert.Equal(t, 1, calls, "EnsureLoaded fetches once")
	assert.Len(t, l.Items(), 2)

	require.NoError(t, l.Refresh(context.Background()))
	items := l.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "B2", items[0].Name)
	assert.Equal(t, uint64(2), l.Generation())

	_, ok := l.Find("p1")
	assert.False(t, ok)
	got, ok := l.Find("p2")
	require.True(t, ok)
	assert.Equal(t, "B2", got.Name)
}

func TestList_FailedRefreshKeepsItems(t *testing.T) {
	fail := false
	l := NewList(domain.KindService, func(ctx context.Context) ([]domain.Service, error) {
		if fail {
			return nil, errors.New("backend down")
		}
		return []domain.Service{{ID: "s1"}}, nil
	})
	require.NoError(t, l.Refresh(context.Background()))

	fail = true
	err := l.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh services")
	assert.Len(t, l.Items(), 1)
	assert.Equal(t, uint64(1), l.Generation())
}

func TestList_ItemsIsACopy(t *testing.T) {
	l := NewList(domain.KindBooking, func(ctx context.Context) ([]domain.Booking, error) {
		return []domain.Booking{{ID: "b1", Notes: "x"}}, nil
	})
	require.NoError(t, l.Refresh(context.Background()))
	items := l.Items()
	items[0].Notes = "changed"
	got, _ := l.Find("b1")
	assert.Equal(t, "x", got.Notes)

	l.Clear()
	assert.Empty(t, l.Items())
	assert.True(t, l.FetchedAt().IsZero())
}
