package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/internal/model"
)

func day(d int) time.Time {
	return time.Date(2024, time.August, d, 0, 0, 0, 0, time.UTC)
}

func booking(id, user string, room model.RoomType, in, out int, status model.BookingStatus) model.Booking {
	return model.Booking{
		ID:             id,
		GuestName:      "Guest " + id[len(id)-1:],
		UserID:         user,
		CheckIn:        day(in),
		CheckOut:       day(out),
		NumberOfGuests: 2,
		RoomType:       room,
		Status:         status,
		PaymentStatus:  model.PaymentPending,
		CreatedAt:      day(1),
		UpdatedAt:      day(1),
	}
}

func ids(bs []model.Booking) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.ID)
	}
	return out
}

// runRepositoryContract checks the behaviour every Repository backend must share.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository[model.Booking]) {
	ctx := context.Background()

	t.Run("insert then find by id", func(t *testing.T) {
		repo := newRepo(t)
		b := booking("000000000000000000000001", "u1", model.RoomSuite, 10, 12, model.StatusPending)
		require.NoError(t, repo.Insert(ctx, b))

		got, err := repo.FindOne(ctx, Where(Eq("_id", b.ID)))
		require.NoError(t, err)
		assert.Equal(t, b.GuestName, got.GuestName)
		assert.Equal(t, model.RoomSuite, got.RoomType)
		assert.True(t, got.CheckIn.Equal(b.CheckIn))
	})

	t.Run("duplicate id is a conflict", func(t *testing.T) {
		repo := newRepo(t)
		b := booking("000000000000000000000001", "u1", model.RoomSuite, 10, 12, model.StatusPending)
		require.NoError(t, repo.Insert(ctx, b))

		err := repo.Insert(ctx, b)
		assert.True(t, errors.Is(err, apperr.ErrConflict))
	})

	t.Run("missing document is not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.FindOne(ctx, Where(Eq("_id", "ffffffffffffffffffffffff")))
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, errors.Is(err, apperr.ErrUpstream))
	})

	t.Run("ownership is part of the query", func(t *testing.T) {
		repo := newRepo(t)
		b := booking("000000000000000000000001", "owner", model.RoomDeluxe, 10, 12, model.StatusPending)
		require.NoError(t, repo.Insert(ctx, b))

		_, err := repo.FindOne(ctx, Where(Eq("_id", b.ID), Eq("userId", "someone-else")))
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("overlap query", func(t *testing.T) {
		repo := newRepo(t)
		for _, b := range []model.Booking{
			booking("000000000000000000000003", "u1", model.RoomSuite, 11, 13, model.StatusConfirmed),
			booking("000000000000000000000001", "u1", model.RoomSuite, 8, 10, model.StatusConfirmed),
			booking("000000000000000000000002", "u2", model.RoomSuite, 9, 11, model.StatusCancelled),
			booking("000000000000000000000004", "u2", model.RoomVilla, 10, 12, model.StatusPending),
			booking("000000000000000000000005", "u3", model.RoomSuite, 10, 11, model.StatusPending),
		} {
			require.NoError(t, repo.Insert(ctx, b))
		}

		got, err := repo.Find(ctx, Where(
			Eq("roomType", model.RoomSuite),
			Ne("status", model.StatusCancelled),
			Lt("checkIn", day(12)),
			Gt("checkOut", day(10)),
		))
		require.NoError(t, err)
		assert.Equal(t, []string{"000000000000000000000003", "000000000000000000000005"}, ids(got))
	})

	t.Run("find with no match is empty not nil", func(t *testing.T) {
		repo := newRepo(t)
		got, err := repo.Find(ctx, Where(Eq("userId", "nobody")))
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("update replaces the matching document", func(t *testing.T) {
		repo := newRepo(t)
		b := booking("000000000000000000000001", "u1", model.RoomStandard, 10, 12, model.StatusPending)
		require.NoError(t, repo.Insert(ctx, b))

		b.Status = model.StatusConfirmed
		b.SpecialRequests = "late check-in"
		require.NoError(t, repo.Update(ctx, Where(Eq("_id", b.ID), Eq("userId", "u1")), b))

		got, err := repo.FindOne(ctx, Where(Eq("_id", b.ID)))
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, got.Status)
		assert.Equal(t, "late check-in", got.SpecialRequests)

		err = repo.Update(ctx, Where(Eq("_id", b.ID), Eq("userId", "u2")), b)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("delete counts removed documents", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, booking("000000000000000000000001", "u1", model.RoomSuite, 1, 2, model.StatusPending)))
		require.NoError(t, repo.Insert(ctx, booking("000000000000000000000002", "u1", model.RoomSuite, 3, 4, model.StatusPending)))
		require.NoError(t, repo.Insert(ctx, booking("000000000000000000000003", "u2", model.RoomSuite, 5, 6, model.StatusPending)))

		n, err := repo.Delete(ctx, Where(Eq("userId", "u1")))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		left, err := repo.Find(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"000000000000000000000003"}, ids(left))
	})
}
