package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stockpulse/stockpulse/internal/database"
	"github.com/stockpulse/stockpulse/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func newActiveAlert(symbol, target string) *models.PriceAlert {
	return &models.PriceAlert{
		WatchlistID: 1,
		UserID:      "user-1",
		Symbol:      symbol,
		Condition:   models.ConditionAbovePrice,
		TargetValue: decimal.RequireFromString(target),
		Status:      models.AlertStatusActive,
	}
}

func TestCreateAlert(t *testing.T) {
	svc := NewAlertService(newTestDB(t))

	t.Run("valid alert", func(t *testing.T) {
		alert := newActiveAlert("AAPL", "150.00")
		require.NoError(t, svc.CreateAlert(alert))
		assert.NotZero(t, alert.ID)
		assert.Equal(t, models.AlertStatusActive, alert.Status)
	})

	t.Run("rejects non-positive target", func(t *testing.T) {
		alert := newActiveAlert("AAPL", "0")
		assert.Error(t, svc.CreateAlert(alert))

		alert = newActiveAlert("AAPL", "-5")
		assert.Error(t, svc.CreateAlert(alert))
	})

	t.Run("rejects unknown condition", func(t *testing.T) {
		alert := newActiveAlert("AAPL", "150.00")
		alert.Condition = "sideways"
		assert.Error(t, svc.CreateAlert(alert))
	})
}

func TestTrigger(t *testing.T) {
	svc := NewAlertService(newTestDB(t))
	now := time.Now()

	t.Run("transitions active alert exactly once", func(t *testing.T) {
		alert := newActiveAlert("AAPL", "150.00")
		require.NoError(t, svc.CreateAlert(alert))

		triggered, err := svc.Trigger(alert.ID, now)
		require.NoError(t, err)
		assert.True(t, triggered)

		got, err := svc.GetAlert(alert.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AlertStatusTriggered, got.Status)
		require.NotNil(t, got.TriggeredAt)

		// A second transition attempt must not win.
		triggered, err = svc.Trigger(alert.ID, now)
		require.NoError(t, err)
		assert.False(t, triggered)
	})

	t.Run("never transitions a disabled alert", func(t *testing.T) {
		alert := newActiveAlert("MSFT", "300.00")
		require.NoError(t, svc.CreateAlert(alert))
		disabled, err := svc.Disable(alert.ID)
		require.NoError(t, err)
		require.True(t, disabled)

		triggered, err := svc.Trigger(alert.ID, now)
		require.NoError(t, err)
		assert.False(t, triggered)

		got, err := svc.GetAlert(alert.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AlertStatusDisabled, got.Status)
	})
}

func TestDisable(t *testing.T) {
	svc := NewAlertService(newTestDB(t))

	alert := newActiveAlert("AAPL", "150.00")
	require.NoError(t, svc.CreateAlert(alert))

	disabled, err := svc.Disable(alert.ID)
	require.NoError(t, err)
	assert.True(t, disabled)

	// Terminal states do not re-arm or change further.
	disabled, err = svc.Disable(alert.ID)
	require.NoError(t, err)
	assert.False(t, disabled)
}

func TestListActive(t *testing.T) {
	svc := NewAlertService(newTestDB(t))

	active := newActiveAlert("AAPL", "150.00")
	require.NoError(t, svc.CreateAlert(active))

	triggered := newActiveAlert("MSFT", "300.00")
	require.NoError(t, svc.CreateAlert(triggered))
	_, err := svc.Trigger(triggered.ID, time.Now())
	require.NoError(t, err)

	alerts, err := svc.ListActive()
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, active.ID, alerts[0].ID)
}

func TestGetAlertsByWatchlist(t *testing.T) {
	svc := NewAlertService(newTestDB(t))

	first := newActiveAlert("AAPL", "150.00")
	require.NoError(t, svc.CreateAlert(first))

	second := newActiveAlert("MSFT", "300.00")
	require.NoError(t, svc.CreateAlert(second))
	_, err := svc.Disable(second.ID)
	require.NoError(t, err)

	other := newActiveAlert("TSLA", "200.00")
	other.WatchlistID = 2
	require.NoError(t, svc.CreateAlert(other))

	all, err := svc.GetAlertsByWatchlist(1, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	activeOnly, err := svc.GetAlertsByWatchlist(1, string(models.AlertStatusActive))
	require.NoError(t, err)
	require.Len(t, activeOnly, 1)
	assert.Equal(t, first.ID, activeOnly[0].ID)
}
