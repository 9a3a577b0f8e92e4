package usecases_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainerrors "recovery-kita.backend/internal/domain/errors"
	"recovery-kita.backend/internal/usecases"
)

func newTracking(usageRepo *MockUsageLogRepository) *usecases.TrackingUsecase {
	return usecases.NewTrackingUsecase(usageRepo, "session-secret", "https://app.example")
}

func TestTracking_ClickURLRoundTrips(t *testing.T) {
	usageRepo := new(MockUsageLogRepository)
	tracking := newTracking(usageRepo)

	sig := tracking.SignClick("https://pay.example/in_1", 42)
	usageRepo.On("MarkClicked", mock.Anything, int64(42)).Return(true, nil)

	dest, err := tracking.RecordClick(context.Background(), "https://pay.example/in_1", 42, sig)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/in_1", dest)
}

func TestTracking_TamperedURLRejected(t *testing.T) {
	usageRepo := new(MockUsageLogRepository)
	tracking := newTracking(usageRepo)

	sig := tracking.SignClick("https://pay.example/in_1", 42)

	_, err := tracking.RecordClick(context.Background(), "https://evil.example/", 42, sig)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidSignature)
	usageRepo.AssertNotCalled(t, "MarkClicked", mock.Anything, mock.Anything)
}

func TestTracking_SignatureBoundToLogID(t *testing.T) {
	usageRepo := new(MockUsageLogRepository)
	tracking := newTracking(usageRepo)

	sig := tracking.SignClick("https://pay.example/in_1", 42)
	_, err := tracking.RecordClick(context.Background(), "https://pay.example/in_1", 43, sig)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidSignature)
}

func TestTracking_URLBuilders(t *testing.T) {
	tracking := newTracking(new(MockUsageLogRepository))

	assert.Equal(t, "https://app.example/track/open/7", tracking.OpenPixelURL(7))

	clickURL := tracking.ClickURL("https://pay.example/in_1", 7)
	assert.Contains(t, clickURL, "https://app.example/track/click?")
	assert.Contains(t, clickURL, "logId=7")
	assert.Contains(t, clickURL, "sig=")
}

func TestTracking_RecordOpenDelegates(t *testing.T) {
	usageRepo := new(MockUsageLogRepository)
	tracking := newTracking(usageRepo)

	usageRepo.On("MarkOpened", mock.Anything, int64(9)).Return(false, nil)
	require.NoError(t, tracking.RecordOpen(context.Background(), 9))
	usageRepo.AssertExpectations(t)
}
