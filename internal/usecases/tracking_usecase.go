package usecases

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"

	domainerrors "recovery-kita.backend/internal/domain/errors"
	"recovery-kita.backend/internal/domain/repositories"
)

// TrackingUsecase signs and resolves open/click tracking links embedded in
// dunning emails. Signatures bind the destination URL to the usage-log id
// so links cannot be replayed against other logs or redirected elsewhere.
type TrackingUsecase struct {
	usageLogRepo repositories.UsageLogRepository
	secret       []byte
	baseURL      string
}

func NewTrackingUsecase(usageLogRepo repositories.UsageLogRepository, sessionSecret, baseURL string) *TrackingUsecase {
	return &TrackingUsecase{
		usageLogRepo: usageLogRepo,
		secret:       []byte(sessionSecret),
		baseURL:      baseURL,
	}
}

// SignClick computes HMAC-SHA256(secret, url+":"+logId).
func (u *TrackingUsecase) SignClick(target string, logID int64) string {
	mac := hmac.New(sha256.New, u.secret)
	mac.Write([]byte(target + ":" + strconv.FormatInt(logID, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// OpenPixelURL is the tracking-pixel URL embedded in an email body.
func (u *TrackingUsecase) OpenPixelURL(logID int64) string {
	return fmt.Sprintf("%s/track/open/%d", u.baseURL, logID)
}

// ClickURL wraps a destination URL in a signed redirect.
func (u *TrackingUsecase) ClickURL(target string, logID int64) string {
	q := url.Values{}
	q.Set("url", target)
	q.Set("logId", strconv.FormatInt(logID, 10))
	q.Set("sig", u.SignClick(target, logID))
	return u.baseURL + "/track/click?" + q.Encode()
}

// RecordOpen counts an open (once per log) and never fails the pixel.
func (u *TrackingUsecase) RecordOpen(ctx context.Context, logID int64) error {
	_, err := u.usageLogRepo.MarkOpened(ctx, logID)
	return err
}

// RecordClick verifies the signature, counts the click and returns the
// destination URL for the redirect.
func (u *TrackingUsecase) RecordClick(ctx context.Context, target string, logID int64, sig string) (string, error) {
	expected := u.SignClick(target, logID)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return "", domainerrors.ErrInvalidSignature
	}
	if _, err := u.usageLogRepo.MarkClicked(ctx, logID); err != nil {
		return "", err
	}
	return target, nil
}
