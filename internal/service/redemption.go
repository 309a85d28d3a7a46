package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ticket-stream-portal/internal/auth"
	"ticket-stream-portal/internal/model"
	"ticket-stream-portal/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DenialReason string

const (
	DeniedInvalidOrUnpaid DenialReason = "invalid_or_unpaid"
	DeniedAlreadyUsed     DenialReason = "already_used"
)

type RedeemRequest struct {
	Token     string
	ClientIP  string
	UserAgent string
	// Grant is the device grant from an earlier successful redemption, if any.
	Grant string
}

// Decision is the outcome of a redemption. Purchaser fields on a denial are
// for operators only and must not be shown to the requester.
type Decision struct {
	Granted       bool
	Resumed       bool
	Reason        DenialReason
	IsLive        bool
	StreamURL     *string
	PurchaserName string
	// PurchaserEmail is only set on an already_used denial.
	PurchaserEmail string
	// Grant is set on a fresh claim.
	Grant *auth.Grant
}

type RedemptionService interface {
	Redeem(ctx context.Context, req RedeemRequest) (*Decision, error)
}

type redemptionServiceImpl struct {
	purchaseRepo       repository.PurchaseRepository
	tokenUsageRepo     repository.TokenUsageRepository
	streamSettingsRepo repository.StreamSettingsRepository
	grants             *auth.GrantSigner
	log                *slog.Logger
	now                func() time.Time
}

func NewRedemptionService(
	purchaseRepo repository.PurchaseRepository,
	tokenUsageRepo repository.TokenUsageRepository,
	streamSettingsRepo repository.StreamSettingsRepository,
	grants *auth.GrantSigner,
	log *slog.Logger,
) RedemptionService {
	return &redemptionServiceImpl{
		purchaseRepo:       purchaseRepo,
		tokenUsageRepo:     tokenUsageRepo,
		streamSettingsRepo: streamSettingsRepo,
		grants:             grants,
		log:                log,
		now:                time.Now,
	}
}

func (s *redemptionServiceImpl) Redeem(ctx context.Context, req RedeemRequest) (*Decision, error) {
	denied := func(reason DenialReason) *Decision {
		return &Decision{Reason: reason}
	}

	if req.Token == "" {
		return denied(DeniedInvalidOrUnpaid), nil
	}

	purchase, err := s.purchaseRepo.FindCompletedByToken(ctx, req.Token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return denied(DeniedInvalidOrUnpaid), nil
	}
	if err != nil {
		return nil, persistence("find purchase by token", err)
	}

	usage, err := s.tokenUsageRepo.FindByToken(ctx, req.Token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.ErrorContext(ctx, "completed purchase has no token record", "purchase_id", purchase.ID)
		return denied(DeniedInvalidOrUnpaid), nil
	}
	if err != nil {
		return nil, persistence("find token usage", err)
	}

	// read before claiming so a store failure here never burns the token
	settings, err := s.streamSettingsRepo.Get(ctx)
	if err != nil {
		return nil, persistence("read stream settings", err)
	}

	access := repository.Access{
		At:        s.now().UTC(),
		IPAddress: req.ClientIP,
		UserAgent: req.UserAgent,
	}
	granted := func(g *auth.Grant, resumed bool) *Decision {
		return &Decision{
			Granted:       true,
			Resumed:       resumed,
			IsLive:        settings.IsLive,
			StreamURL:     settings.StreamURL,
			PurchaserName: purchase.Name,
			Grant:         g,
		}
	}

	if usage.Used {
		resumed, err := s.resume(ctx, req, usage, access)
		if err != nil {
			return nil, err
		}
		if resumed {
			return granted(nil, true), nil
		}
		return &Decision{
			Reason:         DeniedAlreadyUsed,
			PurchaserName:  purchase.Name,
			PurchaserEmail: purchase.Email,
		}, nil
	}

	access.DeviceID = uuid.NewString()
	won, err := s.tokenUsageRepo.Claim(ctx, req.Token, access)
	if err != nil {
		return nil, persistence("claim token", err)
	}
	if !won {
		s.log.InfoContext(ctx, "token claim rejected", "purchase_id", purchase.ID, "error", ErrRaceLost)
		return &Decision{
			Reason:         DeniedAlreadyUsed,
			PurchaserName:  purchase.Name,
			PurchaserEmail: purchase.Email,
		}, nil
	}

	grant, err := s.grants.Issue(usage.ID, access.DeviceID)
	if err != nil {
		// access is still granted for this page load, only refresh is lost
		s.log.ErrorContext(ctx, "issue device grant", "purchase_id", purchase.ID, "error", err)
		return granted(nil, false), nil
	}

	s.log.InfoContext(ctx, "token redeemed", "purchase_id", purchase.ID)
	return granted(&grant, false), nil
}

// resume reports whether the request carries a grant for the device that
// holds the token, and if so records the access.
func (s *redemptionServiceImpl) resume(ctx context.Context, req RedeemRequest, usage *model.TokenUsage, access repository.Access) (bool, error) {
	if req.Grant == "" || usage.DeviceID == nil {
		return false, nil
	}
	claims, err := s.grants.Verify(req.Grant, usage.ID)
	if err != nil || claims.DeviceID != *usage.DeviceID {
		return false, nil
	}

	access.DeviceID = claims.DeviceID
	ok, err := s.tokenUsageRepo.Touch(ctx, req.Token, access)
	if err != nil {
		return false, persistence("touch token", err)
	}
	return ok, nil
}
