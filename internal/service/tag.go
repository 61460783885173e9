// Package service contains the business logic for the ParkShield API.
// Services validate inputs, enforce business rules, and orchestrate repo
// calls. No SQL lives here — services depend on repo interfaces, not
// implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-retry"

	"github.com/parkshield/backend/internal/domain"
	"github.com/parkshield/backend/internal/notify"
	"github.com/parkshield/backend/internal/ratelimit"
	"github.com/parkshield/backend/internal/repo"
	"github.com/parkshield/backend/internal/tagid"
)

// generateAttempts bounds the identifier-collision retry loop. Collisions in
// an 8.5e11 space are freak events; hitting the bound means something is
// systematically wrong and the request fails with ErrIdentifierExhausted.
const generateAttempts = 5

// dispatchTimeout bounds the detached notification send so an unresponsive
// channel cannot pin goroutines forever.
const dispatchTimeout = 10 * time.Second

// validate is shared across requests; validator instances cache struct/tag
// metadata and are safe for concurrent use.
var validate = validator.New()

// TagService implements the tag lifecycle: registration with a unique public
// code, scan lookup through the contact mask, alert acceptance with cooldown
// and best-effort owner notification, ledger history, and deactivation.
type TagService struct {
	tags     repo.TagRepo
	notifier notify.Notifier
	log      *slog.Logger
}

// NewTagService constructs a TagService backed by the provided repo and
// notification channel.
func NewTagService(tags repo.TagRepo, notifier notify.Notifier, log *slog.Logger) *TagService {
	if log == nil {
		log = slog.Default()
	}
	return &TagService{tags: tags, notifier: notifier, log: log}
}

// Register creates a new tag binding vehicleNumber to ownerPhone.
//
// When code is empty a fresh one is generated; a unique-index collision in
// the store is expected (not an error) and retried with a new candidate up
// to generateAttempts times. When code is supplied — claiming a pre-issued
// printed tag — registration is a pure create: a single attempt that fails
// with domain.ErrConflict if the code is already taken. It never updates or
// reactivates an existing record.
func (s *TagService) Register(ctx context.Context, vehicleNumber, ownerPhone, code string) (domain.Tag, error) {
	vehicleNumber = strings.TrimSpace(vehicleNumber)
	if vehicleNumber == "" {
		return domain.Tag{}, fmt.Errorf("service.TagService.Register: %w: vehicle number is required", domain.ErrValidation)
	}
	ownerPhone = strings.TrimSpace(ownerPhone)
	if ownerPhone == "" {
		return domain.Tag{}, fmt.Errorf("service.TagService.Register: %w: phone number is required", domain.ErrValidation)
	}
	if err := validate.Var(ownerPhone, "e164"); err != nil {
		return domain.Tag{}, fmt.Errorf("service.TagService.Register: %w: invalid phone number format", domain.ErrValidation)
	}

	tag := domain.Tag{VehicleNumber: vehicleNumber, OwnerPhone: ownerPhone}

	if code != "" {
		if !tagid.Valid(code) {
			return domain.Tag{}, fmt.Errorf("service.TagService.Register: %w: invalid tag code", domain.ErrValidation)
		}
		tag.TagID = code
		created, err := s.tags.Create(ctx, tag)
		if err != nil {
			// ErrConflict passes through: the code is already claimed.
			return domain.Tag{}, fmt.Errorf("service.TagService.Register: %w", err)
		}
		return created, nil
	}

	var created domain.Tag
	backoff := retry.WithMaxRetries(generateAttempts-1, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		tag.TagID = tagid.New()
		got, err := s.tags.Create(ctx, tag)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				// Generated candidate lost the uniqueness race; try another.
				return retry.RetryableError(err)
			}
			return err
		}
		created = got
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.Tag{}, fmt.Errorf("service.TagService.Register: %w", domain.ErrIdentifierExhausted)
		}
		return domain.Tag{}, fmt.Errorf("service.TagService.Register: %w", err)
	}
	return created, nil
}

// Lookup resolves a scanned code to the tag's public contact view.
// Returns domain.ErrNotFound for unregistered codes (the handler turns this
// into a "claim this tag" signal, not a hard error) and domain.ErrForbidden
// for deactivated tags.
func (s *TagService) Lookup(ctx context.Context, code string) (domain.Contact, error) {
	tag, err := s.tags.GetByCode(ctx, code)
	if err != nil {
		return domain.Contact{}, fmt.Errorf("service.TagService.Lookup: %w", err)
	}
	if !tag.Active {
		return domain.Contact{}, fmt.Errorf("service.TagService.Lookup: %w", domain.ErrForbidden)
	}
	return tag.Contact(), nil
}

// Alert runs the acceptance pipeline for one alert request:
// validate → rate-check → record → detached dispatch.
//
// The ledger append is the durability boundary. Once it succeeds the alert
// is accepted and the caller sees success regardless of what the
// notification channel does — dispatch runs detached from the request and
// its outcome is only logged.
func (s *TagService) Alert(ctx context.Context, req domain.AlertRequest) (domain.Alert, error) {
	kind := domain.AlertKind(req.Kind)
	if !kind.Valid() {
		return domain.Alert{}, fmt.Errorf("service.TagService.Alert: %w: unknown alert kind %q", domain.ErrValidation, req.Kind)
	}
	message := strings.TrimSpace(req.Message)
	if kind == domain.KindCustom && message == "" {
		return domain.Alert{}, fmt.Errorf("service.TagService.Alert: %w: custom alert requires a message", domain.ErrValidation)
	}

	tag, err := s.tags.GetByCode(ctx, req.Code)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("service.TagService.Alert: %w", err)
	}
	if !tag.Active {
		return domain.Alert{}, fmt.Errorf("service.TagService.Alert: %w", domain.ErrForbidden)
	}

	last, err := s.tags.LastAlert(ctx, tag.ID)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("service.TagService.Alert: %w", err)
	}
	var lastAt *time.Time
	if last != nil {
		lastAt = &last.CreatedAt
	}
	if d := ratelimit.Admit(lastAt, time.Now()); !d.OK {
		return domain.Alert{}, fmt.Errorf("service.TagService.Alert: %w", &domain.RateLimitError{RetryAfter: d.RetryAfter})
	}

	recorded, err := s.tags.AppendAlert(ctx, domain.Alert{
		TagID:         tag.ID,
		Kind:          kind,
		Message:       message,
		OriginAddress: req.OriginAddress,
	})
	if err != nil {
		return domain.Alert{}, fmt.Errorf("service.TagService.Alert: %w", err)
	}

	// Detach dispatch from the request: a slow or failed send must neither
	// delay nor fail the response committed by the append above.
	go s.dispatch(context.WithoutCancel(ctx), tag, recorded)

	return recorded, nil
}

// dispatch attempts best-effort delivery of one recorded alert to the owner.
// Failures are logged and swallowed; the owner phone number is never logged.
func (s *TagService) dispatch(ctx context.Context, tag domain.Tag, alert domain.Alert) {
	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	body := notify.Body(alert.Kind, alert.Message, tag.VehicleNumber)
	if err := s.notifier.Send(ctx, tag.OwnerPhone, body); err != nil {
		if errors.Is(err, notify.ErrUnavailable) {
			s.log.InfoContext(ctx, "notification channel not configured, alert recorded only",
				"tag_id", tag.TagID, "kind", alert.Kind)
			return
		}
		s.log.ErrorContext(ctx, "notification dispatch failed",
			"tag_id", tag.TagID, "kind", alert.Kind, "error", err)
		return
	}
	s.log.InfoContext(ctx, "alert dispatched", "tag_id", tag.TagID, "kind", alert.Kind)
}

// History returns one page of a tag's alert ledger, newest first, plus the
// total ledger length. The page size cap keeps the unbounded ledger from
// ever being read whole.
func (s *TagService) History(ctx context.Context, code string, p domain.PaginationParams) ([]domain.Alert, int64, error) {
	tag, err := s.tags.GetByCode(ctx, code)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TagService.History: %w", err)
	}
	alerts, total, err := s.tags.ListAlerts(ctx, tag.ID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TagService.History: %w", err)
	}
	return alerts, total, nil
}

// Deactivate permanently disables a tag. There is no reactivation path:
// once disabled, lookup and alert operations fail with ErrForbidden forever.
// Disabling an already-disabled tag is a no-op, not an error.
func (s *TagService) Deactivate(ctx context.Context, code string) error {
	if err := s.tags.SetActive(ctx, code, false); err != nil {
		return fmt.Errorf("service.TagService.Deactivate: %w", err)
	}
	return nil
}
