package checkoutattempt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MarcGrol/checkoutbackend/lib/myemail"
	"github.com/MarcGrol/checkoutbackend/lib/myerrors"
	"github.com/MarcGrol/checkoutbackend/lib/mylock"
	"github.com/MarcGrol/checkoutbackend/lib/mylog"
	"github.com/MarcGrol/checkoutbackend/lib/mypublisher"
	"github.com/MarcGrol/checkoutbackend/lib/myqueue"
	"github.com/MarcGrol/checkoutbackend/lib/mystore"
	"github.com/MarcGrol/checkoutbackend/lib/mytime"
	"github.com/MarcGrol/checkoutbackend/services/checkoutattempt/checkoutattemptevents"
)

const (
	reminderClaimTTL = 24 * time.Hour
)

type Config struct {
	StorefrontURL string
	From          myemail.Address
	Cc            []myemail.Address
	// ReminderDelay is the time between capturing the email and checking for abandonment
	ReminderDelay time.Duration
	// ActivityWindow: updates later than capture+ActivityWindow mean the shopper is still busy
	ActivityWindow time.Duration
}

type service struct {
	cfg          Config
	attemptStore mystore.Store[CheckoutAttempt]
	orders       OrderQuerier
	products     ProductCatalogue
	emailer      myemail.Emailer
	locker       mylock.Locker
	queue        myqueue.TaskQueuer
	publisher    mypublisher.Publisher
	nower        mytime.Nower
	renderer     emailRenderer
	logger       mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(cfg Config, attemptStore mystore.Store[CheckoutAttempt], orders OrderQuerier, products ProductCatalogue, emailer myemail.Emailer, locker mylock.Locker, queue myqueue.TaskQueuer, publisher mypublisher.Publisher, nower mytime.Nower, logger mylog.Logger) *service {
	return &service{
		cfg:          cfg,
		attemptStore: attemptStore,
		orders:       orders,
		products:     products,
		emailer:      emailer,
		locker:       locker,
		queue:        queue,
		publisher:    publisher,
		nower:        nower,
		renderer:     emailRenderer{storefrontURL: cfg.StorefrontURL},
		logger:       logger,
	}
}

func (s *service) CreateTopics(c context.Context) error {
	err := s.publisher.CreateTopic(c, checkoutattemptevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", checkoutattemptevents.TopicName, err)
	}

	return nil
}

func parseAttempt(body []byte) (CheckoutAttempt, error) {
	attempt := CheckoutAttempt{}
	err := json.Unmarshal(body, &attempt)
	if err != nil {
		return CheckoutAttempt{}, fmt.Errorf("error parsing checkout attempt: %s", err)
	}
	if attempt.GuestSessionID == "" {
		return CheckoutAttempt{}, fmt.Errorf("missing guest_session_id")
	}
	if attempt.Status == "" {
		attempt.Status = StatusInProgress
	}
	if attempt.Cart == nil {
		attempt.Cart = []CartItem{}
	}
	attempt.Payload = string(body)

	return attempt, nil
}

// recordAttempt upserts the snapshot of a checkout and schedules the abandoned-cart reminder when it qualifies
func (s *service) recordAttempt(c context.Context, body []byte) (CheckoutAttempt, error) {
	attempt, err := parseAttempt(body)
	if err != nil {
		return CheckoutAttempt{}, myerrors.NewInvalidInputError(err)
	}

	now := s.nower.Now()
	qualifies := attempt.qualifiesForReminder()
	attempt.Metadata.CartItems = len(attempt.Cart)
	attempt.Metadata.EmailValid = qualifies
	if qualifies {
		// stores keep at most microseconds; the capture time is compared for equality later
		attempt.Metadata.EmailCapturedAt = now.Truncate(time.Millisecond)
	}

	err = s.attemptStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		existing, found, err := s.attemptStore.Get(c, attempt.GuestSessionID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching checkout attempt %s: %s", attempt.GuestSessionID, err))
		}

		attempt.CreatedAt = now
		if found {
			attempt = mergeWithExisting(attempt, existing)
		}
		attempt.UpdatedAt = now

		err = s.attemptStore.Put(c, attempt.GuestSessionID, attempt)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing checkout attempt %s: %s", attempt.GuestSessionID, err))
		}

		return nil
	})
	if err != nil {
		return CheckoutAttempt{}, err
	}

	s.logger.Log(c, attempt.GuestSessionID, mylog.SeverityInfo, "Recorded checkout attempt for session %s (cart-items: %d)", attempt.GuestSessionID, len(attempt.Cart))

	if qualifies {
		s.logger.Log(c, attempt.GuestSessionID, mylog.SeverityInfo, "Email captured for session %s, eligible for abandoned-cart email after %s", attempt.GuestSessionID, s.cfg.ReminderDelay)

		scheduled, err := s.scheduleReminder(c, attempt)
		if err != nil {
			s.logger.Log(c, attempt.GuestSessionID, mylog.SeverityError, "Error scheduling abandoned-cart reminder for session %s: %s", attempt.GuestSessionID, err)
		} else {
			attempt = scheduled
		}
	}

	err = s.publisher.Publish(c, checkoutattemptevents.TopicName, checkoutattemptevents.AttemptRecorded{
		GuestSessionID: attempt.GuestSessionID,
		Email:          attempt.Email,
		CartItems:      len(attempt.Cart),
		Status:         string(attempt.Status),
		ReminderDueAt:  attempt.ReminderDueAt,
	})
	if err != nil {
		s.logger.Log(c, attempt.GuestSessionID, mylog.SeverityWarn, "Error publishing attempt-recorded event for session %s: %s", attempt.GuestSessionID, err)
	}

	return attempt, nil
}

// mergeWithExisting keeps the server-side bookkeeping of the stored attempt
func mergeWithExisting(attempt CheckoutAttempt, existing CheckoutAttempt) CheckoutAttempt {
	attempt.CreatedAt = existing.CreatedAt
	attempt.Metadata.AbandonedCartEmailSent = existing.Metadata.AbandonedCartEmailSent
	attempt.Metadata.AbandonedCartEmailSentAt = existing.Metadata.AbandonedCartEmailSentAt
	if attempt.Metadata.EmailCapturedAt.IsZero() {
		attempt.Metadata.EmailCapturedAt = existing.Metadata.EmailCapturedAt
	}
	attempt.ReminderDueAt = existing.ReminderDueAt
	attempt.ReminderCapturedAt = existing.ReminderCapturedAt
	// an update without valid email or cart withdraws the pending reminder
	attempt.ReminderPending = existing.ReminderPending && attempt.qualifiesForReminder()
	if existing.Status == StatusCompleted {
		attempt.Status = StatusCompleted
	}
	return attempt
}

func reminderTaskUID(guestSessionID string, capturedAt time.Time) string {
	return fmt.Sprintf("abandoned-cart-%s-%d", guestSessionID, capturedAt.UnixMilli())
}

func reminderURLPath(guestSessionID string) string {
	return fmt.Sprintf("/api/checkout/attempt/%s/reminder", url.PathEscape(guestSessionID))
}

// scheduleReminder persists the due time and enqueues the deferred check. The latest capture
// supersedes earlier ones, so at most one check per session acts.
func (s *service) scheduleReminder(c context.Context, attempt CheckoutAttempt) (CheckoutAttempt, error) {
	if attempt.Status == StatusCompleted || attempt.Metadata.AbandonedCartEmailSent {
		return attempt, nil
	}

	completed, err := s.orders.HasCompletedOrder(c, attempt.Email)
	if err != nil {
		return attempt, fmt.Errorf("error checking orders for %s: %s", attempt.Email, err)
	}
	if completed {
		s.logger.Log(c, attempt.GuestSessionID, mylog.SeverityInfo, "Returning customer %s: no abandoned-cart email", attempt.Email)
		return attempt, nil
	}

	capturedAt := attempt.Metadata.EmailCapturedAt
	dueAt := capturedAt.Add(s.cfg.ReminderDelay)

	err = s.attemptStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		current, found, err := s.attemptStore.Get(c, attempt.GuestSessionID)
		if err != nil {
			return fmt.Errorf("error fetching checkout attempt %s: %s", attempt.GuestSessionID, err)
		}
		if !found {
			return fmt.Errorf("checkout attempt %s not found", attempt.GuestSessionID)
		}

		current.ReminderPending = true
		current.ReminderDueAt = dueAt
		current.ReminderCapturedAt = capturedAt

		err = s.attemptStore.Put(c, current.GuestSessionID, current)
		if err != nil {
			return fmt.Errorf("error storing checkout attempt %s: %s", current.GuestSessionID, err)
		}
		attempt = current

		return nil
	})
	if err != nil {
		return attempt, err
	}

	payload, err := json.Marshal(ReminderTask{
		GuestSessionID: attempt.GuestSessionID,
		Email:          attempt.Email,
		CapturedAt:     capturedAt,
	})
	if err != nil {
		return attempt, fmt.Errorf("error serializing reminder task: %s", err)
	}

	err = s.queue.Enqueue(c, myqueue.Task{
		UID:            reminderTaskUID(attempt.GuestSessionID, capturedAt),
		WebhookURLPath: reminderURLPath(attempt.GuestSessionID),
		Payload:        payload,
		ScheduleAt:     dueAt,
	})
	if err != nil {
		// the sweep picks up pending reminders without a task
		return attempt, fmt.Errorf("error enqueueing reminder for session %s: %s", attempt.GuestSessionID, err)
	}

	s.logger.Log(c, attempt.GuestSessionID, mylog.SeverityInfo, "Scheduled abandoned-cart check for session %s at %s", attempt.GuestSessionID, dueAt.Format(time.RFC3339))

	return attempt, nil
}

// processReminder is the deferred abandoned-cart check. It returns true when the email was sent.
func (s *service) processReminder(c context.Context, task ReminderTask) (bool, error) {
	attempt, found, err := s.attemptStore.Get(c, task.GuestSessionID)
	if err != nil {
		return false, fmt.Errorf("error fetching checkout attempt %s: %s", task.GuestSessionID, err)
	}
	if !found {
		return false, myerrors.NewNotFoundError(fmt.Errorf("checkout attempt %s not found", task.GuestSessionID))
	}
	if !attempt.ReminderPending || !attempt.ReminderCapturedAt.Equal(task.CapturedAt) {
		s.logger.Log(c, attempt.GuestSessionID, mylog.SeverityInfo, "Reminder for session %s captured at %s superseded or handled", attempt.GuestSessionID, task.CapturedAt.Format(time.RFC3339Nano))
		return false, nil
	}

	var sent bool
	if !attempt.qualifiesForReminder() || !sameEmail(attempt.Email, task.Email) {
		s.logger.Log(c, attempt.GuestSessionID, mylog.SeverityInfo, "Session %s no longer qualifies for the reminder captured at %s", attempt.GuestSessionID, task.CapturedAt.Format(time.RFC3339Nano))
	} else {
		sent, err = s.sendWhenAbandoned(c, attempt)
	}

	// no retries: every outcome closes this reminder
	closeErr := s.closeReminder(c, attempt.GuestSessionID, task.CapturedAt)
	if closeErr != nil {
		s.logger.Log(c, attempt.GuestSessionID, mylog.SeverityError, "Error closing reminder for session %s: %s", attempt.GuestSessionID, closeErr)
	}

	return sent, err
}

func sameEmail(a string, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (s *service) sendWhenAbandoned(c context.Context, attempt CheckoutAttempt) (bool, error) {
	sessionUID := attempt.GuestSessionID
	capturedAt := attempt.ReminderCapturedAt

	if attempt.Status == StatusCompleted {
		s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Checkout of session %s completed: no abandoned-cart email", sessionUID)
		return false, nil
	}

	ordered, err := s.orders.HasOrderSince(c, attempt.Email, capturedAt)
	if err != nil {
		return false, fmt.Errorf("error checking orders of %s: %s", attempt.Email, err)
	}
	if ordered {
		s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Order created since %s for session %s: no abandoned-cart email", capturedAt.Format(time.RFC3339), sessionUID)
		return false, nil
	}

	if attempt.UpdatedAt.After(capturedAt.Add(s.cfg.ActivityWindow)) {
		s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Session %s still active (updated at %s): no abandoned-cart email", sessionUID, attempt.UpdatedAt.Format(time.RFC3339))
		return false, nil
	}

	if attempt.Metadata.AbandonedCartEmailSent {
		return false, nil
	}

	claimed, err := s.locker.Claim(c, "abandoned-cart/"+sessionUID, reminderClaimTTL)
	if err != nil {
		return false, fmt.Errorf("error claiming reminder of session %s: %s", sessionUID, err)
	}
	if !claimed {
		s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Reminder of session %s claimed elsewhere", sessionUID)
		return false, nil
	}

	now := s.nower.Now()

	email, err := s.composeEmail(c, attempt, now)
	if err != nil {
		return false, err
	}

	messageID, err := s.emailer.Send(c, email)
	if err != nil {
		return false, fmt.Errorf("error sending abandoned-cart email for session %s: %s", sessionUID, err)
	}

	s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Abandoned-cart email sent to %s for session %s (message %s)", attempt.Email, sessionUID, messageID)

	err = s.markReminderSent(c, sessionUID, messageID, now)
	if err != nil {
		return true, err
	}

	return true, nil
}

func (s *service) composeEmail(c context.Context, attempt CheckoutAttempt, now time.Time) (myemail.Email, error) {
	productUIDs := attempt.cartProductIDs()

	cartProducts, err := s.products.GetProducts(c, productUIDs)
	if err != nil {
		return myemail.Email{}, fmt.Errorf("error fetching cart products of session %s: %s", attempt.GuestSessionID, err)
	}

	related, err := s.products.RelatedProducts(c, productUIDs, relatedProductCount)
	if err != nil {
		s.logger.Log(c, attempt.GuestSessionID, mylog.SeverityWarn, "Error fetching related products: %s", err)
		related = nil
	}

	html, err := s.renderer.render(attempt.GuestSessionID, cartProducts, related, now.Year())
	if err != nil {
		return myemail.Email{}, err
	}

	return myemail.Email{
		From:    s.cfg.From,
		To:      myemail.Address{Name: attempt.Contact.Name, Email: attempt.Email},
		Cc:      s.cfg.Cc,
		Subject: abandonedCartSubject,
		HTML:    html,
		Text:    s.renderer.renderText(attempt.GuestSessionID, cartProducts),
	}, nil
}

func (s *service) markReminderSent(c context.Context, sessionUID string, messageID string, sentAt time.Time) error {
	return s.attemptStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		attempt, found, err := s.attemptStore.Get(c, sessionUID)
		if err != nil {
			return fmt.Errorf("error fetching checkout attempt %s: %s", sessionUID, err)
		}
		if !found {
			return fmt.Errorf("checkout attempt %s not found", sessionUID)
		}

		attempt.Metadata.AbandonedCartEmailSent = true
		attempt.Metadata.AbandonedCartEmailSentAt = sentAt
		attempt.ReminderPending = false
		attempt.ReminderDueAt = time.Time{}

		err = s.attemptStore.Put(c, sessionUID, attempt)
		if err != nil {
			return fmt.Errorf("error storing checkout attempt %s: %s", sessionUID, err)
		}

		err = s.publisher.Publish(c, checkoutattemptevents.TopicName, checkoutattemptevents.AbandonedCartEmailSent{
			GuestSessionID: sessionUID,
			Email:          attempt.Email,
			MessageID:      messageID,
			SentAt:         sentAt,
		})
		if err != nil {
			return fmt.Errorf("error publishing event: %s", err)
		}

		return nil
	})
}

func (s *service) closeReminder(c context.Context, sessionUID string, capturedAt time.Time) error {
	return s.attemptStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		attempt, found, err := s.attemptStore.Get(c, sessionUID)
		if err != nil {
			return fmt.Errorf("error fetching checkout attempt %s: %s", sessionUID, err)
		}
		if !found || !attempt.ReminderPending || !attempt.ReminderCapturedAt.Equal(capturedAt) {
			return nil
		}

		attempt.ReminderPending = false
		attempt.ReminderDueAt = time.Time{}

		return s.attemptStore.Put(c, sessionUID, attempt)
	})
}

// sweepReminders runs the deferred check for every pending reminder that is due, it
// recovers reminders of which the task got lost.
func (s *service) sweepReminders(c context.Context) (int, error) {
	now := s.nower.Now()

	pending, err := s.attemptStore.Query(c, []mystore.Filter{
		{Field: "ReminderPending", Compare: "=", Value: true},
	}, "")
	if err != nil {
		return 0, myerrors.NewInternalError(fmt.Errorf("error fetching pending reminders: %s", err))
	}

	processed := 0
	for _, attempt := range pending {
		if attempt.ReminderDueAt.After(now) {
			continue
		}

		_, err := s.processReminder(c, ReminderTask{
			GuestSessionID: attempt.GuestSessionID,
			Email:          attempt.Email,
			CapturedAt:     attempt.ReminderCapturedAt,
		})
		if err != nil {
			s.logger.Log(c, attempt.GuestSessionID, mylog.SeverityError, "Error processing reminder for session %s: %s", attempt.GuestSessionID, err)
		}
		processed++
	}

	return processed, nil
}

// MarkCompleted flags the attempt of a session whose checkout resulted in a completed order
func (s *service) MarkCompleted(c context.Context, sessionUID string) error {
	return s.attemptStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		attempt, found, err := s.attemptStore.Get(c, sessionUID)
		if err != nil {
			return fmt.Errorf("error fetching checkout attempt %s: %s", sessionUID, err)
		}
		if !found || attempt.Status == StatusCompleted {
			return nil
		}

		attempt.Status = StatusCompleted
		attempt.ReminderPending = false
		attempt.ReminderDueAt = time.Time{}

		err = s.attemptStore.Put(c, sessionUID, attempt)
		if err != nil {
			return fmt.Errorf("error storing checkout attempt %s: %s", sessionUID, err)
		}

		s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Checkout attempt of session %s completed", sessionUID)

		return nil
	})
}
