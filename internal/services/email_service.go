package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/justsurfingit/jobflow/internal/models"
)

// MailMessage is one email as seen by the status sync.
type MailMessage struct {
	ID       string
	Subject  string
	From     string
	Body     string
	Received time.Time
}

// MailSource lists new emails. A zero cursor asks for a bootstrap scan; the
// returned cursor is passed to the next call.
type MailSource interface {
	Fetch(ctx context.Context, cursor uint64) ([]MailMessage, uint64, error)
}

const bootstrapQuery = "subject:(application OR interview OR update OR offer OR rejected OR status) newer_than:7d"

// GmailSource reads the mailbox of the authorized Gmail account.
type GmailSource struct {
	client *gmail.Service
	log    *zap.Logger
}

func NewGmailSource(client *gmail.Service, log *zap.Logger) *GmailSource {
	return &GmailSource{client: client, log: log}
}

func (g *GmailSource) Fetch(ctx context.Context, cursor uint64) ([]MailMessage, uint64, error) {
	if cursor == 0 {
		return g.fullSync(ctx)
	}
	msgs, next, err := g.incrementalSync(ctx, cursor)
	if err != nil && isHistoryExpiredError(err) {
		g.log.Warn("gmail history id expired, running full sync", zap.Uint64("history_id", cursor))
		return g.fullSync(ctx)
	}
	return msgs, next, err
}

// fullSync scans the last 7 days and anchors on the mailbox's current history id.
func (g *GmailSource) fullSync(ctx context.Context) ([]MailMessage, uint64, error) {
	var resp *gmail.ListMessagesResponse
	err := retry(ctx, g.log, 3, time.Second, func() error {
		var e error
		resp, e = g.client.Users.Messages.List("me").Q(bootstrapQuery).MaxResults(50).Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}

	profile, err := g.client.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, 0, fmt.Errorf("get gmail profile: %w", err)
	}
	return g.expand(ctx, resp.Messages), profile.HistoryId, nil
}

// incrementalSync asks only for messages added since startID.
func (g *GmailSource) incrementalSync(ctx context.Context, startID uint64) ([]MailMessage, uint64, error) {
	var resp *gmail.ListHistoryResponse
	err := retry(ctx, g.log, 3, time.Second, func() error {
		var e error
		resp, e = g.client.Users.History.List("me").
			StartHistoryId(startID).
			HistoryTypes("messageAdded").
			Context(ctx).
			Do()
		return e
	})
	if err != nil {
		return nil, 0, err
	}

	var added []*gmail.Message
	for _, h := range resp.History {
		for _, m := range h.MessagesAdded {
			if m.Message != nil {
				added = append(added, m.Message)
			}
		}
	}
	return g.expand(ctx, added), resp.HistoryId, nil
}

// expand fetches full messages. Messages that still fail after retries are
// left out.
func (g *GmailSource) expand(ctx context.Context, refs []*gmail.Message) []MailMessage {
	var out []MailMessage
	for _, ref := range refs {
		var msg *gmail.Message
		err := retry(ctx, g.log, 2, 500*time.Millisecond, func() error {
			var e error
			msg, e = g.client.Users.Messages.Get("me", ref.Id).Context(ctx).Do()
			return e
		})
		if err != nil {
			g.log.Warn("fetch gmail message", zap.String("message_id", ref.Id), zap.Error(err))
			continue
		}
		headers := parseHeaders(msg)
		out = append(out, MailMessage{
			ID:       msg.Id,
			Subject:  headers["Subject"],
			From:     headers["From"],
			Body:     getEmailBody(msg),
			Received: time.UnixMilli(msg.InternalDate),
		})
	}
	return out
}

// retry runs f up to attempts times, doubling the pause between tries. An
// expired history id is returned at once.
func retry(ctx context.Context, log *zap.Logger, attempts int, sleep time.Duration, f func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if isHistoryExpiredError(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		log.Warn("gmail api error, retrying", zap.Duration("backoff", sleep), zap.Error(err))
		t := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		sleep *= 2
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}

func isHistoryExpiredError(err error) bool {
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && gErr.Code == http.StatusNotFound
}

func parseHeaders(msg *gmail.Message) map[string]string {
	res := make(map[string]string)
	if msg.Payload == nil {
		return res
	}
	for _, h := range msg.Payload.Headers {
		res[h.Name] = h.Value
	}
	return res
}

func decodePart(data string) string {
	d, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// gmail sometimes drops the padding
		d, _ = base64.RawURLEncoding.DecodeString(data)
	}
	return string(d)
}

// getEmailBody prefers the top-level body, then a text/plain part, then text/html.
func getEmailBody(msg *gmail.Message) string {
	if msg.Payload == nil {
		return ""
	}
	if msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
		return decodePart(msg.Payload.Body.Data)
	}
	for _, mime := range []string{"text/plain", "text/html"} {
		for _, part := range msg.Payload.Parts {
			if part.MimeType == mime && part.Body != nil && part.Body.Data != "" {
				return decodePart(part.Body.Data)
			}
		}
	}
	return ""
}

// EmailService moves applications along when recruiter emails arrive.
// Processed message ids and the mailbox cursor live in memory, so a restart
// begins with a fresh bootstrap scan.
type EmailService struct {
	source       MailSource
	analytics    *AnalyticsService
	applications *ApplicationService
	llm          *LLMService
	log          *zap.Logger

	mu        sync.Mutex
	cursor    uint64
	processed map[string]struct{}
}

func NewEmailService(source MailSource, analytics *AnalyticsService, applications *ApplicationService, llm *LLMService, log *zap.Logger) *EmailService {
	return &EmailService{
		source:       source,
		analytics:    analytics,
		applications: applications,
		llm:          llm,
		log:          log,
		processed:    make(map[string]struct{}),
	}
}

// Run syncs once right away and then every interval until ctx is done.
// resolveUser names the user whose applications are matched.
func (s *EmailService) Run(ctx context.Context, interval time.Duration, resolveUser func(context.Context) (string, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		s.cycle(ctx, resolveUser)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *EmailService) cycle(ctx context.Context, resolveUser func(context.Context) (string, error)) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	userID, err := resolveUser(ctx)
	if err != nil {
		s.log.Warn("email sync skipped, no user", zap.Error(err))
		return
	}
	n, err := s.Sync(ctx, userID)
	if err != nil {
		s.log.Error("email sync failed", zap.Error(err))
		return
	}
	s.log.Info("email sync finished", zap.Int("status_updates", n))
}

// Sync processes emails that arrived since the last call and returns how many
// applications changed status.
func (s *EmailService) Sync(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, next, err := s.source.Fetch(ctx, s.cursor)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, msg := range msgs {
		if _, done := s.processed[msg.ID]; done {
			continue
		}
		ok, err := s.process(ctx, userID, msg)
		if err != nil {
			// leave it unmarked so the next cycle tries again
			s.log.Error("process email", zap.String("message_id", msg.ID), zap.Error(err))
			continue
		}
		if ok {
			updated++
		}
		s.processed[msg.ID] = struct{}{}
	}
	if next > s.cursor {
		s.cursor = next
	}
	return updated, nil
}

func (s *EmailService) process(ctx context.Context, userID string, msg MailMessage) (bool, error) {
	log := s.log.With(zap.String("message_id", msg.ID), zap.String("subject", truncate(msg.Subject, 40)))

	apps, err := s.analytics.Applications(ctx, userID)
	if err != nil {
		return false, err
	}
	candidates := MatchEmail(msg.Subject, msg.From, apps)
	if len(candidates) == 0 {
		log.Debug("email skipped, no matching application", zap.String("from", msg.From))
		return false, nil
	}

	target := candidates[0]
	if len(candidates) > 1 {
		titles := make([]string, len(candidates))
		for i, c := range candidates {
			titles[i] = c.Job.Title
		}
		idx := s.llm.IdentifyJobRole(ctx, titles, msg.Subject, msg.Body)
		if idx < 0 {
			log.Info("email skipped, ambiguous role", zap.Strings("titles", titles))
			return false, nil
		}
		target = candidates[idx]
	}

	analysis := s.classify(ctx, target.Job.Company, msg)
	if analysis.Status == "" || analysis.Status == target.Status {
		log.Debug("email changes nothing", zap.String("application_id", target.ID))
		return false, nil
	}

	at := msg.Received
	if at.IsZero() {
		at = s.analytics.clock.Now()
	}
	if _, err := s.applications.ApplyEmailUpdate(ctx, target.ID, analysis.Status, analysis.Summary, at); err != nil {
		return false, err
	}
	log.Info("application status updated from email",
		zap.String("application_id", target.ID),
		zap.String("from_status", string(target.Status)),
		zap.String("to_status", string(analysis.Status)),
	)
	return true, nil
}

func (s *EmailService) classify(ctx context.Context, company string, msg MailMessage) EmailAnalysis {
	if s.llm.Enabled() {
		a, err := s.llm.AnalyzeEmailStatus(ctx, company, msg.Subject, msg.Body)
		if err == nil {
			return a
		}
		s.log.Warn("llm email analysis failed, using keyword rules", zap.Error(err))
	}
	return classifyByKeywords(msg.Subject, msg.Body)
}

var keywordRules = []struct {
	status  models.ApplicationStatus
	phrases []string
}{
	{models.StatusOffered, []string{"pleased to offer", "offer letter", "job offer", "extend an offer"}},
	{models.StatusRejected, []string{"unfortunately", "not moving forward", "regret to inform", "other candidates", "not be proceeding"}},
	{models.StatusInterview, []string{"interview", "phone screen", "schedule a call", "availability for a call"}},
	{models.StatusUnderReview, []string{"received your application", "under review", "reviewing your application", "thank you for applying"}},
}

// classifyByKeywords is the fallback classifier. Rules are checked in order,
// so an offer mentioning an interview still counts as an offer.
func classifyByKeywords(subject, body string) EmailAnalysis {
	text := strings.ToLower(subject + "\n" + body)
	for _, r := range keywordRules {
		for _, p := range r.phrases {
			if strings.Contains(text, p) {
				return EmailAnalysis{Status: r.status, Summary: subject}
			}
		}
	}
	return EmailAnalysis{}
}
