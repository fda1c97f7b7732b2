// Package notify sends SMS alerts for breaking news.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/youzarsiph/the-certain-news/internal/models"
)

const (
	maxBody     = 160
	concurrency = 4
)

// Sender delivers one text message.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// TwilioSender sends messages through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from}
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	return nil
}

// Hook texts breaking articles to every user with a phone number and SMS
// alerts enabled.
type Hook struct {
	db      *gorm.DB
	sender  Sender
	siteURL string
	log     *zap.Logger
}

func NewHook(db *gorm.DB, sender Sender, siteURL string, log *zap.Logger) *Hook {
	return &Hook{db: db, sender: sender, siteURL: strings.TrimRight(siteURL, "/"), log: log.Named("notify")}
}

func (h *Hook) Name() string { return "sms" }

// Message is the text sent for an article.
func (h *Hook) Message(article *models.Article) string {
	link := h.siteURL + article.ShortURL()
	title := article.Title
	// keep the link intact, shorten the title
	if room := maxBody - len("Breaking: ") - len(link) - 1; len(title) > room && room > 3 {
		title = truncate(title, room-3) + "..."
	}
	return fmt.Sprintf("Breaking: %s %s", title, link)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (h *Hook) ArticlePublished(ctx context.Context, article *models.Article) error {
	if !article.IsBreaking {
		return nil
	}

	var phones []string
	err := h.db.WithContext(ctx).Model(&models.User{}).
		Where("sms_alerts = ? AND phone <> ''", true).
		Pluck("phone", &phones).Error
	if err != nil {
		return fmt.Errorf("load subscribers: %w", err)
	}
	if len(phones) == 0 {
		return nil
	}

	body := h.Message(article)
	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, phone := range phones {
		g.Go(func() error {
			if err := h.sender.Send(gctx, phone, body); err != nil {
				failed.Add(1)
				h.log.Warn("SMS alert failed", zap.Int("article_id", article.ID), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	h.log.Info("SMS alerts sent",
		zap.Int("article_id", article.ID),
		zap.Int("recipients", len(phones)),
		zap.Int64("failed", failed.Load()),
	)
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d sms alerts failed", n, len(phones))
	}
	return nil
}
