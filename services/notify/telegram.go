package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"litterwatch/lib/litter"
	"litterwatch/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
)

const defaultTelegramApi = "https://api.telegram.org"

type TelegramConfig struct {
	BotToken        string `json:"bot_token"`
	SubscribersFile string `json:"subscribers_file"`
	// ApiUrl overrides the bot API endpoint, mainly for tests.
	ApiUrl string `json:"api_url,omitempty"`
}

// Telegram sends each announcement to every subscribed chat. Chats
// that blocked the bot are unsubscribed on the spot.
type Telegram struct {
	client      *resty.Client
	token       string
	subscribers Subscribers
}

func NewTelegram(config TelegramConfig) Telegram {
	apiUrl := config.ApiUrl
	if apiUrl == "" {
		apiUrl = defaultTelegramApi
	}

	client := resty.New()
	client.SetBaseURL(apiUrl)
	client.SetTimeout(time.Second * 30)
	restyutil.InstrumentClient(client, "notify/telegram", nil)

	return Telegram{
		client:      client,
		token:       config.BotToken,
		subscribers: NewSubscribers(config.SubscribersFile),
	}
}

func (t Telegram) NotifyNew(ctx context.Context, l litter.Litter, screenshotPath string) error {
	ctx, span := tracer.Start(ctx, "telegram:NotifyNew")
	defer span.End()

	chatIds := t.subscribers.Load(ctx)
	if len(chatIds) == 0 {
		slog.InfoContext(ctx, "no telegram subscribers to notify")
		return nil
	}

	message := telegramMessage(l)

	sent := 0
	var errlist []error
	for _, chatId := range chatIds {
		err := t.send(ctx, chatId, message, screenshotPath)
		if err == nil {
			sent++
			continue
		}
		if isForbidden(err) {
			// the chat blocked the bot
			slog.WarnContext(ctx, "telegram chat is unreachable, unsubscribing",
				"chat_id", chatId)
			_, removeErr := t.subscribers.Remove(ctx, chatId)
			if removeErr != nil {
				errlist = append(errlist, removeErr)
			}
			continue
		}
		errlist = append(errlist, fmt.Errorf("chat %d: %w", chatId, err))
	}

	span.SetAttributes(attribute.Int("sent", sent))
	slog.DebugContext(ctx, "sent telegram notifications",
		"sent", sent, "subscribers", len(chatIds))
	return errors.Join(errlist...)
}

func (t Telegram) send(ctx context.Context, chatId int64, message, screenshotPath string) error {
	if screenshotPath != "" {
		_, err := os.Stat(screenshotPath)
		if err == nil {
			return t.sendPhoto(ctx, chatId, message, screenshotPath)
		}
	}
	return t.sendMessage(ctx, chatId, message)
}

func (t Telegram) sendMessage(ctx context.Context, chatId int64, text string) error {
	res, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"chat_id":    chatId,
			"text":       text,
			"parse_mode": "Markdown",
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", t.token))
	if err != nil {
		return err
	}
	return checkTelegramResponse(res)
}

func (t Telegram) sendPhoto(ctx context.Context, chatId int64, caption, photoPath string) error {
	res, err := t.client.R().
		SetContext(ctx).
		SetFile("photo", photoPath).
		SetFormData(map[string]string{
			"chat_id":    strconv.FormatInt(chatId, 10),
			"caption":    caption,
			"parse_mode": "Markdown",
		}).
		Post(fmt.Sprintf("/bot%s/sendPhoto", t.token))
	if err != nil {
		return err
	}
	return checkTelegramResponse(res)
}

func telegramMessage(l litter.Litter) string {
	var b strings.Builder
	b.WriteString("🐶 *New litter detected!*\n\n")
	for _, f := range fields(l) {
		fmt.Fprintf(&b, "*%s:* %s\n", f.Label, f.Value)
	}
	return b.String()
}

type telegramError struct {
	StatusCode  int
	Description string
}

func (e telegramError) Error() string {
	return fmt.Sprintf("telegram api: %d %s", e.StatusCode, e.Description)
}

func checkTelegramResponse(res *resty.Response) error {
	if !res.IsError() {
		return nil
	}
	parsed := telegramError{
		StatusCode:  res.StatusCode(),
		Description: res.Status(),
	}
	var body struct {
		Description string `json:"description"`
	}
	err := json.Unmarshal(res.Body(), &body)
	if err == nil && body.Description != "" {
		parsed.Description = body.Description
	}
	return parsed
}

func isForbidden(err error) bool {
	var apiErr telegramError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden
}
