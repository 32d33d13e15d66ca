package controllers

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fermmon/internal/analysis"
	"fermmon/internal/dispatch"
	"fermmon/internal/models"
	"fermmon/internal/providers"
	"fermmon/internal/services"
	"fermmon/internal/structures"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const replyTimeout = 10 * time.Second

var errForbidden = errors.New("forbidden")

const helpText = "🆘 <b>Commands</b>\n/start - welcome\n/status - active fermentation and its latest analysis\n/help - this list"

// TelegramReplier sends a message to a chat.
type TelegramReplier interface {
	Configured() bool
	Reply(ctx context.Context, chatID string, text string) error
}

// TelegramController answers bot commands delivered by the Telegram webhook.
type TelegramController struct {
	logger  providers.Logger
	service services.FermentationServiceInterface
	replier TelegramReplier
	secret  string
}

func NewTelegramController(conf *structures.Config, logger providers.Logger, service services.FermentationServiceInterface, replier TelegramReplier) *TelegramController {
	return &TelegramController{
		logger:  logger,
		service: service,
		replier: replier,
		secret:  conf.Telegram.WebhookSecret,
	}
}

type telegramUpdate struct {
	Message struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type webhookResponse struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Webhook replies with 200 once the update is understood, even when the reply
// fails, so Telegram does not redeliver it.
func (tc *TelegramController) Webhook(w http.ResponseWriter, r *http.Request) {
	if !tc.replier.Configured() {
		writeError(w, tc.logger, providers.TypePost, dispatch.ErrTelegramNotConfigured)
		return
	}
	if tc.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(telegramSecretHeader)), []byte(tc.secret)) != 1 {
		writeError(w, tc.logger, providers.TypePost, fmt.Errorf("%w: webhook secret mismatch", errForbidden))
		return
	}

	var update telegramUpdate
	if err := decodeBody(w, r, &update); err != nil {
		writeError(w, tc.logger, providers.TypePost, err)
		return
	}
	text := strings.TrimSpace(update.Message.Text)
	if text == "" || update.Message.Chat.ID == 0 {
		writeJSON(w, http.StatusOK, webhookResponse{Ok: true})
		return
	}

	tc.logger.Infof(providers.TypePost, "Telegram message from chat %d: %q", update.Message.Chat.ID, text)
	reply := tc.answer(text)

	ctx, cancel := context.WithTimeout(r.Context(), replyTimeout)
	defer cancel()
	if err := tc.replier.Reply(ctx, strconv.FormatInt(update.Message.Chat.ID, 10), reply); err != nil {
		tc.logger.Errorf(providers.TypePost, "Telegram reply to chat %d failed: %s", update.Message.Chat.ID, err)
		writeJSON(w, http.StatusOK, webhookResponse{Ok: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, webhookResponse{Ok: true})
}

// command extracts "/status" from "/status@fermmon_bot now".
func command(text string) string {
	word := strings.Fields(text)[0]
	if at := strings.IndexByte(word, '@'); at > 0 {
		word = word[:at]
	}
	return strings.ToLower(word)
}

func (tc *TelegramController) answer(text string) string {
	switch command(text) {
	case "/start":
		return "🍺 <b>Welcome to the fermentation monitor!</b>\n\n" + helpText
	case "/help":
		return helpText
	case "/status":
		return tc.status()
	}
	return "Received: " + html.EscapeString(text) + "\n\nSend /help for the command list."
}

func (tc *TelegramController) status() string {
	f, err := tc.service.ActiveFermentation()
	if errors.Is(err, models.ErrNoActiveFermentation) {
		return "✅ System online. No fermentation is active."
	}
	if err != nil {
		tc.logger.Errorf(providers.TypePost, "Status lookup failed: %s", err)
		return "⚠️ System online, but the active fermentation could not be loaded."
	}

	res, err := tc.service.Analyze(f.ID)
	if err != nil {
		tc.logger.Errorf(providers.TypeAnalysis, "Status analysis of fermentation %d failed: %s", f.ID, err)
		return fmt.Sprintf("✅ System online.\n\n📊 <b>%s</b> (%s)\n⚠️ Analysis failed.", html.EscapeString(f.BatchName), f.Status)
	}
	return statusText(f, res)
}

func statusText(f *models.Fermentation, res analysis.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ System online.\n\n📊 <b>%s</b> (%s)\n", html.EscapeString(f.BatchName), f.Status)

	if res.Status != analysis.ResultAnalyzed {
		fmt.Fprintf(&b, "Not enough readings for an analysis yet (%d in the window).", res.ReadingsCount)
		return b.String()
	}

	fmt.Fprintf(&b, "⚖️ Gravity: %.4f (target %.4f)\n", res.CurrentGravity, f.FGTarget)
	fmt.Fprintf(&b, "🌡️ Temperature: %.1f°C\n", res.CurrentTemperature)
	fmt.Fprintf(&b, "📈 Attenuation: %.1f%%\n", res.CurrentAttenuationPercent)
	fmt.Fprintf(&b, "🔢 Readings analysed: %d\n", res.ReadingsCount)

	if len(res.Events) == 0 {
		b.WriteString("🔔 Alerts: none")
		return b.String()
	}
	kinds := make([]string, 0, len(res.Events))
	for _, e := range res.Events {
		kinds = append(kinds, string(e.Kind()))
	}
	b.WriteString("🔔 Alerts: " + strings.Join(kinds, ", "))
	return b.String()
}
