package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ALABELEWE/nigeria-tax-ussd/cmd/gateway/internal/service"
	"github.com/ALABELEWE/nigeria-tax-ussd/cmd/gateway/internal/store/models"
)

// SessionStore is what the handler needs from session persistence.
type SessionStore interface {
	GetOrCreate(ctx context.Context, sessionID, phoneNumber string) *models.Session
	SetLanguage(ctx context.Context, sessionID, languageCode string)
	Delete(ctx context.Context, sessionID string)
}

// RateLimiter gates question submissions per caller.
type RateLimiter interface {
	AllowRequest(phoneNumber string) bool
	Remaining(phoneNumber string) int
	DailyCeiling() int
}

// PipelineLauncher detaches question fulfillment from the callback.
type PipelineLauncher interface {
	Launch(job service.Job)
}

// UssdHandler drives one USSD conversation across stateless callbacks.
// Every reply is plain text prefixed with CON (prompt again) or END
// (terminate); the telephony platform accepts nothing else, so the handler
// must always produce one, whatever goes wrong underneath.
type UssdHandler struct {
	sessions  SessionStore
	limiter   RateLimiter
	pipeline  PipelineLauncher
	languages *service.Languages
}

func NewUssdHandler(sessions SessionStore, limiter RateLimiter, pipeline PipelineLauncher, languages *service.Languages) *UssdHandler {
	return &UssdHandler{
		sessions:  sessions,
		limiter:   limiter,
		pipeline:  pipeline,
		languages: languages,
	}
}

func (h *UssdHandler) HandleCallback(c *gin.Context) {
	sessionID := param(c, "sessionId")
	phoneNumber := param(c, "phoneNumber")
	text := param(c, "text")

	log.Printf("USSD request - sessionId: %s, phoneNumber: %s, text: '%s'", sessionID, phoneNumber, text)

	reply := h.reply(c.Request.Context(), sessionID, phoneNumber, text)

	log.Printf("USSD response: %s", truncate(reply, 60))
	c.String(http.StatusOK, reply)
}

// reply maps one callback onto the conversation state machine. Any fault
// below this point collapses into a single generic END reply.
func (h *UssdHandler) reply(ctx context.Context, sessionID, phoneNumber, text string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("USSD error - sessionId: %s: %v", sessionID, r)
			out = "END Service error. Please try again later."
		}
	}()

	// Rate limit only actual input, not the first menu-building callback.
	if text != "" && !h.limiter.AllowRequest(phoneNumber) {
		if h.limiter.Remaining(phoneNumber) == 0 {
			return fmt.Sprintf("END You have reached your daily limit of %d questions. Please try again tomorrow.",
				h.limiter.DailyCeiling())
		}
		return "END You are sending questions too quickly. Please wait a few minutes and try again."
	}

	session := h.sessions.GetOrCreate(ctx, sessionID, phoneNumber)

	switch {
	case text == "":
		return h.languageMenu()
	case session.Language == "":
		return h.handleLanguageSelection(ctx, session, lastSegment(text))
	default:
		return h.handleQuestionSubmission(ctx, session, text)
	}
}

func (h *UssdHandler) languageMenu() string {
	var menu strings.Builder
	menu.WriteString("CON Welcome to Nigeria Tax Help\n")
	menu.WriteString("Select your language:\n\n")
	for _, line := range h.languages.MenuLines() {
		menu.WriteString(line)
		menu.WriteString("\n")
	}
	return strings.TrimSpace(menu.String())
}

func (h *UssdHandler) handleLanguageSelection(ctx context.Context, session *models.Session, option string) string {
	lang, ok := h.languages.ByOption(option)
	if !ok {
		return "END Invalid selection. Please dial again"
	}

	h.sessions.SetLanguage(ctx, session.SessionID, lang.Code)
	log.Printf("Language selection - sessionId: %s, language: %s (%s)", session.SessionID, lang.Name, lang.Code)

	return "CON " + service.QuestionPrompt(lang.Code)
}

func (h *UssdHandler) handleQuestionSubmission(ctx context.Context, session *models.Session, text string) string {
	question := strings.TrimSpace(lastSegment(text))
	if question == "" {
		return "END Invalid question. Please dial again."
	}

	log.Printf("Question received - sessionId: %s, language: %s, question: %s",
		session.SessionID, session.Language, question)

	// Launch first, then delete: both must happen before the reply goes
	// out, and neither waits on the pipeline.
	h.pipeline.Launch(service.Job{
		SessionID:   session.SessionID,
		PhoneNumber: session.PhoneNumber,
		Question:    question,
		Language:    session.Language,
	})
	h.sessions.Delete(ctx, session.SessionID)

	return "END " + service.ConfirmationMessage(session.Language)
}

// lastSegment returns the newest input: the USSD transport accumulates all
// prior inputs joined with '*'.
func lastSegment(text string) string {
	parts := strings.Split(text, "*")
	return parts[len(parts)-1]
}

func param(c *gin.Context, name string) string {
	if v := c.PostForm(name); v != "" {
		return v
	}
	return c.Query(name)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
