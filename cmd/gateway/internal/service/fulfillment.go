package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ALABELEWE/nigeria-tax-ussd/infra/storage"
)

// Translator is the translation backend as the pipeline sees it. Both
// methods are fail-soft: they return a usable fallback instead of an error.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) string
	Detect(ctx context.Context, text string) string
}

// AnswerClient is the knowledge-retrieval backend.
type AnswerClient interface {
	Query(ctx context.Context, question string) RagQueryResponse
}

// Notifier delivers the final SMS. Fire-and-forget: implementations log
// failures and never report them back.
type Notifier interface {
	SendAsync(phoneNumber, message, language string)
}

// ExchangeLogger records completed question-answer exchanges.
type ExchangeLogger interface {
	Save(entry *storage.QuestionLog) error
}

// Job is the unit of work handed off when a question is accepted. It is a
// copy: the session it came from is deleted before the pipeline runs.
type Job struct {
	SessionID   string
	PhoneNumber string
	Question    string
	Language    string
}

// Pipeline runs translate -> retrieve -> translate -> notify -> audit for
// one question, fully detached from the synchronous callback that started
// it. Nothing here may propagate a failure: every path ends in either an
// answer SMS or an apology SMS, plus exactly one audit record.
type Pipeline struct {
	translator Translator
	answers    AnswerClient
	notifier   Notifier
	audit      ExchangeLogger
	timeout    time.Duration
}

func NewPipeline(translator Translator, answers AnswerClient, notifier Notifier, audit ExchangeLogger, timeout time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Pipeline{
		translator: translator,
		answers:    answers,
		notifier:   notifier,
		audit:      audit,
		timeout:    timeout,
	}
}

// Launch starts the pipeline on its own goroutine and returns immediately.
// The spawned work outlives the callback handler that launched it.
func (p *Pipeline) Launch(job Job) {
	go p.Run(job)
}

// Run executes the pipeline synchronously. Exposed so tests can drive it
// without goroutine coordination; production code goes through Launch.
func (p *Pipeline) Run(job Job) {
	start := time.Now()
	delivered := false
	finalAnswer := ""

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error processing question async - sessionId: %s, phoneNumber: %s: %v",
				job.SessionID, job.PhoneNumber, r)
			if finalAnswer == "" {
				finalAnswer = fmt.Sprintf("Error: %v", r)
			}
			p.sendApology(job)
		}
		p.logExchange(job, finalAnswer, delivered, time.Since(start))
	}()

	log.Printf("Processing question async - sessionId: %s, phoneNumber: %s", job.SessionID, job.PhoneNumber)

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	// Degraded-but-present beats silence: a failed translation leg falls
	// back to the untranslated text instead of aborting.
	question := job.Question
	if job.Language != DefaultLanguage {
		question = p.translator.Translate(ctx, question, job.Language, DefaultLanguage)
	}

	resp := p.answers.Query(ctx, question)
	if !resp.Success {
		log.Printf("RAG query failed for session %s: %s", job.SessionID, resp.Error)
		finalAnswer = "Error: RAG service failed"
		p.sendApology(job)
		return
	}

	answer := resp.Answer
	if job.Language != DefaultLanguage {
		answer = p.translator.Translate(ctx, answer, DefaultLanguage, job.Language)
	}
	finalAnswer = answer

	p.notifier.SendAsync(job.PhoneNumber, p.formatSms(ctx, answer, job.Language), job.Language)
	delivered = true
	log.Printf("Fulfillment complete, SMS dispatched to: %s", job.PhoneNumber)
}

func (p *Pipeline) formatSms(ctx context.Context, answer, languageCode string) string {
	prefix := "Tax Help:"
	if languageCode != DefaultLanguage {
		prefix = p.translator.Translate(ctx, prefix, DefaultLanguage, languageCode)
	}
	return prefix + "\n\n" + answer
}

func (p *Pipeline) sendApology(job Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("failed to send apology SMS to %s: %v", job.PhoneNumber, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	message := "Sorry, we couldn't process your question. Please try again."
	if job.Language != DefaultLanguage {
		message = p.translator.Translate(ctx, message, DefaultLanguage, job.Language)
	}
	p.notifier.SendAsync(job.PhoneNumber, message, job.Language)
}

func (p *Pipeline) logExchange(job Job, finalAnswer string, delivered bool, elapsed time.Duration) {
	if finalAnswer == "" {
		finalAnswer = "No answer generated"
	}
	entry := &storage.QuestionLog{
		SessionID:      job.SessionID,
		PhoneNumber:    job.PhoneNumber,
		Question:       job.Question,
		Answer:         finalAnswer,
		Language:       job.Language,
		SmsDelivered:   delivered,
		ResponseTimeMs: int(elapsed.Milliseconds()),
		Timestamp:      time.Now(),
	}
	if err := p.audit.Save(entry); err != nil {
		log.Printf("failed to log question for session %s: %v", job.SessionID, err)
		return
	}
	log.Printf("Question logged - responseTime: %dms, SMS: %t", entry.ResponseTimeMs, delivered)
}
