package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ALABELEWE/nigeria-tax-ussd/infra/storage"
)

// taggingTranslator marks translated text so tests can see which legs ran.
type taggingTranslator struct {
	calls int
}

func (f *taggingTranslator) Translate(_ context.Context, text, sourceLang, targetLang string) string {
	f.calls++
	return "[" + sourceLang + ">" + targetLang + "]" + text
}

func (f *taggingTranslator) Detect(context.Context, string) string { return "en" }

// brokenTranslator behaves like the real client when the API is down: it
// hands back the input untouched.
type brokenTranslator struct{}

func (brokenTranslator) Translate(_ context.Context, text, _, _ string) string { return text }
func (brokenTranslator) Detect(context.Context, string) string                 { return "en" }

type stubAnswers struct {
	resp     RagQueryResponse
	panicMsg string
	question string
}

func (s *stubAnswers) Query(_ context.Context, question string) RagQueryResponse {
	s.question = question
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.resp
}

type recordingNotifier struct {
	messages []string
	numbers  []string
}

func (n *recordingNotifier) SendAsync(phoneNumber, message, _ string) {
	n.numbers = append(n.numbers, phoneNumber)
	n.messages = append(n.messages, message)
}

type recordingAudit struct {
	entries []*storage.QuestionLog
	err     error
}

func (a *recordingAudit) Save(entry *storage.QuestionLog) error {
	a.entries = append(a.entries, entry)
	return a.err
}

func newTestPipeline(tr Translator, answers AnswerClient) (*Pipeline, *recordingNotifier, *recordingAudit) {
	notifier := &recordingNotifier{}
	audit := &recordingAudit{}
	return NewPipeline(tr, answers, notifier, audit, time.Minute), notifier, audit
}

func vatJob(language string) Job {
	return Job{
		SessionID:   "S1",
		PhoneNumber: "+2348000000001",
		Question:    "What is VAT rate?",
		Language:    language,
	}
}

func TestPipeline_SuccessEnglish(t *testing.T) {
	tr := &taggingTranslator{}
	answers := &stubAnswers{resp: RagQueryResponse{Answer: "VAT is 7.5%", Success: true}}
	p, notifier, audit := newTestPipeline(tr, answers)

	p.Run(vatJob("en"))

	// English needs no translation on either leg.
	require.Zero(t, tr.calls)
	require.Equal(t, "What is VAT rate?", answers.question)

	require.Equal(t, []string{"+2348000000001"}, notifier.numbers)
	require.Equal(t, "Tax Help:\n\nVAT is 7.5%", notifier.messages[0])

	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	require.True(t, entry.SmsDelivered)
	require.Equal(t, "VAT is 7.5%", entry.Answer)
	require.Equal(t, "What is VAT rate?", entry.Question)
	require.Equal(t, "en", entry.Language)
}

func TestPipeline_SuccessTranslatesBothLegs(t *testing.T) {
	tr := &taggingTranslator{}
	answers := &stubAnswers{resp: RagQueryResponse{Answer: "VAT is 7.5%", Success: true}}
	p, notifier, audit := newTestPipeline(tr, answers)

	p.Run(vatJob("yo"))

	require.Equal(t, "[yo>en]What is VAT rate?", answers.question)
	require.Equal(t, "[en>yo]Tax Help:\n\n[en>yo]VAT is 7.5%", notifier.messages[0])
	require.Len(t, audit.entries, 1)
	require.Equal(t, "[en>yo]VAT is 7.5%", audit.entries[0].Answer)
	// The audit keeps the question as the caller typed it.
	require.Equal(t, "What is VAT rate?", audit.entries[0].Question)
}

func TestPipeline_TranslationFailureDegradesGracefully(t *testing.T) {
	answers := &stubAnswers{resp: RagQueryResponse{Answer: "VAT is 7.5%", Success: true}}
	p, notifier, audit := newTestPipeline(brokenTranslator{}, answers)

	p.Run(vatJob("ha"))

	// Untranslated text still flows end to end.
	require.Equal(t, "What is VAT rate?", answers.question)
	require.Len(t, notifier.messages, 1)
	require.Contains(t, notifier.messages[0], "VAT is 7.5%")
	require.Len(t, audit.entries, 1)
	require.True(t, audit.entries[0].SmsDelivered)
}

func TestPipeline_RetrievalFailure(t *testing.T) {
	answers := &stubAnswers{resp: RagQueryResponse{Success: false, Error: "no documents"}}
	p, notifier, audit := newTestPipeline(brokenTranslator{}, answers)

	p.Run(vatJob("en"))

	// Exactly one apology and exactly one failure record.
	require.Len(t, notifier.messages, 1)
	require.Contains(t, notifier.messages[0], "Sorry")
	require.Len(t, audit.entries, 1)
	require.False(t, audit.entries[0].SmsDelivered)
	require.Equal(t, "Error: RAG service failed", audit.entries[0].Answer)
}

func TestPipeline_PanicIsContained(t *testing.T) {
	answers := &stubAnswers{panicMsg: "retrieval exploded"}
	p, notifier, audit := newTestPipeline(brokenTranslator{}, answers)

	require.NotPanics(t, func() {
		p.Run(vatJob("en"))
	})

	require.Len(t, notifier.messages, 1)
	require.Contains(t, notifier.messages[0], "Sorry")
	require.Len(t, audit.entries, 1)
	require.False(t, audit.entries[0].SmsDelivered)
	require.Contains(t, audit.entries[0].Answer, "retrieval exploded")
}

func TestPipeline_AuditFailureIsSwallowed(t *testing.T) {
	answers := &stubAnswers{resp: RagQueryResponse{Answer: "VAT is 7.5%", Success: true}}
	notifier := &recordingNotifier{}
	audit := &recordingAudit{err: errors.New("postgres down")}
	p := NewPipeline(brokenTranslator{}, answers, notifier, audit, time.Minute)

	require.NotPanics(t, func() {
		p.Run(vatJob("en"))
	})
	require.Len(t, notifier.messages, 1)
}

func TestPipeline_RecordsElapsedTime(t *testing.T) {
	answers := &stubAnswers{resp: RagQueryResponse{Answer: "ok", Success: true}}
	p, _, audit := newTestPipeline(brokenTranslator{}, answers)

	p.Run(vatJob("en"))

	require.Len(t, audit.entries, 1)
	require.GreaterOrEqual(t, audit.entries[0].ResponseTimeMs, 0)
	require.WithinDuration(t, time.Now(), audit.entries[0].Timestamp, 5*time.Second)
}
