package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLanguages_ByOption(t *testing.T) {
	langs := NewLanguages()

	lang, ok := langs.ByOption("2")
	require.True(t, ok)
	require.Equal(t, "yo", lang.Code)
	require.Equal(t, "Yoruba", lang.Name)

	_, ok = langs.ByOption("7")
	require.False(t, ok)
	_, ok = langs.ByOption("")
	require.False(t, ok)
}

func TestLanguages_MenuLinesOrdered(t *testing.T) {
	lines := NewLanguages().MenuLines()
	require.Equal(t, []string{
		"1. English",
		"2. Yoruba",
		"3. Igbo",
		"4. Hausa",
	}, lines)
}

func TestQuestionPrompt_FallsBackToEnglish(t *testing.T) {
	require.Contains(t, QuestionPrompt("ig"), "Tinye")
	require.Equal(t, QuestionPrompt("en"), QuestionPrompt("fr"))
	require.Equal(t, QuestionPrompt("en"), QuestionPrompt(""))
}

func TestConfirmationMessage_FallsBackToEnglish(t *testing.T) {
	require.Contains(t, ConfirmationMessage("ha"), "Na gode")
	require.Equal(t, ConfirmationMessage("en"), ConfirmationMessage("xx"))
}
