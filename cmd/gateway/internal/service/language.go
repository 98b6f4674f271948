package service

import "sort"

// Language is one entry of the USSD menu.
type Language struct {
	Code    string
	Name    string
	Welcome string
}

// Languages maps menu options to the supported languages. Prompts and
// confirmations are pre-translated so the synchronous reply path never
// waits on the translation API.
type Languages struct {
	byOption map[string]Language
}

const DefaultLanguage = "en"

func NewLanguages() *Languages {
	return &Languages{
		byOption: map[string]Language{
			"1": {Code: "en", Name: "English", Welcome: "Welcome to Nigeria Tax Help"},
			"2": {Code: "yo", Name: "Yoruba", Welcome: "Ẹ káàbọ̀ sí Ìrànwọ́ Owó-Orí Nàìjíríà"},
			"3": {Code: "ig", Name: "Igbo", Welcome: "Nnọọ na Enyemaka Ụtụ Naịjirịa"},
			"4": {Code: "ha", Name: "Hausa", Welcome: "Barka da zuwa Taimakon Haraji ta Najeriya"},
		},
	}
}

// ByOption resolves a menu selection, second value false for an invalid one.
func (l *Languages) ByOption(option string) (Language, bool) {
	lang, ok := l.byOption[option]
	return lang, ok
}

// MenuLines returns "1. English" style lines in option order.
func (l *Languages) MenuLines() []string {
	options := make([]string, 0, len(l.byOption))
	for option := range l.byOption {
		options = append(options, option)
	}
	sort.Strings(options)

	lines := make([]string, 0, len(options))
	for _, option := range options {
		lines = append(lines, option+". "+l.byOption[option].Name)
	}
	return lines
}

var questionPrompts = map[string]string{
	"en": "Enter your tax question:\n\nExample: What is VAT rate?",
	"yo": "Tẹ ìbéèrè owó-orí rẹ sílẹ̀:\n\nÀpẹẹrẹ: Kí ni oṣùwọ̀n VAT?",
	"ig": "Tinye ajụjụ ụtụ isi gị:\n\nỌmụmaatụ: Gịnị bụ ọnụego VAT?",
	"ha": "Shigar da tambayar harajin ku:\n\nMisali: Menene ƙimar VAT?",
}

var confirmationMessages = map[string]string{
	"en": "Thank you! Processing your question. Answer will be sent via SMS shortly.",
	"yo": "Ẹ ṣeun! Ń ṣiṣẹ́ lórí ìbéèrè rẹ. A ó fi ìdáhùn ránṣẹ́ nípasẹ̀ SMS láìpẹ́.",
	"ig": "Daalụ! Na-edozi ajụjụ gị. A ga-eziga azịza site na SMS n'oge na-adịghị anya.",
	"ha": "Na gode! Ana aiki akan tambayar ku. Za a aika amsa ta SMS nan ba da jimawa ba.",
}

// QuestionPrompt returns the pre-translated question prompt, falling back
// to English for unknown codes.
func QuestionPrompt(languageCode string) string {
	if p, ok := questionPrompts[languageCode]; ok {
		return p
	}
	return questionPrompts[DefaultLanguage]
}

// ConfirmationMessage returns the pre-translated submission confirmation.
func ConfirmationMessage(languageCode string) string {
	if m, ok := confirmationMessages[languageCode]; ok {
		return m
	}
	return confirmationMessages[DefaultLanguage]
}
