package intent

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/tsawler/prose/v3"
	"github.com/vthunder/cube/internal/logging"
	"github.com/vthunder/cube/internal/types"
)

// DefaultReminderContent is used when a reminder names no content
const DefaultReminderContent = "事项"

var (
	// English reminder: "remind me [<time>] to <content>"
	englishReminder = regexp.MustCompile(`(?i)^\s*remind\s+me\s*(.*?)\s*\bto\b\s+(.+)$`)
	// trailing time phrase in English reminder content: "... tomorrow at 7pm"
	trailingTime = regexp.MustCompile(`(?i)\s+((?:the\s+day\s+after\s+tomorrow|tomorrow|today)?\s*(?:at\s+)?\d{1,2}(?::\d{2})?\s*(?:am|pm)?|tomorrow|the\s+day\s+after\s+tomorrow)\s*$`)
	repeatMarker = regexp.MustCompile(`(?i)每天|\bevery\s*day\b|\bdaily\b`)
	englishFind  = regexp.MustCompile(`(?i)^\s*(where\b|where's\b|find\b|locate\b)`)
)

// stopWords are dropped from English object names
var stopWords = map[string]bool{
	"where": true, "where's": true, "is": true, "are": true, "was": true, "were": true,
	"my": true, "the": true, "a": true, "an": true, "our": true, "your": true,
	"find": true, "locate": true, "did": true, "i": true, "put": true, "leave": true,
	"left": true, "'s": true, "me": true, "please": true,
}

// Parse classifies a command. It never fails: anything unrecognized is Chat.
func Parse(text string) Intent {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return Chat{}
	}

	if strings.Contains(raw, "在哪") || strings.Contains(raw, "哪里") {
		item := raw
		for _, s := range []string{"我的", "在哪", "哪里", "？", "?", "呢"} {
			item = strings.ReplaceAll(item, s, "")
		}
		item = strings.TrimSpace(item)
		if item != "" {
			return Find{Item: item}
		}
		return Chat{Text: raw}
	}

	if strings.Contains(raw, "提醒") {
		timeText, content, _ := strings.Cut(raw, "提醒")
		timeText = strings.TrimSpace(timeText)
		content = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(content), "我"))
		repeat := repeatMarker.MatchString(raw)
		content = strings.TrimSpace(repeatMarker.ReplaceAllString(content, ""))
		if content == "" {
			content = DefaultReminderContent
		}
		return Reminder{TimeText: timeText, Content: content, RepeatDaily: repeat}
	}

	if m := englishReminder.FindStringSubmatch(raw); m != nil {
		return englishReminderIntent(raw, m[1], m[2])
	}

	if strings.Contains(raw, "左脑") {
		return ModeSwitch{Mode: types.ModeFocus}
	}
	lower := strings.ToLower(raw)
	if strings.Contains(raw, "右脑") || strings.Contains(lower, "ambient") {
		return ModeSwitch{Mode: types.ModeAmbient}
	}
	if strings.Contains(lower, "focus mode") || strings.Contains(lower, "switch to focus") {
		return ModeSwitch{Mode: types.ModeFocus}
	}

	if englishFind.MatchString(raw) {
		if item := objectName(raw); item != "" {
			return Find{Item: item}
		}
	}

	return Chat{Text: raw}
}

func englishReminderIntent(raw, timeText, content string) Intent {
	repeat := repeatMarker.MatchString(raw)
	content = strings.TrimSpace(repeatMarker.ReplaceAllString(content, ""))
	timeText = strings.TrimSpace(repeatMarker.ReplaceAllString(timeText, ""))

	if timeText == "" {
		if loc := trailingTime.FindStringSubmatchIndex(content); loc != nil {
			timeText = strings.TrimSpace(content[loc[2]:loc[3]])
			content = strings.TrimSpace(content[:loc[0]])
		}
	}
	content = strings.TrimRight(content, ".!。！ ")
	if content == "" {
		content = DefaultReminderContent
	}
	return Reminder{TimeText: timeText, Content: content, RepeatDaily: repeat}
}

// objectName extracts the object from an English "where is my X" question.
// prose tokenizes (splitting clitics and punctuation); stop words and
// punctuation tokens are dropped and the rest joined.
func objectName(text string) string {
	doc, err := prose.NewDocument(text)
	if err != nil {
		logging.Debug("intent", "prose failed on %q: %v", logging.Truncate(text, 40), err)
		return fallbackObjectName(text)
	}

	var words []string
	for _, tok := range doc.Tokens() {
		word := strings.ToLower(tok.Text)
		if stopWords[word] || !hasLetter(word) {
			continue
		}
		words = append(words, word)
	}
	return strings.Join(words, " ")
}

func fallbackObjectName(text string) string {
	var words []string
	for _, f := range strings.Fields(strings.ToLower(text)) {
		f = strings.TrimFunc(f, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' })
		if f == "" || stopWords[f] {
			continue
		}
		words = append(words, f)
	}
	return strings.Join(words, " ")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
