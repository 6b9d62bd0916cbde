package intent

import (
	"testing"
	"time"

	"github.com/vthunder/cube/internal/types"
)

func TestParseFind(t *testing.T) {
	got, ok := Parse("我的钥匙在哪？").(Find)
	if !ok {
		t.Fatalf("Expected Find intent, got %T", Parse("我的钥匙在哪？"))
	}
	if got.Item != "钥匙" {
		t.Errorf("Expected item 钥匙, got %q", got.Item)
	}
}

func TestParseFindEnglish(t *testing.T) {
	for _, text := range []string{"where are my keys?", "Where's my keys", "find the keys"} {
		got, ok := Parse(text).(Find)
		if !ok {
			t.Errorf("%q: expected Find, got %T", text, Parse(text))
			continue
		}
		if got.Item != "keys" {
			t.Errorf("%q: expected item keys, got %q", text, got.Item)
		}
	}
}

func TestParseReminder(t *testing.T) {
	got, ok := Parse("明天9点提醒带身份证").(Reminder)
	if !ok {
		t.Fatalf("Expected Reminder intent")
	}
	if got.TimeText != "明天9点" {
		t.Errorf("Expected time text 明天9点, got %q", got.TimeText)
	}
	if got.Content != "带身份证" {
		t.Errorf("Expected content 带身份证, got %q", got.Content)
	}
	if got.RepeatDaily {
		t.Error("reminder should not repeat")
	}
}

func TestParseReminderDefaults(t *testing.T) {
	got := Parse("提醒").(Reminder)
	if got.Content != DefaultReminderContent || got.TimeText != "" {
		t.Errorf("unexpected defaults: %+v", got)
	}

	daily := Parse("每天8点提醒我吃药").(Reminder)
	if !daily.RepeatDaily || daily.Content != "吃药" {
		t.Errorf("Expected daily 吃药 reminder, got %+v", daily)
	}
}

func TestParseReminderEnglish(t *testing.T) {
	got, ok := Parse("remind me tomorrow at 7pm to call mom").(Reminder)
	if !ok {
		t.Fatalf("Expected Reminder intent")
	}
	if got.TimeText != "tomorrow at 7pm" || got.Content != "call mom" {
		t.Errorf("unexpected reminder: %+v", got)
	}

	got = Parse("remind me to water the plants at 8 every day").(Reminder)
	if got.TimeText != "at 8" || got.Content != "water the plants" || !got.RepeatDaily {
		t.Errorf("unexpected trailing-time reminder: %+v", got)
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		text string
		want types.Mode
	}{
		{"切换到左脑模式", types.ModeFocus},
		{"切换到右脑模式", types.ModeAmbient},
		{"go ambient", types.ModeAmbient},
		{"switch to focus mode", types.ModeFocus},
	}
	for _, c := range cases {
		text, want := c.text, c.want
		got, ok := Parse(text).(ModeSwitch)
		if !ok {
			t.Errorf("%q: expected ModeSwitch, got %T", text, Parse(text))
			continue
		}
		if got.Mode != want {
			t.Errorf("%q: expected %s, got %s", text, want, got.Mode)
		}
	}
}

func TestParseChat(t *testing.T) {
	if _, ok := Parse("").(Chat); !ok {
		t.Error("empty text should be chat")
	}
	got, ok := Parse("你好").(Chat)
	if !ok || got.Text != "你好" {
		t.Errorf("Expected chat 你好, got %#v", Parse("你好"))
	}
	if Parse("hello there").Kind() != KindChat {
		t.Error("Expected chat kind")
	}
}

var base = time.Date(2026, 5, 4, 10, 0, 0, 0, time.Local)

func TestParseReminderTime(t *testing.T) {
	cases := []struct {
		text string
		want time.Time
	}{
		{"明天9点", time.Date(2026, 5, 5, 9, 0, 0, 0, time.Local)},
		{"后天8点30分", time.Date(2026, 5, 6, 8, 30, 0, 0, time.Local)},
		{"下午3点半", time.Date(2026, 5, 4, 15, 30, 0, 0, time.Local)},
		{"tomorrow at 7pm", time.Date(2026, 5, 5, 19, 0, 0, 0, time.Local)},
		{"18:45", time.Date(2026, 5, 4, 18, 45, 0, 0, time.Local)},
		{"at 11", time.Date(2026, 5, 4, 11, 0, 0, 0, time.Local)},
		{"明天", time.Date(2026, 5, 5, 9, 0, 0, 0, time.Local)},
		// minute without an hour keeps the default hour
		{"明天30分", time.Date(2026, 5, 5, 9, 30, 0, 0, time.Local)},
		// 8:00 already passed today, rolls to tomorrow
		{"8点", time.Date(2026, 5, 5, 8, 0, 0, 0, time.Local)},
		// empty defaults to 09:00, which has passed at 10:00
		{"", time.Date(2026, 5, 5, 9, 0, 0, 0, time.Local)},
	}
	for _, c := range cases {
		got, warn := ParseReminderTime(base, c.text)
		if warn != nil {
			t.Errorf("%q: unexpected warning %v", c.text, warn)
		}
		if !got.Equal(c.want) {
			t.Errorf("%q: expected %v, got %v", c.text, c.want, got)
		}
	}
}

func TestParseReminderTimeExactlyNowRollsForward(t *testing.T) {
	got, _ := ParseReminderTime(base, "10点")
	if !got.After(base) {
		t.Errorf("result %v must be after now %v", got, base)
	}
	if want := base.AddDate(0, 0, 1); !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestParseReminderTimeWarnings(t *testing.T) {
	for _, text := range []string{"whenever", "99点", "25:00"} {
		got, warn := ParseReminderTime(base, text)
		if warn == nil {
			t.Errorf("%q: expected a warning", text)
			continue
		}
		if warn.Input != text {
			t.Errorf("%q: warning carries input %q", text, warn.Input)
		}
		if got.Hour() != DefaultReminderHour || got.Minute() != DefaultReminderMinute {
			t.Errorf("%q: expected default time, got %v", text, got)
		}
		if !got.After(base) {
			t.Errorf("%q: default must still be in the future", text)
		}
	}
}
