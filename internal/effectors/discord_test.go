package effectors

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
)

type fakeSession struct {
	sent      []string
	reactions []string
	errs      []error // returned in order, then nil
}

func (f *fakeSession) nextErr() error {
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeSession) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	f.sent = append(f.sent, channelID+":"+content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeSession) MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error {
	if err := f.nextErr(); err != nil {
		return err
	}
	f.reactions = append(f.reactions, messageID+":"+emojiID)
	return nil
}

func newTestEffector(s *fakeSession) *DiscordEffector {
	return &DiscordEffector{
		getSession:  func() messageSender { return s },
		maxAttempts: DefaultMaxAttempts,
	}
}

// newTestEffectorNoSession creates a DiscordEffector with no session
func newTestEffectorNoSession() *DiscordEffector {
	return &DiscordEffector{
		getSession:  func() messageSender { return nil },
		maxAttempts: 2,
	}
}

// --- isNonRetryableError ---

func TestIsNonRetryableError_GenericError(t *testing.T) {
	if isNonRetryableError(errors.New("network timeout")) {
		t.Error("generic error should be retryable")
	}
}

func TestIsNonRetryableError_4xxStatus(t *testing.T) {
	for _, code := range []int{400, 401, 403, 404, 429} {
		err := &discordgo.RESTError{
			Response: &http.Response{StatusCode: code},
		}
		if !isNonRetryableError(err) {
			t.Errorf("HTTP %d should be non-retryable", code)
		}
	}
}

func TestIsNonRetryableError_5xxStatus(t *testing.T) {
	for _, code := range []int{500, 502, 503} {
		err := &discordgo.RESTError{
			Response: &http.Response{StatusCode: code},
		}
		if isNonRetryableError(err) {
			t.Errorf("HTTP %d should be retryable (server error)", code)
		}
	}
}

func TestIsNonRetryableError_NilResponse(t *testing.T) {
	err := &discordgo.RESTError{Response: nil}
	if isNonRetryableError(err) {
		t.Error("RESTError with nil response should be retryable")
	}
}

// --- Reply / React ---

func TestReply(t *testing.T) {
	s := &fakeSession{}
	e := newTestEffector(s)
	if err := e.Reply("chan-1", "钥匙 在 桌面右侧。"); err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if len(s.sent) != 1 || s.sent[0] != "chan-1:钥匙 在 桌面右侧。" {
		t.Errorf("unexpected sends: %v", s.sent)
	}
}

func TestReplySplitsLongMessages(t *testing.T) {
	s := &fakeSession{}
	e := newTestEffector(s)
	long := strings.Repeat("提", discordMessageLimit+10)
	if err := e.Reply("c", long); err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if len(s.sent) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(s.sent))
	}
}

func TestReplyRetriesServerErrors(t *testing.T) {
	s := &fakeSession{errs: []error{
		&discordgo.RESTError{Response: &http.Response{StatusCode: 502}},
	}}
	e := newTestEffector(s)
	if err := e.Reply("c", "hi"); err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if len(s.sent) != 1 {
		t.Errorf("Expected one successful send, got %d", len(s.sent))
	}
}

func TestReplyStopsOnClientError(t *testing.T) {
	forbidden := &discordgo.RESTError{Response: &http.Response{StatusCode: 403}}
	s := &fakeSession{errs: []error{forbidden, nil}}
	e := newTestEffector(s)
	err := e.Reply("c", "hi")
	if !errors.Is(err, forbidden) {
		t.Errorf("Expected the 403 error, got %v", err)
	}
	if len(s.sent) != 0 {
		t.Errorf("client error must not be retried")
	}
}

func TestReplyWithoutSession(t *testing.T) {
	e := newTestEffectorNoSession()
	if err := e.Reply("c", "hi"); err == nil {
		t.Error("Expected error without a session")
	}
	if err := e.Reply("", "hi"); err == nil {
		t.Error("Expected error for missing channel")
	}
}

func TestReact(t *testing.T) {
	s := &fakeSession{}
	e := newTestEffector(s)
	if err := e.React("c", "m-1", "👀"); err != nil {
		t.Fatalf("React failed: %v", err)
	}
	if len(s.reactions) != 1 || s.reactions[0] != "m-1:👀" {
		t.Errorf("unexpected reactions: %v", s.reactions)
	}
}
