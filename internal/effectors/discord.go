package effectors

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/vthunder/cube/internal/logging"
)

// Discord rejects messages longer than this many characters
const discordMessageLimit = 2000

// DefaultMaxAttempts is how many times a retryable send is tried
const DefaultMaxAttempts = 3

// messageSender is the slice of *discordgo.Session the effector uses
type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
}

// DiscordEffector posts the cube's replies back to Discord
type DiscordEffector struct {
	getSession  func() messageSender
	maxAttempts int
	retryDelay  time.Duration
}

// NewDiscordEffector creates a Discord effector
// It shares the session with the sense
func NewDiscordEffector(session *discordgo.Session) *DiscordEffector {
	return &DiscordEffector{
		getSession: func() messageSender {
			if session == nil {
				return nil
			}
			return session
		},
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  500 * time.Millisecond,
	}
}

// Reply sends content to a channel, split into Discord-sized chunks
func (e *DiscordEffector) Reply(channelID, content string) error {
	if channelID == "" {
		return fmt.Errorf("missing channel_id")
	}
	if content == "" {
		return nil
	}

	for _, chunk := range splitMessage(content, discordMessageLimit) {
		err := e.withRetry("send_message", func(s messageSender) error {
			_, err := s.ChannelMessageSend(channelID, chunk)
			return err
		})
		if err != nil {
			return err
		}
	}
	logging.Debug("discord-effector", "Replied in %s: %s", channelID, logging.Truncate(content, 60))
	return nil
}

// React adds an emoji reaction to a message (used to acknowledge commands)
func (e *DiscordEffector) React(channelID, messageID, emoji string) error {
	if channelID == "" || messageID == "" {
		return fmt.Errorf("missing channel_id or message_id")
	}
	return e.withRetry("add_reaction", func(s messageSender) error {
		return s.MessageReactionAdd(channelID, messageID, emoji)
	})
}

func (e *DiscordEffector) withRetry(op string, fn func(messageSender) error) error {
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		session := e.getSession()
		if session == nil {
			lastErr = errors.New("no Discord session")
		} else {
			lastErr = fn(session)
		}
		if lastErr == nil {
			return nil
		}
		if isNonRetryableError(lastErr) {
			logging.Info("discord-effector", "%s failed permanently: %v", op, lastErr)
			return lastErr
		}
		if attempt < e.maxAttempts {
			logging.Debug("discord-effector", "%s attempt %d failed: %v", op, attempt, lastErr)
			time.Sleep(e.retryDelay * time.Duration(attempt))
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, e.maxAttempts, lastErr)
}

// isNonRetryableError reports errors that will not succeed on retry:
// client errors from the Discord REST API (bad channel, missing
// permissions, rate limits handled by discordgo itself).
func isNonRetryableError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		code := restErr.Response.StatusCode
		return code >= 400 && code < 500
	}
	return false
}

// splitMessage breaks s into chunks of at most limit runes
func splitMessage(s string, limit int) []string {
	r := []rune(s)
	if len(r) <= limit {
		return []string{s}
	}
	var chunks []string
	for len(r) > 0 {
		n := limit
		if n > len(r) {
			n = len(r)
		}
		chunks = append(chunks, string(r[:n]))
		r = r[n:]
	}
	return chunks
}
