package senses

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/vthunder/cube/internal/logging"
)

// Command is a text command heard on an input channel
type Command struct {
	Source    string // discord, repl, mcp
	ChannelID string
	MessageID string
	AuthorID  string
	Text      string
	Timestamp time.Time
}

// DiscordSense listens to Discord and turns messages into commands
type DiscordSense struct {
	session   *discordgo.Session
	channelID string
	ownerID   string
	prefix    string
	botID     string
	onCommand func(Command)
}

// DiscordConfig holds Discord connection settings
type DiscordConfig struct {
	Token     string
	ChannelID string // only listen here when set
	OwnerID   string // only obey this user when set
	Prefix    string // strip and require this prefix when set (e.g. "cube,")
}

// NewDiscordSense creates a new Discord sense
func NewDiscordSense(cfg DiscordConfig, onCommand func(Command)) (*DiscordSense, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	sense := &DiscordSense{
		session:   session,
		channelID: cfg.ChannelID,
		ownerID:   cfg.OwnerID,
		prefix:    cfg.Prefix,
		onCommand: onCommand,
	}

	// Register message handler
	session.AddHandler(sense.handleMessage)

	// We only need message content
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	return sense, nil
}

// Start connects to Discord and begins listening
func (d *DiscordSense) Start() error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	// Get bot's user ID for self-filtering
	d.botID = d.session.State.User.ID
	logging.Info("discord-sense", "Connected as %s", d.session.State.User.Username)

	return nil
}

// Stop disconnects from Discord
func (d *DiscordSense) Stop() error {
	return d.session.Close()
}

// Session returns the underlying Discord session (for sharing with effector)
func (d *DiscordSense) Session() *discordgo.Session {
	return d.session
}

// handleMessage processes incoming Discord messages
func (d *DiscordSense) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	cmd, ok := d.messageToCommand(m)
	if !ok {
		return
	}

	logging.Info("discord-sense", "Command: %s", logging.Truncate(cmd.Text, 50))

	if d.onCommand != nil {
		d.onCommand(cmd)
	}
}

// messageToCommand filters a message and converts it to a command
func (d *DiscordSense) messageToCommand(m *discordgo.MessageCreate) (Command, bool) {
	if m.Message == nil || m.Author == nil {
		return Command{}, false
	}

	// Ignore messages from self and other bots
	if m.Author.ID == d.botID || m.Author.Bot {
		return Command{}, false
	}

	// Only process messages from configured channel (if set)
	if d.channelID != "" && m.ChannelID != d.channelID {
		return Command{}, false
	}

	if d.ownerID != "" && m.Author.ID != d.ownerID {
		return Command{}, false
	}

	text := strings.TrimSpace(m.Content)
	if d.prefix != "" {
		if !strings.HasPrefix(strings.ToLower(text), strings.ToLower(d.prefix)) {
			return Command{}, false
		}
		text = strings.TrimSpace(text[len(d.prefix):])
	}

	return Command{
		Source:    "discord",
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		AuthorID:  m.Author.ID,
		Text:      text,
		Timestamp: time.Now(),
	}, true
}
