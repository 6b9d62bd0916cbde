package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vthunder/cube/internal/config"
	"github.com/vthunder/cube/internal/effectors"
	"github.com/vthunder/cube/internal/executive"
	"github.com/vthunder/cube/internal/logging"
	"github.com/vthunder/cube/internal/runner"
	"github.com/vthunder/cube/internal/senses"
	"github.com/vthunder/cube/internal/types"
)

// commandTimeout bounds how long a Discord command waits for the worker
const commandTimeout = 10 * time.Second

// notifier prints reminder notifications and, once Discord is up, posts
// them to the configured channel as well.
type notifier struct {
	mu        sync.Mutex
	effector  *effectors.DiscordEffector
	channelID string
}

func (n *notifier) attach(effector *effectors.DiscordEffector, channelID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.effector = effector
	n.channelID = channelID
}

// Notify is called with the executive lock held, so the network send
// happens on its own goroutine.
func (n *notifier) Notify(message string) {
	fmt.Printf("\n%s\n", message)

	n.mu.Lock()
	effector, channelID := n.effector, n.channelID
	n.mu.Unlock()

	if effector == nil || channelID == "" {
		return
	}
	go func() {
		if err := effector.Reply(channelID, message); err != nil {
			logging.Warn("discord", "failed to send reminder: %v", err)
		}
	}()
}

// startDiscord connects the command sense and the reply effector
func startDiscord(cfg config.DiscordConfig, r *runner.Runner, notify *notifier) (*senses.DiscordSense, error) {
	var effector *effectors.DiscordEffector

	sense, err := senses.NewDiscordSense(senses.DiscordConfig{
		Token:     cfg.Token,
		ChannelID: cfg.ChannelID,
		OwnerID:   cfg.OwnerID,
		Prefix:    cfg.Prefix,
	}, func(cmd senses.Command) {
		// Handlers run on discordgo's goroutine; don't block it on the worker
		go handleDiscordCommand(r, effector, cmd)
	})
	if err != nil {
		return nil, err
	}

	// Shares the session with the sense
	effector = effectors.NewDiscordEffector(sense.Session())

	if err := sense.Start(); err != nil {
		return nil, err
	}
	notify.attach(effector, cfg.ChannelID)
	return sense, nil
}

func handleDiscordCommand(r *runner.Runner, effector *effectors.DiscordEffector, cmd senses.Command) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	resp, err := r.Command(ctx, cmd.Text)
	if err != nil {
		logging.Warn("discord", "command failed: %v", err)
	}

	if effector == nil {
		return
	}
	if err := effector.React(cmd.ChannelID, cmd.MessageID, "👀"); err != nil {
		logging.Debug("discord", "react failed: %v", err)
	}
	if reply := replyText(resp, err); reply != "" {
		if err := effector.Reply(cmd.ChannelID, reply); err != nil {
			logging.Warn("discord", "reply failed: %v", err)
		}
	}
}

// replyText renders a command result as a chat reply
func replyText(resp executive.Response, err error) string {
	if err != nil && resp.Result == nil {
		return fmt.Sprintf("出错了：%v", err)
	}
	switch v := resp.Result.(type) {
	case executive.FindResult:
		return v.Message
	case executive.ChatResult:
		return v.Message
	case executive.ReminderResult:
		return fmt.Sprintf("已设置提醒：%s（%s）", v.Content, v.RemindAt)
	case executive.ModeResult:
		if v.Mode == types.ModeFocus {
			return "已切换到左脑模式"
		}
		return "已切换到右脑模式"
	}
	return ""
}
