package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// --- Discord Notification Delivery ---

const defaultDiscordAPIBase = "https://discord.com/api/v10"

// DiscordClient is a minimal Discord REST v10 client: enough to open a DM
// channel and post messages. Gateway, slash commands, and voice live in the
// chat layer, not here.
type DiscordClient struct {
	token   string
	apiBase string
	client  *http.Client

	mu         sync.Mutex
	dmChannels map[string]string // user ID → DM channel ID
}

func newDiscordClient(cfg DiscordConfig) *DiscordClient {
	base := cfg.APIBase
	if base == "" {
		base = defaultDiscordAPIBase
	}
	return &DiscordClient{
		token:      cfg.BotToken,
		apiBase:    base,
		client:     &http.Client{Timeout: 15 * time.Second},
		dmChannels: make(map[string]string),
	}
}

func (d *DiscordClient) post(path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, d.apiBase+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+d.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord: HTTP %d: %s", resp.StatusCode, string(msg))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("discord: decode response: %w", err)
		}
	}
	return nil
}

// dmChannel returns (opening if necessary) the DM channel for a user.
func (d *DiscordClient) dmChannel(userID string) (string, error) {
	d.mu.Lock()
	if id, ok := d.dmChannels[userID]; ok {
		d.mu.Unlock()
		return id, nil
	}
	d.mu.Unlock()

	var channel struct {
		ID string `json:"id"`
	}
	err := d.post("/users/@me/channels", map[string]string{"recipient_id": userID}, &channel)
	if err != nil {
		return "", fmt.Errorf("open dm channel for %s: %w", userID, err)
	}

	d.mu.Lock()
	d.dmChannels[userID] = channel.ID
	d.mu.Unlock()
	return channel.ID, nil
}

// SendDM delivers a direct message, truncating to Discord's 2000-char limit.
func (d *DiscordClient) SendDM(userID, content string) error {
	if r := []rune(content); len(r) > 2000 {
		content = string(r[:1997]) + "..."
	}
	channelID, err := d.dmChannel(userID)
	if err != nil {
		return err
	}
	return d.post("/channels/"+channelID+"/messages", map[string]string{"content": content}, nil)
}

// reminderMessage builds the DM wording for one reminder offset.
func reminderMessage(title, label string) string {
	if label == "NOW" {
		return fmt.Sprintf("🚨 **DEADLINE NOW!** 🚨\n\nYour task is due right now:\n**%s**\n\nTime to get it done! 💪", title)
	}
	return fmt.Sprintf("⏰ **Reminder: %s until deadline!**\n\nYour task is due soon:\n**%s**\n\nBetter hurry up! 🏃‍♂️", label, title)
}

// ReminderNotifier adapts the client to the scheduler's NotifyFunc.
func (d *DiscordClient) ReminderNotifier() NotifyFunc {
	return func(ownerID, taskID, title, label string) error {
		return d.SendDM(ownerID, reminderMessage(title, label))
	}
}

// TimerNotifier adapts the client to the timer store's notify callback.
func (d *DiscordClient) TimerNotifier() TimerNotifyFunc {
	return func(ownerID, label string) error {
		return d.SendDM(ownerID, fmt.Sprintf("⏲️ **Time's up!**\n\nYour timer **%s** just finished.", label))
	}
}
