package dcapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
)

// interaction callback types / message flags
const (
	callbackDeferredEphemeral = 5
	flagEphemeral             = 64
)

type Command struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type interactionCallback struct {
	Type int             `json:"type"`
	Data callbackMessage `json:"data"`
}

type callbackMessage struct {
	Content     string       `json:"content,omitempty"`
	Flags       int          `json:"flags,omitempty"`
	Attachments []attachment `json:"attachments,omitempty"`
}

type attachment struct {
	ID       int    `json:"id"`
	Filename string `json:"filename"`
}

// Defer acknowledges an interaction ephemerally before the 3s deadline;
// the real answer follows via Followup.
func (c *Client) Defer(ctx context.Context, interactionID uint64, token string) error {
	path := fmt.Sprintf("/interactions/%d/%s/callback", interactionID, token)
	body := interactionCallback{
		Type: callbackDeferredEphemeral,
		Data: callbackMessage{Flags: flagEphemeral},
	}
	return c.doJSON(ctx, http.MethodPost, path, body, nil)
}

// Followup sends an ephemeral followup message for a deferred interaction.
func (c *Client) Followup(ctx context.Context, token, content string) error {
	if c.appID == 0 {
		return fmt.Errorf("application id not set")
	}
	path := fmt.Sprintf("/webhooks/%d/%s", c.appID, token)
	body := callbackMessage{Content: content, Flags: flagEphemeral}
	return c.doJSON(ctx, http.MethodPost, path, body, nil)
}

// FollowupFile sends a followup carrying one file attachment
// (multipart/form-data: payload_json + files[0]).
func (c *Client) FollowupFile(ctx context.Context, token, filename string, file []byte, content string) error {
	if c.appID == 0 {
		return fmt.Errorf("application id not set")
	}

	payload, err := json.Marshal(callbackMessage{
		Content:     content,
		Flags:       flagEphemeral,
		Attachments: []attachment{{ID: 0, Filename: filename}},
	})
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("payload_json", string(payload)); err != nil {
		return err
	}
	fw, err := mw.CreateFormFile("files[0]", filename)
	if err != nil {
		return err
	}
	if _, err := fw.Write(file); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	path := fmt.Sprintf("/webhooks/%d/%s", c.appID, token)
	req, err := c.newRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, nil)
}

// RegisterCommands overwrites the guild's slash commands with cmds.
func (c *Client) RegisterCommands(ctx context.Context, guildID uint64, cmds []Command) error {
	if c.appID == 0 {
		return fmt.Errorf("application id not set")
	}
	path := fmt.Sprintf("/applications/%d/guilds/%d/commands", c.appID, guildID)
	return c.doJSON(ctx, http.MethodPut, path, cmds, nil)
}
