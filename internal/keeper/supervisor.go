package keeper

import (
	"context"
	"log/slog"
	"strings"

	"github.com/robertpelloni/jules-app/internal/jules"
	"github.com/robertpelloni/jules-app/internal/model/contract"
)

// supervisorSystemPrompt steers the smart nudge: directive guidance, not
// conversation.
const supervisorSystemPrompt = "You are a project supervisor. Your goal is to keep the AI agent \"Jules\" on track. " +
	"Read the conversation history. Identify if the agent is stuck, off-track, or needs guidance. " +
	"Provide a concise, direct instruction or feedback to the agent. Do not be conversational. " +
	"Be directive but polite. Focus on the next task."

const supervisorMaxTokens = 150

// smartNudge asks the configured provider for directive guidance based on the
// session's trailing activities. Any failure falls back to static messages.
func (k *Keeper) smartNudge(ctx context.Context, cfg SupervisorConfig, sess jules.Session) (string, error) {
	activities, err := k.api.ListActivities(ctx, sess.ID)
	if err != nil {
		return "", err
	}

	count := cfg.Smart.ContextMessageCount
	if count <= 0 {
		count = 1
	}
	if len(activities) > count {
		activities = activities[len(activities)-count:]
	}

	messages := make([]contract.Message, 0, len(activities))
	for _, act := range activities {
		role := "assistant"
		if act.Role == jules.RoleUser {
			role = "user"
		}
		content := strings.TrimSpace(act.Content)
		if content == "" {
			continue
		}
		messages = append(messages, contract.Message{Role: role, Content: content})
	}
	if len(messages) == 0 {
		messages = append(messages, contract.Message{Role: "user", Content: "The session has no recent activity. What should the agent do next?"})
	}

	resp, err := k.completer.Complete(ctx, cfg.Smart.Provider, contract.CompletionRequest{
		Model:     cfg.Smart.Model,
		APIKey:    cfg.Smart.APIKey,
		System:    supervisorSystemPrompt,
		Messages:  messages,
		MaxTokens: supervisorMaxTokens,
	})
	if err != nil {
		return "", err
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", nil
	}
	return content, nil
}

// nudgeContent resolves what to send an idle session: smart supervision when
// configured, static pools otherwise. Empty string means nothing to send.
func (k *Keeper) nudgeContent(ctx context.Context, cfg SupervisorConfig, sess jules.Session) string {
	if cfg.Smart.Enabled && cfg.Smart.APIKey != "" {
		content, err := k.smartNudge(ctx, cfg, sess)
		if err != nil {
			slog.Warn("Smart supervisor failed, falling back to static messages", "session_id", sess.ID, "error", err)
		} else if content != "" {
			return content
		}
	}

	msg, ok := cfg.PickMessage(sess.ID)
	if !ok {
		return ""
	}
	return msg
}
