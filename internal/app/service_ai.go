package app

import (
	"context"
	"fmt"
	"log"

	"daybook/api/internal/ai"
	"daybook/api/internal/planner"
	"daybook/api/internal/store"
)

const (
	summaryWindowSelf = 5
	summaryWindowFull = 30
)

// SummaryResult is the payload of a one-shot summary.
type SummaryResult struct {
	Summary      string `json:"summary"`
	EntriesCount int    `json:"entriesCount"`
	UserName     string `json:"userName"`
}

// Summary generates an AI summary over the target user's recent entries.
// An empty targetID means the caller's own entries; summarizing someone
// else requires a standing grant from them. The completion API is never
// called when the window is empty.
func (s *Service) Summary(ctx context.Context, session Session, targetID string, count int) (SummaryResult, error) {
	if s.completer == nil {
		return SummaryResult{}, errAIUnavailable()
	}
	switch count {
	case 0:
		count = summaryWindowSelf
	case 1, summaryWindowSelf, summaryWindowFull:
	default:
		return SummaryResult{}, errInvalidArgument(fmt.Sprintf("entries must be 1, %d or %d", summaryWindowSelf, summaryWindowFull))
	}

	owner, entries, err := s.recentEntries(ctx, session, targetID, count)
	if err != nil {
		return SummaryResult{}, err
	}

	rendered := ai.RenderEntries(entries)
	prompt := ai.SummaryPrompt(rendered, len(entries), displayNameOrEmail(owner))
	summary, err := s.completer.Complete(ctx, ai.SummarySystem(), []ai.Message{{Role: "user", Content: prompt}})
	if err != nil {
		log.Printf("summary completion failed for %s: %v", owner.ID, err)
		return SummaryResult{}, errUpstream("Failed to generate summary")
	}

	return SummaryResult{
		Summary:      summary,
		EntriesCount: len(entries),
		UserName:     displayNameOrEmail(owner),
	}, nil
}

// Chat answers a conversational turn with the target user's last entries as
// context. The access rule matches Summary.
func (s *Service) Chat(ctx context.Context, session Session, targetID string, messages []ai.Message) (string, error) {
	if s.completer == nil {
		return "", errAIUnavailable()
	}
	if len(messages) == 0 {
		return "", errInvalidArgument("messages must not be empty")
	}
	for _, m := range messages {
		if m.Role != "user" && m.Role != "assistant" {
			return "", errInvalidArgument("message roles must be user or assistant")
		}
	}

	owner, entries, err := s.recentEntries(ctx, session, targetID, summaryWindowFull)
	if err != nil {
		return "", err
	}

	system := ai.ChatSystem(ai.RenderEntries(entries), len(entries))
	reply, err := s.completer.Complete(ctx, system, messages)
	if err != nil {
		log.Printf("chat completion failed for %s: %v", owner.ID, err)
		return "", errUpstream("Failed to generate response")
	}
	return reply, nil
}

// recentEntries resolves the target user, enforces access for cross-user
// requests, and loads the newest entries up to count. Zero entries is a
// NotFound so callers bail out before spending a completion call.
func (s *Service) recentEntries(ctx context.Context, session Session, targetID string, count int) (store.User, []planner.Document, error) {
	if targetID == "" {
		targetID = session.UserID
	}
	if targetID != session.UserID {
		allowed, err := s.CheckAccess(ctx, targetID, "", session.Email)
		if err != nil {
			return store.User{}, nil, err
		}
		if !allowed {
			return store.User{}, nil, errPermissionDenied()
		}
	}

	owner, err := s.store.GetUserByID(ctx, targetID)
	if err != nil {
		return store.User{}, nil, fmt.Errorf("load user: %w", err)
	}

	if err := s.pending.FlushOwner(targetID); err != nil {
		return store.User{}, nil, err
	}
	records, err := s.store.ListRecentPlans(ctx, targetID, count)
	if err != nil {
		return store.User{}, nil, fmt.Errorf("list recent plans: %w", err)
	}
	if len(records) == 0 {
		return store.User{}, nil, errNotFound("No daily planner entries found for this user")
	}

	entries := make([]planner.Document, 0, len(records))
	for _, record := range records {
		doc, err := decodeRecord(record)
		if err != nil {
			return store.User{}, nil, err
		}
		entries = append(entries, doc)
	}
	return owner, entries, nil
}

func displayNameOrEmail(user store.User) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.Email
}
