// Package ai renders planner entries into plain-text prompts and forwards
// them to an OpenAI chat-completion model.
package ai

import (
	"fmt"
	"strings"

	"daybook/api/internal/planner"
)

const summarySystem = "You are a supportive and insightful AI coach analyzing daily planner entries to provide helpful summaries and insights."

// SummarySystem is the fixed instruction for one-shot summaries.
func SummarySystem() string {
	return summarySystem
}

// ChatSystem is the instruction for conversational turns; the rendered
// entries ride along as context so follow-up questions can be answered.
func ChatSystem(rendered string, entryCount int) string {
	return fmt.Sprintf(
		"You are a helpful assistant that analyzes daily planner data and provides insights about a person's habits, mood patterns, productivity, and overall wellbeing. Here is the context of their last %d daily planner entries:\n\n%s\n\nUse this information to answer questions about their status, patterns, and wellbeing.",
		entryCount, rendered)
}

// SummaryPrompt wraps the rendered entries in the analysis request.
func SummaryPrompt(rendered string, entryCount int, userName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an AI coach analyzing a user's daily planner entries. Below are the last %d daily planner entries for %s. Please provide a comprehensive summary of their status, habits, mood patterns, priorities, and overall well-being.\n\n", entryCount, userName)
	b.WriteString(rendered)
	b.WriteString("\n\nPlease provide:\n")
	b.WriteString("1. Overall status and well-being summary\n")
	b.WriteString("2. Common habits and patterns\n")
	b.WriteString("3. Mood and energy level trends\n")
	b.WriteString("4. Key priorities and goals\n")
	b.WriteString("5. Areas of focus (personal, professional, etc.)\n")
	b.WriteString("6. Any notable patterns or insights\n\n")
	b.WriteString("Keep the summary conversational and insightful, as if you're a supportive coach who understands their journey.")
	return b.String()
}

// RenderEntries produces the deterministic text block the model consumes:
// one section per entry, newest first, every line omitted when its source
// field is empty. Habit and priority lines list completed items only.
func RenderEntries(entries []planner.Document) string {
	sections := make([]string, 0, len(entries))
	for i, entry := range entries {
		lines := []string{fmt.Sprintf("\n--- Entry %d: %s ---", i+1, entry.Date)}

		if entry.EnergyLevel != "" {
			lines = append(lines, "Energy Level: "+entry.EnergyLevel+"/10")
		}
		if entry.Mood != "" {
			lines = append(lines, "Mood: "+entry.Mood)
		}
		if entry.Intention != "" {
			lines = append(lines, "Intention: "+entry.Intention)
		}
		if entry.IAm != "" {
			lines = append(lines, "I Am: "+entry.IAm)
		}

		if joined := joinNonEmpty(entry.GratefulFor); joined != "" {
			lines = append(lines, "Grateful For: "+joined)
		}
		if joined := joinNonEmpty(entry.ExcitedAbout); joined != "" {
			lines = append(lines, "Excited About: "+joined)
		}

		if joined := joinCompleted(entry.MindHabits); joined != "" {
			lines = append(lines, "Completed Mind Habits: "+joined)
		}
		if joined := joinCompleted(entry.BodyHabits); joined != "" {
			lines = append(lines, "Completed Body Habits: "+joined)
		}
		if joined := joinCompleted(entry.SpiritHabits); joined != "" {
			lines = append(lines, "Completed Spirit Habits: "+joined)
		}
		if joined := joinCompleted(entry.TopPriorities); joined != "" {
			lines = append(lines, "Completed Priorities: "+joined)
		}

		if entry.WhatInspiredMe != "" {
			lines = append(lines, "What Inspired Me: "+entry.WhatInspiredMe)
		}
		if entry.WhatDidIDoWell != "" {
			lines = append(lines, "What I Did Well: "+entry.WhatDidIDoWell)
		}
		if entry.WhatDidILearn != "" {
			lines = append(lines, "What I Learned: "+entry.WhatDidILearn)
		}

		sections = append(sections, strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n")
}

func joinNonEmpty(values []string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, ", ")
}

func joinCompleted(items []planner.ChecklistItem) string {
	kept := make([]string, 0, len(items))
	for _, item := range items {
		if item.Text != "" && item.Checked {
			kept = append(kept, item.Text)
		}
	}
	return strings.Join(kept, ", ")
}
