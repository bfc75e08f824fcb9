package meeting

import (
	"fmt"
	"strings"

	model "github.com/zhouzirui/agentdesk/backend/internal/model/meeting"
)

// FormatList renders meetings as a numbered plain-text listing.
func FormatList(meetings []model.Meeting) string {
	if len(meetings) == 0 {
		return "No meetings found."
	}

	var sb strings.Builder
	sb.WriteString("Scheduled Meetings:\n")
	sb.WriteString(strings.Repeat("=", 50))
	sb.WriteString("\n")
	for i, m := range meetings {
		fmt.Fprintf(&sb, "%d. %s at %s\n", i+1, m.Title, m.StartTime)
		if m.Description != "" {
			fmt.Fprintf(&sb, "   Description: %s\n", m.Description)
		}
	}
	return sb.String()
}
