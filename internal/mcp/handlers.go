package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/pixelplant/internal/models"
	"github.com/nvandessel/pixelplant/internal/plant"
	"github.com/nvandessel/pixelplant/internal/ratelimit"
)

const statusURI = "pixelplant://status"

// maxSnooze bounds pixelplant_observe snoozes.
const maxSnooze = 8 * time.Hour

// registerTools registers all pixel plant MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolStatus,
		Description: "Get the plant's mood, care level and the user's outstanding wellbeing needs",
	}, s.handleStatus)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolMessage,
		Description: "Ask the plant to say something from a category, or take its oldest queued message",
	}, s.handleMessage)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolFeedback,
		Description: "Report whether the plant's last reminder helped",
	}, s.handleFeedback)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolObserve,
		Description: "Feed the plant a sensor reading, toggle sleep mode or snooze reminders",
	}, s.handleObserve)
}

// registerResources registers MCP resources for auto-loading into context.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         statusURI,
		Name:        "pixelplant-status",
		Description: "How the user is doing at the desk, as seen by the pixel plant.",
		MIMEType:    "text/markdown",
	}, s.handleStatusResource)
}

func (s *Server) handleStatusResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	st := s.plant.Status()

	var sb strings.Builder
	sb.WriteString("# Pixel Plant\n\n")
	fmt.Fprintf(&sb, "The plant is **%s** (care: %s).\n\n", st.Mood, st.Care)
	fmt.Fprintf(&sb, "%s\n", st.Summary)
	if len(st.Needs) > 0 {
		fmt.Fprintf(&sb, "\nOutstanding needs: %s\n", strings.Join(st.Needs, ", "))
	}
	if len(st.Recommendations) > 0 {
		sb.WriteString("\n## Recommendations\n\n")
		for _, r := range st.Recommendations {
			fmt.Fprintf(&sb, "- %s\n", r)
		}
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      statusURI,
				MIMEType: "text/markdown",
				Text:     sb.String(),
			},
		},
	}, nil
}

func (s *Server) handleStatus(ctx context.Context, req *sdk.CallToolRequest, args StatusInput) (_ *sdk.CallToolResult, _ StatusOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolStatus, start, retErr, sanitizeToolParams(map[string]any{}))
	}()

	if err := ratelimit.CheckLimit(s.limiters, ratelimit.ToolStatus); err != nil {
		return nil, StatusOutput{}, err
	}

	st := s.plant.Status()
	out := StatusOutput{
		Mood:            st.Mood,
		Care:            st.Care,
		Urgency:         st.Urgency,
		Sleeping:        st.Sleeping,
		Present:         st.Present,
		ActivityLevel:   st.ActivityLevel,
		InactiveMinutes: st.InactiveMinutes,
		PostureQuality:  st.PostureQuality,
		Needs:           st.Needs,
		BreaksToday:     st.BreaksToday,
		GoalProgress:    st.GoalProgress,
		PendingReminder: st.PendingReminder,
		QueuedMessages:  st.QueuedMessages,
		Summary:         st.Summary,
	}
	if args.Recommendations {
		out.Recommendations = st.Recommendations
	}
	return nil, out, nil
}

func (s *Server) handleMessage(ctx context.Context, req *sdk.CallToolRequest, args MessageInput) (_ *sdk.CallToolResult, _ MessageOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolMessage, start, retErr, sanitizeToolParams(map[string]any{
			"category": args.Category,
		}))
	}()

	if err := ratelimit.CheckLimit(s.limiters, ratelimit.ToolMessage); err != nil {
		return nil, MessageOutput{}, err
	}

	if args.Category == "" {
		text, ok := s.plant.NextMessage()
		return nil, MessageOutput{
			Text:      text,
			Delivered: ok,
			Remaining: s.plant.Status().QueuedMessages,
		}, nil
	}

	cat, err := models.ParseCategory(args.Category)
	if err != nil {
		return nil, MessageOutput{}, err
	}
	out, ok := s.plant.Say(cat)
	if !ok {
		return nil, MessageOutput{
			Category:  cat.String(),
			Remaining: s.plant.Status().QueuedMessages,
		}, nil
	}
	return nil, MessageOutput{
		Text:      out.Text,
		Category:  out.Category.String(),
		Mood:      out.Mood,
		Care:      out.Care,
		Delivered: true,
		Remaining: s.plant.Status().QueuedMessages,
	}, nil
}

func (s *Server) handleFeedback(ctx context.Context, req *sdk.CallToolRequest, args FeedbackInput) (_ *sdk.CallToolResult, _ FeedbackOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolFeedback, start, retErr, sanitizeToolParams(map[string]any{
			"effective": args.Effective,
		}))
	}()

	if err := ratelimit.CheckLimit(s.limiters, ratelimit.ToolFeedback); err != nil {
		return nil, FeedbackOutput{}, err
	}

	cat, pending := s.plant.Pending()
	s.plant.Feedback(args.Effective)
	st := s.plant.Status()

	out := FeedbackOutput{Responsiveness: st.Responsiveness}
	verdict := "did not help"
	if args.Effective {
		verdict = "helped"
	}
	if pending {
		out.Category = cat.String()
		out.Message = fmt.Sprintf("Feedback recorded: %s reminder %s", cat, verdict)
	} else {
		out.Message = fmt.Sprintf("Feedback recorded: last message %s", verdict)
	}
	s.logger.Info("feedback received", "effective", args.Effective, "category", out.Category)
	return nil, out, nil
}

func (s *Server) handleObserve(ctx context.Context, req *sdk.CallToolRequest, args ObserveInput) (_ *sdk.CallToolResult, _ ObserveOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolObserve, start, retErr, sanitizeToolParams(map[string]any{
			"motion":             args.Motion,
			"face":               args.Face,
			"posture":            args.Posture,
			"camera_unavailable": args.CameraUnavailable,
			"light":              args.Light,
			"sleep":              args.Sleep,
			"snooze_minutes":     args.SnoozeMinutes,
		}))
	}()

	if err := ratelimit.CheckLimit(s.limiters, ratelimit.ToolObserve); err != nil {
		return nil, ObserveOutput{}, err
	}

	snooze := time.Duration(args.SnoozeMinutes) * time.Minute
	if snooze < 0 || snooze > maxSnooze {
		return nil, ObserveOutput{}, fmt.Errorf("'snooze_minutes' must be between 0 and %d, got %d", int(maxSnooze.Minutes()), args.SnoozeMinutes)
	}

	rd := plant.Reading{
		Motion:            args.Motion,
		Face:              args.Face,
		Posture:           args.Posture,
		CameraUnavailable: args.CameraUnavailable,
		Light:             args.Light,
		Sleep:             args.Sleep,
	}
	if err := rd.Validate(); err != nil {
		return nil, ObserveOutput{}, err
	}
	if rd.Empty() && snooze == 0 {
		return nil, ObserveOutput{}, fmt.Errorf("at least one reading or 'snooze_minutes' is required")
	}

	var done []string
	if !rd.Empty() {
		s.plant.Apply(rd)
		done = append(done, "reading applied")
	}
	if snooze > 0 {
		s.plant.Snooze(snooze)
		done = append(done, fmt.Sprintf("reminders snoozed for %v", snooze))
	}
	return nil, ObserveOutput{Accepted: true, Message: strings.Join(done, "; ")}, nil
}
