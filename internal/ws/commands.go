package ws

import (
	"context"
	"encoding/json"

	"caseflow/internal/progress"
	"caseflow/internal/service"

	"go.uber.org/zap"
)

// CommandHandler handles WebSocket commands
type CommandHandler struct {
	cases *service.CaseService
	log   *zap.Logger
}

func NewCommandHandler(cases *service.CaseService, log *zap.Logger) *CommandHandler {
	return &CommandHandler{cases: cases, log: log}
}

// HandleCommand processes a WebSocket command on behalf of the connection's
// actor.
func (h *CommandHandler) HandleCommand(ctx context.Context, conn *Conn, cmd map[string]interface{}) {
	op, _ := cmd["op"].(string)
	data, _ := cmd["data"].(map[string]interface{})
	msgID, _ := cmd["id"].(string)

	switch op {
	case "getCase":
		h.handleGetCase(ctx, conn, msgID, data)
	case "getTimeline":
		h.handleGetTimeline(ctx, conn, msgID, data)
	case "toggleStage":
		h.handleToggleStage(ctx, conn, msgID, data)
	case "toggleSubStep":
		h.handleToggleSubStep(ctx, conn, msgID, data)
	case "confirmStage":
		h.handleConfirmStage(ctx, conn, msgID, data)
	default:
		h.sendError(conn, msgID, "unknown_command", "Unknown command: "+op)
	}
}

func (h *CommandHandler) handleGetCase(ctx context.Context, conn *Conn, msgID string, data map[string]interface{}) {
	caseID, _ := data["caseId"].(string)
	if caseID == "" {
		h.sendError(conn, msgID, "invalid_input", "caseId required")
		return
	}

	c, err := h.cases.Get(ctx, conn.actor, caseID)
	if err != nil {
		h.sendError(conn, msgID, "get_failed", err.Error())
		return
	}

	h.sendResponse(conn, msgID, map[string]interface{}{
		"type": "response",
		"data": c,
	})
}

func (h *CommandHandler) handleGetTimeline(ctx context.Context, conn *Conn, msgID string, data map[string]interface{}) {
	caseID, _ := data["caseId"].(string)
	if caseID == "" {
		h.sendError(conn, msgID, "invalid_input", "caseId required")
		return
	}

	stages, err := h.cases.Timeline(ctx, conn.actor, caseID)
	if err != nil {
		h.sendError(conn, msgID, "timeline_failed", err.Error())
		return
	}

	h.sendResponse(conn, msgID, map[string]interface{}{
		"type": "response",
		"data": map[string]interface{}{"stages": stages},
	})
}

func (h *CommandHandler) handleToggleStage(ctx context.Context, conn *Conn, msgID string, data map[string]interface{}) {
	caseID, _ := data["caseId"].(string)
	stageID, _ := data["stageId"].(string)
	if caseID == "" || stageID == "" {
		h.sendError(conn, msgID, "invalid_input", "caseId and stageId required")
		return
	}

	c, res, err := h.cases.ToggleStage(ctx, conn.actor, caseID, stageID)
	if err != nil {
		h.sendError(conn, msgID, "toggle_failed", err.Error())
		return
	}

	h.sendResponse(conn, msgID, toggleResponse(c.TimelineProgress, res))
}

func (h *CommandHandler) handleToggleSubStep(ctx context.Context, conn *Conn, msgID string, data map[string]interface{}) {
	caseID, _ := data["caseId"].(string)
	stageID, _ := data["stageId"].(string)
	index, ok := data["index"].(float64)
	if caseID == "" || stageID == "" || !ok {
		h.sendError(conn, msgID, "invalid_input", "caseId, stageId and index required")
		return
	}

	c, res, err := h.cases.ToggleSubStep(ctx, conn.actor, caseID, stageID, int(index))
	if err != nil {
		h.sendError(conn, msgID, "toggle_failed", err.Error())
		return
	}

	h.sendResponse(conn, msgID, toggleResponse(c.TimelineProgress, res))
}

func (h *CommandHandler) handleConfirmStage(ctx context.Context, conn *Conn, msgID string, data map[string]interface{}) {
	caseID, _ := data["caseId"].(string)
	stageID, _ := data["stageId"].(string)
	if caseID == "" || stageID == "" {
		h.sendError(conn, msgID, "invalid_input", "caseId and stageId required")
		return
	}

	c, res, err := h.cases.ConfirmStage(ctx, conn.actor, caseID, stageID)
	if err != nil {
		h.sendError(conn, msgID, "confirm_failed", err.Error())
		return
	}

	h.sendResponse(conn, msgID, toggleResponse(c.TimelineProgress, res))
}

func toggleResponse(progressMap map[string]bool, res progress.ToggleResult) map[string]interface{} {
	data := map[string]interface{}{
		"progress": progressMap,
	}
	if res.Outcome == progress.OutcomeAwaitingConfirmation {
		data["status"] = "AWAITING_CONFIRMATION"
		if len(res.PendingTriggers) > 0 && res.PendingTriggers[0].Template != nil {
			data["suggestedTemplateId"] = res.PendingTriggers[0].Template.ID
		}
	} else {
		data["status"] = "APPLIED"
	}
	return map[string]interface{}{
		"type": "response",
		"data": data,
	}
}

func (h *CommandHandler) sendResponse(conn *Conn, msgID string, response map[string]interface{}) {
	if msgID != "" {
		response["id"] = msgID
	}
	msg, _ := json.Marshal(response)
	select {
	case conn.send <- msg:
	default:
		h.log.Warn("Failed to send response, channel full")
	}
}

func (h *CommandHandler) sendError(conn *Conn, msgID, code, message string) {
	err := map[string]interface{}{
		"type":    "error",
		"code":    code,
		"message": message,
	}
	if msgID != "" {
		err["id"] = msgID
	}
	msg, _ := json.Marshal(err)
	select {
	case conn.send <- msg:
	default:
		h.log.Warn("Failed to send error, channel full")
	}
}
