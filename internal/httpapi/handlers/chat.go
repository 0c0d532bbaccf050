package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/chat-exchange/internal/auth"
	"github.com/suPer8Hu/chat-exchange/internal/chat"
	"github.com/suPer8Hu/chat-exchange/internal/common"
	"github.com/suPer8Hu/chat-exchange/internal/logger"
	"github.com/suPer8Hu/chat-exchange/internal/store/rabbitmq"
	"go.uber.org/zap"
)

func failUnauthorized(c *gin.Context) {
	common.Fail(c, http.StatusUnauthorized, 40101, string(chat.CodeUnauthenticated), "unauthorized")
}

// failChat maps a chat error onto the response envelope. Causes stay in the logs.
func failChat(c *gin.Context, err error) {
	switch chat.CodeOf(err) {
	case chat.CodeUnauthenticated:
		failUnauthorized(c)
	case chat.CodeInvalidArgument:
		common.Fail(c, http.StatusBadRequest, 10001, string(chat.CodeInvalidArgument), "invalid request")
	case chat.CodeUnsupportedModel:
		common.Fail(c, http.StatusBadRequest, 10002, string(chat.CodeUnsupportedModel), "unsupported model")
	case chat.CodeGeneration:
		common.Fail(c, http.StatusBadGateway, 50201, string(chat.CodeGeneration), "failed to generate AI response")
	default:
		common.Fail(c, http.StatusInternalServerError, 50001, string(chat.CodePersistence), "failed to save or load messages")
	}
}

type sendReq struct {
	ModelTag string `json:"modelTag"`
	Prompt   string `json:"prompt"`
}

func (h *Handler) SendChat(c *gin.Context) {
	uid, ok := auth.UserIDFromContext(c.Request.Context())
	if !ok {
		failUnauthorized(c)
		return
	}

	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, string(chat.CodeInvalidArgument), "invalid json")
		return
	}

	ctx := c.Request.Context()
	reply, err := h.ChatSvc.Send(ctx, uid, req.ModelTag, req.Prompt)
	h.publishOutcome(ctx, uid, req.ModelTag, err)
	if err != nil {
		failChat(c, err)
		return
	}

	common.OK(c, reply)
}

// publishOutcome reports exchanges that touched the store. Publishing never
// affects the response.
func (h *Handler) publishOutcome(ctx context.Context, uid, modelTag string, err error) {
	if h.Events == nil {
		return
	}
	outcome := rabbitmq.OutcomeAssistant
	if err != nil {
		code := chat.CodeOf(err)
		if code != chat.CodeGeneration && code != chat.CodePersistence {
			return
		}
		outcome = string(code)
	}

	ev := rabbitmq.ExchangeEvent{UserID: uid, ModelTag: modelTag, Outcome: outcome, At: time.Now().UTC()}
	if perr := h.Events.PublishExchange(context.WithoutCancel(ctx), ev); perr != nil {
		logger.WithCtx(ctx).Warn("publish exchange event failed",
			zap.String("user_id", uid), zap.String("outcome", outcome), zap.Error(perr))
	}
}

func (h *Handler) ChatHistory(c *gin.Context) {
	uid, ok := auth.UserIDFromContext(c.Request.Context())
	if !ok {
		failUnauthorized(c)
		return
	}

	turns, err := h.ChatSvc.History(c.Request.Context(), uid)
	if err != nil {
		failChat(c, err)
		return
	}

	common.OK(c, gin.H{"messages": turns})
}

func (h *Handler) ListModels(c *gin.Context) {
	common.OK(c, gin.H{"models": h.ChatSvc.Models()})
}

func (h *Handler) ChatUsage(c *gin.Context) {
	uid, ok := auth.UserIDFromContext(c.Request.Context())
	if !ok {
		failUnauthorized(c)
		return
	}
	if h.Usage == nil {
		common.Fail(c, http.StatusNotFound, 40401, "NOT_FOUND", "usage tracking disabled")
		return
	}

	usage, err := h.Usage.Usage(c.Request.Context(), uid)
	if err != nil {
		logger.WithCtx(c.Request.Context()).Error("read usage failed", zap.String("user_id", uid), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50002, "INTERNAL", "failed to load usage")
		return
	}
	common.OK(c, gin.H{"usage": usage})
}
