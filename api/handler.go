package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"api_pos/internal/apperr"
	"api_pos/internal/bridge"
)

// channelHandler exposes the command bridge over HTTP.
type channelHandler struct {
	bridge *bridge.Bridge
	logger *zap.Logger
}

// NewChannelHandler creates a new channel handler.
func NewChannelHandler(b *bridge.Bridge, logger *zap.Logger) *channelHandler {
	return &channelHandler{
		bridge: b,
		logger: logger,
	}
}

// handleCommand handles POST /channels/:channel/:method. The body is the JSON
// array of positional arguments; an empty body means no arguments.
func (h *channelHandler) handleCommand(ctx *gin.Context) {
	channel, ok := bridge.ParseChannel(ctx.Param("channel"))
	if !ok {
		ctx.JSON(http.StatusNotFound, bridge.ErrorView{Status: bridge.StatusError, Mensaje: "canal desconocido"})
		return
	}
	method := ctx.Param("method")

	var args []any
	if err := ctx.ShouldBindJSON(&args); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("failed to bind arguments", zap.String("method", method), zap.Error(err))
		ctx.JSON(http.StatusBadRequest, bridge.ErrorView{Status: bridge.StatusError, Mensaje: "los argumentos deben ser una lista JSON"})
		return
	}
	if args == nil {
		args = []any{}
	}

	// A command that started runs to completion even if the client leaves.
	result := h.bridge.Dispatch(context.WithoutCancel(ctx.Request.Context()), channel, method, args)
	ctx.JSON(http.StatusOK, result)
}

// handleReceipt handles GET /ventas/:id/boleta and streams the PDF.
func (h *channelHandler) handleReceipt(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, bridge.ErrorView{Status: bridge.StatusError, Mensaje: "id de venta inválido"})
		return
	}

	receipt, err := h.bridge.Receipt(context.WithoutCancel(ctx.Request.Context()), id)
	if err != nil {
		status := http.StatusInternalServerError
		switch apperr.KindOf(err) {
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindValidation, apperr.KindTranslation:
			status = http.StatusBadRequest
		}
		ctx.JSON(status, bridge.ErrorView{Status: bridge.StatusError, Mensaje: apperr.Message(err)})
		return
	}

	ctx.Header("Content-Disposition", `inline; filename="boleta-`+strconv.FormatInt(id, 10)+`.pdf"`)
	ctx.Data(http.StatusOK, "application/pdf", receipt.PDF)
}
