package handlers

import (
	"net/http"
	"strconv"

	"votechain-client/state"

	"github.com/gin-gonic/gin"
)

// VoterInput 投票人标识
type VoterInput struct {
	VoterIdentifier string `json:"voter_identifier"`
}

// VoteInput 投票请求，投票人标识取自会话
type VoteInput struct {
	PollID     string `json:"poll_id" binding:"required"`
	VoteChoice string `json:"vote_choice" binding:"required"`
}

// VerifyInput 回执核对请求；receipt 为空时使用会话中的当前回执
type VerifyInput struct {
	PollID  string `json:"poll_id" binding:"required"`
	Receipt string `json:"receipt"`
}

const defaultReceiptLimit = 50

// SetVoter 设置投票人标识，不校验格式
func (h *Handler) SetVoter(c *gin.Context) {
	var input VoterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	h.dispatch(c, state.SetVoterIdentifier{Value: input.VoterIdentifier})
}

// ClearReceipt 清除当前显示的回执
func (h *Handler) ClearReceipt(c *gin.Context) {
	h.dispatch(c, state.ClearReceipt{})
}

// SubmitVote 投票，成功时返回服务给出的回执
func (h *Handler) SubmitVote(c *gin.Context) {
	var input VoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "poll_id and vote_choice are required")
		return
	}

	receipt, err := h.ctrl.SubmitVote(c.Request.Context(), input.PollID, input.VoteChoice)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"receipt": receipt,
		"state":   h.ctrl.Snapshot(),
	})
}

// VerifyReceipt 向服务核对回执
func (h *Handler) VerifyReceipt(c *gin.Context) {
	var input VerifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "poll_id is required")
		return
	}
	if input.Receipt == "" {
		input.Receipt = h.ctrl.Snapshot().Session.Receipt
	}
	if input.Receipt == "" {
		badRequest(c, "No receipt to verify")
		return
	}

	res, err := h.ctrl.VerifyReceipt(c.Request.Context(), input.PollID, input.Receipt)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "valid": res.Valid, "message": res.Message})
}

// ListReceipts 本地存档的回执；带 poll_id 时只返回该投票的回执
func (h *Handler) ListReceipts(c *gin.Context) {
	if pollID := c.Query("poll_id"); pollID != "" {
		receipts, err := h.ctrl.PollReceipts(c.Request.Context(), pollID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "receipts": receipts})
		return
	}

	limit := defaultReceiptLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			badRequest(c, "Invalid limit")
			return
		}
		limit = n
	}

	receipts, err := h.ctrl.Receipts(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "receipts": receipts})
}
