package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"votechain-client/model"
	"votechain-client/state"

	"github.com/gin-gonic/gin"
)

// DraftPatch 草稿字段修改，缺省字段不变
type DraftPatch struct {
	Title         *string         `json:"title"`
	Question      *string         `json:"question"`
	DurationHours *int            `json:"duration_hours"`
	Language      *model.Language `json:"language"`
}

// OptionInput 选项内容
type OptionInput struct {
	Value string `json:"value"`
}

// PatchDraft 修改草稿标题、问题、时长或语言
func (h *Handler) PatchDraft(c *gin.Context) {
	var patch DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	var actions []state.Action
	if patch.Title != nil {
		actions = append(actions, state.SetTitle{Title: *patch.Title})
	}
	if patch.Question != nil {
		actions = append(actions, state.SetQuestion{Question: *patch.Question})
	}
	// 时长在提交时校验
	if patch.DurationHours != nil {
		actions = append(actions, state.SetDurationHours{Hours: *patch.DurationHours})
	}
	if patch.Language != nil {
		if !patch.Language.Valid() {
			badRequest(c, "Language must be one of ar, fr, en")
			return
		}
		actions = append(actions, state.SetLanguage{Language: *patch.Language})
	}
	h.dispatch(c, actions...)
}

// AddOption 追加空选项，已有10个时不变
func (h *Handler) AddOption(c *gin.Context) {
	h.dispatch(c, state.AddOption{})
}

// UpdateOption 修改指定位置的选项
func (h *Handler) UpdateOption(c *gin.Context) {
	index, ok := optionIndex(c)
	if !ok {
		return
	}
	var input OptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	h.dispatch(c, state.UpdateOption{Index: index, Value: input.Value})
}

// RemoveOption 删除指定位置的选项，只剩2个时不变
func (h *Handler) RemoveOption(c *gin.Context) {
	index, ok := optionIndex(c)
	if !ok {
		return
	}
	h.dispatch(c, state.RemoveOption{Index: index})
}

// ResetDraft 放弃草稿
func (h *Handler) ResetDraft(c *gin.Context) {
	h.dispatch(c, state.ResetDraft{})
}

// SubmitDraft 提交草稿创建投票
func (h *Handler) SubmitDraft(c *gin.Context) {
	pollURL, err := h.ctrl.SubmitPollCreation(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"poll_url": pollURL,
		"state":    h.ctrl.Snapshot(),
	})
}

// GetPoll 单个投票详情，直接向服务查询
func (h *Handler) GetPoll(c *gin.Context) {
	poll, err := h.ctrl.FetchPoll(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "poll": poll})
}

// Refresh 重新拉取投票列表与统计，一个失败不影响另一个
func (h *Handler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()
	pollsErr := h.ctrl.RefreshActivePolls(ctx)
	statsErr := h.ctrl.RefreshStats(ctx)
	if err := errors.Join(pollsErr, statsErr); err != nil {
		h.respondError(c, err)
		return
	}
	h.GetState(c)
}

func optionIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "Invalid option index")
		return 0, false
	}
	return index, true
}
