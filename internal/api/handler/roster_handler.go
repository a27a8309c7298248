package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/massiyousfi23-source/Emargement/internal/dto"
	"github.com/massiyousfi23-source/Emargement/internal/model"
	"github.com/massiyousfi23-source/Emargement/internal/service"
	"github.com/massiyousfi23-source/Emargement/pkg/response"
)

// RosterHandler 点名册模块 HTTP 处理器
//
// 删除与重置的确认由前端负责；到达这里的请求一律执行。
type RosterHandler struct {
	rosterSvc service.RosterService
}

// NewRosterHandler 创建 RosterHandler
func NewRosterHandler(rosterSvc service.RosterService) *RosterHandler {
	return &RosterHandler{rosterSvc: rosterSvc}
}

// GetRoster 获取点名册
// GET /api/v1/roster
func (h *RosterHandler) GetRoster(c *gin.Context) {
	response.OK(c, toRosterResponse(h.rosterSvc.Snapshot()))
}

// GetSummary 获取出勤统计
// GET /api/v1/roster/summary
func (h *RosterHandler) GetSummary(c *gin.Context) {
	response.OK(c, toSummaryResponse(h.rosterSvc.Summary()))
}

// AddMember 新增成员
// POST /api/v1/roster/members
func (h *RosterHandler) AddMember(c *gin.Context) {
	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		response.BadRequest(c, 17002, "姓名不能为空")
		return
	}

	snap, err := h.rosterSvc.AddMember(c.Request.Context(), req.Name, req.Role)
	if err != nil {
		h.respond(c, snap, err)
		return
	}
	response.Created(c, toRosterResponse(snap))
}

// DeleteMember 删除成员
// DELETE /api/v1/roster/members/:id
func (h *RosterHandler) DeleteMember(c *gin.Context) {
	id, ok := h.mustGetMember(c)
	if !ok {
		return
	}

	snap, err := h.rosterSvc.DeleteMember(c.Request.Context(), id)
	h.respond(c, snap, err)
}

// SetStatus 标记出勤状态
// PUT /api/v1/roster/members/:id/status
func (h *RosterHandler) SetStatus(c *gin.Context) {
	id, ok := h.mustGetMember(c)
	if !ok {
		return
	}

	var req dto.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	snap, err := h.rosterSvc.SetStatus(c.Request.Context(), id, model.AttendanceStatus(req.Status))
	h.respond(c, snap, err)
}

// UpdateField 更新成员单个字段
// PATCH /api/v1/roster/members/:id
func (h *RosterHandler) UpdateField(c *gin.Context) {
	id, ok := h.mustGetMember(c)
	if !ok {
		return
	}

	var req dto.UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	field := model.MemberField(req.Field)
	if field == model.FieldAbsenceReason && req.Value != "" && !model.AbsenceReason(req.Value).Valid() {
		response.BadRequest(c, 17003, "缺勤原因无效")
		return
	}

	snap, err := h.rosterSvc.UpdateField(c.Request.Context(), id, field, req.Value)
	h.respond(c, snap, err)
}

// MarkAllPresent 全部标记出勤
// POST /api/v1/roster/mark-all-present
func (h *RosterHandler) MarkAllPresent(c *gin.Context) {
	snap, err := h.rosterSvc.MarkAllPresent(c.Request.Context())
	h.respond(c, snap, err)
}

// ResetDay 重置当天
// POST /api/v1/roster/reset
func (h *RosterHandler) ResetDay(c *gin.Context) {
	snap, err := h.rosterSvc.ResetDay(c.Request.Context())
	h.respond(c, snap, err)
}

// SelectProject 切换当前项目
// PUT /api/v1/roster/project
func (h *RosterHandler) SelectProject(c *gin.Context) {
	var req dto.SelectProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	snap, err := h.rosterSvc.SelectProject(c.Request.Context(), req.ProjectID)
	h.respond(c, snap, err)
}

// ListProjects 获取项目列表
// GET /api/v1/projects
func (h *RosterHandler) ListProjects(c *gin.Context) {
	projects := h.rosterSvc.Projects()
	list := make([]dto.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		list = append(list, dto.ProjectResponse{ID: p.ID, Name: p.Name})
	}
	response.OK(c, gin.H{"list": list})
}

// ── 内部辅助方法 ──

// mustGetMember 读取路径中的成员 ID 并确认存在；失败时已写入响应
func (h *RosterHandler) mustGetMember(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "成员ID不能为空")
		return "", false
	}
	if _, ok := h.rosterSvc.Member(id); !ok {
		response.NotFound(c, 17001, "成员不存在")
		return "", false
	}
	return id, true
}

// respond 写入变更结果；持久化失败作为警告放在 details 中
func (h *RosterHandler) respond(c *gin.Context, snap service.Snapshot, err error) {
	data := toRosterResponse(snap)
	if err != nil {
		response.OKWithWarning(c, data, err.Error())
		return
	}
	response.OK(c, data)
}

func toRosterResponse(snap service.Snapshot) dto.RosterResponse {
	project := snap.Project
	members := make([]dto.MemberResponse, 0, len(snap.Members))
	for i := range snap.Members {
		members = append(members, toMemberResponse(&snap.Members[i]))
	}
	return dto.RosterResponse{
		Version: snap.Version,
		Project: dto.ProjectResponse{ID: project.ID, Name: project.Name},
		Summary: toSummaryResponse(service.Summarize(snap.Members)),
		Members: members,
	}
}

func toMemberResponse(m *model.Member) dto.MemberResponse {
	return dto.MemberResponse{
		ID:            m.ID,
		Name:          m.Name,
		Role:          m.Role,
		Status:        string(m.Status),
		AbsenceReason: string(m.AbsenceReason),
		ArrivalTime:   m.ArrivalTime,
		BreakStart:    m.BreakStart,
		BreakEnd:      m.BreakEnd,
		DepartureTime: m.DepartureTime,
		Comment:       m.Comment,
		Signature:     m.Signature,
		Signed:        m.HasSignature(),
	}
}

func toSummaryResponse(s service.Summary) dto.SummaryResponse {
	return dto.SummaryResponse{
		Present:  s.Present,
		Absent:   s.Absent,
		Unmarked: s.Unmarked,
		Total:    s.Total,
	}
}
