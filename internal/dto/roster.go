package dto

// ── 点名册模块 DTO ──

// AddMemberRequest 新增成员请求
type AddMemberRequest struct {
	Name string `json:"name" binding:"required"`
	Role string `json:"role"`
}

// SetStatusRequest 标记出勤状态请求
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PRESENT ABSENT"`
}

// UpdateFieldRequest 单字段更新请求；value 为空表示清空该字段
type UpdateFieldRequest struct {
	Field string `json:"field" binding:"required,oneof=name role absenceReason arrivalTime breakStart breakEnd departureTime comment signature"`
	Value string `json:"value"`
}

// SelectProjectRequest 切换项目请求
type SelectProjectRequest struct {
	ProjectID string `json:"project_id" binding:"required,max=64"`
}

// MemberResponse 成员信息响应
type MemberResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	Status        string `json:"status"`
	AbsenceReason string `json:"absence_reason,omitempty"`
	ArrivalTime   string `json:"arrival_time,omitempty"`
	BreakStart    string `json:"break_start,omitempty"`
	BreakEnd      string `json:"break_end,omitempty"`
	DepartureTime string `json:"departure_time,omitempty"`
	Comment       string `json:"comment,omitempty"`
	Signature     string `json:"signature,omitempty"`
	Signed        bool   `json:"signed"`
}

// SummaryResponse 出勤统计响应
type SummaryResponse struct {
	Present  int `json:"present"`
	Absent   int `json:"absent"`
	Unmarked int `json:"unmarked"`
	Total    int `json:"total"`
}

// ProjectResponse 项目信息
type ProjectResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RosterResponse 点名册完整视图
type RosterResponse struct {
	Version uint64           `json:"version"`
	Project ProjectResponse  `json:"project"`
	Summary SummaryResponse  `json:"summary"`
	Members []MemberResponse `json:"members"`
}
