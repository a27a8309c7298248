package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/massiyousfi23-source/Emargement/internal/dto"
	"github.com/massiyousfi23-source/Emargement/internal/model"
	"github.com/massiyousfi23-source/Emargement/internal/repository"
	"github.com/massiyousfi23-source/Emargement/internal/service"
	pkgerrors "github.com/massiyousfi23-source/Emargement/pkg/errors"
	"github.com/massiyousfi23-source/Emargement/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult *dto.TokenResponse
	loginErr    error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportExcel(_ context.Context) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportPDF(_ context.Context) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── 写入失败的 KVStore ──

type failingKV struct{}

func (failingKV) Get(_ context.Context, _ string) (string, bool, error) { return "", false, nil }
func (failingKV) Set(_ context.Context, _, _ string) error             { return errors.New("disk full") }

// ═══════════════════════════════════════════════════════════
// 测试辅助
// ═══════════════════════════════════════════════════════════

func newTestRoster(kv repository.KVStore) *service.RosterStore {
	projects := repository.NewProjectCatalog([]model.Project{
		{ID: "p1", Name: "Emargement Equipe 1"},
		{ID: "p2", Name: "Riverside Residential Complex"},
	})
	repo := repository.NewRepository(kv, projects)
	return service.NewRosterStore(repo, service.StorageKeys{Members: "m", Project: "p"}, model.SeedMembers(), zap.NewNop())
}

func setupRosterRouter(roster service.RosterService) *gin.Engine {
	h := NewRosterHandler(roster)
	r := gin.New()
	r.GET("/roster", h.GetRoster)
	r.GET("/roster/summary", h.GetSummary)
	r.POST("/roster/members", h.AddMember)
	r.DELETE("/roster/members/:id", h.DeleteMember)
	r.PATCH("/roster/members/:id", h.UpdateField)
	r.PUT("/roster/members/:id/status", h.SetStatus)
	r.POST("/roster/mark-all-present", h.MarkAllPresent)
	r.POST("/roster/reset", h.ResetDay)
	r.PUT("/roster/project", h.SelectProject)
	r.GET("/projects", h.ListProjects)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type rosterEnvelope struct {
	Code    int                `json:"code"`
	Message string             `json:"message"`
	Details string             `json:"details"`
	Data    dto.RosterResponse `json:"data"`
}

func parseRoster(t *testing.T, w *httptest.ResponseRecorder) rosterEnvelope {
	t.Helper()
	var env rosterEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("解析响应失败: %v, body=%s", err, w.Body.String())
	}
	return env
}

func parseCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	return resp.Code
}

// ═══════════════════════════════════════════════════════════
// RosterHandler
// ═══════════════════════════════════════════════════════════

func TestRosterHandler_GetRoster(t *testing.T) {
	r := setupRosterRouter(newTestRoster(repository.NewMemoryKV()))

	w := doRequest(r, http.MethodGet, "/roster", "")
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际: %d", w.Code)
	}
	env := parseRoster(t, w)
	if len(env.Data.Members) != 4 {
		t.Errorf("期望 4 个成员，实际: %d", len(env.Data.Members))
	}
	if env.Data.Summary.Present != 3 || env.Data.Summary.Absent != 1 || env.Data.Summary.Total != 4 {
		t.Errorf("统计不正确: %+v", env.Data.Summary)
	}
	if env.Data.Project.Name != "Emargement Equipe 1" {
		t.Errorf("项目名称不正确: %s", env.Data.Project.Name)
	}
}

func TestRosterHandler_AddMember(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantHTTP int
		wantCode int
	}{
		{"成功", `{"name":"Jane Doe","role":"Cariste"}`, http.StatusCreated, 0},
		{"缺少姓名", `{"role":"Cariste"}`, http.StatusBadRequest, 10001},
		{"空白姓名", `{"name":"   "}`, http.StatusBadRequest, 17002},
		{"非法 JSON", `{`, http.StatusBadRequest, 10001},
		{"超长姓名", `{"name":"` + strings.Repeat("N", 300) + `"}`, http.StatusCreated, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRosterRouter(newTestRoster(repository.NewMemoryKV()))
			w := doRequest(r, http.MethodPost, "/roster/members", tt.body)
			if w.Code != tt.wantHTTP {
				t.Fatalf("期望 HTTP %d，实际: %d", tt.wantHTTP, w.Code)
			}
			if code := parseCode(t, w); code != tt.wantCode {
				t.Errorf("期望业务码 %d，实际: %d", tt.wantCode, code)
			}
		})
	}
}

func TestRosterHandler_AddMember_PrependsWithDefaults(t *testing.T) {
	r := setupRosterRouter(newTestRoster(repository.NewMemoryKV()))

	env := parseRoster(t, doRequest(r, http.MethodPost, "/roster/members", `{"name":"Jane"}`))
	first := env.Data.Members[0]
	if first.Name != "Jane" || first.Role != model.DefaultRole() || first.Status != "UNMARKED" {
		t.Errorf("新成员不正确: %+v", first)
	}
	if first.ArrivalTime != "08:00" || first.DepartureTime != "17:00" {
		t.Errorf("期望默认班次，实际: %+v", first)
	}
	if env.Data.Summary.Unmarked != 1 {
		t.Errorf("期望 1 人未标记，实际: %d", env.Data.Summary.Unmarked)
	}
}

func TestRosterHandler_MemberNotFound(t *testing.T) {
	r := setupRosterRouter(newTestRoster(repository.NewMemoryKV()))

	cases := []struct {
		method, path, body string
	}{
		{http.MethodDelete, "/roster/members/missing", ""},
		{http.MethodPut, "/roster/members/missing/status", `{"status":"PRESENT"}`},
		{http.MethodPatch, "/roster/members/missing", `{"field":"name","value":"x"}`},
	}
	for _, tc := range cases {
		w := doRequest(r, tc.method, tc.path, tc.body)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s 期望 404，实际: %d", tc.method, tc.path, w.Code)
			continue
		}
		if code := parseCode(t, w); code != 17001 {
			t.Errorf("期望业务码 17001，实际: %d", code)
		}
	}
}

func TestRosterHandler_SetStatus(t *testing.T) {
	r := setupRosterRouter(newTestRoster(repository.NewMemoryKV()))

	w := doRequest(r, http.MethodPut, "/roster/members/3/status", `{"status":"PRESENT"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际: %d", w.Code)
	}
	env := parseRoster(t, w)
	riley := env.Data.Members[2]
	if riley.Status != "PRESENT" || riley.ArrivalTime != "08:00" || riley.AbsenceReason != "" {
		t.Errorf("期望出勤并补齐默认班次，实际: %+v", riley)
	}
	if env.Data.Summary.Present != 4 {
		t.Errorf("期望 4 人出勤，实际: %d", env.Data.Summary.Present)
	}

	w = doRequest(r, http.MethodPut, "/roster/members/3/status", `{"status":"UNMARKED"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("UNMARKED 不可直接设置，期望 400，实际: %d", w.Code)
	}
}

func TestRosterHandler_UpdateField(t *testing.T) {
	r := setupRosterRouter(newTestRoster(repository.NewMemoryKV()))

	w := doRequest(r, http.MethodPatch, "/roster/members/1", `{"field":"signature","value":"data:image/png;base64,AAAA"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际: %d", w.Code)
	}
	if !parseRoster(t, w).Data.Members[0].Signed {
		t.Error("签名后 signed 应为 true")
	}

	w = doRequest(r, http.MethodPatch, "/roster/members/3", `{"field":"absenceReason","value":"XYZ"}`)
	if w.Code != http.StatusBadRequest || parseCode(t, w) != 17003 {
		t.Errorf("无效缺勤原因期望 400/17003，实际: %d", w.Code)
	}

	w = doRequest(r, http.MethodPatch, "/roster/members/3", `{"field":"status","value":"PRESENT"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status 不可通过字段更新修改，期望 400，实际: %d", w.Code)
	}
}

func TestRosterHandler_MarkAllPresentAndReset(t *testing.T) {
	r := setupRosterRouter(newTestRoster(repository.NewMemoryKV()))

	env := parseRoster(t, doRequest(r, http.MethodPost, "/roster/mark-all-present", ""))
	if env.Data.Summary.Present != 4 {
		t.Errorf("期望全部出勤，实际: %+v", env.Data.Summary)
	}

	env = parseRoster(t, doRequest(r, http.MethodPost, "/roster/reset", ""))
	if env.Data.Summary.Unmarked != 4 || env.Data.Summary.Present != 0 {
		t.Errorf("期望全部未标记，实际: %+v", env.Data.Summary)
	}
	if env.Data.Version != 2 {
		t.Errorf("期望版本 2，实际: %d", env.Data.Version)
	}
}

func TestRosterHandler_SelectProject(t *testing.T) {
	r := setupRosterRouter(newTestRoster(repository.NewMemoryKV()))

	env := parseRoster(t, doRequest(r, http.MethodPut, "/roster/project", `{"project_id":"p2"}`))
	if env.Data.Project.Name != "Riverside Residential Complex" {
		t.Errorf("项目名称不正确: %s", env.Data.Project.Name)
	}

	env = parseRoster(t, doRequest(r, http.MethodPut, "/roster/project", `{"project_id":"zzz"}`))
	if env.Data.Project.ID != "zzz" || env.Data.Project.Name != model.UnknownProjectName {
		t.Errorf("未知项目应显示 %s，实际: %+v", model.UnknownProjectName, env.Data.Project)
	}
}

func TestRosterHandler_ListProjects(t *testing.T) {
	r := setupRosterRouter(newTestRoster(repository.NewMemoryKV()))

	w := doRequest(r, http.MethodGet, "/projects", "")
	var resp struct {
		Data struct {
			List []dto.ProjectResponse `json:"list"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if len(resp.Data.List) != 2 || resp.Data.List[0].ID != "p1" {
		t.Errorf("项目列表不正确: %+v", resp.Data.List)
	}
}

func TestRosterHandler_PersistFailureIsWarning(t *testing.T) {
	r := setupRosterRouter(newTestRoster(failingKV{}))

	w := doRequest(r, http.MethodPut, "/roster/members/3/status", `{"status":"PRESENT"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("持久化失败不应影响响应状态，期望 200，实际: %d", w.Code)
	}
	env := parseRoster(t, w)
	if env.Details == "" {
		t.Error("期望 details 中带有持久化警告")
	}
	if env.Data.Members[2].Status != "PRESENT" {
		t.Error("内存状态应已更新")
	}
}

func TestRosterHandler_StoreUnavailableIsWarning(t *testing.T) {
	kv := repository.NewLazyKV(func(context.Context) (repository.KVStore, error) {
		return nil, errors.New("connection refused")
	}, time.Minute, zap.NewNop())
	r := setupRosterRouter(newTestRoster(kv))

	w := doRequest(r, http.MethodPost, "/roster/members", `{"name":"Jane"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("存储不可用时期望 200 + 警告，实际: %d", w.Code)
	}
	env := parseRoster(t, w)
	if !strings.Contains(env.Details, pkgerrors.ErrStoreUnavailable.Error()) {
		t.Errorf("details 应说明存储不可用，实际: %q", env.Details)
	}
	if len(env.Data.Members) != 5 {
		t.Errorf("内存状态应已更新，期望 5 个成员，实际: %d", len(env.Data.Members))
	}
}

// staleProjectRoster 模拟并发切换项目：SelectedProject 已指向其他项目
type staleProjectRoster struct {
	service.RosterService
	snap service.Snapshot
}

func (s *staleProjectRoster) Snapshot() service.Snapshot { return s.snap }
func (s *staleProjectRoster) SelectedProject() model.Project {
	return model.Project{ID: "p2", Name: "Riverside Residential Complex"}
}

func TestRosterHandler_ProjectComesFromSnapshot(t *testing.T) {
	stub := &staleProjectRoster{snap: service.Snapshot{
		Members: model.SeedMembers(),
		Project: model.Project{ID: "p1", Name: "Emargement Equipe 1"},
		Version: 7,
	}}
	r := setupRosterRouter(stub)

	env := parseRoster(t, doRequest(r, http.MethodGet, "/roster", ""))
	if env.Data.Project.ID != "p1" || env.Data.Project.Name != "Emargement Equipe 1" {
		t.Errorf("项目应与快照一致，实际: %+v", env.Data.Project)
	}
	if env.Data.Version != 7 {
		t.Errorf("期望版本 7，实际: %d", env.Data.Version)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Download(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("%PDF-1.3"), filename: "Presence_Equipe_2024-03-07.pdf"}
	h := NewExportHandler(mock)
	r := gin.New()
	r.GET("/export/pdf", h.ExportPDF)

	w := doRequest(r, http.MethodGet, "/export/pdf", "")
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际: %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != contentTypePDF {
		t.Errorf("Content-Type 不正确: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "Presence_Equipe_2024-03-07.pdf") {
		t.Errorf("Content-Disposition 不正确: %s", cd)
	}
	if w.Body.String() != "%PDF-1.3" {
		t.Errorf("响应体不正确: %s", w.Body.String())
	}
}

func TestExportHandler_Error(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportGenerateFail})
	r := gin.New()
	r.GET("/export/excel", h.ExportExcel)

	w := doRequest(r, http.MethodGet, "/export/excel", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("期望 500，实际: %d", w.Code)
	}
	if code := parseCode(t, w); code != 16101 {
		t.Errorf("期望业务码 16101，实际: %d", code)
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name     string
		mock     *mockAuthService
		body     string
		wantHTTP int
		wantCode int
	}{
		{"成功", &mockAuthService{loginResult: &dto.TokenResponse{AccessToken: "tok", ExpiresIn: 60}}, `{"username":"a","password":"b"}`, http.StatusOK, 0},
		{"凭据错误", &mockAuthService{loginErr: service.ErrInvalidCredentials}, `{"username":"a","password":"b"}`, http.StatusUnauthorized, 10101},
		{"未启用", &mockAuthService{loginErr: service.ErrAuthDisabled}, `{"username":"a","password":"b"}`, http.StatusNotFound, 10102},
		{"内部错误", &mockAuthService{loginErr: errors.New("boom")}, `{"username":"a","password":"b"}`, http.StatusInternalServerError, 50000},
		{"缺少参数", &mockAuthService{}, `{"username":"a"}`, http.StatusBadRequest, 10001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(tt.mock)
			r := gin.New()
			r.POST("/auth/login", h.Login)

			w := doRequest(r, http.MethodPost, "/auth/login", tt.body)
			if w.Code != tt.wantHTTP {
				t.Fatalf("期望 HTTP %d，实际: %d", tt.wantHTTP, w.Code)
			}
			if code := parseCode(t, w); code != tt.wantCode {
				t.Errorf("期望业务码 %d，实际: %d", tt.wantCode, code)
			}
		})
	}
}
