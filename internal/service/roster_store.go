package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/massiyousfi23-source/Emargement/internal/model"
	"github.com/massiyousfi23-source/Emargement/internal/repository"
)

// ── 点名册业务错误 ──

// ErrPersistFailed 写入持久化存储失败。
// 属于非致命警告：返回该错误时内存状态已经更新，下一次成功写入会自动对齐。
var ErrPersistFailed = errors.New("点名册持久化失败")

// RosterService 点名册业务接口
type RosterService interface {
	Snapshot() Snapshot
	Summary() Summary
	Member(id string) (model.Member, bool)
	SelectedProject() model.Project
	Projects() []model.Project

	AddMember(ctx context.Context, name, role string) (Snapshot, error)
	DeleteMember(ctx context.Context, id string) (Snapshot, error)
	SetStatus(ctx context.Context, id string, status model.AttendanceStatus) (Snapshot, error)
	UpdateField(ctx context.Context, id string, field model.MemberField, value string) (Snapshot, error)
	MarkAllPresent(ctx context.Context) (Snapshot, error)
	ResetDay(ctx context.Context) (Snapshot, error)
	SelectProject(ctx context.Context, projectID string) (Snapshot, error)
}

// StorageKeys 持久化使用的两个固定键
type StorageKeys struct {
	Members string
	Project string
}

// Snapshot 点名册的一份不可变快照
type Snapshot struct {
	Members []model.Member `json:"members"`
	// Project 与成员列表在同一把锁内读取；ID 无法解析时名称为 UnknownProjectName
	Project model.Project `json:"project"`
	Version uint64        `json:"version"` // 仅在真实变更时递增
}

// Summary 出勤统计；Unmarked = Total - Present - Absent
type Summary struct {
	Present  int `json:"present"`
	Absent   int `json:"absent"`
	Unmarked int `json:"unmarked"`
	Total    int `json:"total"`
}

// Observer 快照变更观察者，在持久化之前同步调用。
// 观察者运行时持有 RosterStore 的锁，不能回调 RosterStore。
type Observer func(Snapshot)

// RosterStore 点名册状态核心
//
// 独占成员列表与当前项目 ID。每个变更操作的流程固定为：
// 校验 → 计算新快照 → 通知观察者 → 写穿持久化。
// 无效输入（空姓名、未知 ID、未知字段）静默忽略，既不通知也不写入。
// 互斥锁保证所有操作串行执行。
type RosterStore struct {
	mu sync.Mutex

	kv       repository.KVStore
	projects repository.ProjectCatalog
	keys     StorageKeys
	seed     []model.Member
	logger   *zap.Logger
	newID    func() string

	members           []model.Member
	selectedProjectID string
	version           uint64
	observers         []Observer
}

// NewRosterStore 创建 RosterStore，初始状态为种子数据与第一个项目。
// 调用 Hydrate 从持久化存储恢复。
func NewRosterStore(repo *repository.Repository, keys StorageKeys, seed []model.Member, logger *zap.Logger) *RosterStore {
	s := &RosterStore{
		kv:       repo.KV,
		projects: repo.Project,
		keys:     keys,
		seed:     cloneMembers(seed),
		logger:   logger,
		newID:    uuid.NewString,
	}
	s.members = cloneMembers(s.seed)
	s.selectedProjectID = s.projects.First().ID
	return s
}

// Subscribe 注册快照观察者
func (s *RosterStore) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// ════════════════════════ 恢复与持久化 ════════════════════════

// Hydrate 从持久化存储恢复状态。
// 两个键分别处理：缺失、读取失败或无法解析时回退到种子值，从不向外返回错误。
// 返回值表示成员列表是否来自持久化存储。
func (s *RosterStore) Hydrate(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	restored := false
	members := cloneMembers(s.seed)
	if raw, ok := s.read(ctx, s.keys.Members); ok {
		decoded, err := DecodeMembers(raw)
		if err != nil {
			s.logger.Warn("成员列表无法解析，使用种子数据", zap.Error(err))
		} else {
			members = decoded
			restored = true
		}
	}

	projectID := s.projects.First().ID
	if raw, ok := s.read(ctx, s.keys.Project); ok && strings.TrimSpace(raw) != "" {
		projectID = raw
	}

	s.members = members
	s.selectedProjectID = projectID
	s.logger.Info("点名册已加载",
		zap.Bool("restored", restored),
		zap.Int("members", len(members)),
		zap.String("project_id", projectID),
	)
	return restored
}

func (s *RosterStore) read(ctx context.Context, key string) (string, bool) {
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Warn("读取持久化数据失败，使用默认值", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return raw, found
}

// Persist 将完整状态写入持久化存储
func (s *RosterStore) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *RosterStore) persistLocked(ctx context.Context) error {
	raw, err := EncodeMembers(s.members)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	if err := s.kv.Set(ctx, s.keys.Members, raw); err != nil {
		s.logger.Warn("写入成员列表失败", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	if err := s.kv.Set(ctx, s.keys.Project, s.selectedProjectID); err != nil {
		s.logger.Warn("写入当前项目失败", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	return nil
}

// EncodeMembers 将成员列表序列化为 JSON
func EncodeMembers(members []model.Member) (string, error) {
	if members == nil {
		members = []model.Member{}
	}
	b, err := json.Marshal(members)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeMembers 解析成员列表；结构不合法的数据（旧格式、缺少 ID、未知状态）视为失败
func DecodeMembers(raw string) ([]model.Member, error) {
	var members []model.Member
	if err := json.Unmarshal([]byte(raw), &members); err != nil {
		return nil, err
	}
	if members == nil {
		return nil, errors.New("成员列表为 null")
	}
	seen := make(map[string]bool, len(members))
	for i, m := range members {
		if m.ID == "" {
			return nil, fmt.Errorf("第 %d 个成员缺少 id", i)
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("成员 id 重复: %s", m.ID)
		}
		seen[m.ID] = true
		if !m.Status.Valid() {
			return nil, fmt.Errorf("成员 %s 状态无效: %q", m.ID, m.Status)
		}
	}
	return members, nil
}

// ════════════════════════ 只读查询 ════════════════════════

// Snapshot 当前状态的副本
func (s *RosterStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *RosterStore) snapshotLocked() Snapshot {
	return Snapshot{
		Members: cloneMembers(s.members),
		Project: s.projectLocked(),
		Version: s.version,
	}
}

func (s *RosterStore) projectLocked() model.Project {
	name, ok := s.projects.Name(s.selectedProjectID)
	if !ok {
		name = model.UnknownProjectName
	}
	return model.Project{ID: s.selectedProjectID, Name: name}
}

// Summary 统计出勤人数
func (s *RosterStore) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summarize(s.members)
}

// Summarize 按状态计数
func Summarize(members []model.Member) Summary {
	sum := Summary{Total: len(members)}
	for i := range members {
		switch members[i].Status {
		case model.StatusPresent:
			sum.Present++
		case model.StatusAbsent:
			sum.Absent++
		}
	}
	sum.Unmarked = sum.Total - sum.Present - sum.Absent
	return sum
}

// Member 按 ID 查找成员
func (s *RosterStore) Member(id string) (model.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.members, id); i >= 0 {
		return s.members[i], true
	}
	return model.Member{}, false
}

// SelectedProject 当前项目；ID 无法解析时名称为 UnknownProjectName
func (s *RosterStore) SelectedProject() model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectLocked()
}

// Projects 项目列表
func (s *RosterStore) Projects() []model.Project {
	return s.projects.List()
}

// ════════════════════════ 状态变更 ════════════════════════

// AddMember 新增成员到列表最前面。
// 姓名去除首尾空白后为空时忽略；姓名按原样保存。
func (s *RosterStore) AddMember(ctx context.Context, name, role string) (Snapshot, error) {
	return s.mutate(ctx, func(members []model.Member) ([]model.Member, bool) {
		if strings.TrimSpace(name) == "" {
			return nil, false
		}
		if role == "" {
			role = model.DefaultRole()
		}
		m := model.Member{
			ID:     s.newID(),
			Name:   name,
			Role:   role,
			Status: model.StatusUnmarked,
		}
		m.FillDefaultShift()

		next := make([]model.Member, 0, len(members)+1)
		next = append(next, m)
		next = append(next, members...)
		return next, true
	})
}

// DeleteMember 删除成员；ID 不存在时忽略。确认由调用方负责。
func (s *RosterStore) DeleteMember(ctx context.Context, id string) (Snapshot, error) {
	return s.mutate(ctx, func(members []model.Member) ([]model.Member, bool) {
		i := indexOf(members, id)
		if i < 0 {
			return nil, false
		}
		next := make([]model.Member, 0, len(members)-1)
		next = append(next, members[:i]...)
		next = append(next, members[i+1:]...)
		return next, true
	})
}

// SetStatus 标记出勤或缺勤；只接受 PRESENT / ABSENT
func (s *RosterStore) SetStatus(ctx context.Context, id string, status model.AttendanceStatus) (Snapshot, error) {
	if status != model.StatusPresent && status != model.StatusAbsent {
		return s.Snapshot(), nil
	}
	return s.updateOne(ctx, id, func(m model.Member) model.Member {
		return ApplyStatus(m, status)
	})
}

// UpdateField 覆盖单个字段，不做跨字段校验
func (s *RosterStore) UpdateField(ctx context.Context, id string, field model.MemberField, value string) (Snapshot, error) {
	return s.updateOne(ctx, id, func(m model.Member) model.Member {
		m.Set(field, value)
		return m
	})
}

// MarkAllPresent 全部标记出勤，清除缺勤原因，只补齐缺失的时间
func (s *RosterStore) MarkAllPresent(ctx context.Context) (Snapshot, error) {
	return s.updateAll(ctx, func(m model.Member) model.Member {
		m.Status = model.StatusPresent
		m.AbsenceReason = ""
		m.FillDefaultShift()
		return m
	})
}

// ResetDay 开始新的一天：全部恢复 UNMARKED 并清除签名、备注与缺勤原因。
// 姓名、岗位与时间保持不变。确认由调用方负责。
func (s *RosterStore) ResetDay(ctx context.Context) (Snapshot, error) {
	return s.updateAll(ctx, func(m model.Member) model.Member {
		m.Status = model.StatusUnmarked
		m.Signature = ""
		m.Comment = ""
		m.AbsenceReason = ""
		return m
	})
}

// SelectProject 切换当前项目，不校验 ID 是否存在于项目列表
func (s *RosterStore) SelectProject(ctx context.Context, projectID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if projectID == s.selectedProjectID {
		return s.snapshotLocked(), nil
	}
	s.selectedProjectID = projectID
	return s.commitLocked(ctx)
}

// ApplyStatus 纯函数：计算成员切换到新状态后的记录
//
//   - PRESENT 且从未记录到达时间：写入默认班次 08:00/12:00/13:00/17:00 并清除缺勤原因
//   - ABSENT：原因一律重置为 DefaultAbsenceReason，之后由 UpdateField 修改
//   - 其他状态：清除缺勤原因，已有时间保持不变
func ApplyStatus(m model.Member, status model.AttendanceStatus) model.Member {
	m.Status = status
	if status == model.StatusPresent && m.ArrivalTime == "" {
		m.ArrivalTime = model.DefaultArrivalTime
		m.BreakStart = model.DefaultBreakStart
		m.BreakEnd = model.DefaultBreakEnd
		m.DepartureTime = model.DefaultDepartureTime
		m.AbsenceReason = ""
		return m
	}
	if status == model.StatusAbsent {
		m.AbsenceReason = model.DefaultAbsenceReason
		return m
	}
	m.AbsenceReason = ""
	return m
}

// ── 内部辅助方法 ──

// mutate 在锁内计算新成员列表；fn 返回 false 表示无变更
func (s *RosterStore) mutate(ctx context.Context, fn func([]model.Member) ([]model.Member, bool)) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := fn(s.members)
	if !changed {
		return s.snapshotLocked(), nil
	}
	s.members = next
	return s.commitLocked(ctx)
}

func (s *RosterStore) updateOne(ctx context.Context, id string, fn func(model.Member) model.Member) (Snapshot, error) {
	return s.mutate(ctx, func(members []model.Member) ([]model.Member, bool) {
		i := indexOf(members, id)
		if i < 0 {
			return nil, false
		}
		updated := fn(members[i])
		if updated == members[i] {
			return nil, false
		}
		next := cloneMembers(members)
		next[i] = updated
		return next, true
	})
}

func (s *RosterStore) updateAll(ctx context.Context, fn func(model.Member) model.Member) (Snapshot, error) {
	return s.mutate(ctx, func(members []model.Member) ([]model.Member, bool) {
		next := make([]model.Member, len(members))
		changed := false
		for i, m := range members {
			next[i] = fn(m)
			if next[i] != m {
				changed = true
			}
		}
		return next, changed
	})
}

// commitLocked 递增版本、通知观察者并写穿持久化
func (s *RosterStore) commitLocked(ctx context.Context) (Snapshot, error) {
	s.version++
	snap := s.snapshotLocked()
	for _, o := range s.observers {
		o(snap)
	}
	if err := s.persistLocked(ctx); err != nil {
		return snap, err
	}
	return snap, nil
}

func indexOf(members []model.Member, id string) int {
	for i := range members {
		if members[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneMembers(members []model.Member) []model.Member {
	out := make([]model.Member, len(members))
	copy(out, members)
	return out
}
