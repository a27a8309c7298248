package model

// AttendanceStatus 出勤状态
type AttendanceStatus string

const (
	StatusPresent  AttendanceStatus = "PRESENT"
	StatusAbsent   AttendanceStatus = "ABSENT"
	StatusUnmarked AttendanceStatus = "UNMARKED"
)

// Valid 是否为已知状态
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusUnmarked:
		return true
	}
	return false
}

// AbsenceReason 缺勤原因代码
type AbsenceReason string

const (
	AbsenceFormation AbsenceReason = "FOR" // 培训
	AbsenceMaladie   AbsenceReason = "MAL" // 病假
	AbsenceCP        AbsenceReason = "CP"  // 带薪休假
	AbsenceANJ       AbsenceReason = "ANJ" // 无正当理由缺勤
)

// DefaultAbsenceReason 标记缺勤时的默认原因
const DefaultAbsenceReason = AbsenceANJ

// Valid 是否为已知原因
func (r AbsenceReason) Valid() bool {
	switch r {
	case AbsenceFormation, AbsenceMaladie, AbsenceCP, AbsenceANJ:
		return true
	}
	return false
}

// Roles 预设岗位，第一个为新增成员的默认岗位
var Roles = []string{
	"Salarié en insertion",
	"Relais technique",
	"Chef d'équipe",
	"Cariste",
}

// DefaultRole 新增成员未指定岗位时使用
func DefaultRole() string { return Roles[0] }

// 默认班次
const (
	DefaultArrivalTime   = "08:00"
	DefaultBreakStart    = "12:00"
	DefaultBreakEnd      = "13:00"
	DefaultDepartureTime = "17:00"
)

// Member 成员当日出勤记录
//
// 时间字段仅在 PRESENT 时有意义，AbsenceReason 仅在 ABSENT 时有意义；
// 状态切换时不清空时间字段，由 Status 决定哪组字段生效。
type Member struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Role          string           `json:"role"`
	Status        AttendanceStatus `json:"status"`
	AbsenceReason AbsenceReason    `json:"absenceReason,omitempty"`
	Comment       string           `json:"comment,omitempty"`
	Signature     string           `json:"signature,omitempty"` // 不透明的图片数据（通常为 data URL）
	ArrivalTime   string           `json:"arrivalTime,omitempty"`
	BreakStart    string           `json:"breakStart,omitempty"`
	BreakEnd      string           `json:"breakEnd,omitempty"`
	DepartureTime string           `json:"departureTime,omitempty"`
}

// HasSignature 是否已签名
func (m *Member) HasSignature() bool { return m.Signature != "" }

// FillDefaultShift 为空的时间字段补齐默认班次，已有时间保持不变
func (m *Member) FillDefaultShift() {
	if m.ArrivalTime == "" {
		m.ArrivalTime = DefaultArrivalTime
	}
	if m.BreakStart == "" {
		m.BreakStart = DefaultBreakStart
	}
	if m.BreakEnd == "" {
		m.BreakEnd = DefaultBreakEnd
	}
	if m.DepartureTime == "" {
		m.DepartureTime = DefaultDepartureTime
	}
}

// MemberField 可单独更新的成员字段（id 与 status 除外）
type MemberField string

const (
	FieldName          MemberField = "name"
	FieldRole          MemberField = "role"
	FieldAbsenceReason MemberField = "absenceReason"
	FieldArrivalTime   MemberField = "arrivalTime"
	FieldBreakStart    MemberField = "breakStart"
	FieldBreakEnd      MemberField = "breakEnd"
	FieldDepartureTime MemberField = "departureTime"
	FieldComment       MemberField = "comment"
	FieldSignature     MemberField = "signature"
)

// Set 覆盖单个字段，未知字段返回 false
func (m *Member) Set(field MemberField, value string) bool {
	switch field {
	case FieldName:
		m.Name = value
	case FieldRole:
		m.Role = value
	case FieldAbsenceReason:
		m.AbsenceReason = AbsenceReason(value)
	case FieldArrivalTime:
		m.ArrivalTime = value
	case FieldBreakStart:
		m.BreakStart = value
	case FieldBreakEnd:
		m.BreakEnd = value
	case FieldDepartureTime:
		m.DepartureTime = value
	case FieldComment:
		m.Comment = value
	case FieldSignature:
		m.Signature = value
	default:
		return false
	}
	return true
}
