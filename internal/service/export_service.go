package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/massiyousfi23-source/Emargement/internal/model"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// 导出占位符
const (
	placeholder = "-"
	sheetName   = "Présences"
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出只读取 RosterStore 的快照与当前项目名称，不参与状态变更
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - 文件名：Presence_<项目名，空白替换为 _>_<YYYY-MM-DD>.<ext>
type ExportService interface {
	// ExportExcel 导出当日点名册为 Excel
	ExportExcel(ctx context.Context) (*bytes.Buffer, string, error)
	// ExportPDF 导出当日点名册为 PDF
	ExportPDF(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	roster RosterService
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(roster RosterService, logger *zap.Logger) ExportService {
	return &exportService{roster: roster, logger: logger, now: time.Now}
}

func (s *exportService) ExportExcel(_ context.Context) (*bytes.Buffer, string, error) {
	snap := s.roster.Snapshot()
	project := snap.Project
	now := s.now()

	buf, err := BuildExcel(snap.Members, project.Name)
	if err != nil {
		s.logger.Error("生成 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, ExportFilename(project.Name, now, "xlsx"), nil
}

func (s *exportService) ExportPDF(_ context.Context) (*bytes.Buffer, string, error) {
	snap := s.roster.Snapshot()
	project := snap.Project
	now := s.now()

	buf, err := BuildPDF(snap.Members, project.Name, now)
	if err != nil {
		s.logger.Error("生成 PDF 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, ExportFilename(project.Name, now, "pdf"), nil
}

// ExportFilename 根据项目名与日期生成确定性的文件名
func ExportFilename(projectName string, now time.Time, ext string) string {
	name := strings.Join(strings.Fields(projectName), "_")
	return fmt.Sprintf("Presence_%s_%s.%s", name, now.Format("2006-01-02"), ext)
}

// ═══════════════════════════════════════════════════════════
// Excel
// ═══════════════════════════════════════════════════════════
//
// 列：Nom | Rôle | Statut | Motif Absence | Arrivée | Pause Début | Pause Fin | Départ | Signé | Commentaire

var excelHeaders = []string{
	"Nom", "Rôle", "Statut", "Motif Absence", "Arrivée",
	"Pause Début", "Pause Fin", "Départ", "Signé", "Commentaire",
}

// BuildExcel 生成 Excel 内容
func BuildExcel(members []model.Member, projectName string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	widths := []float64{24, 22, 12, 14, 10, 12, 10, 10, 8, 40}
	for i, w := range widths {
		col := colName(i)
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1152D4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	header := make([]interface{}, len(excelHeaders))
	for i, h := range excelHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", cell(colName(len(excelHeaders)-1), 1), headerStyle); err != nil {
		return nil, err
	}

	for i := range members {
		m := &members[i]
		row := []interface{}{
			m.Name,
			m.Role,
			string(m.Status),
			orPlaceholder(string(m.AbsenceReason)),
			orPlaceholder(m.ArrivalTime),
			orPlaceholder(m.BreakStart),
			orPlaceholder(m.BreakEnd),
			orPlaceholder(m.DepartureTime),
			yesNo(m.HasSignature(), "Oui", "Non"),
			m.Comment,
		}
		if err := f.SetSheetRow(sheetName, cell("A", i+2), &row); err != nil {
			return nil, err
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Rapport de Présence - " + projectName,
		Creator: "Emargement",
	}); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ═══════════════════════════════════════════════════════════
// PDF
// ═══════════════════════════════════════════════════════════
//
// 标题「Rapport de Présence - <项目>」，日期行，随后为成员表格：
// Nom | Rôle | Statut | Motif | Arrivée | Départ | Sign | Commentaire

var (
	pdfHeaders = []string{"Nom", "Rôle", "Statut", "Motif", "Arrivée", "Départ", "Sign", "Commentaire"}
	pdfWidths  = []float64{48, 40, 24, 16, 20, 20, 22, 87}
)

// BuildPDF 生成 PDF 内容
func BuildPDF(members []model.Member, projectName string, now time.Time) (*bytes.Buffer, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Rapport de Présence - "+projectName, true)
	pdf.SetCreator("Emargement", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr("Rapport de Présence - "+projectName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 8, tr("Date: "+now.Format("02/01/2006")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	const rowHeight = 8
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(17, 82, 212)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range pdfHeaders {
		pdf.CellFormat(pdfWidths[i], rowHeight, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	for i := range members {
		m := &members[i]
		cells := []string{
			m.Name,
			m.Role,
			string(m.Status),
			orPlaceholder(string(m.AbsenceReason)),
			orPlaceholder(m.ArrivalTime),
			orPlaceholder(m.DepartureTime),
			yesNo(m.HasSignature(), "Signé", "Non signé"),
			m.Comment,
		}
		for j, text := range cells {
			pdf.CellFormat(pdfWidths[j], rowHeight, fitText(pdf, tr(text), pdfWidths[j]-2), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// fitText 截断超出单元格宽度的文本
func fitText(pdf *fpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	const ellipsis = "..."
	for len(text) > 0 && pdf.GetStringWidth(text+ellipsis) > width {
		text = text[:len(text)-1]
	}
	return text + ellipsis
}

// ── 辅助函数 ──

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
