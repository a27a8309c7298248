package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/massiyousfi23-source/Emargement/internal/service"
	"github.com/massiyousfi23-source/Emargement/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportExcel 导出 Excel
// GET /api/v1/export/excel
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	h.download(c, contentTypeXLSX, h.exportSvc.ExportExcel)
}

// ExportPDF 导出 PDF
// GET /api/v1/export/pdf
func (h *ExportHandler) ExportPDF(c *gin.Context) {
	h.download(c, contentTypePDF, h.exportSvc.ExportPDF)
}

func (h *ExportHandler) download(c *gin.Context, contentType string, export func(context.Context) (*bytes.Buffer, string, error)) {
	buf, filename, err := export(c.Request.Context())
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	encodedFilename := url.PathEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 16101, "生成导出文件失败")
	default:
		response.InternalError(c)
	}
}
