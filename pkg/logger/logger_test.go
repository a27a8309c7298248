package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/massiyousfi23-source/Emargement/config"
)

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger(&config.LogConfig{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("format=%q 初始化失败: %v", format, err)
		}
		if !l.Core().Enabled(-1) {
			t.Errorf("format=%q 期望启用 debug 级别", format)
		}
	}
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "verbose", Format: "json"}); err == nil {
		t.Error("无效日志级别应返回错误")
	}
	if _, err := NewLogger(&config.LogConfig{Level: "info", Format: "xml"}); err == nil {
		t.Error("无效日志格式应返回错误")
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := NewLogger(&config.LogConfig{Level: "info", Format: "json", Output: []string{path}})
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	l.Info("点名册已加载")
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	var entry map[string]interface{}
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("日志应为单行 JSON: %v, raw=%s", err, raw)
	}
	if entry["logger"] != "emargement" || entry["msg"] != "点名册已加载" {
		t.Errorf("日志内容不正确: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("期望包含 time 字段")
	}
}
