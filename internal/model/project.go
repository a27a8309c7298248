package model

// Project 项目（团队/工地），由外部配置提供，不可增删
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UnknownProjectName 当前项目 ID 无法解析时显示的名称
const UnknownProjectName = "Projet Inconnu"
