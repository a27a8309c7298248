package repository

import (
	"github.com/massiyousfi23-source/Emargement/config"
	"github.com/massiyousfi23-source/Emargement/internal/model"
)

// ProjectCatalog 外部提供的固定项目列表（只读）
type ProjectCatalog interface {
	List() []model.Project
	First() model.Project
	// Name 按 ID 查找显示名称；ok=false 表示 ID 未知
	Name(id string) (name string, ok bool)
}

type projectCatalog struct {
	projects []model.Project
	byID     map[string]string
}

// NewProjectCatalog 由有序项目列表创建 ProjectCatalog；列表不能为空
func NewProjectCatalog(projects []model.Project) ProjectCatalog {
	c := &projectCatalog{
		projects: make([]model.Project, len(projects)),
		byID:     make(map[string]string, len(projects)),
	}
	copy(c.projects, projects)
	for _, p := range projects {
		if _, dup := c.byID[p.ID]; !dup {
			c.byID[p.ID] = p.Name
		}
	}
	return c
}

// NewProjectCatalogFromConfig 从 roster.projects 配置创建 ProjectCatalog
func NewProjectCatalogFromConfig(cfg *config.RosterConfig) ProjectCatalog {
	projects := make([]model.Project, 0, len(cfg.Projects))
	for _, p := range cfg.Projects {
		projects = append(projects, model.Project{ID: p.ID, Name: p.Name})
	}
	return NewProjectCatalog(projects)
}

func (c *projectCatalog) List() []model.Project {
	out := make([]model.Project, len(c.projects))
	copy(out, c.projects)
	return out
}

func (c *projectCatalog) First() model.Project {
	if len(c.projects) == 0 {
		return model.Project{}
	}
	return c.projects[0]
}

func (c *projectCatalog) Name(id string) (string, bool) {
	name, ok := c.byID[id]
	return name, ok
}
