package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/massiyousfi23-source/Emargement/internal/model"
	"github.com/massiyousfi23-source/Emargement/internal/repository"
)

// ── Mock KVStore ──

var errMockStore = errors.New("mock store failure")

type mockKVStore struct {
	mu      sync.Mutex
	data    map[string]string
	getErr  error
	setErr  error
	setCall int
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: make(map[string]string)}
}

func (m *mockKVStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockKVStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCall++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mockKVStore) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setCall
}

// ── 测试辅助 ──

var testKeys = StorageKeys{Members: "members", Project: "project"}

func testProjects() repository.ProjectCatalog {
	return repository.NewProjectCatalog([]model.Project{
		{ID: "p1", Name: "Emargement Equipe 1"},
		{ID: "p2", Name: "Riverside Residential Complex"},
	})
}

func twoUnmarked() []model.Member {
	return []model.Member{
		{ID: "1", Name: "Alex Morgan", Role: "Cariste", Status: model.StatusUnmarked},
		{ID: "2", Name: "Jordan Smith", Role: "Relais technique", Status: model.StatusUnmarked},
	}
}

func setupTestRosterStore(seed []model.Member) (*RosterStore, *mockKVStore) {
	kv := newMockKVStore()
	repo := repository.NewRepository(kv, testProjects())
	store := NewRosterStore(repo, testKeys, seed, zap.NewNop())
	seq := 0
	store.newID = func() string {
		seq++
		return "new-" + string(rune('0'+seq))
	}
	return store, kv
}
