package analysis

import (
	"context"
	"errors"
	"sync"
)

// Engine — провайдер детекции: принимает фото, возвращает нормализованные оценки.
type Engine interface {
	Name() string
	GetModel() string
	Analyze(ctx context.Context, img []byte, opt Options) (SkinData, error)
}

type Engines struct {
	OpenRouter Engine
	Gemini     Engine
	Heuristic  Engine
}

func (e *Engines) GetEngine(name string) (Engine, error) {
	switch name {
	case "", "openrouter":
		return e.OpenRouter, nil
	case "gemini":
		return e.Gemini, nil
	case "heuristic", "fallback":
		return e.Heuristic, nil
	default:
		return nil, errors.New("unknown provider; use 'openrouter' | 'gemini' | 'heuristic'")
	}
}

// Manager хранит выбранный движок на чат (для бота).
type Manager struct {
	def Engine
	m   sync.Map // chatID -> Engine
}

func NewManager(defaultEngine Engine) *Manager {
	return &Manager{def: defaultEngine}
}

func (m *Manager) Get(chatID int64) Engine {
	if v, ok := m.m.Load(chatID); ok {
		return v.(Engine)
	}
	return m.def
}

func (m *Manager) Set(chatID int64, e Engine) {
	m.m.Store(chatID, e)
}
