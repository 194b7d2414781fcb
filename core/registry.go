package pipeline

import (
	"sync"

	"github.com/krelja/assist-core/core/conversation"
	"github.com/krelja/assist-core/core/speechtotext"
	"github.com/krelja/assist-core/core/texttospeech"
	"github.com/krelja/assist-core/core/wakeword"
)

// EngineRegistry maps engine ids to capability providers. It is passed
// explicitly into the runner; there is no ambient process-wide registry, so
// tests and embedders control exactly which engines a pipeline can see.
type EngineRegistry struct {
	mu sync.RWMutex

	wakeWord map[string]wakeword.Entity
	stt      map[string]speechtotext.Client
	agents   map[string]conversation.Agent
	tts      map[string]texttospeech.Client
}

func NewEngineRegistry() *EngineRegistry {
	return &EngineRegistry{
		wakeWord: map[string]wakeword.Entity{},
		stt:      map[string]speechtotext.Client{},
		agents:   map[string]conversation.Agent{},
		tts:      map[string]texttospeech.Client{},
	}
}

func (r *EngineRegistry) RegisterWakeWord(id string, entity wakeword.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wakeWord[id] = entity
}

func (r *EngineRegistry) RegisterSpeechToText(id string, client speechtotext.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stt[id] = client
}

func (r *EngineRegistry) RegisterConversationAgent(id string, agent conversation.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[id] = agent
}

func (r *EngineRegistry) RegisterTextToSpeech(id string, client texttospeech.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tts[id] = client
}

func (r *EngineRegistry) WakeWord(id string) (wakeword.Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entity, ok := r.wakeWord[id]
	return entity, ok
}

func (r *EngineRegistry) SpeechToText(id string) (speechtotext.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.stt[id]
	return client, ok
}

func (r *EngineRegistry) ConversationAgent(id string) (conversation.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[id]
	return agent, ok
}

func (r *EngineRegistry) TextToSpeech(id string) (texttospeech.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.tts[id]
	return client, ok
}
