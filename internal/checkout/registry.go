package checkout

import "sync"

// Registry はセッションごとに開いているフローを1つだけ持つ
type Registry struct {
	mu    sync.Mutex
	flows map[string]*Flow
}

func NewRegistry() *Registry {
	return &Registry{flows: map[string]*Flow{}}
}

// Put は新しいフローを登録する。前のフローは閉じる。
func (r *Registry) Put(sessionID string, f *Flow) {
	r.mu.Lock()
	prev := r.flows[sessionID]
	r.flows[sessionID] = f
	r.mu.Unlock()

	if prev != nil && prev != f {
		prev.Close()
	}
}

// Get は登録中のフローを返す（注文完了後も閉じるまでは残る）
func (r *Registry) Get(sessionID string) (*Flow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flows[sessionID]
	return f, ok
}

// Close はフローを閉じて外す
func (r *Registry) Close(sessionID string) {
	r.mu.Lock()
	f := r.flows[sessionID]
	delete(r.flows, sessionID)
	r.mu.Unlock()

	if f != nil {
		f.Close()
	}
}

// Remove は f がまだ登録中なら外す。閉じる処理はしない。
// 開き直した後の古いフローからは新しいフローを外さない。
func (r *Registry) Remove(sessionID string, f *Flow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.flows[sessionID] == f {
		delete(r.flows, sessionID)
	}
}

// CloseAll はシャットダウン時にすべてのカウントダウンを止める
func (r *Registry) CloseAll() {
	r.mu.Lock()
	flows := r.flows
	r.flows = map[string]*Flow{}
	r.mu.Unlock()

	for _, f := range flows {
		f.Close()
	}
}

// Len は登録数
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}
