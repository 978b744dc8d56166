package usecase

import (
	"sync"
	"time"

	"storefront/internal/timer"
)

// Slider は告知バー・カルーセルの自動送り位置
type Slider struct {
	mu       sync.Mutex
	count    int
	index    int
	interval *timer.Interval
}

// SetCount は件数が変わったら位置を丸める
func (s *Slider) SetCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = n
	if n == 0 || s.index >= n {
		s.index = 0
	}
}

// Advance は次へ（最後の次は先頭）
func (s *Slider) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return
	}
	s.index = (s.index + 1) % s.count
}

func (s *Slider) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Start は d ごとに送る。前のインターバルは止める。
func (s *Slider) Start(d time.Duration, newTicker timer.TickerFactory) {
	s.Stop()
	iv := timer.Every(d, s.Advance, newTicker)

	s.mu.Lock()
	s.interval = iv
	s.mu.Unlock()
}

// Stop は何度呼んでもよい
func (s *Slider) Stop() {
	s.mu.Lock()
	iv := s.interval
	s.interval = nil
	s.mu.Unlock()

	if iv != nil {
		iv.Stop()
	}
}
