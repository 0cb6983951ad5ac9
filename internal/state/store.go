// 채팅별 인메모리 상태 저장소
//
// 대화 컨텍스트, 티켓 수집 상태, 메뉴 상태가 모두 이 저장소 위에 올라간다.
// get/set/delete 인터페이스만 쓰도록 해서 나중에 외부 캐시로 옮겨도
// 오케스트레이션 코드는 바뀌지 않는다.

package state

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	updatedAt time.Time
}

// Store - TTL이 있는 채팅 키 기반 저장소
//
// gin 핸들러는 동시에 실행되므로 맵 접근에 뮤텍스가 필요하다.
// 같은 채팅의 메시지 두 개가 거의 동시에 들어와 논리적으로 엇갈리는 것은
// 플랫폼이 채팅별로 직렬 전달한다고 보고 허용한다.
type Store[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry[T]
	now     func() time.Time
}

// NewStore - ttl이 0이면 만료 없음
func NewStore[T any](ttl time.Duration) *Store[T] {
	return &Store[T]{
		ttl:     ttl,
		entries: make(map[string]entry[T]),
		now:     time.Now,
	}
}

func (s *Store[T]) Get(chatID string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[chatID]
	if !ok {
		var zero T
		return zero, false
	}
	if s.expired(e) {
		delete(s.entries, chatID)
		var zero T
		return zero, false
	}
	return e.value, true
}

func (s *Store[T]) Set(chatID string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[chatID] = entry[T]{value: value, updatedAt: s.now()}
}

func (s *Store[T]) Delete(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, chatID)
}

// Update - 기존 값을 읽어 수정 후 다시 저장 (없으면 zero value로 시작)
func (s *Store[T]) Update(chatID string, fn func(value T, found bool) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[chatID]
	if ok && s.expired(e) {
		delete(s.entries, chatID)
		ok = false
	}
	next := fn(e.value, ok)
	s.entries[chatID] = entry[T]{value: next, updatedAt: s.now()}
	return next
}

// Sweep - 만료된 항목을 제거하고 제거된 개수를 반환 (cron 주기 청소용)
func (s *Store[T]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store[T]) expired(e entry[T]) bool {
	return s.ttl > 0 && s.now().Sub(e.updatedAt) > s.ttl
}
