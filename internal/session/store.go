package session

import "sync"

// Store - реестр активных комнат, единственный источник правды по вопросу
// "идёт ли в группе сессия". Принадлежит координатору; записи мутируются
// только из актора своей группы.
type Store struct {
	mu      sync.Mutex
	records map[int64]*SessionRecord
}

func NewStore() *Store {
	return &Store{
		records: make(map[int64]*SessionRecord),
	}
}

func (s *Store) Get(groupID int64) (*SessionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[groupID]
	return rec, ok
}

// Put кладёт запись. false - запись для этой группы уже существует.
func (s *Store) Put(rec *SessionRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.GroupID]; ok {
		return false
	}
	s.records[rec.GroupID] = rec
	return true
}

func (s *Store) Delete(groupID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, groupID)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *Store) GroupIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.records))
	for id := range s.records {
		out = append(out, id)
	}
	return out
}
