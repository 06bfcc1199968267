package attendance

import (
	"sync"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
)

type entryState uint8

const (
	stateInFlight entryState = iota + 1
	stateMarked
)

// Cache é a memória de deduplicação do dia, particionada por data.
// Inserir uma chave de uma data mais nova descarta as partições antigas.
type Cache struct {
	mu   sync.Mutex
	days map[string]map[domain.AttendanceKey]entryState
}

func NewCache() *Cache {
	return &Cache{days: make(map[string]map[domain.AttendanceKey]entryState)}
}

// Contains reports whether key is marked or currently being written.
func (c *Cache) Contains(key domain.AttendanceKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.days[key.Date][key]
	return ok
}

// Add marks key as recorded.
func (c *Cache) Add(key domain.AttendanceKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, stateMarked)
}

// reserve claims key for a write in progress. It returns false when the key
// is already marked or reserved by another caller.
func (c *Cache) reserve(key domain.AttendanceKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.days[key.Date][key]; ok {
		return false
	}
	c.set(key, stateInFlight)
	return true
}

// release drops a reservation after a failed write.
func (c *Cache) release(key domain.AttendanceKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	day, ok := c.days[key.Date]
	if !ok || day[key] != stateInFlight {
		return
	}
	delete(day, key)
	if len(day) == 0 {
		delete(c.days, key.Date)
	}
}

func (c *Cache) set(key domain.AttendanceKey, state entryState) {
	day, ok := c.days[key.Date]
	if !ok {
		c.dropBefore(key.Date)
		day = make(map[domain.AttendanceKey]entryState)
		c.days[key.Date] = day
	}
	day[key] = state
}

// Reset esvazia o cache inteiro.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.days = make(map[string]map[domain.AttendanceKey]entryState)
}

// DropBefore evicts every partition older than date and returns how many
// keys were removed.
func (c *Cache) DropBefore(date string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropBefore(date)
}

func (c *Cache) dropBefore(date string) int {
	removed := 0
	for d, day := range c.days {
		// YYYY-MM-DD ordena lexicograficamente
		if d < date {
			removed += len(day)
			delete(c.days, d)
		}
	}
	return removed
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, day := range c.days {
		n += len(day)
	}
	return n
}
