/*
Package seen tracks the fingerprints of news items that have already been
posted, so the same item is never posted twice across runs.

The set is loaded once per run, appended to in memory, and rewritten (sorted,
deduplicated) at run end. Entries are never expired; over long operation the
file grows without bound, a known limitation carried over from the data files
already in circulation.
*/
package seen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/phuslu/log"
)

type Manager struct {
	mutex    sync.Mutex
	filePath string
	uids     map[string]bool
	dirty    bool
}

// NewManager loads the seen set from filePath. A missing file starts an empty
// set (first run); an unreadable or malformed one is an error, because
// silently forgetting history would re-post everything.
func NewManager(filePath string) (*Manager, error) {
	m := &Manager{
		filePath: filePath,
		uids:     make(map[string]bool),
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", filePath).Msg("seen file not found, starting with empty set")
			return m, nil
		}
		return nil, fmt.Errorf("failed to read seen file %s: %w", filePath, err)
	}

	var loaded []string
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse seen file %s: %w", filePath, err)
	}
	for _, uid := range loaded {
		m.uids[uid] = true
	}

	log.Info().Int("count", len(m.uids)).Str("path", filePath).Msg("loaded seen set")
	return m, nil
}

func (m *Manager) Contains(uid string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.uids[uid]
}

// Add marks a uid as seen. Entries are only ever added, never removed.
func (m *Manager) Add(uid string) {
	if uid == "" {
		return
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.uids[uid] {
		m.uids[uid] = true
		m.dirty = true
	}
}

func (m *Manager) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.uids)
}

// Save rewrites the file as a sorted, deduplicated JSON array. Called once at
// run end; a no-op when nothing was added.
func (m *Manager) Save() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.dirty {
		return nil
	}

	uids := make([]string, 0, len(m.uids))
	for uid := range m.uids {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	if err := os.MkdirAll(filepath.Dir(m.filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for seen file %s: %w", m.filePath, err)
	}

	data, err := json.Marshal(uids)
	if err != nil {
		return fmt.Errorf("failed to marshal seen set: %w", err)
	}
	if err := os.WriteFile(m.filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write seen file %s: %w", m.filePath, err)
	}

	m.dirty = false
	log.Info().Int("count", len(uids)).Str("path", m.filePath).Msg("saved seen set")
	return nil
}
