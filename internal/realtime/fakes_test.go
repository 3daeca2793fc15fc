package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"collaborative-canvas/internal/board"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// fakeConn captures everything sent to a connection.
type fakeConn struct {
	id       string
	mu       sync.Mutex
	messages [][]byte
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (f *fakeConn) ConnectionID() string {
	return f.id
}

func (f *fakeConn) Send(message []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
}

func (f *fakeConn) envelopes(t *testing.T) []Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	envelopes := make([]Envelope, 0, len(f.messages))
	for _, raw := range f.messages {
		var envelope Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			t.Fatalf("malformed envelope: %v", err)
		}
		envelopes = append(envelopes, envelope)
	}
	return envelopes
}

func (f *fakeConn) eventTypes(t *testing.T) []string {
	t.Helper()
	var types []string
	for _, envelope := range f.envelopes(t) {
		types = append(types, envelope.Type)
	}
	return types
}

// lastOfType returns the payload of the most recent event of the given type.
func (f *fakeConn) lastOfType(t *testing.T, eventType string) (json.RawMessage, bool) {
	t.Helper()
	envelopes := f.envelopes(t)
	for i := len(envelopes) - 1; i >= 0; i-- {
		if envelopes[i].Type == eventType {
			return envelopes[i].Payload, true
		}
	}
	return nil, false
}

// MockBoardGuard is a mock implementation of BoardGuard
type MockBoardGuard struct {
	mock.Mock
}

func (m *MockBoardGuard) CanView(ctx context.Context, boardID, userID string) (bool, error) {
	args := m.Called(ctx, boardID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBoardGuard) CanEdit(ctx context.Context, boardID, userID string) (bool, error) {
	args := m.Called(ctx, boardID, userID)
	return args.Bool(0), args.Error(1)
}

// fakeElementStore is an in-memory ElementStore with the same shallow-merge
// semantics the SQL implementation gets from jsonb concatenation.
type fakeElementStore struct {
	mu       sync.Mutex
	elements map[string]*board.Element
}

func newFakeElementStore() *fakeElementStore {
	return &fakeElementStore{elements: make(map[string]*board.Element)}
}

func (f *fakeElementStore) CreateElement(_ context.Context, element *board.Element) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	clone := *element
	f.elements[element.ID] = &clone
	return nil
}

func (f *fakeElementStore) FindElementByID(_ context.Context, id string) (*board.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	element, ok := f.elements[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *element
	return &clone, nil
}

func (f *fakeElementStore) MergeElementProperties(_ context.Context, id string, partial board.Properties) (board.Properties, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	element, ok := f.elements[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	element.Properties = element.Properties.Merge(partial)
	return element.Properties.Merge(nil), nil
}

func (f *fakeElementStore) DeleteElement(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.elements, id)
	return nil
}

func (f *fakeElementStore) get(id string) (*board.Element, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	element, ok := f.elements[id]
	return element, ok
}
