package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFactory(store *mockPreviewStore) SessionFactory {
	return func(chatID int64) *Session {
		return NewSession(chatID, store, &mockEditor{})
	}
}

func TestSessionManager_GetReturnsSameSessionPerChat(t *testing.T) {
	store := newMockPreviewStore()
	manager := NewSessionManager(testFactory(store), time.Minute)

	first := manager.Get(100)
	second := manager.Get(100)
	other := manager.Get(200)

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
}

func TestSessionManager_ResetTearsDown(t *testing.T) {
	store := newMockPreviewStore()
	manager := NewSessionManager(testFactory(store), time.Minute)

	session := manager.Get(100)
	require.NoError(t, session.SelectSource([]byte("src"), "image/png", "a.png"))
	preview, _ := session.SourcePreview()

	assert.True(t, manager.Reset(100))
	assert.Equal(t, 1, store.releaseCount(preview.ID))
	assert.False(t, session.CanSubmit())

	// a reset chat starts over with a fresh session
	assert.NotSame(t, session, manager.Get(100))
}

func TestSessionManager_ResetUnknownChat(t *testing.T) {
	manager := NewSessionManager(testFactory(newMockPreviewStore()), time.Minute)

	assert.False(t, manager.Reset(42))
}

func TestSessionManager_ExpiryTearsDownIdleSession(t *testing.T) {
	store := newMockPreviewStore()
	manager := NewSessionManager(testFactory(store), 50*time.Millisecond)

	session := manager.Get(100)
	require.NoError(t, session.SelectSource([]byte("src"), "image/png", "a.png"))
	preview, _ := session.SourcePreview()

	assert.Eventually(t, func() bool {
		return store.releaseCount(preview.ID) == 1
	}, time.Second, 10*time.Millisecond, "idle session should expire and release its previews")

	assert.NotSame(t, session, manager.Get(100))
}

func TestSessionManager_ActivityRearmsExpiry(t *testing.T) {
	store := newMockPreviewStore()
	manager := NewSessionManager(testFactory(store), 80*time.Millisecond)

	session := manager.Get(100)

	for range 4 {
		time.Sleep(40 * time.Millisecond)
		assert.Same(t, session, manager.Get(100), "activity within the TTL keeps the session alive")
	}
}

func TestSessionManager_CloseTearsDownAll(t *testing.T) {
	store := newMockPreviewStore()
	manager := NewSessionManager(testFactory(store), time.Minute)

	one := manager.Get(1)
	two := manager.Get(2)
	require.NoError(t, one.SelectSource([]byte("a"), "image/png", "a.png"))
	require.NoError(t, two.SelectSource([]byte("b"), "image/png", "b.png"))
	previewOne, _ := one.SourcePreview()
	previewTwo, _ := two.SourcePreview()

	manager.Close()

	assert.Equal(t, 1, store.releaseCount(previewOne.ID))
	assert.Equal(t, 1, store.releaseCount(previewTwo.ID))
}
