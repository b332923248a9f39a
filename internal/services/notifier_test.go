package services

import (
	"errors"
	"testing"
	"time"

	"github.com/acadocs/backend/internal/models"
)

func TestNotifyStaffResolvesTokensAtSendTime(t *testing.T) {
	db := setupTestDB(t)
	dispatcher := &recordingDispatcher{}
	notifier := NewNotifier(db, dispatcher)

	createUser(t, db, models.UserRoleAdmin, "admin-token")
	createUser(t, db, models.UserRolePersonnel, "personnel-token")
	createUser(t, db, models.UserRolePersonnel, "") // no token registered
	createUser(t, db, models.UserRoleStudent, "student-token")

	notifier.NotifyStaff("New document request", "body")

	awaitCondition(t, func() bool { return dispatcher.count() > 0 })
	send := dispatcher.last(t)
	if len(send.tokens) != 2 {
		t.Fatalf("expected the two registered staff tokens, got %+v", send.tokens)
	}
	got := map[string]bool{}
	for _, token := range send.tokens {
		got[token] = true
	}
	if !got["admin-token"] || !got["personnel-token"] {
		t.Fatalf("expected staff tokens only, got %+v", send.tokens)
	}
}

func TestNotifyStaffWithNoRegisteredTokens(t *testing.T) {
	db := setupTestDB(t)
	dispatcher := &recordingDispatcher{}
	notifier := NewNotifier(db, dispatcher)

	createUser(t, db, models.UserRoleStudent, "student-token")

	notifier.NotifyStaff("New document request", "body")

	time.Sleep(50 * time.Millisecond)
	if dispatcher.count() != 0 {
		t.Fatalf("expected no dispatch without registered staff tokens")
	}
}

func TestNotifyUserSkipsEmptyToken(t *testing.T) {
	db := setupTestDB(t)
	dispatcher := &recordingDispatcher{}
	notifier := NewNotifier(db, dispatcher)

	notifier.NotifyUser("", "Document ready", "body")

	time.Sleep(50 * time.Millisecond)
	if dispatcher.count() != 0 {
		t.Fatalf("expected empty tokens to be dropped")
	}
}

func TestDispatcherFailuresAreSwallowed(t *testing.T) {
	db := setupTestDB(t)
	dispatcher := &recordingDispatcher{err: errors.New("fcm unavailable")}
	notifier := NewNotifier(db, dispatcher)

	// Neither call may panic or surface the error to the caller.
	notifier.NotifyUser("some-token", "Document ready", "body")
	createUser(t, db, models.UserRoleAdmin, "admin-token")
	notifier.NotifyStaff("New document request", "body")

	time.Sleep(50 * time.Millisecond)

	// The queue keeps draining after failures.
	dispatcher.mu.Lock()
	dispatcher.err = nil
	dispatcher.mu.Unlock()
	notifier.NotifyUser("some-token", "Document ready", "body")
	awaitCondition(t, func() bool { return dispatcher.count() == 1 })
}
