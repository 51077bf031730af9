package blocking

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/grove-app/grove/internal/bus"
	"github.com/grove-app/grove/internal/domain"
	"github.com/grove-app/grove/internal/store"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newService(t *testing.T) (*Service, *store.Store, *fakeClock, *bus.Bus) {
	t.Helper()
	clk := &fakeClock{t: time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)}
	b := bus.New(zap.NewNop())
	st := store.New(clk, b, zap.NewNop(), "user-1")
	svc := New(st, clk, zap.NewNop())
	svc.Watch(b)
	return svc, st, clk, b
}

func TestUnlockAppSpendsSeeds(t *testing.T) {
	svc, st, clk, _ := newService(t)

	st.Rewards().EarnSeeds(10, domain.SourceManual, nil)
	app, err := st.Rewards().AddUnlockableApp("com.example.social", "Social", 4, 15)
	if err != nil {
		t.Fatalf("register app: %v", err)
	}

	expiresAt, err := svc.UnlockApp(app.BundleIdentifier)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if want := clk.Now().Add(15 * time.Minute); !expiresAt.Equal(want) {
		t.Errorf("expiry = %v, want %v", expiresAt, want)
	}
	if got := st.Rewards().Balance(); got != 6 {
		t.Errorf("balance = %d, want 6", got)
	}
	if !svc.IsUnlocked(app.BundleIdentifier) {
		t.Error("app not reported unlocked")
	}
}

func TestUnlockAppInsufficientBalance(t *testing.T) {
	svc, st, _, _ := newService(t)
	st.Rewards().AddUnlockableApp("com.example.social", "Social", 4, 15)

	if _, err := svc.UnlockApp("com.example.social"); !domain.IsValidation(err) {
		t.Fatalf("unlock with empty balance: got %v, want validation error", err)
	}
	if svc.IsUnlocked("com.example.social") {
		t.Error("failed spend still unlocked the app")
	}
}

func TestUnlockUnknownApp(t *testing.T) {
	svc, _, _, _ := newService(t)
	if _, err := svc.UnlockApp("com.example.nope"); !domain.IsNotFound(err) {
		t.Fatalf("got %v, want not found", err)
	}
}

func TestDoubleUnlockIsInvalidState(t *testing.T) {
	svc, st, _, _ := newService(t)
	st.Rewards().EarnSeeds(10, domain.SourceManual, nil)
	st.Rewards().AddUnlockableApp("com.example.social", "Social", 2, 15)

	if _, err := svc.UnlockApp("com.example.social"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, err := svc.UnlockApp("com.example.social"); !domain.IsInvalidState(err) {
		t.Fatalf("second unlock: got %v, want invalid state error", err)
	}
	if got := st.Rewards().Balance(); got != 8 {
		t.Errorf("balance = %d, double unlock must not double-charge", got)
	}
}

func TestExpireUnlocks(t *testing.T) {
	svc, st, clk, b := newService(t)
	st.Rewards().EarnSeeds(10, domain.SourceManual, nil)
	st.Rewards().AddUnlockableApp("com.example.social", "Social", 2, 15)

	var expired []string
	b.On(domain.EventAppUnlockExpired, func(e bus.Event) {
		if p, ok := e.Payload.(domain.AppUnlockPayload); ok {
			expired = append(expired, p.BundleIdentifier)
		}
	})

	if _, err := svc.UnlockApp("com.example.social"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	svc.ExpireUnlocks()
	if len(expired) != 0 {
		t.Fatal("unlock expired before its window")
	}

	clk.t = clk.t.Add(16 * time.Minute)
	if svc.IsUnlocked("com.example.social") {
		t.Error("window over but still reported unlocked")
	}
	svc.ExpireUnlocks()
	if len(expired) != 1 || expired[0] != "com.example.social" {
		t.Fatalf("expired = %v, want the social app", expired)
	}

	// Expiry is announced once.
	svc.ExpireUnlocks()
	if len(expired) != 1 {
		t.Fatalf("expiry announced %d times", len(expired))
	}
}

func TestBlockedLaunchRecordedAndNotified(t *testing.T) {
	svc, st, clk, b := newService(t)

	var notes []string
	b.On(domain.EventUINotification, func(e bus.Event) {
		if msg, ok := e.Payload.(string); ok {
			notes = append(notes, msg)
		}
	})

	st.Publish(domain.EventAppLaunchBlocked, domain.BlockedLaunchPayload{
		BundleIdentifier: "com.example.game",
		Timestamp:        clk.Now(),
	})

	launches := svc.BlockedLaunches()
	if len(launches) != 1 || launches[0].BundleIdentifier != "com.example.game" {
		t.Fatalf("launches = %+v", launches)
	}
	if len(notes) != 1 {
		t.Fatalf("notifications = %v, want one", notes)
	}
}
