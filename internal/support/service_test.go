package support

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pvalette/boutique-backend/pkg/db/models"
	pkgerrors "github.com/pvalette/boutique-backend/pkg/errors"
)

// stubOrders owns exactly the orders it was seeded with.
type stubOrders struct {
	owned map[uuid.UUID]uuid.UUID // orderID -> userID
}

func (s *stubOrders) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	owner, ok := s.owned[orderID]
	if !ok || owner != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return &models.Order{ID: orderID, UserID: userID}, nil
}

func newTestService(t *testing.T) (Service, *stubOrders) {
	t.Helper()
	dsn := "file:support_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.SupportThread{}, &models.SupportMessage{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	orders := &stubOrders{owned: map[uuid.UUID]uuid.UUID{}}
	svc, err := NewService(NewRepository(db), orders)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, orders
}

func TestOpenThreadWithFirstMessage(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	thread, err := svc.Open(ctx, userID, OpenInput{Subject: "Where is my order?", Body: "It has been a week."})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if thread.Closed {
		t.Fatalf("new thread must be open")
	}

	loaded, err := svc.Get(ctx, userID, thread.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(loaded.Messages) != 1 {
		t.Fatalf("expected the opening message, got %d", len(loaded.Messages))
	}
	if loaded.Messages[0].AuthorUserID == nil || *loaded.Messages[0].AuthorUserID != userID {
		t.Fatalf("opening message must be authored by the customer")
	}
}

func TestOpenValidation(t *testing.T) {
	t.Parallel()

	svc, orders := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.Open(ctx, userID, OpenInput{Subject: " ", Body: "x"}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty subject, got %v", err)
	}
	if _, err := svc.Open(ctx, userID, OpenInput{Subject: "s", Body: "  "}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty body, got %v", err)
	}

	// referencing someone else's order fails
	strangerOrder := uuid.New()
	orders.owned[strangerOrder] = uuid.New()
	if _, err := svc.Open(ctx, userID, OpenInput{OrderID: &strangerOrder, Subject: "s", Body: "b"}); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for foreign order, got %v", err)
	}

	// referencing your own order works
	myOrder := uuid.New()
	orders.owned[myOrder] = userID
	thread, err := svc.Open(ctx, userID, OpenInput{OrderID: &myOrder, Subject: "s", Body: "b"})
	if err != nil {
		t.Fatalf("open with order: %v", err)
	}
	if thread.OrderID == nil || *thread.OrderID != myOrder {
		t.Fatalf("expected order reference kept, got %v", thread.OrderID)
	}
}

func TestPostMessageAndAgentReply(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	thread, err := svc.Open(ctx, userID, OpenInput{Subject: "Damaged parcel", Body: "The mug arrived broken."})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := svc.PostMessage(ctx, thread.ID, &userID, "Any update?"); err != nil {
		t.Fatalf("customer reply: %v", err)
	}
	// nil author = support agent
	if _, err := svc.PostMessage(ctx, thread.ID, nil, "A replacement ships tomorrow."); err != nil {
		t.Fatalf("agent reply: %v", err)
	}

	// a different customer cannot write into the thread
	stranger := uuid.New()
	if _, err := svc.PostMessage(ctx, thread.ID, &stranger, "me too"); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for stranger, got %v", err)
	}

	loaded, err := svc.Get(ctx, userID, thread.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(loaded.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(loaded.Messages))
	}
	if loaded.Messages[2].AuthorUserID != nil {
		t.Fatalf("agent reply must have nil author")
	}
}

func TestCloseIsTerminalAndOwnerOnly(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	thread, err := svc.Open(ctx, userID, OpenInput{Subject: "Question", Body: "Do you ship to Belgium?"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := svc.Close(ctx, uuid.New(), thread.ID); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for stranger close, got %v", err)
	}
	if err := svc.Close(ctx, userID, thread.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := svc.Close(ctx, userID, thread.ID); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected conflict on double close, got %v", err)
	}

	// no more messages once closed, not even from agents
	if _, err := svc.PostMessage(ctx, thread.ID, &userID, "one more thing"); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected conflict posting to closed thread, got %v", err)
	}
	if _, err := svc.PostMessage(ctx, thread.ID, nil, "agent here"); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected conflict for agent post to closed thread, got %v", err)
	}
}

func TestListIsOwnerScoped(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	if _, err := svc.Open(ctx, alice, OpenInput{Subject: "a", Body: "first"}); err != nil {
		t.Fatalf("open alice: %v", err)
	}
	if _, err := svc.Open(ctx, bob, OpenInput{Subject: "b", Body: "second"}); err != nil {
		t.Fatalf("open bob: %v", err)
	}

	aliceThreads, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("list alice: %v", err)
	}
	if len(aliceThreads) != 1 || aliceThreads[0].Subject != "a" {
		t.Fatalf("unexpected threads for alice: %+v", aliceThreads)
	}
}
