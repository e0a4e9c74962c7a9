package support

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pvalette/boutique-backend/pkg/db/models"
	pkgerrors "github.com/pvalette/boutique-backend/pkg/errors"
)

// orderChecker verifies that a referenced order belongs to the thread opener.
type orderChecker interface {
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
}

// Service runs customer support threads. Threads are append-only: messages
// are never edited or removed, and closing a thread is terminal.
type Service interface {
	Open(ctx context.Context, userID uuid.UUID, input OpenInput) (*models.SupportThread, error)
	PostMessage(ctx context.Context, threadID uuid.UUID, authorUserID *uuid.UUID, body string) (*models.SupportMessage, error)
	Close(ctx context.Context, userID, threadID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]models.SupportThread, error)
	Get(ctx context.Context, userID, threadID uuid.UUID) (*models.SupportThread, error)
}

type service struct {
	repo   Repository
	orders orderChecker
}

// OpenInput starts a new thread, optionally anchored to an order.
type OpenInput struct {
	OrderID *uuid.UUID
	Subject string
	Body    string
}

// NewService builds the support service.
func NewService(repo Repository, orders orderChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("support repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order checker required")
	}
	return &service{repo: repo, orders: orders}, nil
}

func (s *service) Open(ctx context.Context, userID uuid.UUID, input OpenInput) (*models.SupportThread, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject required")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body required")
	}
	if input.OrderID != nil {
		if _, err := s.orders.Get(ctx, userID, *input.OrderID); err != nil {
			return nil, err
		}
	}

	thread := &models.SupportThread{
		ID:      uuid.New(),
		UserID:  userID,
		OrderID: input.OrderID,
		Subject: subject,
	}
	thread.Messages = []models.SupportMessage{{
		ID:           uuid.New(),
		ThreadID:     thread.ID,
		AuthorUserID: &userID,
		Body:         body,
	}}

	created, err := s.repo.CreateThread(ctx, thread)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create thread")
	}
	return created, nil
}

// PostMessage appends to a thread. A nil author is a support agent reply;
// a customer can only write into their own threads.
func (s *service) PostMessage(ctx context.Context, threadID uuid.UUID, authorUserID *uuid.UUID, body string) (*models.SupportMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body required")
	}

	thread, err := s.loadThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if authorUserID != nil && thread.UserID != *authorUserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "thread not found")
	}
	if thread.Closed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "thread is closed")
	}

	message, err := s.repo.CreateMessage(ctx, &models.SupportMessage{
		ID:           uuid.New(),
		ThreadID:     thread.ID,
		AuthorUserID: authorUserID,
		Body:         body,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create message")
	}
	return message, nil
}

// Close ends the thread. Only the owner can close, and closing is terminal.
func (s *service) Close(ctx context.Context, userID, threadID uuid.UUID) error {
	thread, err := s.loadThread(ctx, threadID)
	if err != nil {
		return err
	}
	if thread.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "thread not found")
	}
	if thread.Closed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "thread already closed")
	}
	if err := s.repo.UpdateThread(ctx, threadID, map[string]any{"closed": true}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close thread")
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.SupportThread, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	threads, err := s.repo.ListThreads(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list threads")
	}
	return threads, nil
}

func (s *service) Get(ctx context.Context, userID, threadID uuid.UUID) (*models.SupportThread, error) {
	thread, err := s.loadThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "thread not found")
	}
	return thread, nil
}

func (s *service) loadThread(ctx context.Context, threadID uuid.UUID) (*models.SupportThread, error) {
	if threadID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "thread id required")
	}
	thread, err := s.repo.FindThread(ctx, threadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "thread not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load thread")
	}
	return thread, nil
}
