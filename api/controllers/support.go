package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pvalette/boutique-backend/api/responses"
	"github.com/pvalette/boutique-backend/api/validators"
	supportsvc "github.com/pvalette/boutique-backend/internal/support"
	"github.com/pvalette/boutique-backend/pkg/db/models"
	pkgerrors "github.com/pvalette/boutique-backend/pkg/errors"
	"github.com/pvalette/boutique-backend/pkg/logger"
)

type openThreadRequest struct {
	Subject string     `json:"subject" validate:"required,max=300"`
	Body    string     `json:"body" validate:"required,max=5000"`
	OrderID *uuid.UUID `json:"order_id"`
}

type postMessageRequest struct {
	Body string `json:"body" validate:"required,max=5000"`
}

type supportMessageResponse struct {
	ID           uuid.UUID  `json:"id"`
	AuthorUserID *uuid.UUID `json:"author_user_id,omitempty"`
	FromAgent    bool       `json:"from_agent"`
	Body         string     `json:"body"`
	CreatedAt    time.Time  `json:"created_at"`
}

type supportThreadResponse struct {
	ID        uuid.UUID                `json:"id"`
	OrderID   *uuid.UUID               `json:"order_id,omitempty"`
	Subject   string                   `json:"subject"`
	Closed    bool                     `json:"closed"`
	Messages  []supportMessageResponse `json:"messages,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

func newSupportThreadResponse(thread *models.SupportThread) supportThreadResponse {
	messages := make([]supportMessageResponse, 0, len(thread.Messages))
	for _, msg := range thread.Messages {
		messages = append(messages, supportMessageResponse{
			ID:           msg.ID,
			AuthorUserID: msg.AuthorUserID,
			FromAgent:    msg.AuthorUserID == nil,
			Body:         msg.Body,
			CreatedAt:    msg.CreatedAt,
		})
	}
	return supportThreadResponse{
		ID:        thread.ID,
		OrderID:   thread.OrderID,
		Subject:   thread.Subject,
		Closed:    thread.Closed,
		Messages:  messages,
		CreatedAt: thread.CreatedAt,
		UpdatedAt: thread.UpdatedAt,
	}
}

// SupportOpenThread starts a conversation, optionally anchored to an order.
func SupportOpenThread(svc supportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "support service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body openThreadRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		thread, err := svc.Open(r.Context(), userID, supportsvc.OpenInput{
			OrderID: body.OrderID,
			Subject: body.Subject,
			Body:    body.Body,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newSupportThreadResponse(thread))
	}
}

func SupportListThreads(svc supportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "support service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		threads, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]supportThreadResponse, 0, len(threads))
		for i := range threads {
			out = append(out, newSupportThreadResponse(&threads[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func SupportThreadDetail(svc supportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "support service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		threadID, err := pathUUID(r, "threadId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		thread, err := svc.Get(r.Context(), userID, threadID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSupportThreadResponse(thread))
	}
}

// SupportPostMessage appends a customer message to an open thread.
func SupportPostMessage(svc supportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "support service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		threadID, err := pathUUID(r, "threadId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body postMessageRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		message, err := svc.PostMessage(r.Context(), threadID, &userID, body.Body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, supportMessageResponse{
			ID:           message.ID,
			AuthorUserID: message.AuthorUserID,
			FromAgent:    message.AuthorUserID == nil,
			Body:         message.Body,
			CreatedAt:    message.CreatedAt,
		})
	}
}

func SupportCloseThread(svc supportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "support service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		threadID, err := pathUUID(r, "threadId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Close(r.Context(), userID, threadID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "closed"})
	}
}
