package handlers

import (
	"net/http"
	"strconv"

	"github.com/shrimpsizemoose/registrar/internal/models"
)

func (rt *router) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	message, err := rt.service.Messages.Send(r.Context(), claimsFrom(r.Context()).UserID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

func (rt *router) handleInbox(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("status") == models.MessageStatusUnread
	rt.writeInbox(w, r, unreadOnly)
}

func (rt *router) handleUnread(w http.ResponseWriter, r *http.Request) {
	rt.writeInbox(w, r, true)
}

func (rt *router) writeInbox(w http.ResponseWriter, r *http.Request, unreadOnly bool) {
	page, err := rt.service.Messages.Inbox(r.Context(), claimsFrom(r.Context()).UserID, unreadOnly, rt.pageFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *router) handleConversation(w http.ResponseWriter, r *http.Request) {
	peerID, err := pathInt64(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := rt.service.Messages.Conversation(r.Context(), claimsFrom(r.Context()).UserID, peerID, rt.pageFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *router) handleLatestMessages(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit > rt.service.Config.Paging.MaxPageSize {
		limit = rt.service.Config.Paging.MaxPageSize
	}

	messages, err := rt.service.Messages.Latest(r.Context(), claimsFrom(r.Context()).UserID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (rt *router) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := rt.service.Messages.UnreadCount(r.Context(), claimsFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unreadCount": n})
}

func (rt *router) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := rt.service.Messages.MarkRead(r.Context(), id, claimsFrom(r.Context()).UserID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (rt *router) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := rt.service.Messages.MarkAllRead(r.Context(), claimsFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked": n})
}

func (rt *router) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := rt.service.Messages.Delete(r.Context(), id, claimsFrom(r.Context()).UserID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
