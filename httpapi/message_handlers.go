package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"zchat/domain"
	"zchat/services"
)

const (
	defaultPage  = 1
	defaultLimit = 50
)

type sendMessageRequest struct {
	Content     string              `json:"content"`
	Type        domain.MessageType  `json:"type"`
	Attachments []domain.Attachment `json:"attachments"`
	ReplyTo     *domain.MessageID   `json:"replyTo"`
	Mentions    []domain.UserID     `json:"mentions"`
}

type editMessageRequest struct {
	Content string `json:"content"`
}

type reactionRequest struct {
	Label string `json:"label"`
}

type forwardRequest struct {
	Chat domain.ChatID `json:"chat"`
}

func messageID(r *http.Request) domain.MessageID {
	return domain.MessageID(mux.Vars(r)["id"])
}

func (a *API) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[sendMessageRequest](r)
	if err != nil {
		writeError(w, err)
		return
	}
	msg, err := a.messages.Send(r.Context(), services.SendMessageCommand{
		Chat:        chatID(r),
		Sender:      callerID(r),
		Content:     req.Content,
		Type:        req.Type,
		Attachments: req.Attachments,
		ReplyTo:     req.ReplyTo,
		Mentions:    req.Mentions,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (a *API) handleListMessages(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if _, err := a.chats.GetChat(r.Context(), chatID(r), caller); err != nil {
		writeError(w, err)
		return
	}
	page := queryInt(r, "page", defaultPage)
	limit := queryInt(r, "limit", defaultLimit)
	msgs, err := a.messages.List(r.Context(), chatID(r), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, visibleOnly(msgs, caller))
}

func (a *API) handleSearchMessages(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if _, err := a.chats.GetChat(r.Context(), chatID(r), caller); err != nil {
		writeError(w, err)
		return
	}
	msgs, err := a.messages.Search(r.Context(), chatID(r), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, visibleOnly(msgs, caller))
}

func (a *API) handleUnreadMessages(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if _, err := a.chats.GetChat(r.Context(), chatID(r), caller); err != nil {
		writeError(w, err)
		return
	}
	msgs, err := a.messages.Unread(r.Context(), chatID(r), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, visibleOnly(msgs, caller))
}

func (a *API) handleMessagesByType(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if _, err := a.chats.GetChat(r.Context(), chatID(r), caller); err != nil {
		writeError(w, err)
		return
	}
	t := domain.MessageType(r.URL.Query().Get("type"))
	msgs, err := a.messages.ByType(r.Context(), chatID(r), t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, visibleOnly(msgs, caller))
}

func (a *API) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := a.messages.Get(r.Context(), messageID(r), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (a *API) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[editMessageRequest](r)
	if err != nil {
		writeError(w, err)
		return
	}
	msg, err := a.messages.Edit(r.Context(), messageID(r), callerID(r), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (a *API) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	if _, err := a.messages.DeleteForUser(r.Context(), messageID(r), callerID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) handleReact(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[reactionRequest](r)
	if err != nil {
		writeError(w, err)
		return
	}
	msg, err := a.messages.React(r.Context(), messageID(r), callerID(r), req.Label)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (a *API) handleUnreact(w http.ResponseWriter, r *http.Request) {
	label := mux.Vars(r)["label"]
	msg, err := a.messages.Unreact(r.Context(), messageID(r), callerID(r), label)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (a *API) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	msg, err := a.messages.MarkRead(r.Context(), messageID(r), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (a *API) handleForward(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[forwardRequest](r)
	if err != nil {
		writeError(w, err)
		return
	}
	msg, err := a.messages.Forward(r.Context(), messageID(r), callerID(r), req.Chat)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func visibleOnly(msgs []domain.Message, user domain.UserID) []domain.Message {
	visible := make([]domain.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.VisibleTo(user) {
			visible = append(visible, m)
		}
	}
	return visible
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
