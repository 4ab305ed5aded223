package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"zchat/domain"
)

type privateChatRequest struct {
	UserID domain.UserID `json:"userId"`
}

type groupChatRequest struct {
	Name    string          `json:"name"`
	Members []domain.UserID `json:"members"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type avatarRequest struct {
	Avatar string `json:"avatar"`
}

type settingsRequest struct {
	Settings map[string]string `json:"settings"`
}

type memberRequest struct {
	UserID domain.UserID `json:"userId"`
}

func chatID(r *http.Request) domain.ChatID {
	return domain.ChatID(mux.Vars(r)["id"])
}

func (a *API) handleCreatePrivateChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[privateChatRequest](r)
	if err != nil {
		writeError(w, err)
		return
	}
	chat, err := a.chats.CreatePrivateChat(r.Context(), callerID(r), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

func (a *API) handleCreateGroupChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[groupChatRequest](r)
	if err != nil {
		writeError(w, err)
		return
	}
	chat, err := a.chats.CreateGroupChat(r.Context(), callerID(r), req.Name, req.Members)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

func (a *API) handleListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := a.chats.ListChats(r.Context(), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if chats == nil {
		chats = []domain.Chat{}
	}
	writeJSON(w, http.StatusOK, chats)
}

func (a *API) handleSearchChats(w http.ResponseWriter, r *http.Request) {
	chats, err := a.chats.SearchChats(r.Context(), callerID(r), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	if chats == nil {
		chats = []domain.Chat{}
	}
	writeJSON(w, http.StatusOK, chats)
}

func (a *API) handleGetChat(w http.ResponseWriter, r *http.Request) {
	chat, err := a.chats.GetChat(r.Context(), chatID(r), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (a *API) handleDeactivateChat(w http.ResponseWriter, r *http.Request) {
	chat, err := a.chats.DeactivateChat(r.Context(), chatID(r), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (a *API) handleUpdateChatName(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[renameRequest](r)
	if err != nil {
		writeError(w, err)
		return
	}
	chat, err := a.chats.UpdateName(r.Context(), chatID(r), callerID(r), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (a *API) handleUpdateChatAvatar(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[avatarRequest](r)
	if err != nil {
		writeError(w, err)
		return
	}
	chat, err := a.chats.UpdateAvatar(r.Context(), chatID(r), callerID(r), req.Avatar)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (a *API) handleUpdateChatSettings(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[settingsRequest](r)
	if err != nil {
		writeError(w, err)
		return
	}
	chat, err := a.chats.UpdateSettings(r.Context(), chatID(r), callerID(r), req.Settings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (a *API) handleAddMember(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[memberRequest](r)
	if err != nil {
		writeError(w, err)
		return
	}
	chat, err := a.chats.AddMember(r.Context(), chatID(r), callerID(r), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (a *API) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	user := domain.UserID(mux.Vars(r)["user"])
	chat, err := a.chats.RemoveMember(r.Context(), chatID(r), callerID(r), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (a *API) handleAddAdmin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[memberRequest](r)
	if err != nil {
		writeError(w, err)
		return
	}
	chat, err := a.chats.AddAdmin(r.Context(), chatID(r), callerID(r), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (a *API) handleRemoveAdmin(w http.ResponseWriter, r *http.Request) {
	user := domain.UserID(mux.Vars(r)["user"])
	chat, err := a.chats.RemoveAdmin(r.Context(), chatID(r), callerID(r), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (a *API) handleResetUnread(w http.ResponseWriter, r *http.Request) {
	chat, err := a.chats.ResetUnread(r.Context(), chatID(r), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}
