package httpapi

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"zchat/domain"
	"zchat/errors"
	"zchat/services"
)

const maxUploadBytes = 8 << 20

type profileUpdateRequest struct {
	FullName    *string    `json:"fullName"`
	Bio         *string    `json:"bio"`
	Gender      *string    `json:"gender"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Privacy     *string    `json:"privacy"`
	Notify      *bool      `json:"notifications"`
}

type friendResponseRequest struct {
	Accepted bool `json:"accepted"`
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := a.users.Profile(r.Context(), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[profileUpdateRequest](r)
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := a.users.UpdateProfile(r.Context(), callerID(r), services.ProfilePatch{
		FullName:    req.FullName,
		Bio:         req.Bio,
		Gender:      req.Gender,
		DateOfBirth: req.DateOfBirth,
		Privacy:     req.Privacy,
		Notify:      req.Notify,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	a.handleUpload(w, r, a.users.UploadAvatar)
}

func (a *API) handleUploadCover(w http.ResponseWriter, r *http.Request) {
	a.handleUpload(w, r, a.users.UploadCover)
}

func (a *API) handleUpload(w http.ResponseWriter, r *http.Request,
	save func(ctx context.Context, id domain.UserID, data []byte) (domain.User, error)) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, errors.ErrUnsupportedUpload)
		return
	}
	user, err := save(r.Context(), callerID(r), data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleFriends(w http.ResponseWriter, r *http.Request) {
	ids, err := a.friends.FriendsOf(r.Context(), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	profiles := make([]domain.PublicUser, 0, len(ids))
	for _, id := range ids {
		u, err := a.users.Profile(r.Context(), id)
		if err != nil {
			continue
		}
		profiles = append(profiles, u.Public())
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (a *API) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	results, err := a.users.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []domain.PublicUser{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (a *API) handleFriendRequest(w http.ResponseWriter, r *http.Request) {
	target := domain.UserID(mux.Vars(r)["id"])
	if err := a.friends.SendRequest(r.Context(), callerID(r), target); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) handleFriendResponse(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[friendResponseRequest](r)
	if err != nil {
		writeError(w, err)
		return
	}
	requester := domain.UserID(mux.Vars(r)["id"])
	if err := a.friends.Respond(r.Context(), callerID(r), requester, req.Accepted); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) handleBlock(w http.ResponseWriter, r *http.Request) {
	target := domain.UserID(mux.Vars(r)["id"])
	if err := a.friends.Block(r.Context(), callerID(r), target); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
