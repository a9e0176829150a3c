package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/repository"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/usecase"
)

type statsSource interface {
	Stats() usecase.Stats
}

type snapshotRepo interface {
	GetByID(ctx context.Context, id string) (*entity.RoomState, error)
	List(ctx context.Context) ([]string, error)
}

type handlers struct {
	logger       *slog.Logger
	stats        statsSource
	snapshotRepo snapshotRepo
}

type roomsResponse struct {
	Rooms []string `json:"rooms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *handlers) Stats(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, that.stats.Stats())
}

func (that *handlers) Rooms(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "Rooms")

	if that.snapshotRepo == nil {
		that.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "room snapshots are disabled"})
		return
	}

	ids, err := that.snapshotRepo.List(r.Context())
	if err != nil {
		log.Error("failed to list rooms", "error", err)
		that.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list rooms"})
		return
	}

	if ids == nil {
		ids = []string{}
	}

	that.writeJSON(w, http.StatusOK, roomsResponse{Rooms: ids})
}

func (that *handlers) Room(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "Room")

	if that.snapshotRepo == nil {
		that.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "room snapshots are disabled"})
		return
	}

	id := mux.Vars(r)["id"]

	state, err := that.snapshotRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			that.writeJSON(w, http.StatusNotFound, errorResponse{Error: "room not found"})
			return
		}

		log.Error("failed to get room", "room_id", id, "error", err)
		that.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to get room"})
		return
	}

	that.writeJSON(w, http.StatusOK, state)
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
