package usecase

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/pkg"
)

type playerRepo interface {
	Register(id, rawName string) (*entity.Player, error)
	GetByID(id string) (*entity.Player, error)
	Assign(id, roomID string, mark entity.Mark) error
	ClearRoom(id string) error
	Unregister(id string) (*entity.Player, error)
	Count() int
}

type roomRepo interface {
	Create(room *entity.Room) error
	GetByID(id string) (*entity.Room, error)
	DeleteByID(id string)
	Count() int
}

type waitingQueue interface {
	Peek() (string, bool)
	Set(id string)
	Pop() (string, bool)
	Remove(id string) bool
	Len() int
}

type Stats struct {
	Players int `json:"players"`
	Rooms   int `json:"rooms"`
	Waiting int `json:"waiting"`
}

// MatchController - owns the session registry, the waiting queue and the room store.
// It is not safe for concurrent use, callers serialize access (see Dispatcher).
type MatchController struct {
	logger *slog.Logger

	playerRepo playerRepo
	roomRepo   roomRepo
	queue      waitingQueue

	maxMessageLength int
	now              func() time.Time
}

func NewMatchController(
	logger *slog.Logger,
	playerRepo playerRepo,
	roomRepo roomRepo,
	queue waitingQueue,
	maxMessageLength int,
) *MatchController {
	return &MatchController{
		logger: logger.With("component", "match"),

		playerRepo: playerRepo,
		roomRepo:   roomRepo,
		queue:      queue,

		maxMessageLength: maxMessageLength,
		now:              time.Now,
	}
}

// Connect - registers a new connection and either pairs it with the waiting one or queues it.
func (that *MatchController) Connect(connID, rawName string) Outcome {
	log := that.logger.With("method", "Connect", "conn_id", connID)

	player, err := that.playerRepo.Register(connID, rawName)
	if err != nil {
		log.Warn("failed to register player", "error", err)
		return Outcome{}
	}

	log.Info("player connected", "name", player.Name)

	return that.enqueue(log, player)
}

// Disconnect - forgets the connection, clears it from the queue or tears down its room.
func (that *MatchController) Disconnect(connID string) Outcome {
	log := that.logger.With("method", "Disconnect", "conn_id", connID)

	player, err := that.playerRepo.Unregister(connID)
	if err != nil {
		log.Debug("disconnect of unknown connection", "error", err)
		return Outcome{}
	}

	if that.queue.Remove(connID) {
		log.Info("waiting player left")
		return Outcome{}
	}

	if !player.InRoom() {
		return Outcome{}
	}

	var out Outcome

	room, err := that.roomRepo.GetByID(player.RoomID)
	if err != nil {
		log.Warn("room of leaving player is gone", "room_id", player.RoomID, "error", err)
		return out
	}

	that.roomRepo.DeleteByID(room.ID)
	out.Events = append(out.Events, that.event(entity.MatchClosed, room))

	log.Info("room closed", "room_id", room.ID)

	opponentID, ok := room.Opponent(connID)
	if !ok {
		return out
	}

	opponent, err := that.playerRepo.GetByID(opponentID)
	if err != nil {
		// both sides already gone
		return out
	}

	out.toConnection(opponentID, EventOpponentLeft, nil)

	if err = that.playerRepo.ClearRoom(opponentID); err != nil {
		log.Error("failed to clear opponent room", "opponent_id", opponentID, "error", err)
		return out
	}

	out.merge(that.enqueue(log.With("opponent_id", opponentID), opponent))

	return out
}

// MakeMove - validates and applies a move. A nil index is treated as an invalid cell.
func (that *MatchController) MakeMove(connID string, index *int) Outcome {
	log := that.logger.With("method", "MakeMove", "conn_id", connID)

	var out Outcome

	player, err := that.playerRepo.GetByID(connID)
	if err != nil {
		return that.reject(log, connID, apperror.ErrPlayerNotFound)
	}

	room, err := that.roomOf(player)
	if err != nil {
		return that.reject(log, connID, err)
	}

	cell := -1
	if index != nil {
		cell = *index
	}

	if err = room.MakeMove(player.Mark, cell); err != nil {
		return that.reject(log, connID, err)
	}

	out.toRoom(room, EventUpdateGame, room.State())
	out.Events = append(out.Events, that.event(entity.MoveApplied, room))

	if room.Over {
		log.Info("game finished", "room_id", room.ID, "result", room.Result)
		out.Events = append(out.Events, that.event(entity.MatchFinished, room))
	}

	return out
}

// SendMessage - relays a chat line to both members of the sender's room.
func (that *MatchController) SendMessage(connID, text string) Outcome {
	log := that.logger.With("method", "SendMessage", "conn_id", connID)

	var out Outcome

	player, err := that.playerRepo.GetByID(connID)
	if err != nil {
		log.Debug("chat from unknown connection dropped")
		return out
	}

	room, err := that.roomOf(player)
	if err != nil {
		return that.reject(log, connID, apperror.ErrChatNotInGame)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return out
	}

	out.toRoom(room, EventNewMessage, ChatPayload{
		Sender: player.Name,
		Text:   entity.Truncate(text, that.maxMessageLength),
	})

	return out
}

func (that *MatchController) Stats() Stats {
	return Stats{
		Players: that.playerRepo.Count(),
		Rooms:   that.roomRepo.Count(),
		Waiting: that.queue.Len(),
	}
}

// enqueue - pairs player with the waiting connection, or makes it the waiting one.
func (that *MatchController) enqueue(log *slog.Logger, player *entity.Player) Outcome {
	waitingID, ok := that.queue.Peek()
	if ok && waitingID != player.ID {
		that.queue.Pop()

		out, err := that.pair(waitingID, player)
		if err == nil {
			return out
		}

		log.Error("failed to pair players", "waiting_id", waitingID, "error", err)

		// the waiting player keeps its slot; the newcomer is told the pairing failed
		if that.canWait(waitingID) {
			that.queue.Set(waitingID)
			return that.reject(log, player.ID, err)
		}
	}

	var out Outcome

	that.queue.Set(player.ID)
	out.toConnection(player.ID, EventWaitForOpponent, nil)

	log.Info("player is waiting for an opponent")

	return out
}

func (that *MatchController) pair(waitingID string, joining *entity.Player) (Outcome, error) {
	waiting, err := that.playerRepo.GetByID(waitingID)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to get waiting player: %w", err)
	}

	room := entity.NewRoom(pkg.GenerateRoomID(waiting.ID, joining.ID), waiting, joining)
	if err = that.roomRepo.Create(room); err != nil {
		return Outcome{}, fmt.Errorf("failed to create room: %w", err)
	}

	if err = that.playerRepo.Assign(waiting.ID, room.ID, entity.MarkX); err != nil {
		that.roomRepo.DeleteByID(room.ID)
		return Outcome{}, fmt.Errorf("failed to assign X: %w", err)
	}

	if err = that.playerRepo.Assign(joining.ID, room.ID, entity.MarkO); err != nil {
		_ = that.playerRepo.ClearRoom(waiting.ID)
		that.roomRepo.DeleteByID(room.ID)
		return Outcome{}, fmt.Errorf("failed to assign O: %w", err)
	}

	var out Outcome

	out.toConnection(waiting.ID, EventGameStart, GameStartPayload{Symbol: entity.MarkX, OpponentName: joining.Name})
	out.toConnection(joining.ID, EventGameStart, GameStartPayload{Symbol: entity.MarkO, OpponentName: waiting.Name})
	out.toRoom(room, EventUpdateGame, room.State())
	out.Events = append(out.Events, that.event(entity.MatchStarted, room))

	that.logger.Info("game started", "room_id", room.ID, "player_x", waiting.ID, "player_o", joining.ID)

	return out, nil
}

func (that *MatchController) canWait(connID string) bool {
	player, err := that.playerRepo.GetByID(connID)
	return err == nil && !player.InRoom()
}

func (that *MatchController) roomOf(player *entity.Player) (*entity.Room, error) {
	if !player.InRoom() {
		return nil, apperror.ErrNotInGame
	}

	room, err := that.roomRepo.GetByID(player.RoomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrNotInGame, err)
	}

	return room, nil
}

func (that *MatchController) reject(log *slog.Logger, connID string, err error) Outcome {
	var out Outcome

	log.Debug("request rejected", "error", err)
	out.toConnection(connID, EventGameError, GameErrorPayload{Message: apperror.Message(err)})

	return out
}

func (that *MatchController) event(kind entity.MatchEventKind, room *entity.Room) entity.MatchEvent {
	return entity.MatchEvent{
		Kind:       kind,
		Room:       room.State(),
		OccurredAt: that.now(),
	}
}
