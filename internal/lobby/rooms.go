package lobby

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"cardtable-online/internal/game"
)

// Room lifecycle states.
type RoomState string

const (
	RoomWaiting RoomState = "waiting"
	RoomInGame  RoomState = "in_game"
)

// Per-player readiness states.
type PlayerState string

const (
	PlayerNotPrepared PlayerState = "not_prepared"
	PlayerPrepared    PlayerState = "prepared"
)

// Player limit bounds.
const (
	MinPlayerLimit = 2
	MaxPlayerLimit = 8
)

// Summary is one row of room_list.
type Summary struct {
	ID          uint32    `json:"id"`
	Name        string    `json:"name"`
	State       RoomState `json:"state"`
	PlayerCount int       `json:"player_count"`
	PlayerLimit int       `json:"player_limit"`
}

// PlayerView is one member of a room detail.
type PlayerView struct {
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	State    PlayerState `json:"state"`
	IsHost   bool        `json:"is_host"`
}

// Detail is the full room payload returned by the room mutations.
type Detail struct {
	ID          uint32       `json:"id"`
	Name        string       `json:"name"`
	State       RoomState    `json:"state"`
	HostID      int64        `json:"host_id"`
	PlayerLimit int          `json:"player_limit"`
	Players     []PlayerView `json:"players"`
}

type member struct {
	userID   int64
	username string
	prepared bool
}

type room struct {
	id          uint32
	name        string
	state       RoomState
	hostID      int64
	playerLimit int
	players     []*member // join order; players[0] is the host
	round       *game.Round
}

// Rooms is the room registry. One mutex guards all three indexes and the id
// counter; every operation holds it end-to-end.
type Rooms struct {
	mu     sync.Mutex
	byID   map[uint32]*room
	byName map[string]uint32
	byUser map[int64]uint32
	nextID uint32
}

// NewRooms creates an empty room registry.
func NewRooms() *Rooms {
	return &Rooms{
		byID:   make(map[uint32]*room),
		byName: make(map[string]uint32),
		byUser: make(map[int64]uint32),
	}
}

// List returns a snapshot of all rooms.
func (r *Rooms) List() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Summary, 0, len(r.byID))
	for _, rm := range r.byID {
		out = append(out, Summary{
			ID:          rm.id,
			Name:        rm.name,
			State:       rm.state,
			PlayerCount: len(rm.players),
			PlayerLimit: rm.playerLimit,
		})
	}
	return out
}

// Create makes a room with the caller as sole player and host. A nil name
// auto-generates one from the new room id.
func (r *Rooms) Create(userID int64, username string, name *string, playerLimit int) (Detail, error) {
	if userID == 0 {
		return Detail{}, ErrNotLoggedIn
	}
	if username == "" {
		return Detail{}, ErrMissingUsername
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return Detail{}, ErrInvalidRoomName
		}
		name = &trimmed
	}
	if playerLimit < MinPlayerLimit || playerLimit > MaxPlayerLimit {
		return Detail{}, ErrInvalidPlayerLimit
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, inRoom := r.byUser[userID]; inRoom {
		return Detail{}, ErrAlreadyInRoom
	}
	if name != nil {
		if _, taken := r.byName[*name]; taken {
			return Detail{}, ErrRoomNameExists
		}
	}

	r.nextID++
	id := r.nextID

	roomName := ""
	if name != nil {
		roomName = *name
	} else {
		roomName = fmt.Sprintf("Room %d", id)
		for n := 2; ; n++ {
			if _, taken := r.byName[roomName]; !taken {
				break
			}
			roomName = fmt.Sprintf("Room %d-%d", id, n)
		}
	}

	rm := &room{
		id:          id,
		name:        roomName,
		state:       RoomWaiting,
		hostID:      userID,
		playerLimit: playerLimit,
		players:     []*member{{userID: userID, username: username}},
	}
	r.byID[id] = rm
	r.byName[roomName] = id
	r.byUser[userID] = id

	return rm.detail(), nil
}

// Join appends the caller to a waiting room.
func (r *Rooms) Join(userID int64, username string, roomID uint32) (Detail, error) {
	if userID == 0 {
		return Detail{}, ErrNotLoggedIn
	}
	if username == "" {
		return Detail{}, ErrMissingUsername
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, inRoom := r.byUser[userID]; inRoom {
		return Detail{}, ErrAlreadyInRoom
	}
	rm, ok := r.byID[roomID]
	if !ok {
		return Detail{}, ErrRoomNotFound
	}
	if rm.state == RoomInGame {
		return Detail{}, ErrRoomInProgress
	}
	if len(rm.players) >= rm.playerLimit {
		return Detail{}, ErrRoomFull
	}

	rm.players = append(rm.players, &member{userID: userID, username: username})
	r.byUser[userID] = roomID

	return rm.detail(), nil
}

// Leave removes the caller from their room, migrating the host to the
// next-oldest member and deleting the room when it empties. Leaving an
// in-progress room is permitted.
func (r *Rooms) Leave(userID int64) (uint32, error) {
	if userID == 0 {
		return 0, ErrNotLoggedIn
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, ok := r.byUser[userID]
	if !ok {
		return 0, ErrNotInRoom
	}
	r.removeFromRoomLocked(userID, roomID)
	return roomID, nil
}

func (r *Rooms) removeFromRoomLocked(userID int64, roomID uint32) {
	rm, ok := r.byID[roomID]
	if !ok {
		delete(r.byUser, userID)
		return
	}

	for i, m := range rm.players {
		if m.userID == userID {
			rm.players = append(rm.players[:i], rm.players[i+1:]...)
			break
		}
	}
	delete(r.byUser, userID)

	if len(rm.players) == 0 {
		delete(r.byID, roomID)
		delete(r.byName, rm.name)
		return
	}
	if rm.hostID == userID {
		rm.hostID = rm.players[0].userID
	}
}

// SetPrepared sets the caller's readiness. Readiness toggles are only
// accepted while the room is waiting.
func (r *Rooms) SetPrepared(userID int64, prepared bool) (Detail, error) {
	if userID == 0 {
		return Detail{}, ErrNotLoggedIn
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rm, m, err := r.memberLocked(userID)
	if err != nil {
		return Detail{}, err
	}
	if rm.state == RoomInGame {
		return Detail{}, ErrRoomInProgress
	}

	m.prepared = prepared
	return rm.detail(), nil
}

// Start transitions the caller's room to in_game. Only the host may start,
// and only with every player prepared. A round sized by the player limit is
// attached with the members seated in join order.
func (r *Rooms) Start(userID int64) (Detail, error) {
	if userID == 0 {
		return Detail{}, ErrNotLoggedIn
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rm, _, err := r.memberLocked(userID)
	if err != nil {
		return Detail{}, err
	}
	if rm.state == RoomInGame {
		return Detail{}, ErrRoomInProgress
	}
	if rm.hostID != userID {
		return Detail{}, ErrNotHost
	}
	for _, m := range rm.players {
		if !m.prepared {
			return Detail{}, ErrPlayersNotReady
		}
	}

	round, err := game.NewRound(rm.playerLimit)
	if err != nil {
		return Detail{}, err
	}
	for seat, m := range rm.players {
		if err := round.SeatPlayer(m.userID, seat); err != nil {
			return Detail{}, err
		}
	}
	if round.Table().SeatedCount() >= game.MinPlayers {
		if err := round.StartRound(); err != nil {
			return Detail{}, err
		}
	}

	rm.round = round
	rm.state = RoomInGame
	return rm.detail(), nil
}

// UpdateConfig lets the host change the player limit while waiting. The
// limit cannot drop below the current member count.
func (r *Rooms) UpdateConfig(userID int64, playerLimit int) (Detail, error) {
	if userID == 0 {
		return Detail{}, ErrNotLoggedIn
	}
	if playerLimit < MinPlayerLimit || playerLimit > MaxPlayerLimit {
		return Detail{}, ErrInvalidPlayerLimit
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rm, _, err := r.memberLocked(userID)
	if err != nil {
		return Detail{}, err
	}
	if rm.state == RoomInGame {
		return Detail{}, ErrRoomInProgress
	}
	if rm.hostID != userID {
		return Detail{}, ErrNotHost
	}
	if playerLimit < len(rm.players) {
		return Detail{}, ErrInvalidPlayerLimit
	}

	rm.playerLimit = playerLimit
	return rm.detail(), nil
}

// HandleDisconnect evicts the user from any room they occupy, with the same
// host-migration and auto-delete semantics as Leave. Errors are swallowed;
// teardown must not fail.
func (r *Rooms) HandleDisconnect(userID int64) {
	if userID == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, ok := r.byUser[userID]
	if !ok {
		return
	}
	r.removeFromRoomLocked(userID, roomID)
	log.Printf("lobby: user %d evicted from room %d on disconnect", userID, roomID)
}

// RoomOf returns the room id the user occupies.
func (r *Rooms) RoomOf(userID int64) (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byUser[userID]
	return id, ok
}

// Detail returns a snapshot of one room.
func (r *Rooms) Detail(roomID uint32) (Detail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.byID[roomID]
	if !ok {
		return Detail{}, ErrRoomNotFound
	}
	return rm.detail(), nil
}

// Round returns the active round of an in-game room, or nil.
func (r *Rooms) Round(roomID uint32) *game.Round {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.byID[roomID]
	if !ok {
		return nil
	}
	return rm.round
}

func (r *Rooms) memberLocked(userID int64) (*room, *member, error) {
	roomID, ok := r.byUser[userID]
	if !ok {
		return nil, nil, ErrNotInRoom
	}
	rm, ok := r.byID[roomID]
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	for _, m := range rm.players {
		if m.userID == userID {
			return rm, m, nil
		}
	}
	return nil, nil, ErrNotInRoom
}

func (rm *room) detail() Detail {
	players := make([]PlayerView, len(rm.players))
	for i, m := range rm.players {
		state := PlayerNotPrepared
		if m.prepared {
			state = PlayerPrepared
		}
		players[i] = PlayerView{
			UserID:   m.userID,
			Username: m.username,
			State:    state,
			IsHost:   m.userID == rm.hostID,
		}
	}
	return Detail{
		ID:          rm.id,
		Name:        rm.name,
		State:       rm.state,
		HostID:      rm.hostID,
		PlayerLimit: rm.playerLimit,
		Players:     players,
	}
}
