package server

import (
	"cardtable-online/internal/lobby"
	"cardtable-online/internal/rpc"
)

// Request payloads. Unknown fields are ignored by the dispatcher thunks.

type pingRequest struct{}

type setNameRequest struct {
	Nickname string `json:"nickname"`
}

type roomCreateRequest struct {
	Name        *string `json:"name"`
	PlayerLimit int     `json:"player_limit"`
}

type roomJoinRequest struct {
	RoomID uint32 `json:"room_id"`
}

type roomLeaveRequest struct{}

type roomReadyRequest struct {
	Prepared bool `json:"prepared"`
}

type roomStartRequest struct{}

type roomConfigUpdateRequest struct {
	PlayerLimit int `json:"player_limit"`
}

type roomListRequest struct{}

// Response payloads not already provided by the lobby views.

type roomListResponse struct {
	Rooms []lobby.Summary `json:"rooms"`
}

type roomLeaveResponse struct {
	RoomID uint32 `json:"room_id"`
}

// registerHandlers installs the closed method set. Runs once at startup.
func (s *Server) registerHandlers() error {
	if err := rpc.Register(s.dispatcher, "ping", s.handlePing); err != nil {
		return err
	}
	if err := rpc.Register(s.dispatcher, "user_set_name", s.handleSetName); err != nil {
		return err
	}
	if err := rpc.Register(s.dispatcher, "room_list", s.handleRoomList); err != nil {
		return err
	}
	if err := rpc.Register(s.dispatcher, "room_create", s.handleRoomCreate); err != nil {
		return err
	}
	if err := rpc.Register(s.dispatcher, "room_join", s.handleRoomJoin); err != nil {
		return err
	}
	if err := rpc.Register(s.dispatcher, "room_leave", s.handleRoomLeave); err != nil {
		return err
	}
	if err := rpc.Register(s.dispatcher, "room_ready", s.handleRoomReady); err != nil {
		return err
	}
	if err := rpc.Register(s.dispatcher, "room_start", s.handleRoomStart); err != nil {
		return err
	}
	return rpc.Register(s.dispatcher, "room_config_update", s.handleRoomConfigUpdate)
}

func (s *Server) handlePing(sess *rpc.Session, req pingRequest) (rpc.SystemNotice, error) {
	return rpc.SystemNotice{Code: "pong", Message: "Heartbeat ok"}, nil
}

func (s *Server) handleSetName(sess *rpc.Session, req setNameRequest) (lobby.Identity, error) {
	identity, err := s.users.SetName(sess.UserID, sess.UserName, req.Nickname)
	if err != nil {
		return lobby.Identity{}, err
	}
	sess.UserID = identity.ID
	sess.UserName = identity.Username
	return identity, nil
}

func (s *Server) handleRoomList(sess *rpc.Session, req roomListRequest) (roomListResponse, error) {
	return roomListResponse{Rooms: s.rooms.List()}, nil
}

func (s *Server) handleRoomCreate(sess *rpc.Session, req roomCreateRequest) (lobby.Detail, error) {
	detail, err := s.rooms.Create(sess.UserID, sess.UserName, req.Name, req.PlayerLimit)
	if err != nil {
		return lobby.Detail{}, err
	}
	sess.RoomID = detail.ID
	return detail, nil
}

func (s *Server) handleRoomJoin(sess *rpc.Session, req roomJoinRequest) (lobby.Detail, error) {
	detail, err := s.rooms.Join(sess.UserID, sess.UserName, req.RoomID)
	if err != nil {
		return lobby.Detail{}, err
	}
	sess.RoomID = detail.ID
	return detail, nil
}

func (s *Server) handleRoomLeave(sess *rpc.Session, req roomLeaveRequest) (roomLeaveResponse, error) {
	roomID, err := s.rooms.Leave(sess.UserID)
	if err != nil {
		return roomLeaveResponse{}, err
	}
	sess.RoomID = 0
	return roomLeaveResponse{RoomID: roomID}, nil
}

func (s *Server) handleRoomReady(sess *rpc.Session, req roomReadyRequest) (lobby.Detail, error) {
	return s.rooms.SetPrepared(sess.UserID, req.Prepared)
}

func (s *Server) handleRoomStart(sess *rpc.Session, req roomStartRequest) (lobby.Detail, error) {
	return s.rooms.Start(sess.UserID)
}

func (s *Server) handleRoomConfigUpdate(sess *rpc.Session, req roomConfigUpdateRequest) (lobby.Detail, error) {
	return s.rooms.UpdateConfig(sess.UserID, req.PlayerLimit)
}
