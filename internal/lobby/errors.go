package lobby

// Error names double as the wire messages of -32000 error frames.
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrUserExists      Error = "UserExists"
	ErrUserNotFound    Error = "UserNotFound"
	ErrInvalidUsername Error = "InvalidUsername"

	ErrNotLoggedIn        Error = "NotLoggedIn"
	ErrMissingUsername    Error = "MissingUsername"
	ErrAlreadyInRoom      Error = "AlreadyInRoom"
	ErrRoomNameExists     Error = "RoomNameExists"
	ErrInvalidRoomName    Error = "InvalidRoomName"
	ErrInvalidPlayerLimit Error = "InvalidPlayerLimit"
	ErrRoomNotFound       Error = "RoomNotFound"
	ErrRoomFull           Error = "RoomFull"
	ErrRoomInProgress     Error = "RoomInProgress"
	ErrNotInRoom          Error = "NotInRoom"
	ErrNotHost            Error = "NotHost"
	ErrPlayersNotReady    Error = "PlayersNotReady"
)
