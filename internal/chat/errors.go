package chat

import "fmt"

var (
	ErrNameTaken       = fmt.Errorf("username is not available")
	ErrRoomExists      = fmt.Errorf("room already exists")
	ErrRoomNotFound    = fmt.Errorf("room not found")
	ErrPeerUnavailable = fmt.Errorf("peer is not connected")
)
