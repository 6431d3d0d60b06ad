package room

// Identity is the registered name of a connection and the room it occupies.
// An empty Room means the connection is not in any room.
type Identity struct {
	Username string `json:"username"`
	Room     string `json:"room,omitempty"`
}

// InRoom reports whether the identity currently occupies a room.
func (i Identity) InRoom() bool {
	return i.Room != ""
}

// Summary is the room list entry sent to clients.
type Summary struct {
	Name      string `json:"name"`
	UserCount int    `json:"userCount"`
}
