package pkg

import "github.com/google/uuid"

// roomNamespace - namespace for name-based room ids.
var roomNamespace = uuid.MustParse("6f1c7a52-3f0e-4f4e-9a53-5d4f0c2b7e11")

// GenerateConnectionID - generates a new unique id for an accepted connection.
func GenerateConnectionID() string {
	return uuid.NewString()
}

// GenerateRoomID - derives the room id from the ids of the two paired connections.
// The same ordered pair always yields the same id; distinct pairs yield distinct ids.
func GenerateRoomID(playerX, playerO string) string {
	return uuid.NewSHA1(roomNamespace, []byte(playerX+"\x00"+playerO)).String()
}
