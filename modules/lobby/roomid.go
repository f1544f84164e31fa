package lobby

import (
	"crypto/rand"
	"math/big"
)

// Room codes are short, case-insensitive and typed by hand, so the alphabet
// is uppercase alphanumeric only.
const roomIDChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RoomIDLength is the fixed length of generated room codes.
const RoomIDLength = 6

// GenerateRoomID generates a random room code of the given length.
func GenerateRoomID(length int) (string, error) {
	if length <= 0 {
		length = RoomIDLength
	}

	code := make([]byte, length)
	max := big.NewInt(int64(len(roomIDChars)))

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = roomIDChars[n.Int64()]
	}

	return string(code), nil
}

// IsValidRoomID checks that a room code has the expected length and alphabet.
func IsValidRoomID(id string) bool {
	if len(id) != RoomIDLength {
		return false
	}
	for _, c := range id {
		if !((c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}
