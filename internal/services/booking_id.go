package services

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const bookingIDRandomLength = 6

var bookingIDAlphabet = []rune("0123456789abcdefghijklmnopqrstuvwxyz")

// generateBookingID returns "BK" followed by the base-36 millisecond
// timestamp and six random base-36 characters, upper-cased.
func generateBookingID(now time.Time) (string, error) {
	b := make([]rune, bookingIDRandomLength)
	base := big.NewInt(int64(len(bookingIDAlphabet)))
	for i := 0; i < bookingIDRandomLength; i++ {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		b[i] = bookingIDAlphabet[n.Int64()]
	}
	return "BK" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)+string(b)), nil
}
