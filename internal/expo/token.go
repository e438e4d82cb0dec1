package expo

import "regexp"

// pushTokenPattern is the wrapper Expo puts around the device identifier,
// e.g. ExponentPushToken[xxxxxxxxxxxxxxxxxxxxxx].
var pushTokenPattern = regexp.MustCompile(`^(?:ExponentPushToken|ExpoPushToken)\[[^\[\]]+\]$`)

// IsPushToken reports whether s is a well-formed Expo push token.
func IsPushToken(s string) bool {
	return s != "" && pushTokenPattern.MatchString(s)
}
