package tuya

import "strconv"

// parseErrorCode renders retcode as a message for Response.Error.
// Devices don't document their retcode assignments beyond zero meaning
// success, so every nonzero code renders generically; callers that
// learn the meaning of a particular code for their device can match on
// Response.RetCode directly instead of parsing this string.
func parseErrorCode(retcode uint32) string {
	return "Error code: " + strconv.FormatUint(uint64(retcode), 10)
}
