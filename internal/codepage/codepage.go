// Package codepage inspects the console code page the MQ client will report.
//
// The MQ client sends the process code page during channel negotiation. A
// Windows console running code page 65001 (UTF-8) is not accepted by most queue
// managers and fails with MQRC_CHANNEL_CONFIG_ERROR (2539).
package codepage

import "fmt"

// UTF8 is the Windows code page identifier for UTF-8.
const UTF8 uint32 = 65001

// Unsupported reports whether the console code page is known to break MQ
// channel negotiation, along with the code page in use.
func Unsupported() (uint32, bool) {
	cp, ok := current()
	if !ok {
		return 0, false
	}
	return cp, cp == UTF8
}

// Warning returns the message logged when Unsupported reports true.
func Warning(cp uint32) string {
	return fmt.Sprintf("This shell uses codepage %d, which is not supported by MQ, you will likely encounter error: 2539: MQRC_CHANNEL_CONFIG_ERROR. "+
		"Use `chcp 437` in your shell to switch to a compatible codepage.", cp)
}
