//go:build darwin

package hotkey

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>

static int isTrusted(void) {
    return AXIsProcessTrusted() ? 1 : 0;
}

static void promptTrust(void) {
    const void *keys[] = { kAXTrustedCheckOptionPrompt };
    const void *values[] = { kCFBooleanTrue };
    CFDictionaryRef opts = CFDictionaryCreate(kCFAllocatorDefault, keys, values, 1,
        &kCFCopyStringDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
    AXIsProcessTrustedWithOptions(opts);
    CFRelease(opts);
}
*/
import "C"

// accessibility проверяет доступ через Accessibility API.
type accessibility struct{}

// NewAuthorizer возвращает проверку Accessibility.
func NewAuthorizer() Authorizer {
	return accessibility{}
}

func (accessibility) Trusted() bool {
	return C.isTrusted() == 1
}

func (accessibility) Prompt() {
	C.promptTrust()
}
