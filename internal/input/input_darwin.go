//go:build darwin

package input

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework Foundation -framework AppKit
#import <ApplicationServices/ApplicationServices.h>
#import <AppKit/AppKit.h>

static int postUnicode(const UniChar *chars, int n) {
    CGEventRef keyDown = CGEventCreateKeyboardEvent(NULL, 0, true);
    CGEventRef keyUp = CGEventCreateKeyboardEvent(NULL, 0, false);
    if (keyDown == NULL || keyUp == NULL) {
        if (keyDown) CFRelease(keyDown);
        if (keyUp) CFRelease(keyUp);
        return -1;
    }

    CGEventKeyboardSetUnicodeString(keyDown, n, chars);
    CGEventKeyboardSetUnicodeString(keyUp, n, chars);

    CGEventPost(kCGHIDEventTap, keyDown);
    CGEventPost(kCGHIDEventTap, keyUp);

    CFRelease(keyDown);
    CFRelease(keyUp);
    return 0;
}

static int frontmostPID(void) {
    @autoreleasepool {
        NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
        return app ? (int)[app processIdentifier] : 0;
    }
}

static void activatePID(int pid) {
    @autoreleasepool {
        NSRunningApplication *app = [NSRunningApplication runningApplicationWithProcessIdentifier:pid];
        [app activateWithOptions:NSApplicationActivateIgnoringOtherApps];
    }
}
*/
import "C"

import (
	"errors"
	"unsafe"

	"github.com/rs/zerolog"
)

type darwinPoster struct{}

func newPoster() Poster {
	return darwinPoster{}
}

func (darwinPoster) Post(units []uint16) error {
	if len(units) == 0 {
		return nil
	}
	if C.postUnicode((*C.UniChar)(unsafe.Pointer(&units[0])), C.int(len(units))) != 0 {
		return errors.New("CGEventCreateKeyboardEvent failed")
	}
	return nil
}

// darwinFocus запоминает PID активного приложения.
type darwinFocus struct {
	log zerolog.Logger
}

func newFocus(log zerolog.Logger) Focus {
	return darwinFocus{log: log}
}

func (darwinFocus) Capture() Window {
	return Window(C.frontmostPID())
}

func (f darwinFocus) Restore(w Window) {
	if w == 0 {
		return
	}
	if Window(C.frontmostPID()) == w {
		return
	}
	f.log.Debug().Uint64("pid", uint64(w)).Msg("restoring focus")
	C.activatePID(C.int(w))
}
