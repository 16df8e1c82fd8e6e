package hotplug

import (
	"context"
	"log"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

type (
	cfAllocatorRef   uintptr
	cfIndex          int64
	cfNumberRef      uintptr
	cfRunLoopRef     uintptr
	cfStringRef      uintptr
	cfTypeRef        uintptr
	cfStringEncoding uint32

	hidDeviceRef  uintptr
	hidManagerRef uintptr
	ioOptionBits  uint32
	ioReturn      int32
)

const (
	allocatorDefault cfAllocatorRef   = 0
	numberSInt32     cfIndex          = 3
	encodingUTF8     cfStringEncoding = 0x08000100
	optionsNone      ioOptionBits     = 0
	ioSuccess        ioReturn         = 0
)

var (
	cfNumberGetValue        func(number cfNumberRef, theType cfIndex, valuePtr unsafe.Pointer) bool
	cfRelease               func(cf cfTypeRef)
	cfRunLoopGetCurrent     func() cfRunLoopRef
	cfRunLoopRun            func()
	cfRunLoopStop           func(runLoop cfRunLoopRef)
	cfStringCreateWithBytes func(alloc cfAllocatorRef, bytes []byte, numBytes cfIndex, encoding cfStringEncoding, external bool) cfStringRef

	hidDeviceGetProperty      func(device hidDeviceRef, key cfStringRef) cfTypeRef
	hidManagerCreate          func(alloc cfAllocatorRef, options ioOptionBits) hidManagerRef
	hidManagerOpen            func(manager hidManagerRef, options ioOptionBits) ioReturn
	hidManagerClose           func(manager hidManagerRef, options ioOptionBits) ioReturn
	hidManagerSetMatching     func(manager hidManagerRef, matching uintptr)
	hidManagerRegisterArrival func(manager hidManagerRef, callback uintptr, context uintptr)
	hidManagerSchedule        func(manager hidManagerRef, runLoop cfRunLoopRef, mode cfStringRef)

	runLoopDefaultMode uintptr
)

// loadFrameworks binds CoreFoundation and IOKit. It runs once, on first Watch.
var loadFrameworks = sync.OnceValue(func() error {
	cf, err := purego.Dlopen("/System/Library/Frameworks/CoreFoundation.framework/CoreFoundation", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
	if err != nil {
		return err
	}
	purego.RegisterLibFunc(&cfNumberGetValue, cf, "CFNumberGetValue")
	purego.RegisterLibFunc(&cfRelease, cf, "CFRelease")
	purego.RegisterLibFunc(&cfRunLoopGetCurrent, cf, "CFRunLoopGetCurrent")
	purego.RegisterLibFunc(&cfRunLoopRun, cf, "CFRunLoopRun")
	purego.RegisterLibFunc(&cfRunLoopStop, cf, "CFRunLoopStop")
	purego.RegisterLibFunc(&cfStringCreateWithBytes, cf, "CFStringCreateWithBytes")
	if runLoopDefaultMode, err = purego.Dlsym(cf, "kCFRunLoopDefaultMode"); err != nil {
		return err
	}

	iokit, err := purego.Dlopen("/System/Library/Frameworks/IOKit.framework/IOKit", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
	if err != nil {
		return err
	}
	purego.RegisterLibFunc(&hidDeviceGetProperty, iokit, "IOHIDDeviceGetProperty")
	purego.RegisterLibFunc(&hidManagerCreate, iokit, "IOHIDManagerCreate")
	purego.RegisterLibFunc(&hidManagerOpen, iokit, "IOHIDManagerOpen")
	purego.RegisterLibFunc(&hidManagerClose, iokit, "IOHIDManagerClose")
	purego.RegisterLibFunc(&hidManagerSetMatching, iokit, "IOHIDManagerSetDeviceMatching")
	purego.RegisterLibFunc(&hidManagerRegisterArrival, iokit, "IOHIDManagerRegisterDeviceMatchingCallback")
	purego.RegisterLibFunc(&hidManagerSchedule, iokit, "IOHIDManagerScheduleWithRunLoop")
	return nil
})

// watcher is the Go side of one registered arrival callback. IOKit gets
// only its integer handle, never a Go pointer.
type watcher struct {
	ch       chan struct{}
	vendorID uint16
}

var (
	watchersMu sync.Mutex
	watchers   = map[uintptr]*watcher{}
	nextHandle uintptr = 1

	arrivalCallback = purego.NewCallback(onArrival)
)

func onArrival(handle uintptr, _ ioReturn, _ uintptr, dev hidDeviceRef) {
	watchersMu.Lock()
	w := watchers[handle]
	watchersMu.Unlock()
	if w == nil {
		return
	}

	vid, ok := intProperty(dev, "VendorID")
	if !ok || uint16(vid) != w.vendorID {
		return
	}
	pid, _ := intProperty(dev, "ProductID")
	log.Printf("hotplug: device arrived (vendor 0x%04x product 0x%04x)", vid, pid)

	select {
	case w.ch <- struct{}{}:
	default:
	}
}

func intProperty(dev hidDeviceRef, name string) (int32, bool) {
	key := cfStringCreateWithBytes(allocatorDefault, []byte(name), cfIndex(len(name)), encodingUTF8, false)
	if key == 0 {
		return 0, false
	}
	defer cfRelease(cfTypeRef(key))

	prop := hidDeviceGetProperty(dev, key)
	if prop == 0 {
		return 0, false
	}
	var v int32
	if !cfNumberGetValue(cfNumberRef(prop), numberSInt32, unsafe.Pointer(&v)) {
		return 0, false
	}
	return v, true
}

// Watch returns a channel that receives a signal each time a HID device with
// the given vendor ID appears. Waiting costs nothing; IOKit calls back on a
// dedicated run loop thread. The watcher stops when ctx is done. If IOKit
// cannot be loaded the channel never fires.
func Watch(ctx context.Context, vendorID uint16) <-chan struct{} {
	ch := make(chan struct{}, 1)
	if err := loadFrameworks(); err != nil {
		log.Printf("hotplug: IOKit unavailable, relying on polling: %v", err)
		return ch
	}

	watchersMu.Lock()
	handle := nextHandle
	nextHandle++
	watchers[handle] = &watcher{ch: ch, vendorID: vendorID}
	watchersMu.Unlock()

	go func() {
		defer func() {
			watchersMu.Lock()
			delete(watchers, handle)
			watchersMu.Unlock()
		}()

		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		mgr := hidManagerCreate(allocatorDefault, optionsNone)
		if rv := hidManagerOpen(mgr, optionsNone); rv != ioSuccess {
			log.Printf("hotplug: IOHIDManagerOpen failed: 0x%08x", rv)
			cfRelease(cfTypeRef(mgr))
			return
		}
		defer func() {
			hidManagerClose(mgr, optionsNone)
			cfRelease(cfTypeRef(mgr))
		}()

		// Nil matching dictionary: every HID device, filtered in onArrival.
		hidManagerSetMatching(mgr, 0)

		rl := cfRunLoopGetCurrent()
		hidManagerSchedule(mgr, rl, **(**cfStringRef)(unsafe.Pointer(&runLoopDefaultMode)))
		hidManagerRegisterArrival(mgr, arrivalCallback, handle)

		stop := context.AfterFunc(ctx, func() { cfRunLoopStop(rl) })
		defer stop()

		log.Printf("hotplug: watching for vendor 0x%04x", vendorID)
		cfRunLoopRun()
		log.Println("hotplug: stopped")
	}()

	return ch
}
