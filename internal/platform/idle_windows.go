package platform

import (
	"fmt"
	"syscall"
	"time"
	"unsafe"
)

type idleProvider struct {
	getLastInputInfo *syscall.LazyProc
	getTickCount64   *syscall.LazyProc
}

type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

func newIdleProvider() IdleProvider {
	user32 := syscall.NewLazyDLL("user32.dll")
	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	return &idleProvider{
		getLastInputInfo: user32.NewProc("GetLastInputInfo"),
		getTickCount64:   kernel32.NewProc("GetTickCount64"),
	}
}

func (provider *idleProvider) IdleDuration() (time.Duration, error) {
	info := lastInputInfo{cbSize: uint32(unsafe.Sizeof(lastInputInfo{}))}

	result, _, err := provider.getLastInputInfo.Call(uintptr(unsafe.Pointer(&info)))
	if result == 0 {
		if err != nil {
			return 0, fmt.Errorf("get last input info: %w", err)
		}
		return 0, fmt.Errorf("get last input info: unknown error")
	}

	tickResult, _, tickErr := provider.getTickCount64.Call()
	if tickResult == 0 && tickErr != nil {
		return 0, fmt.Errorf("get tick count: %w", tickErr)
	}

	idleMillis := uint64(tickResult) - uint64(info.dwTime)
	return time.Duration(idleMillis) * time.Millisecond, nil
}
