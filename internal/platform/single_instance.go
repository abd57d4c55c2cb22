package platform

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net"
)

// ErrAlreadyRunning indicates another tracker process holds the lock.
var ErrAlreadyRunning = errors.New("instance already running")

// InstanceGuard holds the single-instance lock. Exactly one tracked user
// per machine: a second process would double-log every session.
type InstanceGuard struct {
	listener net.Listener
}

// AcquireSingleInstance binds a loopback port derived from the app name.
// The bind fails while another instance holds it and the OS releases it
// automatically if the process dies.
func AcquireSingleInstance(appName string) (*InstanceGuard, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", lockPort(appName)))
	if err != nil {
		return nil, ErrAlreadyRunning
	}
	return &InstanceGuard{listener: listener}, nil
}

// Release frees the single instance lock.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	return guard.listener.Close()
}

func lockPort(appName string) int {
	const basePort = 24000
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appName))
	return basePort + int(hash.Sum32()%16000)
}
